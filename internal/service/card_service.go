package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/domain/card"
	"github.com/makkenzo/entitlement-service/internal/domain/license"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/metrics"
	"github.com/makkenzo/entitlement-service/internal/util"
	"github.com/makkenzo/entitlement-service/pkg/pagination"
	"go.uber.org/zap"
)

const (
	MaxIssueCount = 10000
	// issueAttempts bounds how often colliding card numbers are redrawn.
	issueAttempts = 5
)

type CardService struct {
	repo    card.Repository
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCardService(repo card.Repository, clk clock.Clock, m *metrics.Metrics, logger *zap.Logger) *CardService {
	return &CardService{
		repo:    repo,
		clock:   clk,
		metrics: m,
		logger:  logger.Named("CardService"),
	}
}

// Issue creates count unused cards worth days each. Numbers already taken
// in the store are redrawn until every card is stored or attempts run out.
func (s *CardService) Issue(ctx context.Context, count, days int) ([]*card.Card, error) {
	if count < 1 || count > MaxIssueCount {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ierr.ErrValidation, MaxIssueCount)
	}
	if days < 1 {
		return nil, fmt.Errorf("%w: days must be positive", ierr.ErrValidation)
	}

	issued := make([]*card.Card, count)
	for i := range issued {
		c, err := s.newCard(days)
		if err != nil {
			return nil, err
		}
		issued[i] = c
	}

	pending := issued
	for attempt := 1; len(pending) > 0; attempt++ {
		if attempt > issueAttempts {
			s.logger.Error("Card numbers kept colliding", zap.Int("remaining", len(pending)))
			return nil, fmt.Errorf("%w: %d card numbers still collide after %d attempts",
				ierr.ErrAlreadyExists, len(pending), issueAttempts)
		}

		conflicts, err := s.repo.CreateBatch(ctx, pending)
		if err != nil {
			s.logger.Error("Failed to store card batch", zap.Error(err))
			return nil, err
		}

		retry := make([]*card.Card, 0, len(conflicts))
		for _, idx := range conflicts {
			c := pending[idx]
			if c.CardNumber, err = util.NewCardNumber(s.clock.Now()); err != nil {
				return nil, err
			}
			retry = append(retry, c)
		}
		if len(retry) > 0 {
			s.logger.Debug("Redrawing colliding card numbers", zap.Int("count", len(retry)), zap.Int("attempt", attempt))
		}
		pending = retry
	}

	s.metrics.CardsIssued.Add(float64(count))
	s.logger.Info("Cards issued", zap.Int("count", count), zap.Int("days", days))
	return issued, nil
}

func (s *CardService) newCard(days int) (*card.Card, error) {
	number, err := util.NewCardNumber(s.clock.Now())
	if err != nil {
		return nil, err
	}
	password, err := util.NewCardPassword()
	if err != nil {
		return nil, err
	}
	return &card.Card{CardNumber: number, CardPassword: password, Days: days}, nil
}

// Redeem consumes the card and extends the license by its days. Both
// changes are applied together or not at all.
func (s *CardService) Redeem(ctx context.Context, machineCode, cardNumber, cardPassword string) (*card.Redemption, error) {
	req := card.RedeemRequest{
		MachineCode:  machineCode,
		CardNumber:   cardNumber,
		CardPassword: cardPassword,
		UsedAt:       clock.NowString(s.clock),
		Extend: func(currentExpire string, days int) (string, error) {
			return license.Extend(s.clock, currentExpire, days)
		},
	}

	res, err := s.repo.Redeem(ctx, req)
	if err != nil {
		switch {
		case ierr.IsNotFound(err), errors.Is(err, ierr.ErrAlreadyUsed):
			s.metrics.Redemptions.WithLabelValues(metrics.OutcomeRejected).Inc()
			s.logger.Warn("Redemption rejected",
				zap.String("machine_code", machineCode),
				zap.String("card_number", cardNumber),
				zap.Error(err),
			)
			return nil, err
		default:
			s.metrics.Redemptions.WithLabelValues(metrics.OutcomeError).Inc()
			s.logger.Error("Redemption reconciliation required",
				zap.String("machine_code", machineCode),
				zap.String("card_number", cardNumber),
				zap.Error(err),
			)
			if errors.Is(err, ierr.ErrStoreInconsistency) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ierr.ErrStoreInconsistency, err)
		}
	}

	s.metrics.Redemptions.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("Card redeemed",
		zap.String("machine_code", machineCode),
		zap.String("card_number", cardNumber),
		zap.String("previous_expire_date", res.PreviousExpireDate),
		zap.String("new_expire_date", res.NewExpireDate),
	)
	return res, nil
}

func (s *CardService) Search(ctx context.Context, cardNumber string) (*card.Card, error) {
	return s.repo.FindByNumber(ctx, cardNumber)
}

func (s *CardService) Delete(ctx context.Context, cardNumber string) error {
	if err := s.repo.Delete(ctx, cardNumber); err != nil {
		return err
	}
	s.logger.Info("Card deleted", zap.String("card_number", cardNumber))
	return nil
}

func (s *CardService) Page(ctx context.Context, page, size int) (*pagination.Page[*card.Card], error) {
	records, total, err := s.repo.List(ctx, pagination.Offset(page, size), size)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(records, total, page, size), nil
}
