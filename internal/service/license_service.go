package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/domain/license"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/metrics"
	"github.com/makkenzo/entitlement-service/pkg/pagination"
	"go.uber.org/zap"
)

type RegisterRequest struct {
	MachineCode string
	// ExpireDate overrides the configured registration expiry when set.
	ExpireDate string
	Category   string
	Remark     string
}

type LoginVerdict struct {
	Valid          bool
	ExpireDate     string
	CipherConfigID string
	ServerTime     time.Time
}

type LicenseService struct {
	repo    license.Repository
	clock   clock.Clock
	regCfg  config.RegistrationConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewLicenseService(repo license.Repository, clk clock.Clock, regCfg *config.RegistrationConfig, m *metrics.Metrics, logger *zap.Logger) *LicenseService {
	return &LicenseService{
		repo:    repo,
		clock:   clk,
		regCfg:  *regCfg,
		metrics: m,
		logger:  logger.Named("LicenseService"),
	}
}

// DefaultExpiry is the expiry given to self-registered machines: now, or
// now plus the trial period when trials are enabled.
func (s *LicenseService) DefaultExpiry() string {
	now := s.clock.Now()
	if s.regCfg.TrialEnabled {
		now = now.Add(time.Duration(s.regCfg.TrialMinutes) * time.Minute)
	}
	return clock.Format(s.clock, now)
}

func (s *LicenseService) Register(ctx context.Context, req RegisterRequest) (*license.License, error) {
	if req.MachineCode == "" {
		return nil, fmt.Errorf("%w: machine code is required", ierr.ErrValidation)
	}
	if license.MachineCodeTooLong(req.MachineCode) {
		s.logger.Warn("Rejected oversized machine code", zap.Int("length", utf8.RuneCountInString(req.MachineCode)))
		return nil, fmt.Errorf("%w: machine code longer than %d characters", ierr.ErrValidation, license.MaxMachineCodeLength)
	}

	expireDate := req.ExpireDate
	if expireDate == "" {
		expireDate = s.DefaultExpiry()
	} else if !clock.Valid(expireDate) {
		return nil, fmt.Errorf("%w: expire date must use %q", ierr.ErrValidation, clock.Layout)
	}

	lic := &license.License{
		MachineCode: req.MachineCode,
		ExpireDate:  expireDate,
		RegDate:     clock.NowString(s.clock),
		Category:    req.Category,
		Remark:      req.Remark,
	}

	if err := s.repo.Create(ctx, lic); err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, ierr.ErrAlreadyExists) || ierr.IsNotFound(err) {
			outcome = metrics.OutcomeRejected
		}
		s.metrics.Registrations.WithLabelValues(outcome).Inc()
		s.logger.Warn("License registration failed", zap.String("machine_code", req.MachineCode), zap.Error(err))
		return nil, err
	}

	s.metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.Info("License registered",
		zap.String("machine_code", lic.MachineCode),
		zap.String("expire_date", lic.ExpireDate),
	)
	return lic, nil
}

func (s *LicenseService) CheckLogin(ctx context.Context, machineCode string) (*LoginVerdict, error) {
	lic, err := s.repo.FindByMachineCode(ctx, machineCode)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	verdict := &LoginVerdict{
		Valid:          lic.ActiveAt(clock.Format(s.clock, now)),
		ExpireDate:     lic.ExpireDate,
		CipherConfigID: lic.CipherConfigID,
		ServerTime:     now,
	}
	s.logger.Debug("Login checked", zap.String("machine_code", machineCode), zap.Bool("valid", verdict.Valid))
	return verdict, nil
}

func (s *LicenseService) Renew(ctx context.Context, machineCode, newExpireDate string) error {
	if !clock.Valid(newExpireDate) {
		return fmt.Errorf("%w: expire date must use %q", ierr.ErrValidation, clock.Layout)
	}
	return s.repo.UpdateExpireDate(ctx, machineCode, newExpireDate)
}

// SetCategory assigns an existing category; an empty name clears it.
func (s *LicenseService) SetCategory(ctx context.Context, machineCode, category string) error {
	return s.repo.UpdateCategory(ctx, machineCode, category)
}

func (s *LicenseService) SetRemark(ctx context.Context, machineCode, remark string) error {
	return s.repo.UpdateRemark(ctx, machineCode, remark)
}

func (s *LicenseService) SetCipherConfig(ctx context.Context, machineCode, configID string) error {
	if configID == "" {
		return fmt.Errorf("%w: cipher config id is required", ierr.ErrValidation)
	}
	return s.repo.UpdateCipherConfig(ctx, machineCode, configID)
}

func (s *LicenseService) Delete(ctx context.Context, machineCode string) error {
	return s.repo.Delete(ctx, machineCode)
}

func (s *LicenseService) Find(ctx context.Context, machineCode string) (*license.License, error) {
	return s.repo.FindByMachineCode(ctx, machineCode)
}

// Page returns licenses newest first. page is not clamped here.
func (s *LicenseService) Page(ctx context.Context, page, size int) (*pagination.Page[*license.License], error) {
	records, total, err := s.repo.List(ctx, pagination.Offset(page, size), size)
	if err != nil {
		return nil, err
	}
	return pagination.NewPage(records, total, page, size), nil
}

func (s *LicenseService) ReconcileReferences(ctx context.Context) (license.ReconcileResult, error) {
	res, err := s.repo.ReconcileReferences(ctx)
	if err != nil {
		return res, err
	}
	if res.CategoriesCleared > 0 || res.CipherConfigsReset > 0 {
		s.logger.Warn("Dangling license references repaired",
			zap.Int64("categories_cleared", res.CategoriesCleared),
			zap.Int64("cipher_configs_reset", res.CipherConfigsReset),
		)
	}
	return res, nil
}
