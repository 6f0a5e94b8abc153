package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/entitlement-service/internal/domain/card"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"go.uber.org/zap"
)

const cardColumns = `id, card_number, card_password, days, used, used_machine_code, used_at`

type CardRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCardRepository(db *pgxpool.Pool, logger *zap.Logger) *CardRepository {
	return &CardRepository{
		db:     db,
		logger: logger.Named("CardRepository"),
	}
}

var _ card.Repository = (*CardRepository)(nil)

func (r *CardRepository) CreateBatch(ctx context.Context, cards []*card.Card) ([]int, error) {
	query := `
        INSERT INTO cards (card_number, card_password, days)
        VALUES ($1, $2, $3)
        ON CONFLICT (card_number) DO NOTHING
        RETURNING id
    `

	var conflicts []int
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range cards {
			batch.Queue(query, c.CardNumber, c.CardPassword, c.Days)
		}

		br := tx.SendBatch(ctx, batch)
		for i, c := range cards {
			err := br.QueryRow().Scan(&c.Seq)
			if errors.Is(err, pgx.ErrNoRows) {
				conflicts = append(conflicts, i)
				continue
			}
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("insert card %d: %w", i, err)
			}
		}
		return br.Close()
	})
	if err != nil {
		r.logger.Error("Failed to insert card batch", zap.Int("size", len(cards)), zap.Error(err))
		return nil, fmt.Errorf("database error on create cards: %w", err)
	}

	r.logger.Info("Card batch inserted", zap.Int("inserted", len(cards)-len(conflicts)), zap.Int("conflicts", len(conflicts)))
	return conflicts, nil
}

func (r *CardRepository) FindByNumber(ctx context.Context, cardNumber string) (*card.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE card_number = $1`

	rows, err := r.db.Query(ctx, query, cardNumber)
	if err != nil {
		r.logger.Error("Failed to query card", zap.String("card_number", cardNumber), zap.Error(err))
		return nil, fmt.Errorf("database error on find card: %w", err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[card.Card])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.ErrCardNotFound
		}
		r.logger.Error("Failed to scan card row", zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return c, nil
}

func (r *CardRepository) List(ctx context.Context, offset, limit int) ([]*card.Card, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM cards`).Scan(&total); err != nil {
		r.logger.Error("Failed to count cards", zap.Error(err))
		return nil, 0, fmt.Errorf("database error on count cards: %w", err)
	}

	query := `SELECT ` + cardColumns + ` FROM cards ORDER BY id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to query list of cards", zap.Error(err))
		return nil, 0, fmt.Errorf("database error on list cards: %w", err)
	}

	cards, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[card.Card])
	if err != nil {
		r.logger.Error("Error iterating card rows", zap.Error(err))
		return nil, 0, fmt.Errorf("database iteration error on list cards: %w", err)
	}
	return cards, total, nil
}

func (r *CardRepository) Delete(ctx context.Context, cardNumber string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM cards WHERE card_number = $1`, cardNumber)
	if err != nil {
		r.logger.Error("Failed to delete card", zap.String("card_number", cardNumber), zap.Error(err))
		return fmt.Errorf("database error on delete card: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ierr.ErrCardNotFound
	}
	r.logger.Info("Card deleted", zap.String("card_number", cardNumber))
	return nil
}

// Redeem runs the whole redemption in one transaction. The license row is
// locked before the card row on every path, so concurrent redemptions
// cannot deadlock; the card update is additionally guarded by used = FALSE.
func (r *CardRepository) Redeem(ctx context.Context, req card.RedeemRequest) (*card.Redemption, error) {
	var res card.Redemption

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT expire_date FROM licenses WHERE machine_code = $1 FOR UPDATE`,
			req.MachineCode,
		).Scan(&res.PreviousExpireDate)
		if errors.Is(err, pgx.ErrNoRows) {
			return ierr.ErrLicenseNotFound
		}
		if err != nil {
			return fmt.Errorf("lock license: %w", err)
		}

		var used bool
		err = tx.QueryRow(ctx,
			`SELECT days, used FROM cards WHERE card_number = $1 AND card_password = $2 FOR UPDATE`,
			req.CardNumber, req.CardPassword,
		).Scan(&res.Days, &used)
		if errors.Is(err, pgx.ErrNoRows) {
			return ierr.ErrCardNotFound
		}
		if err != nil {
			return fmt.Errorf("lock card: %w", err)
		}
		if used {
			return fmt.Errorf("%w: %s", ierr.ErrAlreadyUsed, req.CardNumber)
		}

		res.NewExpireDate, err = req.Extend(res.PreviousExpireDate, res.Days)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE licenses SET expire_date = $1 WHERE machine_code = $2`,
			res.NewExpireDate, req.MachineCode,
		)
		if err != nil {
			return fmt.Errorf("extend license: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("%w: license %s", ierr.ErrStoreInconsistency, req.MachineCode)
		}

		tag, err = tx.Exec(ctx,
			`UPDATE cards SET used = TRUE, used_machine_code = $1, used_at = $2
             WHERE card_number = $3 AND used = FALSE`,
			req.MachineCode, req.UsedAt, req.CardNumber,
		)
		if err != nil {
			return fmt.Errorf("mark card used: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("%w: %s", ierr.ErrAlreadyUsed, req.CardNumber)
		}
		return nil
	})
	if err != nil {
		switch {
		case ierr.IsNotFound(err), errors.Is(err, ierr.ErrAlreadyUsed):
			r.logger.Info("Redemption rejected",
				zap.String("machine_code", req.MachineCode),
				zap.String("card_number", req.CardNumber),
				zap.Error(err),
			)
			return nil, err
		case errors.Is(err, ierr.ErrStoreInconsistency):
			r.logger.Error("Redemption rolled back", zap.String("machine_code", req.MachineCode), zap.Error(err))
			return nil, err
		}
		r.logger.Error("Failed to redeem card",
			zap.String("machine_code", req.MachineCode),
			zap.String("card_number", req.CardNumber),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ierr.ErrStoreInconsistency, err)
	}

	r.logger.Info("Card redeemed",
		zap.String("machine_code", req.MachineCode),
		zap.String("card_number", req.CardNumber),
		zap.String("expire_date", res.NewExpireDate),
	)
	return &res, nil
}
