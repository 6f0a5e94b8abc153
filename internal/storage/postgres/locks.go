package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/makkenzo/entitlement-service/internal/ierr"
)

// lockCategory takes a row lock on the named category so that a concurrent
// cascade delete cannot remove it before the caller commits. exclusive
// selects FOR UPDATE instead of FOR SHARE.
func lockCategory(ctx context.Context, tx pgx.Tx, name string, exclusive bool) error {
	query := `SELECT id FROM categories WHERE name = $1 ` + lockClause(exclusive)
	var id int64
	if err := tx.QueryRow(ctx, query, name).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %q", ierr.ErrCategoryNotFound, name)
		}
		return fmt.Errorf("lock category: %w", err)
	}
	return nil
}

func lockCipherConfig(ctx context.Context, tx pgx.Tx, configID string, exclusive bool) error {
	query := `SELECT id FROM cipher_configs WHERE config_id = $1 ` + lockClause(exclusive)
	var id int64
	if err := tx.QueryRow(ctx, query, configID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %q", ierr.ErrCipherConfigNotFound, configID)
		}
		return fmt.Errorf("lock cipher config: %w", err)
	}
	return nil
}

func lockClause(exclusive bool) string {
	if exclusive {
		return "FOR UPDATE"
	}
	return "FOR SHARE"
}
