package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/entitlement-service/internal/domain/category"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"go.uber.org/zap"
)

type CategoryRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCategoryRepository(db *pgxpool.Pool, logger *zap.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger.Named("CategoryRepository"),
	}
}

var _ category.Repository = (*CategoryRepository)(nil)

func (r *CategoryRepository) Create(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		r.logger.Error("Failed to create category", zap.String("name", name), zap.Error(err))
		return fmt.Errorf("database error on create category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category %q", ierr.ErrAlreadyExists, name)
	}
	r.logger.Info("Category created", zap.String("name", name))
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, name string) (int64, error) {
	var cleared int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockCategory(ctx, tx, name, true); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `UPDATE licenses SET category = '' WHERE category = $1`, name)
		if err != nil {
			return fmt.Errorf("clear licenses: %w", err)
		}
		cleared = tag.RowsAffected()

		if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE name = $1`, name); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ierr.ErrCategoryNotFound) {
			return 0, err
		}
		r.logger.Error("Failed to delete category", zap.String("name", name), zap.Error(err))
		return 0, fmt.Errorf("database error on delete category: %w", err)
	}

	r.logger.Info("Category deleted", zap.String("name", name), zap.Int64("cleared_licenses", cleared))
	return cleared, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT name FROM categories ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("database error on list categories: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("database iteration error on list categories: %w", err)
	}
	return names, nil
}
