package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"go.uber.org/zap"
)

const cipherConfigColumns = `id, config_id, name, key, iv, created_at, is_default`

type CipherConfigRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCipherConfigRepository(db *pgxpool.Pool, logger *zap.Logger) *CipherConfigRepository {
	return &CipherConfigRepository{
		db:     db,
		logger: logger.Named("CipherConfigRepository"),
	}
}

var _ cipherconfig.Repository = (*CipherConfigRepository)(nil)

func (r *CipherConfigRepository) EnsureDefault(ctx context.Context, def *cipherconfig.Config) (bool, error) {
	query := `
        INSERT INTO cipher_configs (config_id, name, key, iv, created_at, is_default)
        VALUES ($1, $2, $3, $4, $5, TRUE)
        ON CONFLICT (config_id) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, cipherconfig.DefaultID, def.Name, def.Key, def.IV, def.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to bootstrap default cipher config", zap.Error(err))
		return false, fmt.Errorf("database error on bootstrap cipher config: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *CipherConfigRepository) FindByID(ctx context.Context, configID string) (*cipherconfig.Config, error) {
	query := `SELECT ` + cipherConfigColumns + ` FROM cipher_configs WHERE config_id = $1`

	rows, err := r.db.Query(ctx, query, configID)
	if err != nil {
		r.logger.Error("Failed to query cipher config", zap.String("config_id", configID), zap.Error(err))
		return nil, fmt.Errorf("database error on find cipher config: %w", err)
	}

	cfg, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[cipherconfig.Config])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.ErrCipherConfigNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return cfg, nil
}

func (r *CipherConfigRepository) List(ctx context.Context) ([]*cipherconfig.Config, error) {
	rows, err := r.db.Query(ctx, `SELECT `+cipherConfigColumns+` FROM cipher_configs ORDER BY id`)
	if err != nil {
		r.logger.Error("Failed to list cipher configs", zap.Error(err))
		return nil, fmt.Errorf("database error on list cipher configs: %w", err)
	}

	configs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[cipherconfig.Config])
	if err != nil {
		return nil, fmt.Errorf("database iteration error on list cipher configs: %w", err)
	}
	return configs, nil
}

func (r *CipherConfigRepository) Create(ctx context.Context, cfg *cipherconfig.Config) error {
	query := `
        INSERT INTO cipher_configs (config_id, name, key, iv, created_at, is_default)
        VALUES ($1, $2, $3, $4, $5, FALSE)
        RETURNING id
    `
	err := r.db.QueryRow(ctx, query, cfg.ConfigID, cfg.Name, cfg.Key, cfg.IV, cfg.CreatedAt).Scan(&cfg.Seq)
	if err != nil {
		if pgErr, ok := isUniqueViolation(err); ok {
			r.logger.Warn("Cipher config id collision",
				zap.String("config_id", cfg.ConfigID),
				zap.String("constraint", pgErr.ConstraintName),
			)
			return fmt.Errorf("%w: cipher config %q", ierr.ErrAlreadyExists, cfg.ConfigID)
		}
		r.logger.Error("Failed to create cipher config", zap.Error(err))
		return fmt.Errorf("database error on create cipher config: %w", err)
	}

	r.logger.Info("Cipher config created", zap.String("config_id", cfg.ConfigID))
	return nil
}

func (r *CipherConfigRepository) Delete(ctx context.Context, configID string) (int64, error) {
	if configID == cipherconfig.DefaultID {
		return 0, ierr.ErrProtectedResource
	}

	var reassigned int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockCipherConfig(ctx, tx, configID, true); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`UPDATE licenses SET cipher_config_id = $1 WHERE cipher_config_id = $2`,
			cipherconfig.DefaultID, configID,
		)
		if err != nil {
			return fmt.Errorf("reassign licenses: %w", err)
		}
		reassigned = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `DELETE FROM cipher_configs WHERE config_id = $1 AND NOT is_default`, configID)
		if err != nil {
			return fmt.Errorf("delete cipher config: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return fmt.Errorf("%w: cipher config %s", ierr.ErrStoreInconsistency, configID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ierr.ErrCipherConfigNotFound) || errors.Is(err, ierr.ErrStoreInconsistency) {
			return 0, err
		}
		r.logger.Error("Failed to delete cipher config", zap.String("config_id", configID), zap.Error(err))
		return 0, fmt.Errorf("database error on delete cipher config: %w", err)
	}

	r.logger.Info("Cipher config deleted", zap.String("config_id", configID), zap.Int64("reassigned_licenses", reassigned))
	return reassigned, nil
}
