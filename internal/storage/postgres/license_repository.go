package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/domain/license"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"go.uber.org/zap"
)

const licenseColumns = `id, machine_code, expire_date, reg_date, category, remark, cipher_config_id`

type LicenseRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewLicenseRepository(db *pgxpool.Pool, logger *zap.Logger) *LicenseRepository {
	return &LicenseRepository{
		db:     db,
		logger: logger.Named("LicenseRepository"),
	}
}

var _ license.Repository = (*LicenseRepository)(nil)

func (r *LicenseRepository) Create(ctx context.Context, lic *license.License) error {
	if lic.CipherConfigID == "" {
		lic.CipherConfigID = cipherconfig.DefaultID
	}

	query := `
        INSERT INTO licenses (
            machine_code, expire_date, reg_date, category, remark, cipher_config_id
        ) VALUES (
            $1, $2, $3, $4, $5, $6
        )
        ON CONFLICT (machine_code) DO NOTHING
        RETURNING id
    `

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if lic.Category != "" {
			if err := lockCategory(ctx, tx, lic.Category, false); err != nil {
				return err
			}
		}

		err := tx.QueryRow(ctx, query,
			lic.MachineCode,
			lic.ExpireDate,
			lic.RegDate,
			lic.Category,
			lic.Remark,
			lic.CipherConfigID,
		).Scan(&lic.Seq)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: machine code %q", ierr.ErrAlreadyExists, lic.MachineCode)
		}
		return err
	})
	if err != nil {
		if pgErr, ok := isUniqueViolation(err); ok {
			r.logger.Warn("Attempted to create license with duplicate machine code",
				zap.String("machine_code", lic.MachineCode),
				zap.String("constraint", pgErr.ConstraintName),
			)
			return fmt.Errorf("%w: machine code %q", ierr.ErrAlreadyExists, lic.MachineCode)
		}
		if errors.Is(err, ierr.ErrAlreadyExists) || errors.Is(err, ierr.ErrCategoryNotFound) {
			return err
		}
		r.logger.Error("Failed to create license in database", zap.Error(err))
		return fmt.Errorf("database error on create license: %w", err)
	}

	r.logger.Info("License created successfully", zap.String("machine_code", lic.MachineCode), zap.Int64("id", lic.Seq))
	return nil
}

func (r *LicenseRepository) FindByMachineCode(ctx context.Context, machineCode string) (*license.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses WHERE machine_code = $1`

	rows, err := r.db.Query(ctx, query, machineCode)
	if err != nil {
		r.logger.Error("Failed to query license", zap.String("machine_code", machineCode), zap.Error(err))
		return nil, fmt.Errorf("database error on find license: %w", err)
	}

	lic, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[license.License])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.ErrLicenseNotFound
		}
		r.logger.Error("Failed to scan license row", zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return lic, nil
}

func (r *LicenseRepository) List(ctx context.Context, offset, limit int) ([]*license.License, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM licenses`).Scan(&total); err != nil {
		r.logger.Error("Failed to count licenses", zap.Error(err))
		return nil, 0, fmt.Errorf("database error on count licenses: %w", err)
	}

	query := `SELECT ` + licenseColumns + ` FROM licenses ORDER BY id DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to query list of licenses", zap.Error(err))
		return nil, 0, fmt.Errorf("database error on list licenses: %w", err)
	}

	licenses, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[license.License])
	if err != nil {
		r.logger.Error("Error iterating license rows", zap.Error(err))
		return nil, 0, fmt.Errorf("database iteration error on list licenses: %w", err)
	}
	return licenses, total, nil
}

func (r *LicenseRepository) UpdateExpireDate(ctx context.Context, machineCode, expireDate string) error {
	return r.updateField(ctx, r.db, "expire_date", machineCode, expireDate)
}

func (r *LicenseRepository) UpdateCategory(ctx context.Context, machineCode, category string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if category != "" {
			if err := lockCategory(ctx, tx, category, false); err != nil {
				return err
			}
		}
		return r.updateField(ctx, tx, "category", machineCode, category)
	})
}

func (r *LicenseRepository) UpdateRemark(ctx context.Context, machineCode, remark string) error {
	return r.updateField(ctx, r.db, "remark", machineCode, remark)
}

func (r *LicenseRepository) UpdateCipherConfig(ctx context.Context, machineCode, configID string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockCipherConfig(ctx, tx, configID, false); err != nil {
			return err
		}
		return r.updateField(ctx, tx, "cipher_config_id", machineCode, configID)
	})
}

func (r *LicenseRepository) Delete(ctx context.Context, machineCode string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM licenses WHERE machine_code = $1`, machineCode)
	if err != nil {
		r.logger.Error("Failed to delete license", zap.String("machine_code", machineCode), zap.Error(err))
		return fmt.Errorf("database error on delete license: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ierr.ErrLicenseNotFound
	}
	r.logger.Info("License deleted", zap.String("machine_code", machineCode))
	return nil
}

func (r *LicenseRepository) ReconcileReferences(ctx context.Context) (license.ReconcileResult, error) {
	var res license.ReconcileResult

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            UPDATE licenses SET category = ''
            WHERE category <> ''
              AND NOT EXISTS (SELECT 1 FROM categories c WHERE c.name = licenses.category)
        `)
		if err != nil {
			return fmt.Errorf("clear dangling categories: %w", err)
		}
		res.CategoriesCleared = tag.RowsAffected()

		tag, err = tx.Exec(ctx, `
            UPDATE licenses SET cipher_config_id = $1
            WHERE cipher_config_id <> $1
              AND NOT EXISTS (SELECT 1 FROM cipher_configs c WHERE c.config_id = licenses.cipher_config_id)
        `, cipherconfig.DefaultID)
		if err != nil {
			return fmt.Errorf("reset dangling cipher configs: %w", err)
		}
		res.CipherConfigsReset = tag.RowsAffected()
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to reconcile license references", zap.Error(err))
		return res, fmt.Errorf("database error on reconcile: %w", err)
	}
	return res, nil
}

// updateField sets one column on the license row. Zero matched rows means
// the license is absent; an unchanged value still counts as a match.
func (r *LicenseRepository) updateField(ctx context.Context, db execer, column, machineCode string, value any) error {
	query := fmt.Sprintf(`UPDATE licenses SET %s = $1 WHERE machine_code = $2`, column)

	cmdTag, err := db.Exec(ctx, query, value, machineCode)
	if err != nil {
		r.logger.Error("Failed to update license in database",
			zap.String("machine_code", machineCode),
			zap.String("column", column),
			zap.Error(err),
		)
		return fmt.Errorf("database error on update license: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update license, but no rows were affected", zap.String("machine_code", machineCode))
		return ierr.ErrLicenseNotFound
	}

	r.logger.Info("License updated successfully", zap.String("machine_code", machineCode), zap.String("column", column))
	return nil
}
