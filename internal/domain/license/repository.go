package license

import (
	"context"
)

// ReconcileResult counts licenses repaired by ReconcileReferences.
type ReconcileResult struct {
	CategoriesCleared  int64
	CipherConfigsReset int64
}

type Repository interface {
	// Create inserts lic if no license with the same machine code exists.
	Create(ctx context.Context, lic *License) error
	FindByMachineCode(ctx context.Context, machineCode string) (*License, error)
	// List returns licenses newest first together with the total count.
	List(ctx context.Context, offset, limit int) ([]*License, int64, error)
	UpdateExpireDate(ctx context.Context, machineCode, expireDate string) error
	UpdateCategory(ctx context.Context, machineCode, category string) error
	UpdateRemark(ctx context.Context, machineCode, remark string) error
	UpdateCipherConfig(ctx context.Context, machineCode, configID string) error
	Delete(ctx context.Context, machineCode string) error
	ReconcileReferences(ctx context.Context) (ReconcileResult, error)
}
