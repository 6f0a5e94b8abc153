package memstorage

import (
	"context"
	"fmt"

	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/domain/license"
	"github.com/makkenzo/entitlement-service/internal/ierr"
)

type LicenseRepository struct {
	s *Store
}

var _ license.Repository = (*LicenseRepository)(nil)

func (r *LicenseRepository) Create(_ context.Context, lic *license.License) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.licenses[lic.MachineCode]; ok {
		return fmt.Errorf("%w: machine code %q", ierr.ErrAlreadyExists, lic.MachineCode)
	}
	if lic.Category != "" {
		if _, ok := r.s.categories[lic.Category]; !ok {
			return fmt.Errorf("%w: %q", ierr.ErrCategoryNotFound, lic.Category)
		}
	}

	stored := *lic
	if stored.CipherConfigID == "" {
		stored.CipherConfigID = cipherconfig.DefaultID
	}
	stored.Seq = r.s.nextSeq()
	r.s.licenses[stored.MachineCode] = &stored
	lic.Seq = stored.Seq
	lic.CipherConfigID = stored.CipherConfigID
	return nil
}

func (r *LicenseRepository) FindByMachineCode(_ context.Context, machineCode string) (*license.License, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lic, ok := r.s.licenses[machineCode]
	if !ok {
		return nil, ierr.ErrLicenseNotFound
	}
	licCopy := *lic
	return &licCopy, nil
}

func (r *LicenseRepository) List(_ context.Context, offset, limit int) ([]*license.License, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*license.License, 0, len(r.s.licenses))
	for _, lic := range r.s.licenses {
		licCopy := *lic
		all = append(all, &licCopy)
	}
	page := newestFirst(all, func(l *license.License) int64 { return l.Seq }, offset, limit)
	return page, int64(len(all)), nil
}

func (r *LicenseRepository) UpdateExpireDate(_ context.Context, machineCode, expireDate string) error {
	return r.mutate(machineCode, func(lic *license.License) error {
		lic.ExpireDate = expireDate
		return nil
	})
}

func (r *LicenseRepository) UpdateCategory(_ context.Context, machineCode, category string) error {
	return r.mutate(machineCode, func(lic *license.License) error {
		if category != "" {
			if _, ok := r.s.categories[category]; !ok {
				return fmt.Errorf("%w: %q", ierr.ErrCategoryNotFound, category)
			}
		}
		lic.Category = category
		return nil
	})
}

func (r *LicenseRepository) UpdateRemark(_ context.Context, machineCode, remark string) error {
	return r.mutate(machineCode, func(lic *license.License) error {
		lic.Remark = remark
		return nil
	})
}

func (r *LicenseRepository) UpdateCipherConfig(_ context.Context, machineCode, configID string) error {
	return r.mutate(machineCode, func(lic *license.License) error {
		if _, ok := r.s.cipherConfigs[configID]; !ok {
			return fmt.Errorf("%w: %q", ierr.ErrCipherConfigNotFound, configID)
		}
		lic.CipherConfigID = configID
		return nil
	})
}

func (r *LicenseRepository) Delete(_ context.Context, machineCode string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.licenses[machineCode]; !ok {
		return ierr.ErrLicenseNotFound
	}
	delete(r.s.licenses, machineCode)
	return nil
}

func (r *LicenseRepository) ReconcileReferences(_ context.Context) (license.ReconcileResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var res license.ReconcileResult
	for _, lic := range r.s.licenses {
		if lic.Category != "" {
			if _, ok := r.s.categories[lic.Category]; !ok {
				lic.Category = ""
				res.CategoriesCleared++
			}
		}
		if _, ok := r.s.cipherConfigs[lic.CipherConfigID]; !ok && lic.CipherConfigID != cipherconfig.DefaultID {
			lic.CipherConfigID = cipherconfig.DefaultID
			res.CipherConfigsReset++
		}
	}
	return res, nil
}

// mutate applies fn to the stored license under the writer lock. The
// change is discarded when fn fails.
func (r *LicenseRepository) mutate(machineCode string, fn func(*license.License) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	lic, ok := r.s.licenses[machineCode]
	if !ok {
		return ierr.ErrLicenseNotFound
	}
	updated := *lic
	if err := fn(&updated); err != nil {
		return err
	}
	*lic = updated
	return nil
}
