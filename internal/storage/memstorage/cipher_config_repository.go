package memstorage

import (
	"context"
	"fmt"

	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/ierr"
)

type CipherConfigRepository struct {
	s *Store
}

var _ cipherconfig.Repository = (*CipherConfigRepository)(nil)

func (r *CipherConfigRepository) EnsureDefault(_ context.Context, def *cipherconfig.Config) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cipherConfigs[cipherconfig.DefaultID]; ok {
		return false, nil
	}
	stored := *def
	stored.ConfigID = cipherconfig.DefaultID
	stored.IsDefault = true
	stored.Seq = r.s.nextSeq()
	r.s.cipherConfigs[stored.ConfigID] = &stored
	return true, nil
}

func (r *CipherConfigRepository) FindByID(_ context.Context, configID string) (*cipherconfig.Config, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cfg, ok := r.s.cipherConfigs[configID]
	if !ok {
		return nil, ierr.ErrCipherConfigNotFound
	}
	cfgCopy := *cfg
	return &cfgCopy, nil
}

func (r *CipherConfigRepository) List(_ context.Context) ([]*cipherconfig.Config, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]*cipherconfig.Config, 0, len(r.s.cipherConfigs))
	for _, cfg := range r.s.cipherConfigs {
		cfgCopy := *cfg
		all = append(all, &cfgCopy)
	}
	// oldest first, so the default row leads
	all = newestFirst(all, func(c *cipherconfig.Config) int64 { return -c.Seq }, 0, 0)
	return all, nil
}

func (r *CipherConfigRepository) Create(_ context.Context, cfg *cipherconfig.Config) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cipherConfigs[cfg.ConfigID]; ok {
		return fmt.Errorf("%w: cipher config %q", ierr.ErrAlreadyExists, cfg.ConfigID)
	}
	stored := *cfg
	stored.IsDefault = false
	stored.Seq = r.s.nextSeq()
	r.s.cipherConfigs[stored.ConfigID] = &stored
	cfg.Seq = stored.Seq
	return nil
}

func (r *CipherConfigRepository) Delete(_ context.Context, configID string) (int64, error) {
	if configID == cipherconfig.DefaultID {
		return 0, ierr.ErrProtectedResource
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cipherConfigs[configID]; !ok {
		return 0, ierr.ErrCipherConfigNotFound
	}

	var reassigned int64
	for _, lic := range r.s.licenses {
		if lic.CipherConfigID == configID {
			lic.CipherConfigID = cipherconfig.DefaultID
			reassigned++
		}
	}
	delete(r.s.cipherConfigs, configID)
	return reassigned, nil
}
