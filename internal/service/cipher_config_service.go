package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/util"
	"go.uber.org/zap"
)

type CipherConfigService struct {
	repo     cipherconfig.Repository
	cache    cipherconfig.Cache
	clock    clock.Clock
	fallback cipherconfig.Material
	logger   *zap.Logger
}

// NewCipherConfigService wires the registry. cache may be nil.
func NewCipherConfigService(repo cipherconfig.Repository, cache cipherconfig.Cache, clk clock.Clock, cfg *config.CipherConfig, logger *zap.Logger) *CipherConfigService {
	return &CipherConfigService{
		repo:  repo,
		cache: cache,
		clock: clk,
		fallback: cipherconfig.Material{
			ConfigID: cipherconfig.DefaultID,
			Key:      cfg.DefaultKey,
			IV:       cfg.DefaultIV,
		},
		logger: logger.Named("CipherConfigService"),
	}
}

// BootstrapDefault inserts the reserved default configuration unless it
// already exists.
func (s *CipherConfigService) BootstrapDefault(ctx context.Context) error {
	created, err := s.repo.EnsureDefault(ctx, &cipherconfig.Config{
		ConfigID:  cipherconfig.DefaultID,
		Name:      cipherconfig.DefaultName,
		Key:       s.fallback.Key,
		IV:        s.fallback.IV,
		CreatedAt: clock.NowString(s.clock),
		IsDefault: true,
	})
	if err != nil {
		return fmt.Errorf("bootstrap default cipher config: %w", err)
	}
	if created {
		s.logger.Info("Default cipher config created")
	}
	return nil
}

// Resolve returns the key material for configID, falling back to the
// default configuration when configID no longer exists. It only fails
// when the store itself fails.
func (s *CipherConfigService) Resolve(ctx context.Context, configID string) (cipherconfig.Material, error) {
	if configID == "" {
		configID = cipherconfig.DefaultID
	}

	if s.cache != nil {
		m, err := s.cache.Get(ctx, configID)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, cipherconfig.ErrCacheMiss) {
			s.logger.Warn("Cipher cache read failed", zap.String("config_id", configID), zap.Error(err))
		}
	}

	cfg, err := s.repo.FindByID(ctx, configID)
	if errors.Is(err, ierr.ErrCipherConfigNotFound) && configID != cipherconfig.DefaultID {
		s.logger.Warn("License references missing cipher config, using default", zap.String("config_id", configID))
		return s.Resolve(ctx, cipherconfig.DefaultID)
	}
	if errors.Is(err, ierr.ErrCipherConfigNotFound) {
		s.logger.Error("Default cipher config missing from store, using configured material")
		return s.fallback, nil
	}
	if err != nil {
		return cipherconfig.Material{}, err
	}

	m := cfg.Material()
	if s.cache != nil {
		_ = s.cache.Set(ctx, m)
	}
	return m, nil
}

// Generate stores a fresh configuration with random 16 character key and
// IV and a time-ordered id.
func (s *CipherConfigService) Generate(ctx context.Context) (*cipherconfig.Config, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate cipher config id: %w", err)
	}
	key, err := util.RandomString(util.Alphanumeric, cipherconfig.KeyLength)
	if err != nil {
		return nil, err
	}
	iv, err := util.RandomString(util.Alphanumeric, cipherconfig.IVLength)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	cfg := &cipherconfig.Config{
		ConfigID:  id.String(),
		Name:      "Cipher " + now.Format("20060102150405"),
		Key:       key,
		IV:        iv,
		CreatedAt: clock.Format(s.clock, now),
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		s.logger.Error("Failed to store cipher config", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Cipher config generated", zap.String("config_id", cfg.ConfigID))
	return cfg, nil
}

// Delete removes a non-default configuration after pointing its licenses
// back at the default one.
func (s *CipherConfigService) Delete(ctx context.Context, configID string) error {
	if configID == cipherconfig.DefaultID {
		return fmt.Errorf("%w: the default cipher config cannot be deleted", ierr.ErrProtectedResource)
	}

	reassigned, err := s.repo.Delete(ctx, configID)
	if err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, configID); err != nil {
			s.logger.Warn("Failed to invalidate cipher cache", zap.String("config_id", configID), zap.Error(err))
		}
	}

	s.logger.Info("Cipher config deleted", zap.String("config_id", configID), zap.Int64("reassigned_licenses", reassigned))
	return nil
}

func (s *CipherConfigService) List(ctx context.Context) ([]*cipherconfig.Config, error) {
	return s.repo.List(ctx)
}
