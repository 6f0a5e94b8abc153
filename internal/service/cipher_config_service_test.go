package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mapCache is an in-process cipherconfig.Cache.
type mapCache struct {
	items       map[string]cipherconfig.Material
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string]cipherconfig.Material)}
}

func (c *mapCache) Get(_ context.Context, id string) (cipherconfig.Material, error) {
	m, ok := c.items[id]
	if !ok {
		return cipherconfig.Material{}, cipherconfig.ErrCacheMiss
	}
	return m, nil
}

func (c *mapCache) Set(_ context.Context, m cipherconfig.Material) error {
	c.items[m.ConfigID] = m
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, id string) error {
	delete(c.items, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

func countDefaults(t *testing.T, svc *CipherConfigService) int {
	t.Helper()
	configs, err := svc.List(context.Background())
	require.NoError(t, err)
	n := 0
	for _, c := range configs {
		if c.IsDefault {
			n++
			assert.Equal(t, cipherconfig.DefaultID, c.ConfigID)
		}
	}
	return n
}

func TestBootstrapDefaultIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.ciphers.BootstrapDefault(ctx))
	require.NoError(t, f.ciphers.BootstrapDefault(ctx))

	configs, err := f.ciphers.List(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, cipherconfig.DefaultID, configs[0].ConfigID)
	assert.Equal(t, "vqwn3p22uics8xv8", configs[0].Key)
	assert.True(t, configs[0].IsDefault)
}

func TestGenerateCipherConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cfg, err := f.ciphers.Generate(ctx)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{16}$`), cfg.Key)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{16}$`), cfg.IV)
	assert.False(t, cfg.IsDefault)
	assert.Equal(t, "Cipher 20240501120000", cfg.Name)
	assert.Equal(t, "2024-05-01 12:00:00", cfg.CreatedAt)

	other, err := f.ciphers.Generate(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, cfg.ConfigID, other.ConfigID)
	assert.Equal(t, 1, countDefaults(t, f.ciphers))
}

func TestDeleteCipherConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("Default is protected", func(t *testing.T) {
		err := f.ciphers.Delete(ctx, cipherconfig.DefaultID)
		assert.ErrorIs(t, err, ierr.ErrProtectedResource)
	})

	t.Run("Referencing licenses fall back to default", func(t *testing.T) {
		cfg, err := f.ciphers.Generate(ctx)
		require.NoError(t, err)
		for _, mc := range []string{"MC-1", "MC-2"} {
			_, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: mc})
			require.NoError(t, err)
			require.NoError(t, f.licenses.SetCipherConfig(ctx, mc, cfg.ConfigID))
		}

		require.NoError(t, f.ciphers.Delete(ctx, cfg.ConfigID))

		for _, mc := range []string{"MC-1", "MC-2"} {
			lic, err := f.licenses.Find(ctx, mc)
			require.NoError(t, err)
			assert.Equal(t, cipherconfig.DefaultID, lic.CipherConfigID)
		}
		assert.ErrorIs(t, f.ciphers.Delete(ctx, cfg.ConfigID), ierr.ErrCipherConfigNotFound)
	})

	t.Run("Exactly one default after any sequence", func(t *testing.T) {
		var ids []string
		for i := 0; i < 4; i++ {
			cfg, err := f.ciphers.Generate(ctx)
			require.NoError(t, err)
			ids = append(ids, cfg.ConfigID)
		}
		require.NoError(t, f.ciphers.Delete(ctx, ids[1]))
		require.NoError(t, f.ciphers.Delete(ctx, ids[3]))
		assert.Error(t, f.ciphers.Delete(ctx, cipherconfig.DefaultID))
		assert.Equal(t, 1, countDefaults(t, f.ciphers))
	})
}

func TestResolveCipherMaterial(t *testing.T) {
	ctx := context.Background()
	store := memstorage.NewStore()
	cache := newMapCache()
	f := newFixture(t)
	svc := NewCipherConfigService(store.CipherConfigs(), cache, f.clock,
		&config.CipherConfig{DefaultKey: "vqwn3p22uics8xv8", DefaultIV: "s0Q~ioZ(AYJxyvLQ"}, zap.NewNop())

	t.Run("Falls back to configured material before bootstrap", func(t *testing.T) {
		m, err := svc.Resolve(ctx, "anything")
		require.NoError(t, err)
		assert.Equal(t, "vqwn3p22uics8xv8", m.Key)
	})

	require.NoError(t, svc.BootstrapDefault(ctx))
	cfg, err := svc.Generate(ctx)
	require.NoError(t, err)

	t.Run("Resolves and caches a named config", func(t *testing.T) {
		m, err := svc.Resolve(ctx, cfg.ConfigID)
		require.NoError(t, err)
		assert.Equal(t, cfg.Key, m.Key)
		assert.Equal(t, cfg.IV, m.IV)
		assert.Contains(t, cache.items, cfg.ConfigID)
	})

	t.Run("Missing config resolves to default", func(t *testing.T) {
		m, err := svc.Resolve(ctx, "gone")
		require.NoError(t, err)
		assert.Equal(t, cipherconfig.DefaultID, m.ConfigID)
		assert.Equal(t, "s0Q~ioZ(AYJxyvLQ", m.IV)
	})

	t.Run("Delete invalidates the cache", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, cfg.ConfigID))
		assert.NotContains(t, cache.items, cfg.ConfigID)
		assert.Equal(t, []string{cfg.ConfigID}, cache.invalidated)

		m, err := svc.Resolve(ctx, cfg.ConfigID)
		require.NoError(t, err)
		assert.Equal(t, cipherconfig.DefaultID, m.ConfigID)
	})
}

type brokenCipherRepo struct {
	cipherconfig.Repository
}

func (brokenCipherRepo) FindByID(context.Context, string) (*cipherconfig.Config, error) {
	return nil, errors.New("db down")
}

func TestResolveSurfacesStoreFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewCipherConfigService(brokenCipherRepo{f.store.CipherConfigs()}, nil, f.clock, &config.CipherConfig{}, zap.NewNop())

	_, err := svc.Resolve(context.Background(), cipherconfig.DefaultID)
	assert.Error(t, err)
}
