package service

import (
	"context"
	"testing"
	"time"

	"github.com/makkenzo/entitlement-service/internal/clock"
	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/metrics"
	"github.com/makkenzo/entitlement-service/internal/storage/memstorage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var utc8 = time.FixedZone("UTC+8", 8*3600)

type fixture struct {
	store      *memstorage.Store
	clock      *clock.Frozen
	metrics    *metrics.Metrics
	licenses   *LicenseService
	cards      *CardService
	ciphers    *CipherConfigService
	categories *CategoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLogger(t, zap.NewNop())
}

func newFixtureWithLogger(t *testing.T, logger *zap.Logger) *fixture {
	t.Helper()

	store := memstorage.NewStore()
	clk := clock.NewFrozen(time.Date(2024, 5, 1, 12, 0, 0, 0, utc8))
	m := metrics.NewNop()

	f := &fixture{
		store:      store,
		clock:      clk,
		metrics:    m,
		licenses:   NewLicenseService(store.Licenses(), clk, &config.RegistrationConfig{}, m, logger),
		cards:      NewCardService(store.Cards(), clk, m, logger),
		ciphers:    NewCipherConfigService(store.CipherConfigs(), nil, clk, &config.CipherConfig{DefaultKey: "vqwn3p22uics8xv8", DefaultIV: "s0Q~ioZ(AYJxyvLQ"}, logger),
		categories: NewCategoryService(store.Categories(), logger),
	}
	require.NoError(t, f.ciphers.BootstrapDefault(context.Background()))
	return f
}
