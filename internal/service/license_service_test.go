package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/ierr"
	"github.com/makkenzo/entitlement-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults to now and the default cipher", func(t *testing.T) {
		f := newFixture(t)

		lic, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: "MC-1"})
		require.NoError(t, err)
		assert.Equal(t, "2024-05-01 12:00:00", lic.ExpireDate)
		assert.Equal(t, "2024-05-01 12:00:00", lic.RegDate)
		assert.Equal(t, cipherconfig.DefaultID, lic.CipherConfigID)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess)))
	})

	t.Run("Trial period extends the default expiry", func(t *testing.T) {
		f := newFixture(t)
		svc := NewLicenseService(f.store.Licenses(), f.clock,
			&config.RegistrationConfig{TrialEnabled: true, TrialMinutes: 90}, f.metrics, zap.NewNop())

		lic, err := svc.Register(ctx, RegisterRequest{MachineCode: "MC-1"})
		require.NoError(t, err)
		assert.Equal(t, "2024-05-01 13:30:00", lic.ExpireDate)
	})

	t.Run("Explicit expiry is kept", func(t *testing.T) {
		f := newFixture(t)

		lic, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: "MC-1", ExpireDate: "2030-01-01 00:00:00", Remark: "vip"})
		require.NoError(t, err)
		assert.Equal(t, "2030-01-01 00:00:00", lic.ExpireDate)
		assert.Equal(t, "vip", lic.Remark)
	})

	t.Run("Duplicate machine code fails", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: "MC-1"})
		require.NoError(t, err)
		_, err = f.licenses.Register(ctx, RegisterRequest{MachineCode: "MC-1"})
		assert.ErrorIs(t, err, ierr.ErrAlreadyExists)
	})

	t.Run("Oversized machine code fails", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: strings.Repeat("x", 33)})
		assert.ErrorIs(t, err, ierr.ErrValidation)

		_, err = f.licenses.Register(ctx, RegisterRequest{MachineCode: strings.Repeat("x", 32)})
		assert.NoError(t, err)
	})

	t.Run("Machine code limit counts characters", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: strings.Repeat("机", 32)})
		require.NoError(t, err)

		_, err = f.licenses.Register(ctx, RegisterRequest{MachineCode: strings.Repeat("机", 33)})
		assert.ErrorIs(t, err, ierr.ErrValidation)
	})

	t.Run("Malformed expiry fails", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: "MC-1", ExpireDate: "2030-1-1"})
		assert.ErrorIs(t, err, ierr.ErrValidation)
	})

	t.Run("Unknown category fails", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: "MC-1", Category: "ghost"})
		assert.ErrorIs(t, err, ierr.ErrCategoryNotFound)
	})
}

func TestCheckLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: "MC-1", ExpireDate: "2024-05-01 12:00:01"})
	require.NoError(t, err)

	verdict, err := f.licenses.CheckLogin(ctx, "MC-1")
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.Equal(t, "2024-05-01 12:00:01", verdict.ExpireDate)

	f.clock.Advance(time.Second)
	verdict, err = f.licenses.CheckLogin(ctx, "MC-1")
	require.NoError(t, err)
	assert.False(t, verdict.Valid, "a license is invalid from its expiry second on")

	_, err = f.licenses.CheckLogin(ctx, "MC-404")
	assert.ErrorIs(t, err, ierr.ErrLicenseNotFound)
}

func TestFieldUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: "MC-1"})
	require.NoError(t, err)
	require.NoError(t, f.categories.Add(ctx, "pro"))
	cfg, err := f.ciphers.Generate(ctx)
	require.NoError(t, err)

	require.NoError(t, f.licenses.Renew(ctx, "MC-1", "2031-01-01 00:00:00"))
	require.NoError(t, f.licenses.SetCategory(ctx, "MC-1", "pro"))
	require.NoError(t, f.licenses.SetRemark(ctx, "MC-1", "note"))
	require.NoError(t, f.licenses.SetCipherConfig(ctx, "MC-1", cfg.ConfigID))

	lic, err := f.licenses.Find(ctx, "MC-1")
	require.NoError(t, err)
	assert.Equal(t, "2031-01-01 00:00:00", lic.ExpireDate)
	assert.Equal(t, "pro", lic.Category)
	assert.Equal(t, "note", lic.Remark)
	assert.Equal(t, cfg.ConfigID, lic.CipherConfigID)

	t.Run("Unchanged value still succeeds", func(t *testing.T) {
		assert.NoError(t, f.licenses.SetRemark(ctx, "MC-1", "note"))
	})

	t.Run("Absent license is not found", func(t *testing.T) {
		assert.ErrorIs(t, f.licenses.Renew(ctx, "MC-404", "2031-01-01 00:00:00"), ierr.ErrLicenseNotFound)
		assert.ErrorIs(t, f.licenses.SetRemark(ctx, "MC-404", "x"), ierr.ErrLicenseNotFound)
		assert.ErrorIs(t, f.licenses.Delete(ctx, "MC-404"), ierr.ErrLicenseNotFound)
	})

	t.Run("References must exist", func(t *testing.T) {
		assert.ErrorIs(t, f.licenses.SetCategory(ctx, "MC-1", "ghost"), ierr.ErrCategoryNotFound)
		assert.ErrorIs(t, f.licenses.SetCipherConfig(ctx, "MC-1", "ghost"), ierr.ErrCipherConfigNotFound)
	})

	t.Run("Renew validates the timestamp", func(t *testing.T) {
		assert.ErrorIs(t, f.licenses.Renew(ctx, "MC-1", "tomorrow"), ierr.ErrValidation)
	})

	t.Run("Delete removes the license", func(t *testing.T) {
		require.NoError(t, f.licenses.Delete(ctx, "MC-1"))
		_, err := f.licenses.Find(ctx, "MC-1")
		assert.ErrorIs(t, err, ierr.ErrLicenseNotFound)
	})
}

func TestLicensePagesReproduceFullListing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const total, size = 23, 5
	for i := 0; i < total; i++ {
		_, err := f.licenses.Register(ctx, RegisterRequest{MachineCode: fmt.Sprintf("MC-%02d", i)})
		require.NoError(t, err)
	}

	first, err := f.licenses.Page(ctx, 1, size)
	require.NoError(t, err)
	assert.Equal(t, int64(total), first.TotalCount)
	assert.Equal(t, 5, first.TotalPages)

	var seen []string
	for page := 1; page <= first.TotalPages; page++ {
		p, err := f.licenses.Page(ctx, page, size)
		require.NoError(t, err)
		for _, lic := range p.Records {
			seen = append(seen, lic.MachineCode)
		}
	}

	require.Len(t, seen, total)
	for i, mc := range seen {
		assert.Equal(t, fmt.Sprintf("MC-%02d", total-1-i), mc)
	}
}

func TestEmptyPageHasOnePage(t *testing.T) {
	f := newFixture(t)

	p, err := f.licenses.Page(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Empty(t, p.Records)
	assert.Equal(t, 1, p.TotalPages)
}
