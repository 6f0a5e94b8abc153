package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/entitlement-service/internal/domain/license"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubReconciler struct {
	calls int
	res   license.ReconcileResult
	err   error
}

func (s *stubReconciler) ReconcileReferences(context.Context) (license.ReconcileResult, error) {
	s.calls++
	return s.res, s.err
}

func TestNewReconcileReferencesTask(t *testing.T) {
	task, err := NewReconcileReferencesTask(TriggerStartup)
	require.NoError(t, err)
	assert.Equal(t, TypeReconcileReferences, task.Type())

	var p ReconcileReferencesPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, TriggerStartup, p.Trigger)
}

func TestReconcileReferencesHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("Runs the reconciliation and logs the repair counts", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		stub := &stubReconciler{res: license.ReconcileResult{CategoriesCleared: 2, CipherConfigsReset: 1}}
		h := NewReconcileReferencesHandler(stub, zap.New(core))

		task, err := NewReconcileReferencesTask(TriggerSchedule)
		require.NoError(t, err)
		require.NoError(t, h.ProcessTask(ctx, task))
		assert.Equal(t, 1, stub.calls)

		entries := logs.FilterMessage("Reference reconciliation finished").All()
		require.Len(t, entries, 1)
		assert.Equal(t, int64(2), entries[0].ContextMap()["categories_cleared"])
		assert.Equal(t, TriggerSchedule, entries[0].ContextMap()["trigger"])
	})

	t.Run("Store failure is retried", func(t *testing.T) {
		stub := &stubReconciler{err: errors.New("db down")}
		h := NewReconcileReferencesHandler(stub, zap.NewNop())

		task, err := NewReconcileReferencesTask(TriggerSchedule)
		require.NoError(t, err)
		err = h.ProcessTask(ctx, task)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	})

	t.Run("Bad payload is not retried", func(t *testing.T) {
		stub := &stubReconciler{}
		h := NewReconcileReferencesHandler(stub, zap.NewNop())

		err := h.ProcessTask(ctx, asynq.NewTask(TypeReconcileReferences, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
		assert.Zero(t, stub.calls)
	})

	t.Run("Wrong task type", func(t *testing.T) {
		h := NewReconcileReferencesHandler(&stubReconciler{}, zap.NewNop())
		assert.Error(t, h.ProcessTask(ctx, asynq.NewTask("other", nil)))
	})
}
