package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/entitlement-service/internal/domain/license"
	"go.uber.org/zap"
)

// Reconciler repairs licenses that point at deleted categories or cipher
// configs, which an interrupted cascade can leave behind.
type Reconciler interface {
	ReconcileReferences(ctx context.Context) (license.ReconcileResult, error)
}

type ReconcileReferencesHandler struct {
	reconciler Reconciler
	logger     *zap.Logger
}

func NewReconcileReferencesHandler(reconciler Reconciler, logger *zap.Logger) *ReconcileReferencesHandler {
	return &ReconcileReferencesHandler{
		reconciler: reconciler,
		logger:     logger.Named("ReconcileReferencesHandler"),
	}
}

func (h *ReconcileReferencesHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeReconcileReferences {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p ReconcileReferencesPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal payload for reconciliation task", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	res, err := h.reconciler.ReconcileReferences(ctx)
	if err != nil {
		h.logger.Error("Reference reconciliation failed", zap.String("trigger", p.Trigger), zap.Error(err))
		return fmt.Errorf("reconcile references: %w", err)
	}

	h.logger.Info("Reference reconciliation finished",
		zap.String("trigger", p.Trigger),
		zap.Int64("categories_cleared", res.CategoriesCleared),
		zap.Int64("cipher_configs_reset", res.CipherConfigsReset),
	)
	return nil
}
