package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeReconcileReferences = "entitlement:reconcile:references"

	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
)

type ReconcileReferencesPayload struct {
	Trigger string `json:"trigger"`
}

func NewReconcileReferencesTask(trigger string, opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(ReconcileReferencesPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}

	allOpts := append(opts, asynq.Unique(10*time.Minute), asynq.MaxRetry(3))
	return asynq.NewTask(TypeReconcileReferences, payloadBytes, allOpts...), nil
}
