package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/entitlement-service/internal/config"
	"github.com/makkenzo/entitlement-service/internal/tasks"
	"go.uber.org/zap"
)

const defaultReconcileSchedule = "@every 1h"

// RunWorkers starts the asynq server and scheduler, enqueues one
// reconciliation run, and blocks until ctx is cancelled or a component fails.
func RunWorkers(ctx context.Context, cfg *config.Config, reconciler tasks.Reconciler, logger *zap.Logger) error {
	log := logger.Named("Worker")

	redisConnOpts := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	concurrency := cfg.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	srv := asynq.NewServer(
		redisConnOpts,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("Asynq task processing failed",
					zap.String("task_type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err),
				)
			}),
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqServer")),
		},
	)

	mux := asynq.NewServeMux()
	reconcileHandler := tasks.NewReconcileReferencesHandler(reconciler, logger)
	mux.HandleFunc(tasks.TypeReconcileReferences, reconcileHandler.ProcessTask)

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("asynq server error: %w", err)
	}
	defer func() {
		log.Info("Shutting down Asynq Server...")
		srv.Shutdown()
		log.Info("Asynq Server stopped.")
	}()

	scheduler := asynq.NewScheduler(
		redisConnOpts,
		&asynq.SchedulerOpts{
			Logger: NewAsynqLoggerAdapter(logger.Named("AsynqScheduler")),
		},
	)

	schedule := cfg.Worker.ReconcileSchedule
	if schedule == "" {
		schedule = defaultReconcileSchedule
	}
	periodic, err := tasks.NewReconcileReferencesTask(tasks.TriggerSchedule)
	if err != nil {
		return fmt.Errorf("scheduler task creation error: %w", err)
	}
	entryID, err := scheduler.Register(schedule, periodic)
	if err != nil {
		return fmt.Errorf("scheduler registration error: %w", err)
	}
	log.Info("Registered periodic reference reconciliation", zap.String("entry_id", entryID), zap.String("schedule", schedule))

	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("asynq scheduler error: %w", err)
	}
	defer func() {
		log.Info("Shutting down Asynq Scheduler...")
		scheduler.Shutdown()
		log.Info("Asynq Scheduler stopped.")
	}()

	if err := enqueueStartupRun(ctx, redisConnOpts, log); err != nil {
		log.Warn("Failed to enqueue startup reconciliation", zap.Error(err))
	}

	<-ctx.Done()
	return nil
}

func enqueueStartupRun(ctx context.Context, opts asynq.RedisClientOpt, log *zap.Logger) error {
	client := asynq.NewClient(opts)
	defer client.Close()

	task, err := tasks.NewReconcileReferencesTask(tasks.TriggerStartup)
	if err != nil {
		return err
	}
	info, err := client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		log.Debug("Reconciliation already queued")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info("Enqueued startup reconciliation", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
	return nil
}
