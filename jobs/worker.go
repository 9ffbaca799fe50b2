package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker wraps the asynq server that runs the service's background tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *zap.Logger
}

func NewWorker(redisOpts asynq.RedisClientOpt, log *zap.Logger) *Worker {
	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{QueueDefault: 1},
		Logger:      log.Named("asynq").Sugar(),
	})
	mux := asynq.NewServeMux()
	mux.Handle(TaskLowStock, NewLowStockHandler(log))
	return &Worker{server: srv, mux: mux, log: log}
}

// Run processes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.log.Info("worker stopping")
	w.server.Shutdown()
	return nil
}
