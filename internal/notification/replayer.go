package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	paymentmodel "github.com/frahmantamala/iyzipay-checkout/internal/core/datamodel/payment"
)

const (
	defaultMaxWorkers  = 4
	defaultBatchSize   = 50
	defaultMaxAttempts = 5
)

type Worker struct {
	ID         int
	WorkerPool chan chan ReplayJob
	JobChannel chan ReplayJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan ReplayJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan ReplayJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(ReplayJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker replaying notification", "worker_id", w.ID, "notification_id", job.Entry.ID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type ReplayConfig struct {
	MaxWorkers  int
	BatchSize   int
	MaxAttempts int
}

// Replayer re-runs failed webhook deliveries through the payment engine.
type Replayer struct {
	repo        RepositoryAPI
	processor   WebhookProcessor
	logger      *slog.Logger
	maxWorkers  int
	batchSize   int
	maxAttempts int
}

func NewReplayer(repo RepositoryAPI, processor WebhookProcessor, config ReplayConfig, logger *slog.Logger) *Replayer {
	if logger == nil {
		logger = slog.Default()
	}

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Replayer{
		repo:        repo,
		processor:   processor,
		logger:      logger,
		maxWorkers:  maxWorkers,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
	}
}

// Run replays one batch of failed notifications and waits for it to finish.
func (r *Replayer) Run(ctx context.Context) (ReplaySummary, error) {
	entries, err := r.repo.ListFailed(ctx, r.maxAttempts, r.batchSize)
	if err != nil {
		return ReplaySummary{}, fmt.Errorf("list failed notifications: %w", err)
	}

	summary := ReplaySummary{Total: len(entries)}
	if len(entries) == 0 {
		r.logger.Info("no failed notifications to replay")
		return summary, nil
	}

	poolCtx, stop := context.WithCancel(ctx)
	defer stop()

	jobQueue := make(chan ReplayJob, len(entries))
	workerPool := make(chan chan ReplayJob, r.maxWorkers)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	process := func(job ReplayJob) {
		ok := r.replay(ctx, job.Entry)
		mu.Lock()
		defer mu.Unlock()
		if ok {
			summary.Handled++
		} else {
			summary.Failed++
		}
	}

	for i := 0; i < r.maxWorkers; i++ {
		NewWorker(i, workerPool, r.logger).Start(poolCtx, &wg, process)
	}

	dispatched := make(chan struct{})
	go r.dispatch(poolCtx, jobQueue, workerPool, dispatched)

	r.logger.Info("replaying failed notifications",
		"count", len(entries),
		"max_workers", r.maxWorkers)

	for _, e := range entries {
		jobQueue <- ReplayJob{Entry: e}
	}
	close(jobQueue)

	<-dispatched
	stop()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	r.logger.Info("notification replay finished",
		"total", summary.Total,
		"handled", summary.Handled,
		"failed", summary.Failed)
	return summary, ctx.Err()
}

func (r *Replayer) dispatch(ctx context.Context, jobQueue <-chan ReplayJob, workerPool chan chan ReplayJob, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case job, ok := <-jobQueue:
			if !ok {
				return
			}

			select {
			case jobChannel := <-workerPool:
				select {
				case jobChannel <- job:
				case <-ctx.Done():
					r.logger.Info("dispatcher shutting down")
					return
				}
			case <-ctx.Done():
				r.logger.Info("dispatcher shutting down")
				return
			}
		case <-ctx.Done():
			r.logger.Info("dispatcher shutting down")
			return
		}
	}
}

func (r *Replayer) replay(ctx context.Context, entry paymentmodel.NotificationLog) bool {
	result, err := r.processor.HandleWebhook(ctx, storedBody(entry.Payload), entry.Signature)
	if err != nil {
		r.logger.Warn("notification replay failed",
			"notification_id", entry.ID,
			"attempts", entry.Attempts+1,
			"error", err)
		if merr := r.repo.MarkFailed(ctx, entry.ID, err.Error()); merr != nil {
			r.logger.Error("failed to mark notification failed", "notification_id", entry.ID, "error", merr)
		}
		return false
	}

	if merr := r.repo.MarkHandled(ctx, entry.ID); merr != nil {
		r.logger.Error("failed to mark notification handled", "notification_id", entry.ID, "error", merr)
	}
	if result != nil {
		r.logger.Info("notification replayed",
			"notification_id", entry.ID,
			"order_id", result.OrderID,
			"applied", result.Applied)
	}
	return true
}

// storedBody undoes the quoting applied to non-JSON bodies when they were
// recorded.
func storedBody(payload []byte) []byte {
	var s string
	if len(payload) > 0 && payload[0] == '"' && json.Unmarshal(payload, &s) == nil {
		return []byte(s)
	}
	return payload
}
