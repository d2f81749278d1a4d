package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dukerupert/larder/internal/jobs"
	"github.com/dukerupert/larder/internal/telemetry"
)

// Config holds worker configuration
type Config struct {
	// WorkerID uniquely identifies this worker instance
	WorkerID string

	// SweepInterval is how often the guest cart sweep runs
	SweepInterval time.Duration

	// GuestCartTTL is the age after which an untouched guest cart is deleted
	GuestCartTTL time.Duration

	// BatchSize bounds each delete statement
	BatchSize int

	// MaxConcurrency is the maximum number of jobs to process concurrently
	MaxConcurrency int
}

// Worker runs scheduled maintenance jobs
type Worker struct {
	config  Config
	store   jobs.GuestCartSweeper
	metrics *telemetry.BusinessMetrics
	logger  zerolog.Logger
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewWorker creates a new background job worker
func NewWorker(store jobs.GuestCartSweeper, metrics *telemetry.BusinessMetrics, config Config, logger zerolog.Logger) *Worker {
	// Set defaults
	if config.WorkerID == "" {
		config.WorkerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}
	if config.SweepInterval == 0 {
		config.SweepInterval = time.Hour
	}
	if config.GuestCartTTL == 0 {
		config.GuestCartTTL = jobs.DefaultGuestCartTTL
	}
	if config.BatchSize == 0 {
		config.BatchSize = jobs.DefaultSweepBatchSize
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 1
	}

	return &Worker{
		config:  config,
		store:   store,
		metrics: metrics,
		logger:  logger.With().Str("component", "worker").Str("worker_id", config.WorkerID).Logger(),
		now:     time.Now,
	}
}

// Start runs jobs on every tick until the context is cancelled.
// It waits for in-flight jobs before returning.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().
		Dur("sweep_interval", w.config.SweepInterval).
		Dur("guest_cart_ttl", w.config.GuestCartTTL).
		Int("max_concurrency", w.config.MaxConcurrency).
		Msg("worker starting")

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	// Semaphore for concurrency control
	sem := make(chan struct{}, w.config.MaxConcurrency)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("worker shutting down")
			w.wg.Wait()
			return nil

		case <-ticker.C:
			select {
			case sem <- struct{}{}:
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }()
					w.RunSweep(ctx)
				}()
			default:
				// Previous sweep still running, skip this tick
			}
		}
	}
}

// RunSweep runs one guest cart sweep and reports how many carts it deleted.
func (w *Worker) RunSweep(ctx context.Context) int64 {
	job, err := jobs.NewSweepGuestCartsJob(w.config.GuestCartTTL, w.config.BatchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to build sweep job")
		return 0
	}

	jobCtx, cancel := context.WithTimeout(ctx, time.Duration(job.TimeoutSeconds)*time.Second)
	defer cancel()

	start := w.now()
	result, err := jobs.ProcessCleanupJob(jobCtx, job, w.store, start)
	w.metrics.JobRun(job.Type, time.Since(start).Seconds(), err)

	var deleted int64
	if result != nil {
		deleted = result.GuestCartsDeleted
	}
	w.metrics.CartsSwept(deleted)

	if err != nil {
		w.logger.Error().Err(err).Str("job_type", job.Type).Int64("deleted", deleted).Msg("job failed")
		return deleted
	}

	w.logger.Info().Str("job_type", job.Type).Int64("deleted", deleted).Msg("job completed")
	return deleted
}
