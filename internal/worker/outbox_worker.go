package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/repository"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/logger"
)

// Publisher delivers one outbox row to the message broker.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

// OutboxWorkerConfig holds outbox worker settings
type OutboxWorkerConfig struct {
	PollInterval   time.Duration
	BatchSize      int
	MaxRetries     int
	BaseRetryDelay time.Duration
}

// DefaultOutboxWorkerConfig returns the default outbox worker configuration
func DefaultOutboxWorkerConfig() *OutboxWorkerConfig {
	return &OutboxWorkerConfig{
		PollInterval:   2 * time.Second,
		BatchSize:      100,
		MaxRetries:     5,
		BaseRetryDelay: time.Second,
	}
}

// OutboxWorkerStats is a snapshot of the worker's counters
type OutboxWorkerStats struct {
	IsRunning      bool
	TotalPublished int64
	TotalFailed    int64
	LastPollTime   time.Time
	LastBatchSize  int
}

// OutboxWorker polls the transactional outbox and publishes pending rows
// to the broker. Rows that fail are retried with exponential backoff by
// the repository's fetch query until the retry limit is reached.
type OutboxWorker struct {
	outbox    repository.OutboxRepository
	publisher Publisher
	config    *OutboxWorkerConfig
	log       *logger.Logger

	mu             sync.Mutex
	running        bool
	stopCh         chan struct{}
	doneCh         chan struct{}
	totalPublished int64
	totalFailed    int64
	lastPollTime   time.Time
	lastBatchSize  int
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(outbox repository.OutboxRepository, publisher Publisher, log *logger.Logger, config *OutboxWorkerConfig) *OutboxWorker {
	if config == nil {
		config = DefaultOutboxWorkerConfig()
	}
	return &OutboxWorker{
		outbox:    outbox,
		publisher: publisher,
		config:    config,
		log:       log,
	}
}

// Start begins the polling loop. It is a no-op when already running.
func (w *OutboxWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop signals the loop to finish the current batch and waits for it to exit.
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	<-done
}

// GetStats returns a snapshot of the worker's counters
func (w *OutboxWorker) GetStats() *OutboxWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &OutboxWorkerStats{
		IsRunning:      w.running,
		TotalPublished: w.totalPublished,
		TotalFailed:    w.totalFailed,
		LastPollTime:   w.lastPollTime,
		LastBatchSize:  w.lastBatchSize,
	}
}

func (w *OutboxWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.log.Info("outbox worker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("outbox worker stopping, context cancelled")
			return
		case <-w.stopCh:
			w.log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			w.drainBatch(ctx)
		}
	}
}

// DrainBatch publishes one batch of pending rows. Exposed so callers can
// flush the outbox outside the ticker, e.g. during shutdown.
func (w *OutboxWorker) DrainBatch(ctx context.Context) {
	w.drainBatch(ctx)
}

func (w *OutboxWorker) drainBatch(ctx context.Context) {
	rows, err := w.outbox.FetchPending(ctx, w.config.BatchSize, w.config.MaxRetries, w.config.BaseRetryDelay)
	if err != nil {
		w.log.Error("outbox fetch failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.lastPollTime = time.Now()
	w.lastBatchSize = len(rows)
	w.mu.Unlock()

	for _, row := range rows {
		if err := w.publisher.Publish(ctx, row.Topic, row.PartitionKey, row.Payload); err != nil {
			w.log.Warn("outbox publish failed",
				zap.String("outbox_id", row.ID),
				zap.String("topic", row.Topic),
				zap.Int("retry_count", row.RetryCount),
				zap.Error(err))
			if err := w.outbox.MarkAttemptFailed(ctx, row.ID, w.config.MaxRetries); err != nil {
				w.log.Error("outbox retry bookkeeping failed",
					zap.String("outbox_id", row.ID), zap.Error(err))
			}
			w.mu.Lock()
			w.totalFailed++
			w.mu.Unlock()
			continue
		}

		if err := w.outbox.MarkProcessed(ctx, row.ID); err != nil {
			// the event went out; a stuck pending row will republish,
			// consumers deduplicate by event id
			w.log.Error("outbox row published but not marked processed",
				zap.String("outbox_id", row.ID), zap.Error(err))
			continue
		}

		w.mu.Lock()
		w.totalPublished++
		w.mu.Unlock()
	}
}
