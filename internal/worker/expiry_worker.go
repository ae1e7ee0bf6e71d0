package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/internal/repository"
	"github.com/Niroshana-SinharaRalalage/LankaConnect-sub015/pkg/logger"
)

// ExpiryWorkerConfig holds expiry worker settings
type ExpiryWorkerConfig struct {
	ScanInterval time.Duration
	BatchSize    int
}

// DefaultExpiryWorkerConfig returns the default expiry worker configuration
func DefaultExpiryWorkerConfig() *ExpiryWorkerConfig {
	return &ExpiryWorkerConfig{
		ScanInterval: time.Minute,
		BatchSize:    100,
	}
}

// ExpiryWorkerStats is a snapshot of the worker's counters
type ExpiryWorkerStats struct {
	IsRunning        bool
	TotalAbandoned   int64
	LastScanTime     time.Time
	LastAbandonCount int
}

// ExpiryWorker abandons preliminary registrations whose checkout window
// has lapsed and releases their seats. Stripe's checkout.session.expired
// webhook does the same work; the sweep catches deliveries that never
// arrived.
type ExpiryWorker struct {
	registrations repository.RegistrationRepository
	uow           repository.UnitOfWork
	config        *ExpiryWorkerConfig
	log           *logger.Logger

	mu               sync.Mutex
	running          bool
	stopCh           chan struct{}
	doneCh           chan struct{}
	totalAbandoned   int64
	lastScanTime     time.Time
	lastAbandonCount int
}

// NewExpiryWorker creates a new expiry worker
func NewExpiryWorker(registrations repository.RegistrationRepository, uow repository.UnitOfWork, log *logger.Logger, config *ExpiryWorkerConfig) *ExpiryWorker {
	if config == nil {
		config = DefaultExpiryWorkerConfig()
	}
	return &ExpiryWorker{
		registrations: registrations,
		uow:           uow,
		config:        config,
		log:           log,
	}
}

// Start begins the scan loop. It is a no-op when already running.
func (w *ExpiryWorker) Start(ctx context.Context) {
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

// Stop signals the loop to finish the current scan and waits for it to exit.
func (w *ExpiryWorker) Stop() {
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
func (w *ExpiryWorker) GetStats() *ExpiryWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &ExpiryWorkerStats{
		IsRunning:        w.running,
		TotalAbandoned:   w.totalAbandoned,
		LastScanTime:     w.lastScanTime,
		LastAbandonCount: w.lastAbandonCount,
	}
}

func (w *ExpiryWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.ScanInterval)
	defer ticker.Stop()

	w.log.Info("expiry worker started",
		zap.Duration("scan_interval", w.config.ScanInterval),
		zap.Int("batch_size", w.config.BatchSize))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("expiry worker stopping, context cancelled")
			return
		case <-w.stopCh:
			w.log.Info("expiry worker stopped")
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

// Scan runs one sweep over expired checkouts. Exposed for tests and
// manual triggering.
func (w *ExpiryWorker) Scan(ctx context.Context) {
	w.scan(ctx)
}

func (w *ExpiryWorker) scan(ctx context.Context) {
	expired, err := w.registrations.ListExpiredCheckouts(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error("expired checkout scan failed", zap.Error(err))
		return
	}

	abandoned := 0
	for _, stale := range expired {
		regID := stale.ID
		didAbandon := false
		err := w.uow.Commit(ctx, func(ctx context.Context, repos *repository.TxRepositories) error {
			reg, err := repos.Registrations.GetByID(ctx, regID)
			if err != nil {
				return err
			}
			if reg == nil {
				return nil
			}
			if err := reg.MarkAbandoned(); err != nil {
				// a completed webhook won the race, leave it alone
				return nil
			}
			if err := repos.Registrations.Update(ctx, reg); err != nil {
				return err
			}
			if err := repos.Events.ReleaseCapacity(ctx, reg.EventID, reg.AttendeeCount()); err != nil {
				return err
			}
			didAbandon = true
			return nil
		})
		if err != nil {
			w.log.Warn("failed to abandon expired checkout",
				zap.String("registration_id", regID), zap.Error(err))
			continue
		}
		if didAbandon {
			abandoned++
		}
	}

	w.mu.Lock()
	w.lastScanTime = time.Now()
	w.lastAbandonCount = abandoned
	w.totalAbandoned += int64(abandoned)
	w.mu.Unlock()

	if abandoned > 0 {
		w.log.Info("abandoned expired checkouts", zap.Int("count", abandoned))
	}
}
