// Package monitor runs collision detection on a fixed period and publishes
// one alert batch per tick.
package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"boat-safety-go/pkg/models"
)

// DefaultPeriod is the detection interval used when none is configured.
const DefaultPeriod = 100 * time.Millisecond

var (
	ErrAlreadyRunning = errors.New("monitor already running")
	ErrStopped        = errors.New("monitor stopped")
)

// Detector is the detection pass the monitor drives.
type Detector interface {
	DetectCollisions() []models.CollisionAlert
}

const (
	stateIdle int32 = iota
	stateRunning
	stateStopped
)

// Options tunes a Monitor. Zero values fall back to defaults.
type Options struct {
	Period time.Duration
	Buffer int
}

// Stats is a point-in-time view of loop counters.
type Stats struct {
	Ticks          uint64        `json:"ticks"`
	AlertsEmitted  uint64        `json:"alerts_emitted"`
	BatchesDropped uint64        `json:"batches_dropped"`
	LastPass       time.Duration `json:"last_pass_ns"`
	LastScanAt     time.Time     `json:"last_scan_at"`
}

// Monitor is a cancellable detection loop. Batches go to a bounded channel;
// when the consumer falls behind the oldest queued batch is discarded so the
// loop never blocks on delivery.
type Monitor struct {
	detector Detector
	logger   *logrus.Logger
	period   time.Duration

	out    chan models.AlertBatch
	stopCh chan struct{}
	done   chan struct{}

	state    atomic.Int32
	stopping atomic.Bool
	stopOnce sync.Once

	ticks   atomic.Uint64
	emitted atomic.Uint64
	dropped atomic.Uint64

	mu       sync.RWMutex
	latest   models.AlertBatch
	hasBatch bool
	lastPass time.Duration
}

// New creates a stopped Monitor.
func New(detector Detector, logger *logrus.Logger, opts Options) *Monitor {
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Buffer < 1 {
		opts.Buffer = 1
	}
	return &Monitor{
		detector: detector,
		logger:   logger,
		period:   opts.Period,
		out:      make(chan models.AlertBatch, opts.Buffer),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Period returns the detection interval.
func (m *Monitor) Period() time.Duration {
	return m.period
}

// Alerts returns the batch channel. It is closed when the loop exits.
func (m *Monitor) Alerts() <-chan models.AlertBatch {
	return m.out
}

// Start launches the loop in its own goroutine. A Monitor runs at most once.
func (m *Monitor) Start(ctx context.Context) error {
	if !m.state.CompareAndSwap(stateIdle, stateRunning) {
		if m.state.Load() == stateRunning {
			return ErrAlreadyRunning
		}
		return ErrStopped
	}
	go m.run(ctx)
	m.logger.Infof("Safety monitor started, period %s", m.period)
	return nil
}

// Stop asks the loop to exit. The current pass, if any, completes first.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		m.stopping.Store(true)
		close(m.stopCh)
	})
}

// Done is closed once the loop has exited.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the loop exits or ctx ends.
func (m *Monitor) Wait(ctx context.Context) error {
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the loop is active.
func (m *Monitor) Running() bool {
	return m.state.Load() == stateRunning
}

// Latest returns the most recent batch produced by the loop.
func (m *Monitor) Latest() (models.AlertBatch, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest, m.hasBatch
}

func (m *Monitor) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Ticks:          m.ticks.Load(),
		AlertsEmitted:  m.emitted.Load(),
		BatchesDropped: m.dropped.Load(),
		LastPass:       m.lastPass,
		LastScanAt:     m.latest.GeneratedAt,
	}
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.period)
	defer func() {
		ticker.Stop()
		m.state.Store(stateStopped)
		close(m.out)
		close(m.done)
		m.logger.Info("Safety monitor stopped")
	}()

	for {
		if m.stopping.Load() || ctx.Err() != nil {
			return
		}

		m.scan()

		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
		}
	}
}

func (m *Monitor) scan() {
	started := time.Now()
	alerts := m.detector.DetectCollisions()
	elapsed := time.Since(started)

	batch := models.AlertBatch{
		ScanID:      uuid.NewString(),
		GeneratedAt: started.UTC(),
		Alerts:      alerts,
	}

	m.mu.Lock()
	m.latest = batch
	m.hasBatch = true
	m.lastPass = elapsed
	m.mu.Unlock()

	m.ticks.Add(1)
	m.emitted.Add(uint64(len(alerts)))

	m.logger.WithFields(logrus.Fields{
		"scan_id":  batch.ScanID,
		"alerts":   len(alerts),
		"duration": elapsed.String(),
	}).Debug("Detection pass completed")

	if elapsed > m.period {
		m.logger.Warnf("Detection pass took %s, longer than period %s", elapsed, m.period)
	}

	m.deliver(batch)
}

// deliver queues batch without blocking, discarding the oldest queued batch
// while the buffer is full. Only the loop goroutine sends on out.
func (m *Monitor) deliver(batch models.AlertBatch) {
	for {
		select {
		case m.out <- batch:
			return
		default:
		}

		select {
		case old := <-m.out:
			m.dropped.Add(1)
			m.logger.Warnf("Alert consumer is behind, dropped batch %s", old.ScanID)
		default:
		}
	}
}
