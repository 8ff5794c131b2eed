package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"boat-safety-go/pkg/models"
)

// Publisher forwards alert batches to an external consumer.
type Publisher interface {
	Publish(ctx context.Context, batch models.AlertBatch) error
}

// AlertHub drains monitor batches and fans them out to stream subscribers
// and an optional publisher. Empty batches are forwarded only when they clear
// a previously non-empty one, so consumers see the all-clear once.
type AlertHub struct {
	logger         *logrus.Logger
	publisher      Publisher
	publishTimeout time.Duration

	mu     sync.Mutex
	subs   map[chan models.AlertBatch]struct{}
	closed bool

	lastHadAlerts bool

	delivered atomic.Uint64
	published atomic.Uint64
	failures  atomic.Uint64
}

// NewAlertHub creates a hub. publisher may be nil.
func NewAlertHub(logger *logrus.Logger, publisher Publisher, publishTimeout time.Duration) *AlertHub {
	if publishTimeout <= 0 {
		publishTimeout = 5 * time.Second
	}
	return &AlertHub{
		logger:         logger,
		publisher:      publisher,
		publishTimeout: publishTimeout,
		subs:           make(map[chan models.AlertBatch]struct{}),
	}
}

// Run consumes batches until in is closed or ctx ends. Subscriber channels are
// closed on return.
func (h *AlertHub) Run(ctx context.Context, in <-chan models.AlertBatch) error {
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-in:
			if !ok {
				return nil
			}
			h.Dispatch(ctx, batch)
		}
	}
}

// Dispatch forwards one batch. Calls must not overlap.
func (h *AlertHub) Dispatch(ctx context.Context, batch models.AlertBatch) {
	hasAlerts := len(batch.Alerts) > 0
	if !hasAlerts && !h.lastHadAlerts {
		return
	}
	h.lastHadAlerts = hasAlerts

	h.broadcast(batch)

	if h.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, h.publishTimeout)
	defer cancel()
	if err := h.publisher.Publish(pctx, batch); err != nil {
		h.failures.Add(1)
		h.logger.Warnf("Failed to publish alert batch %s: %v", batch.ScanID, err)
		return
	}
	h.published.Add(1)
}

// broadcast never blocks: a subscriber whose buffer is full misses the batch.
func (h *AlertHub) broadcast(batch models.AlertBatch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- batch:
			h.delivered.Add(1)
		default:
			h.logger.Debugf("Subscriber is slow, skipped batch %s", batch.ScanID)
		}
	}
}

// Subscribe registers a stream consumer. The returned function unregisters it
// and closes the channel.
func (h *AlertHub) Subscribe(buffer int) (<-chan models.AlertBatch, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.AlertBatch, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

func (h *AlertHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		close(ch)
		delete(h.subs, ch)
	}
	h.closed = true
}

func (h *AlertHub) Stats() HubStats {
	h.mu.Lock()
	n := len(h.subs)
	h.mu.Unlock()
	return HubStats{
		Delivered:       h.delivered.Load(),
		Published:       h.published.Load(),
		PublishFailures: h.failures.Load(),
		Subscribers:     n,
	}
}
