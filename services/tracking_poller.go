package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/pos-dashboard/events"
	"github.com/yeremiapane/pos-dashboard/utils"
)

const DefaultPollInterval = 15 * time.Second

// TrackingPoller refreshes pending orders on a fixed period. It runs only while
// the orders view is active and at least one tracked order is pending.
type TrackingPoller struct {
	Registry *TrackingRegistry
	Interval time.Duration

	publisher events.Publisher
	metrics   *Metrics

	mu         sync.Mutex
	viewActive bool
	closed     bool
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

func NewTrackingPoller(registry *TrackingRegistry, publisher events.Publisher, metrics *Metrics, interval time.Duration) *TrackingPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &TrackingPoller{
		Registry:  registry,
		Interval:  interval,
		publisher: publisher,
		metrics:   metrics,
	}
	registry.OnChange(p.reconcile)
	return p
}

// SetOrdersViewActive records whether the orders view is on screen.
func (p *TrackingPoller) SetOrdersViewActive(active bool) {
	p.mu.Lock()
	p.viewActive = active
	p.mu.Unlock()
	p.reconcile()
}

func (p *TrackingPoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// reconcile starts or stops the ticker to match the two conditions.
func (p *TrackingPoller) reconcile() {
	want := p.Registry.HasPending()

	p.mu.Lock()
	want = want && p.viewActive && !p.closed
	switch {
	case want && p.cancel == nil:
		p.start()
	case !want && p.cancel != nil:
		p.stop()
	default:
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.metrics.setPollerRunning(want)
	p.publisher.Publish(events.EventPollingStateChanged, events.PollingStateChanged{Running: want})
}

// start and stop are called with p.mu held.
func (p *TrackingPoller) start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				p.tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	utils.InfoLogger.WithField("interval", p.Interval).Info("tracking poller started")
}

func (p *TrackingPoller) stop() {
	p.cancel()
	p.cancel = nil
	utils.InfoLogger.Info("tracking poller stopped")
}

// tick refreshes pending orders, then the updatable cache. The cache refresh
// still runs when the first step stopped the poller.
func (p *TrackingPoller) tick(ctx context.Context) {
	if err := p.Registry.RefreshPending(ctx); err != nil {
		utils.ErrorLogger.WithError(err).Warn("some pending orders failed to refresh")
	}
	if err := p.Registry.RefreshUpdatable(context.WithoutCancel(ctx)); err != nil {
		utils.ErrorLogger.WithError(err).Warn("updatable orders refresh failed")
	}
}

// Shutdown stops the poller for good and waits for an in-flight tick.
func (p *TrackingPoller) Shutdown() {
	p.mu.Lock()
	p.closed = true
	running := p.cancel != nil
	if running {
		p.stop()
	}
	p.mu.Unlock()

	p.wg.Wait()
	if running {
		p.metrics.setPollerRunning(false)
	}
}
