package annotate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/memohai/chatmanager/internal/config"
	"github.com/memohai/chatmanager/internal/richtext"
)

// ActionBarSender shows a short message above one identity's hotbar.
type ActionBarSender interface {
	ActionBar(ctx context.Context, to uuid.UUID, message richtext.Node) error
}

// NotifierConfig configures a Notifier.
type NotifierConfig struct {
	QueueSize int
	PerSecond float64
	Burst     int
	Message   string
}

// NotifierConfigFromConfig extracts notifier settings.
func NotifierConfigFromConfig(cfg config.MentionConfig) NotifierConfig {
	return NotifierConfig{
		QueueSize: cfg.QueueSize,
		PerSecond: cfg.PerSecond,
		Burst:     cfg.Burst,
		Message:   cfg.Notification,
	}
}

// Notifier delivers mention notifications off the render path. The queue is
// bounded and drops on overflow; each target is rate limited, and targets
// can opt out.
type Notifier struct {
	sender ActionBarSender
	logger *slog.Logger
	queue  chan uuid.UUID

	message atomic.Pointer[string]

	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[uuid.UUID]*rate.Limiter
	disabled map[uuid.UUID]struct{}

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewNotifier creates a stopped notifier.
func NewNotifier(log *slog.Logger, sender ActionBarSender, cfg NotifierConfig) *Notifier {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	limit := rate.Inf
	if cfg.PerSecond > 0 {
		limit = rate.Limit(cfg.PerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	n := &Notifier{
		sender:   sender,
		logger:   log.With(slog.String("service", "mention_notifier")),
		queue:    make(chan uuid.UUID, cfg.QueueSize),
		limit:    limit,
		burst:    cfg.Burst,
		limiters: map[uuid.UUID]*rate.Limiter{},
		disabled: map[uuid.UUID]struct{}{},
	}
	n.SetMessage(cfg.Message)
	return n
}

// SetMessage swaps the notification markup.
func (n *Notifier) SetMessage(markup string) {
	n.message.Store(&markup)
}

// Enabled reports whether id receives notifications. Everyone starts enabled.
func (n *Notifier) Enabled(id uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, off := n.disabled[id]
	return !off
}

// SetEnabled opts id in or out.
func (n *Notifier) SetEnabled(id uuid.UUID, enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if enabled {
		delete(n.disabled, id)
	} else {
		n.disabled[id] = struct{}{}
	}
}

// Toggle flips the opt-out of id and returns the new state.
func (n *Notifier) Toggle(id uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, off := n.disabled[id]; off {
		delete(n.disabled, id)
		return true
	}
	n.disabled[id] = struct{}{}
	return false
}

// Forget drops the rate limiter of an identity that went offline.
func (n *Notifier) Forget(id uuid.UUID) {
	n.mu.Lock()
	delete(n.limiters, id)
	n.mu.Unlock()
}

func (n *Notifier) allow(id uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, off := n.disabled[id]; off {
		return false
	}
	l, ok := n.limiters[id]
	if !ok {
		l = rate.NewLimiter(n.limit, n.burst)
		n.limiters[id] = l
	}
	return l.Allow()
}

// Notify queues a notification for id without blocking. It reports whether
// the notification was queued.
func (n *Notifier) Notify(id uuid.UUID) bool {
	if !n.allow(id) {
		return false
	}
	select {
	case n.queue <- id:
		return true
	default:
		n.logger.Debug("mention queue full, dropping notification", slog.String("target", id.String()))
		return false
	}
}

// Start launches the delivery goroutine.
func (n *Notifier) Start(ctx context.Context) error {
	n.runMu.Lock()
	defer n.runMu.Unlock()
	if n.running {
		return errors.New("mention notifier already running")
	}
	n.stopCh = make(chan struct{})
	n.doneCh = make(chan struct{})
	n.running = true
	go n.run(context.WithoutCancel(ctx), n.stopCh, n.doneCh)
	return nil
}

// Stop stops delivery and waits for the goroutine to exit. Queued
// notifications that were not delivered yet are discarded.
func (n *Notifier) Stop() error {
	n.runMu.Lock()
	if !n.running {
		n.runMu.Unlock()
		return nil
	}
	n.running = false
	close(n.stopCh)
	done := n.doneCh
	n.runMu.Unlock()
	<-done
	return nil
}

func (n *Notifier) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		select {
		case <-stopCh:
			return
		case id := <-n.queue:
			msg := richtext.Parse(*n.message.Load())
			if err := n.sender.ActionBar(ctx, id, msg); err != nil {
				n.logger.Warn("mention notification failed",
					slog.String("target", id.String()),
					slog.Any("error", err))
			}
		}
	}
}
