package probe

import (
	"context"
	"log/slog"
	"time"
)

// Config for creating a Dispatcher.
type Config struct {
	Source Source
	// HoverWindow is the rest time before a hover fires. Default: 100ms.
	HoverWindow time.Duration
	// MoveInterval is the minimum gap between forwarded moves. Default: 16ms.
	MoveInterval time.Duration
	// TickEvery, when positive, invokes OnTick on that period. Used for
	// coarse cache maintenance.
	TickEvery time.Duration
	// OnTick runs on the dispatcher goroutine every TickEvery.
	OnTick func()
	Logger *slog.Logger
}

// Dispatcher runs the event loop for one page: it reads raw events from
// the source, paces them and invokes a Listener. All callbacks run on
// the dispatcher goroutine, so listeners need no locking of their own.
type Dispatcher struct {
	src      Source
	listener Listener
	logger   *slog.Logger

	hover    *hoverDebounce
	throttle *moveThrottle

	tickEvery time.Duration
	onTick    func()

	done chan struct{}
}

// New creates a Dispatcher delivering to the given listener.
func New(cfg Config, l Listener) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Dispatcher{
		src:       cfg.Source,
		listener:  l,
		logger:    cfg.Logger,
		hover:     newHoverDebounce(cfg.HoverWindow),
		throttle:  newMoveThrottle(cfg.MoveInterval),
		tickEvery: cfg.TickEvery,
		onTick:    cfg.OnTick,
		done:      make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled or the source channel
// closes. It blocks; callers usually run it on its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	var tickC <-chan time.Time
	if d.tickEvery > 0 && d.onTick != nil {
		ticker := time.NewTicker(d.tickEvery)
		defer ticker.Stop()
		tickC = ticker.C
	}

	events := d.src.Events()
	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			d.handle(ev)

		case <-d.hover.timerC():
			if ev, ok := d.hover.take(); ok {
				d.deliver(func() { d.listener.OnHover(ev) })
			}

		case <-tickC:
			d.deliver(d.onTick)
		}
	}
}

// Done is closed when Run returns.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) handle(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	switch ev.Kind {
	case KindOver:
		if ev.OverPopup {
			d.hover.cancel()
			return
		}
		d.hover.schedule(ev)

	case KindOut:
		// The pointer left before the rest window elapsed; the pending
		// hover no longer describes where the pointer is.
		d.hover.cancel()
		if ev.RelatedContained {
			return
		}
		d.deliver(func() { d.listener.OnOut(ev) })

	case KindMove:
		if !d.throttle.allow(ev.At) {
			return
		}
		d.deliver(func() { d.listener.OnMove(ev) })

	case KindClick:
		d.deliver(func() { d.listener.OnClick(ev) })

	case KindKey:
		d.deliver(func() { d.listener.OnKey(ev) })

	case KindCopy:
		d.deliver(func() { d.listener.OnCopy(ev) })

	default:
		d.logger.Debug("probe: unknown event kind", "kind", ev.Kind)
	}
}

// deliver invokes a listener callback, containing panics so a broken
// handler cannot take the whole loop down with it.
func (d *Dispatcher) deliver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("probe: listener panic", "panic", r)
		}
	}()
	fn()
}
