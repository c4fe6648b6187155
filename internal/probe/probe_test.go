package probe

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/domspect/internal/dom"
)

// chanSource feeds a dispatcher from a plain channel.
type chanSource struct {
	ch chan Event
}

func (s *chanSource) Events() <-chan Event { return s.ch }

// recordingListener collects delivered events per kind.
type recordingListener struct {
	hovers, outs, moves, clicks, keys, copies chan Event
}

func newRecordingListener() *recordingListener {
	mk := func() chan Event { return make(chan Event, 64) }
	return &recordingListener{
		hovers: mk(), outs: mk(), moves: mk(),
		clicks: mk(), keys: mk(), copies: mk(),
	}
}

func (l *recordingListener) OnHover(ev Event) { l.hovers <- ev }
func (l *recordingListener) OnOut(ev Event)   { l.outs <- ev }
func (l *recordingListener) OnMove(ev Event)  { l.moves <- ev }
func (l *recordingListener) OnClick(ev Event) { l.clicks <- ev }
func (l *recordingListener) OnKey(ev Event)   { l.keys <- ev }
func (l *recordingListener) OnCopy(ev Event)  { l.copies <- ev }

func startDispatcher(t *testing.T, cfg Config, l Listener) (*Dispatcher, context.CancelFunc) {
	t.Helper()
	d := New(cfg, l)
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-d.Done()
	})
	return d, cancel
}

func waitEvent(t *testing.T, ch chan Event, what string) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return Event{}
	}
}

func expectNone(t *testing.T, ch chan Event, within time.Duration, what string) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected %s: %+v", what, ev)
	case <-time.After(within):
	}
}

func TestDispatcher_HoverFiresAfterRest(t *testing.T) {
	src := &chanSource{ch: make(chan Event, 16)}
	l := newRecordingListener()
	startDispatcher(t, Config{Source: src, HoverWindow: 20 * time.Millisecond}, l)

	src.ch <- Event{Kind: KindOver, Target: dom.ElementRef{NodeID: 3}}

	ev := waitEvent(t, l.hovers, "hover")
	if ev.Target.NodeID != 3 {
		t.Errorf("NodeID: got %d, want 3", ev.Target.NodeID)
	}
}

func TestDispatcher_RapidSweepFiresLastOnly(t *testing.T) {
	src := &chanSource{ch: make(chan Event, 16)}
	l := newRecordingListener()
	startDispatcher(t, Config{Source: src, HoverWindow: 50 * time.Millisecond}, l)

	for i := int64(1); i <= 5; i++ {
		src.ch <- Event{Kind: KindOver, Target: dom.ElementRef{NodeID: i}}
		time.Sleep(5 * time.Millisecond)
	}

	ev := waitEvent(t, l.hovers, "hover")
	if ev.Target.NodeID != 5 {
		t.Errorf("NodeID: got %d, want 5 (only the last rest fires)", ev.Target.NodeID)
	}
	expectNone(t, l.hovers, 100*time.Millisecond, "second hover")
}

func TestDispatcher_OutCancelsPendingHover(t *testing.T) {
	src := &chanSource{ch: make(chan Event, 16)}
	l := newRecordingListener()
	startDispatcher(t, Config{Source: src, HoverWindow: 50 * time.Millisecond}, l)

	src.ch <- Event{Kind: KindOver, Target: dom.ElementRef{NodeID: 1}}
	src.ch <- Event{Kind: KindOut, Target: dom.ElementRef{NodeID: 1}}

	waitEvent(t, l.outs, "out")
	expectNone(t, l.hovers, 120*time.Millisecond, "hover after out")
}

func TestDispatcher_ContainedOutIsSwallowed(t *testing.T) {
	src := &chanSource{ch: make(chan Event, 16)}
	l := newRecordingListener()
	startDispatcher(t, Config{Source: src, HoverWindow: 10 * time.Millisecond}, l)

	src.ch <- Event{Kind: KindOut, Target: dom.ElementRef{NodeID: 1}, RelatedContained: true}
	src.ch <- Event{Kind: KindClick, Target: dom.ElementRef{NodeID: 2}}

	waitEvent(t, l.clicks, "click")
	expectNone(t, l.outs, 20*time.Millisecond, "out for contained move")
}

func TestDispatcher_PopupHoverDoesNotFire(t *testing.T) {
	src := &chanSource{ch: make(chan Event, 16)}
	l := newRecordingListener()
	startDispatcher(t, Config{Source: src, HoverWindow: 10 * time.Millisecond}, l)

	src.ch <- Event{Kind: KindOver, Target: dom.ElementRef{NodeID: 9, InPopup: true}, OverPopup: true}

	expectNone(t, l.hovers, 60*time.Millisecond, "hover over panel")
}

func TestDispatcher_MovesThrottled(t *testing.T) {
	src := &chanSource{ch: make(chan Event, 64)}
	l := newRecordingListener()
	startDispatcher(t, Config{Source: src, MoveInterval: 50 * time.Millisecond}, l)

	base := time.Now()
	for i := 0; i < 10; i++ {
		src.ch <- Event{Kind: KindMove, At: base.Add(time.Duration(i) * 10 * time.Millisecond)}
	}

	waitEvent(t, l.moves, "first move")
	second := waitEvent(t, l.moves, "second move")
	if got := second.At.Sub(base); got < 50*time.Millisecond {
		t.Errorf("second move at +%v, want >= 50ms after first", got)
	}
}

func TestDispatcher_ImmediateKinds(t *testing.T) {
	src := &chanSource{ch: make(chan Event, 16)}
	l := newRecordingListener()
	startDispatcher(t, Config{Source: src}, l)

	src.ch <- Event{Kind: KindClick, Target: dom.ElementRef{NodeID: 1}}
	src.ch <- Event{Kind: KindKey, Key: "Escape"}
	src.ch <- Event{Kind: KindCopy, CopyMode: "selector"}

	waitEvent(t, l.clicks, "click")
	if ev := waitEvent(t, l.keys, "key"); ev.Key != "Escape" {
		t.Errorf("Key: got %q, want %q", ev.Key, "Escape")
	}
	if ev := waitEvent(t, l.copies, "copy"); ev.CopyMode != "selector" {
		t.Errorf("CopyMode: got %q, want %q", ev.CopyMode, "selector")
	}
}

func TestDispatcher_ListenerPanicContained(t *testing.T) {
	src := &chanSource{ch: make(chan Event, 16)}
	l := newRecordingListener()
	panicking := &panicOnClick{inner: l}
	startDispatcher(t, Config{Source: src}, panicking)

	src.ch <- Event{Kind: KindClick}
	src.ch <- Event{Kind: KindKey, Key: "Escape"}

	// The loop survives the panic and keeps delivering.
	waitEvent(t, l.keys, "key after panic")
}

func TestDispatcher_Tick(t *testing.T) {
	src := &chanSource{ch: make(chan Event)}
	ticks := make(chan struct{}, 8)
	l := newRecordingListener()
	startDispatcher(t, Config{
		Source:    src,
		TickEvery: 10 * time.Millisecond,
		OnTick:    func() { ticks <- struct{}{} },
	}, l)

	select {
	case <-ticks:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
	}
}

func TestDispatcher_StopsOnSourceClose(t *testing.T) {
	src := &chanSource{ch: make(chan Event)}
	l := newRecordingListener()
	d := New(Config{Source: src}, l)
	go d.Run(context.Background())

	close(src.ch)

	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop on source close")
	}
}

type panicOnClick struct {
	inner Listener
}

func (p *panicOnClick) OnHover(ev Event) { p.inner.OnHover(ev) }
func (p *panicOnClick) OnOut(ev Event)   { p.inner.OnOut(ev) }
func (p *panicOnClick) OnMove(ev Event)  { p.inner.OnMove(ev) }
func (p *panicOnClick) OnClick(ev Event) { panic("boom") }
func (p *panicOnClick) OnKey(ev Event)   { p.inner.OnKey(ev) }
func (p *panicOnClick) OnCopy(ev Event)  { p.inner.OnCopy(ev) }

// The page script owns the section fold: it must toggle the open class
// on the node carrying data-section, never on an ancestor, or the
// popup stylesheet has nothing to match.
func TestScript_TogglesOpenClassOnSection(t *testing.T) {
	js := string(probeJS)
	if !strings.Contains(js, "section.classList.toggle(OPEN_CLASS)") {
		t.Error("script does not toggle the open class on the section node")
	}
	if strings.Contains(js, "parentElement.classList.toggle") {
		t.Error("script toggles the open class on a section ancestor")
	}
}
