package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
)

// ============================================================================
// Transport
// ============================================================================

type fakeTransport struct {
	mu       sync.Mutex
	dials    []Target
	failures []error // consumed per Dial; nil entries succeed
	conns    []*fakeConn
	subErrs  map[string]error

	// block, when set, holds Dial until closed or ctx is cancelled.
	block   chan struct{}
	started chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{started: make(chan struct{}, 16)}
}

func (f *fakeTransport) failNext(errs ...error) {
	f.mu.Lock()
	f.failures = append(f.failures, errs...)
	f.mu.Unlock()
}

func (f *fakeTransport) Dial(ctx context.Context, target Target, events Events) (Conn, error) {
	f.mu.Lock()
	f.dials = append(f.dials, target)
	var failure error
	if len(f.failures) > 0 {
		failure = f.failures[0]
		f.failures = f.failures[1:]
	}
	block := f.block
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if failure != nil {
		return nil, failure
	}

	c := &fakeConn{events: events, subErrs: f.subErrs}
	f.mu.Lock()
	f.conns = append(f.conns, c)
	f.mu.Unlock()
	return c, nil
}

func (f *fakeTransport) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dials)
}

func (f *fakeTransport) conn(i int) *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 {
		i = len(f.conns) + i
	}
	return f.conns[i]
}

type subscribeCall struct {
	topic     string
	guarantee Guarantee
}

type fakeConn struct {
	events  Events
	subErrs map[string]error

	mu     sync.Mutex
	subs   []subscribeCall
	closed int
}

func (c *fakeConn) Subscribe(topic string, g Guarantee) error {
	c.mu.Lock()
	c.subs = append(c.subs, subscribeCall{topic: topic, guarantee: g})
	c.mu.Unlock()
	return c.subErrs[topic]
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) subscriptions() []subscribeCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]subscribeCall, len(c.subs))
	copy(out, c.subs)
	return out
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) lose() {
	c.events.OnConnectionLost(errors.New("connection reset by peer"))
}

func (c *fakeConn) deliver(topic, payload string) {
	c.events.OnMessage(topic, []byte(payload))
}

// ============================================================================
// Clock
// ============================================================================

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{clock: c, delay: d, fn: f}
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// pending returns timers that are neither stopped nor fired.
func (c *fakeClock) pending() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (c *fakeClock) scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// fire runs every pending timer on the calling goroutine.
func (c *fakeClock) fire() {
	for _, t := range c.pending() {
		c.mu.Lock()
		t.fired = true
		c.mu.Unlock()
		t.fn()
	}
}

// fireStale runs a timer's callback even though it was stopped, as happens
// when Stop races with expiry.
func (c *fakeClock) fireStale(t *fakeTimer) {
	t.fn()
}

// ============================================================================
// Collaborators
// ============================================================================

type fakeSettings struct {
	enabled atomic.Bool
	reads   atomic.Int32
	err     error
}

func newFakeSettings(enabled bool) *fakeSettings {
	s := &fakeSettings{}
	s.enabled.Store(enabled)
	return s
}

func (s *fakeSettings) AutoReconnectEnabled(context.Context) (bool, error) {
	s.reads.Add(1)
	return s.enabled.Load(), s.err
}

// sequence orders side effects across fakes.
type sequence struct {
	mu     sync.Mutex
	events []string
}

func (s *sequence) add(e string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *sequence) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

type fakeHistory struct {
	seq       *sequence
	appendErr error

	mu      sync.Mutex
	history []health.Recommendation
	last    *health.Recommendation
}

func (h *fakeHistory) AppendHistory(_ context.Context, rec health.Recommendation) error {
	h.seq.add("history")
	if h.appendErr != nil {
		return h.appendErr
	}
	h.mu.Lock()
	h.history = append(h.history, rec)
	h.mu.Unlock()
	return nil
}

func (h *fakeHistory) SaveLastRecommendation(_ context.Context, rec health.Recommendation) error {
	h.seq.add("last")
	h.mu.Lock()
	h.last = &rec
	h.mu.Unlock()
	return nil
}

func (h *fakeHistory) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.history)
}

type recCall struct {
	message  string
	priority health.Priority
}

type fakeNotifier struct {
	seq *sequence
	err error

	mu     sync.Mutex
	alerts []health.Alert
	recs   []recCall
}

func (n *fakeNotifier) ShowAlert(_ context.Context, a health.Alert) error {
	n.seq.add("notify-alert")
	n.mu.Lock()
	n.alerts = append(n.alerts, a)
	n.mu.Unlock()
	return n.err
}

func (n *fakeNotifier) ShowRecommendation(_ context.Context, message string, p health.Priority) error {
	n.seq.add("notify-recommendation")
	n.mu.Lock()
	n.recs = append(n.recs, recCall{message: message, priority: p})
	n.mu.Unlock()
	return n.err
}

type fakeBroker struct {
	mu    sync.Mutex
	saved []Target
}

func (b *fakeBroker) SaveLastBroker(_ context.Context, host string, port int) error {
	b.mu.Lock()
	b.saved = append(b.saved, Target{Host: host, Port: port})
	b.mu.Unlock()
	return nil
}

// ============================================================================
// Logger
// ============================================================================

type logEntry struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) log(level, msg string, args []any) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
	l.mu.Unlock()
}

func (l *captureLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.log("error", msg, args) }

// errorsMatching returns logged error values that satisfy errors.Is(target).
func (l *captureLogger) errorsMatching(target error) []error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []error
	for _, e := range l.entries {
		for _, a := range e.args {
			if err, ok := a.(error); ok && errors.Is(err, target) {
				out = append(out, err)
			}
		}
	}
	return out
}

func (l *captureLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

// ============================================================================
// Observer
// ============================================================================

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) observe(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *stateRecorder) list() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]State, len(r.states))
	copy(out, r.states)
	return out
}

func (r *stateRecorder) String() string {
	return fmt.Sprint(r.list())
}
