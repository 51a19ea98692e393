package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Logger is the logging interface used by the session package.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// BrokerRecorder remembers the most recent broker the session reached.
type BrokerRecorder interface {
	SaveLastBroker(ctx context.Context, host string, port int) error
}

// Deps holds the collaborators of a Session.
type Deps struct {
	// Transport is required.
	Transport Transport

	// Subscriptions defaults to DefaultSubscriptions().
	Subscriptions []Subscription

	Policy   ReconnectPolicy
	History  HistoryStore
	Broker   BrokerRecorder
	Notifier Notifier
	Logger   Logger

	// Clock defaults to the system clock.
	Clock Clock
}

type observer struct {
	id uint64
	fn func(State)
}

// Session is one logical broker session. Create it with New.
type Session struct {
	transport Transport
	subs      []Subscription
	policy    ReconnectPolicy
	broker    BrokerRecorder
	router    *Router
	logger    Logger
	clock     Clock

	// mu guards every field below it except the atomics.
	mu         sync.Mutex
	target     Target
	hasTarget  bool
	conn       Conn
	generation uint64
	dialing    bool
	dialCancel context.CancelFunc
	timer      Timer
	timerSeq   uint64
	pending    []State

	// Lock-free mirrors so observers can read them during notification.
	state    atomic.Int32
	attempts atomic.Int64

	// notifyMu is acquired before mu is released so observers see
	// transitions in the order they happened.
	notifyMu sync.Mutex

	obsMu     sync.Mutex
	observers []observer
	nextObsID uint64
}

// New creates a disconnected Session.
func New(deps Deps) (*Session, error) {
	if deps.Transport == nil {
		return nil, errors.New("session: transport is required")
	}

	subs := deps.Subscriptions
	if subs == nil {
		subs = DefaultSubscriptions()
	}
	logger := deps.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock{}
	}

	return &Session{
		transport: deps.Transport,
		subs:      subs,
		policy:    deps.Policy,
		broker:    deps.Broker,
		router:    NewRouter(subs, deps.History, deps.Notifier, logger),
		logger:    logger,
		clock:     clock,
	}, nil
}

// ============================================================================
// Public API
// ============================================================================

// Connect dials target and blocks until the handshake completes and the
// subscription pass has run.
//
// It replaces any existing connection and cancels a pending reconnect.
// It fails with ErrAlreadyConnecting while another dial is in flight and
// with ErrConnectionFailed when the transport rejects the handshake, leaving
// the session in StateError.
func (s *Session) Connect(ctx context.Context, target Target) error {
	if err := target.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.dialing {
		s.mu.Unlock()
		return ErrAlreadyConnecting
	}
	s.stopTimerLocked()
	old := s.conn
	s.conn = nil
	s.generation++
	gen := s.generation
	s.target = target
	s.hasTarget = true
	s.attempts.Store(0)
	s.dialing = true
	dialCtx, cancel := context.WithCancel(ctx)
	s.dialCancel = cancel
	s.transitionLocked(StateConnecting)
	s.unlockAndNotify()

	if old != nil {
		s.closeConn(old)
	}

	s.logger.Info("connecting to broker", "broker", target.String())
	conn, err := s.transport.Dial(dialCtx, target, s.eventsFor(gen))
	cancel()

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		if conn != nil {
			s.closeConn(conn)
		}
		return fmt.Errorf("%w: %w", ErrConnectionFailed, ErrConnectAborted)
	}
	s.dialing = false
	s.dialCancel = nil
	if err != nil {
		s.transitionLocked(StateError)
		s.unlockAndNotify()
		s.logger.Error("broker connection failed", "broker", target.String(), "error", err)
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	s.conn = conn
	s.transitionLocked(StateConnected)
	s.unlockAndNotify()

	s.logger.Info("connected to broker", "broker", target.String())
	s.afterConnect(ctx, gen, conn, target)
	return nil
}

// Disconnect closes the connection, cancels any pending reconnect and
// aborts an in-flight dial. It is safe from any state and repeated calls
// are no-ops.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.generation++
	s.stopTimerLocked()
	if s.dialCancel != nil {
		s.dialCancel()
		s.dialCancel = nil
	}
	s.dialing = false
	conn := s.conn
	s.conn = nil
	s.target = Target{}
	s.hasTarget = false
	s.attempts.Store(0)
	s.transitionLocked(StateDisconnected)
	s.unlockAndNotify()

	if conn != nil {
		s.closeConn(conn)
		s.logger.Info("disconnected from broker")
	}
}

// CurrentState returns the current session state.
func (s *Session) CurrentState() State {
	return State(s.state.Load())
}

// ReconnectAttempts returns the number of reconnect dials made since the
// last successful connection.
func (s *Session) ReconnectAttempts() int {
	return int(s.attempts.Load())
}

// Target returns the broker the session is connected, connecting or
// reconnecting to.
func (s *Session) Target() (Target, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target, s.hasTarget
}

// OnStateChange registers fn to observe every state transition, including
// those caused by reconnection. The returned func unregisters it.
func (s *Session) OnStateChange(fn func(State)) (unregister func()) {
	s.obsMu.Lock()
	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Register installs h as the consumer for its category, replacing any
// previous consumer.
func (s *Session) Register(h Handler) {
	s.router.Register(h)
}

// Subscriptions returns a copy of the configured topic set.
func (s *Session) Subscriptions() []Subscription {
	out := make([]Subscription, len(s.subs))
	copy(out, s.subs)
	return out
}

// HealthCheck reports ErrNotConnected unless the session is connected.
func (s *Session) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if st := s.CurrentState(); st != StateConnected {
		return fmt.Errorf("%w: state %s", ErrNotConnected, st)
	}
	return nil
}

// ============================================================================
// Connection events
// ============================================================================

func (s *Session) eventsFor(gen uint64) Events {
	return Events{
		OnMessage: func(topic string, payload []byte) {
			s.handleMessage(gen, topic, payload)
		},
		OnConnectionLost: func(err error) {
			s.handleLoss(gen, err)
		},
	}
}

func (s *Session) handleMessage(gen uint64, topic string, payload []byte) {
	s.mu.Lock()
	live := gen == s.generation && s.CurrentState() == StateConnected
	s.mu.Unlock()

	if !live {
		s.logger.Debug("message outside connected session dropped", "topic", topic)
		return
	}
	s.router.Route(context.Background(), topic, payload)
}

func (s *Session) handleLoss(gen uint64, cause error) {
	s.mu.Lock()
	if gen != s.generation || s.CurrentState() != StateConnected {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	s.conn = nil
	s.transitionLocked(StateDisconnected)
	s.unlockAndNotify()

	s.logger.Warn("broker connection lost", "error", cause)
	if conn != nil {
		s.closeConn(conn)
	}
	s.planRetry(gen)
}

// ============================================================================
// Reconnection
// ============================================================================

// planRetry consults the policy and either schedules the single reconnect
// timer (entering Reconnecting) or settles at Disconnected.
func (s *Session) planRetry(gen uint64) {
	delay, retry, err := s.policy.Next(context.Background(), s.ReconnectAttempts())
	if err != nil {
		s.logger.Warn("reading auto-reconnect setting", "error", err)
	}

	s.mu.Lock()
	if gen != s.generation || s.timer != nil || s.dialing || !s.hasTarget {
		s.mu.Unlock()
		return
	}
	switch s.CurrentState() {
	case StateDisconnected, StateReconnecting:
	default:
		s.mu.Unlock()
		return
	}

	if !retry {
		s.transitionLocked(StateDisconnected)
		attempts := s.attempts.Load()
		s.unlockAndNotify()
		s.logger.Info("not reconnecting", "attempts", attempts)
		return
	}

	s.timerSeq++
	seq := s.timerSeq
	s.timer = s.clock.AfterFunc(delay, func() { s.reconnect(seq) })
	s.transitionLocked(StateReconnecting)
	target := s.target
	s.unlockAndNotify()

	s.logger.Info("reconnect scheduled", "broker", target.String(), "delay", delay)
}

// reconnect runs when the reconnect timer fires.
func (s *Session) reconnect(seq uint64) {
	s.mu.Lock()
	if seq != s.timerSeq || s.timer == nil || s.dialing || s.CurrentState() != StateReconnecting {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	attempt := s.attempts.Add(1)
	s.generation++
	gen := s.generation
	target := s.target
	s.dialing = true
	ctx, cancel := context.WithCancel(context.Background())
	s.dialCancel = cancel
	s.mu.Unlock()

	s.logger.Info("reconnecting to broker", "broker", target.String(), "attempt", attempt)
	conn, err := s.transport.Dial(ctx, target, s.eventsFor(gen))
	cancel()

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		if conn != nil {
			s.closeConn(conn)
		}
		return
	}
	s.dialing = false
	s.dialCancel = nil
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("reconnect attempt failed", "broker", target.String(), "attempt", attempt, "error", err)
		s.planRetry(gen)
		return
	}
	s.conn = conn
	s.attempts.Store(0)
	s.transitionLocked(StateConnected)
	s.unlockAndNotify()

	s.logger.Info("reconnected to broker", "broker", target.String(), "attempt", attempt)
	s.afterConnect(context.Background(), gen, conn, target)
}

// stopTimerLocked cancels the pending reconnect timer. Bumping timerSeq
// makes a callback that already fired a no-op.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerSeq++
}

// ============================================================================
// Subscriptions
// ============================================================================

func (s *Session) afterConnect(ctx context.Context, gen uint64, conn Conn, target Target) {
	if s.broker != nil {
		if err := s.broker.SaveLastBroker(ctx, target.Host, target.Port); err != nil {
			s.logger.Warn("saving last broker", "broker", target.String(), "error", err)
		}
	}
	s.subscribeAll(gen, conn)
}

// subscribeAll issues one request per topic. A rejected topic is logged
// and stays unsubscribed until the next connection.
func (s *Session) subscribeAll(gen uint64, conn Conn) {
	for _, sub := range s.subs {
		if !s.isCurrent(gen) {
			return
		}
		if err := conn.Subscribe(sub.Topic, sub.Guarantee); err != nil {
			s.logger.Error("subscribing to topic",
				"topic", sub.Topic,
				"guarantee", sub.Guarantee.String(),
				"error", fmt.Errorf("%w: %s: %w", ErrSubscriptionFailed, sub.Topic, err))
			continue
		}
		s.logger.Debug("subscribed", "topic", sub.Topic, "guarantee", sub.Guarantee.String())
	}
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

func (s *Session) closeConn(conn Conn) {
	if err := conn.Close(); err != nil {
		s.logger.Warn("closing broker connection", "error", err)
	}
}

// ============================================================================
// State transitions
// ============================================================================

// transitionLocked records a state change. Callers hold mu and must finish
// with unlockAndNotify.
func (s *Session) transitionLocked(next State) {
	if State(s.state.Load()) == next {
		return
	}
	s.state.Store(int32(next))
	s.pending = append(s.pending, next)
}

// unlockAndNotify releases mu and delivers queued transitions to observers.
func (s *Session) unlockAndNotify() {
	pending := s.pending
	s.pending = nil
	if len(pending) == 0 {
		s.mu.Unlock()
		return
	}

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.obsMu.Lock()
	observers := make([]observer, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()

	for _, st := range pending {
		s.logger.Debug("session state changed", "state", st.String())
		for _, o := range observers {
			s.callObserver(o.fn, st)
		}
	}
}

func (s *Session) callObserver(fn func(State), st State) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("state observer panic recovered", "state", st.String(), "panic", r)
		}
	}()
	fn(st)
}
