package session

import (
	"sync"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
)

// Handler is a consumer bound to exactly one message category.
//
// Each category has a single slot: registering a Handler replaces the
// previous consumer for that category. Registering a Handler built from a
// nil function clears the slot. Consumers that need several listeners
// should register one Handler that emits into a Listeners list.
type Handler struct {
	category Category
	deliver  func(any)
}

// Category returns the category this handler consumes.
func (h Handler) Category() Category { return h.category }

// RecommendationHandler wraps fn as the recommendation consumer.
func RecommendationHandler(fn func(health.Recommendation)) Handler {
	return newHandler(CategoryRecommendation, fn)
}

// SensorHandler wraps fn as the sensor reading consumer.
func SensorHandler(fn func(health.SensorReading)) Handler {
	return newHandler(CategorySensor, fn)
}

// StatusHandler wraps fn as the status update consumer.
func StatusHandler(fn func(health.StatusUpdate)) Handler {
	return newHandler(CategoryStatus, fn)
}

// AlertHandler wraps fn as the alert consumer.
func AlertHandler(fn func(health.Alert)) Handler {
	return newHandler(CategoryAlert, fn)
}

func newHandler[T any](c Category, fn func(T)) Handler {
	if fn == nil {
		return Handler{category: c}
	}
	return Handler{
		category: c,
		deliver:  func(v any) { fn(v.(T)) },
	}
}

// handlerSlots holds the single consumer per category.
type handlerSlots struct {
	mu    sync.RWMutex
	slots [categoryCount]func(any)
}

func (s *handlerSlots) set(h Handler) {
	if h.category < 0 || h.category >= categoryCount {
		return
	}
	s.mu.Lock()
	s.slots[h.category] = h.deliver
	s.mu.Unlock()
}

func (s *handlerSlots) get(c Category) func(any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[c]
}

// Listeners is an explicit multi-consumer fan-out list. Emit calls every
// listener in registration order; a panicking listener is logged and
// skipped.
type Listeners[T any] struct {
	name   string
	logger Logger

	mu  sync.RWMutex
	fns []func(T)
}

// NewListeners creates an empty list. name appears in panic logs.
func NewListeners[T any](name string, logger Logger) *Listeners[T] {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Listeners[T]{name: name, logger: logger}
}

// Add appends fn to the list.
func (l *Listeners[T]) Add(fn func(T)) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

// Len returns the number of registered listeners.
func (l *Listeners[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fns)
}

// Emit delivers v to every listener.
func (l *Listeners[T]) Emit(v T) {
	l.mu.RLock()
	fns := make([]func(T), len(l.fns))
	copy(fns, l.fns)
	l.mu.RUnlock()

	for i, fn := range fns {
		l.call(i, fn, v)
	}
}

func (l *Listeners[T]) call(i int, fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("listener panic recovered", "listeners", l.name, "index", i, "panic", r)
		}
	}()
	fn(v)
}
