package session

import (
	"context"

	"github.com/gbetibienvenu/HealthMonitorApp/internal/health"
)

// HistoryStore persists recommendations before they reach the consumer.
type HistoryStore interface {
	AppendHistory(ctx context.Context, rec health.Recommendation) error
	SaveLastRecommendation(ctx context.Context, rec health.Recommendation) error
}

// Notifier presents user-visible notifications. Failures are logged by the
// caller and never propagated.
type Notifier interface {
	ShowAlert(ctx context.Context, alert health.Alert) error
	ShowRecommendation(ctx context.Context, message string, priority health.Priority) error
}

// Router maps topics to categories, decodes payloads and delivers records.
//
// Route never returns an error: unknown topics and malformed payloads are
// logged and dropped.
type Router struct {
	topics   map[string]Category
	history  HistoryStore
	notifier Notifier
	logger   Logger
	handlers handlerSlots
}

// NewRouter builds a router for subs. history and notifier may be nil.
func NewRouter(subs []Subscription, history HistoryStore, notifier Notifier, logger Logger) *Router {
	if logger == nil {
		logger = nopLogger{}
	}
	topics := make(map[string]Category, len(subs))
	for _, s := range subs {
		topics[s.Topic] = s.Category
	}
	return &Router{
		topics:   topics,
		history:  history,
		notifier: notifier,
		logger:   logger,
	}
}

// Register installs h in its category slot, replacing any previous consumer.
func (r *Router) Register(h Handler) {
	r.handlers.set(h)
}

// CategoryOf returns the category carried by topic.
func (r *Router) CategoryOf(topic string) (Category, bool) {
	c, ok := r.topics[topic]
	return c, ok
}

// Route decodes payload for topic and delivers it.
func (r *Router) Route(ctx context.Context, topic string, payload []byte) {
	category, ok := r.topics[topic]
	if !ok {
		r.logger.Warn("message on unknown topic dropped", "topic", topic)
		return
	}

	switch category {
	case CategoryRecommendation:
		rec, err := health.DecodeRecommendation(payload)
		if err != nil {
			r.dropMalformed(topic, err)
			return
		}
		r.routeRecommendation(ctx, rec)

	case CategorySensor:
		reading, err := health.DecodeSensorReading(payload)
		if err != nil {
			r.dropMalformed(topic, err)
			return
		}
		r.dispatch(CategorySensor, reading)

	case CategoryStatus:
		status, err := health.DecodeStatus(payload)
		if err != nil {
			r.dropMalformed(topic, err)
			return
		}
		r.dispatch(CategoryStatus, status)

	case CategoryAlert:
		alert, err := health.DecodeAlert(payload)
		if err != nil {
			r.dropMalformed(topic, err)
			return
		}
		r.routeAlert(ctx, alert)
	}
}

// routeRecommendation persists before delivery. A persistence failure is
// logged and delivery continues.
func (r *Router) routeRecommendation(ctx context.Context, rec health.Recommendation) {
	if r.history != nil {
		if err := r.history.AppendHistory(ctx, rec); err != nil {
			r.logger.Error("appending recommendation to history", "error", err)
		}
		if err := r.history.SaveLastRecommendation(ctx, rec); err != nil {
			r.logger.Error("saving last recommendation", "error", err)
		}
	}

	r.dispatch(CategoryRecommendation, rec)

	if rec.Priority.Notifies() && r.notifier != nil {
		r.notify("recommendation", func() error {
			return r.notifier.ShowRecommendation(ctx, rec.Message, rec.Priority)
		})
	}
}

// routeAlert notifies unconditionally, then delivers.
func (r *Router) routeAlert(ctx context.Context, alert health.Alert) {
	if r.notifier != nil {
		r.notify("alert", func() error {
			return r.notifier.ShowAlert(ctx, alert)
		})
	}
	r.dispatch(CategoryAlert, alert)
}

func (r *Router) dropMalformed(topic string, err error) {
	r.logger.Warn("malformed message dropped", "topic", topic, "error", err)
}

func (r *Router) dispatch(c Category, v any) {
	deliver := r.handlers.get(c)
	if deliver == nil {
		r.logger.Debug("no consumer registered", "category", c.String())
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("consumer panic recovered", "category", c.String(), "panic", rec)
		}
	}()
	deliver(v)
}

func (r *Router) notify(kind string, show func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("notifier panic recovered", "kind", kind, "panic", rec)
		}
	}()
	if err := show(); err != nil {
		r.logger.Warn("showing notification", "kind", kind, "error", err)
	}
}
