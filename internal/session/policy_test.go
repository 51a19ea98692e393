package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestReconnectPolicy_Next(t *testing.T) {
	tests := []struct {
		name      string
		policy    ReconnectPolicy
		attempts  int
		wantDelay time.Duration
		wantRetry bool
		wantErr   bool
	}{
		{
			name:      "defaults without settings",
			policy:    ReconnectPolicy{},
			wantDelay: DefaultReconnectDelay,
			wantRetry: true,
		},
		{
			name:      "fixed delay regardless of attempts",
			policy:    ReconnectPolicy{Delay: 3 * time.Second},
			attempts:  9,
			wantDelay: 3 * time.Second,
			wantRetry: true,
		},
		{
			name:      "disabled by setting",
			policy:    ReconnectPolicy{Settings: newFakeSettings(false)},
			wantDelay: DefaultReconnectDelay,
			wantRetry: false,
		},
		{
			name:      "cap reached",
			policy:    ReconnectPolicy{MaxAttempts: 3},
			attempts:  3,
			wantRetry: false,
		},
		{
			name:      "under cap",
			policy:    ReconnectPolicy{MaxAttempts: 3},
			attempts:  2,
			wantDelay: DefaultReconnectDelay,
			wantRetry: true,
		},
		{
			name:      "settings error keeps retrying",
			policy:    ReconnectPolicy{Settings: &fakeSettings{err: errors.New("unreadable")}},
			wantDelay: DefaultReconnectDelay,
			wantRetry: true,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delay, retry, err := tt.policy.Next(context.Background(), tt.attempts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Next() error = %v, wantErr %v", err, tt.wantErr)
			}
			if retry != tt.wantRetry {
				t.Errorf("retry = %v, want %v", retry, tt.wantRetry)
			}
			if retry && delay != tt.wantDelay {
				t.Errorf("delay = %v, want %v", delay, tt.wantDelay)
			}
		})
	}
}

func TestDefaultSubscriptions(t *testing.T) {
	subs := DefaultSubscriptions()
	subs[0].Topic = "mutated"

	if DefaultSubscriptions()[0].Topic != TopicRecommendation {
		t.Error("DefaultSubscriptions() must return a fresh copy")
	}

	want := map[string]Guarantee{
		TopicRecommendation: AtLeastOnce,
		TopicSensors:        AtMostOnce,
		TopicStatus:         AtLeastOnce,
		TopicAlerts:         ExactlyOnce,
	}
	for _, s := range DefaultSubscriptions() {
		if want[s.Topic] != s.Guarantee {
			t.Errorf("%s guarantee = %v, want %v", s.Topic, s.Guarantee, want[s.Topic])
		}
	}
}
