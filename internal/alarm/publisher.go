package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kwakchaewon/surveypulse/internal/domain"
	"github.com/kwakchaewon/surveypulse/internal/metrics"
)

// Broker is the producer side of the shared broker channel.
type Broker interface {
	Publish(ctx context.Context, data []byte) error
}

// Publisher turns a business event into a durable notification plus a
// best-effort real-time signal.
type Publisher struct {
	store     domain.NotificationRepository
	directory domain.SurveyDirectory
	broker    Broker
	breaker   *gobreaker.CircuitBreaker
}

func NewPublisher(store domain.NotificationRepository, directory domain.SurveyDirectory, broker Broker) *Publisher {
	settings := gobreaker.Settings{
		Name:    "alarm-broker",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "component", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	}

	return &Publisher{
		store:     store,
		directory: directory,
		broker:    broker,
		breaker:   gobreaker.NewCircuitBreaker(settings),
	}
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// SendAlarm records a notification for the survey's owner and announces it
// on the broker channel.
//
// Ordering is deliberate: persist first, publish second. A storage failure
// aborts the whole attempt so no envelope ever refers to a record that does
// not exist. A publish failure is logged and swallowed; the stored
// notification remains the durable truth and clients pick it up on their
// next summaries poll.
func (p *Publisher) SendAlarm(ctx context.Context, surveyID int64, alarmType domain.AlarmType) error {
	message, ok := alarmType.Message()
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownAlarmType, alarmType)
	}

	owner, err := p.directory.OwnerOf(ctx, surveyID)
	if err != nil {
		return fmt.Errorf("failed to resolve survey owner: %w", err)
	}

	if _, err := p.store.Create(ctx, owner.UserID, surveyID, message, alarmType); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(string(alarmType)).Inc()

	alarms, err := p.store.Summaries(ctx, owner.UserID)
	if err != nil {
		// The notification is stored; a failed aggregation only costs the
		// real-time signal.
		slog.Error("Failed to load alarm summaries, skipping publish",
			"survey_id", surveyID, "recipient_id", owner.UserID, "error", err)
		metrics.PubSubMessagesPublished.WithLabelValues("error").Inc()
		return nil
	}

	displayName := owner.DisplayName
	if displayName == "" {
		displayName = owner.Username
	}

	msg := domain.AlarmMessage{
		Username:    owner.Username,
		DisplayName: displayName,
		Alarms:      alarms,
	}

	data, err := json.Marshal(&msg)
	if err != nil {
		slog.Error("Failed to marshal alarm envelope", "username", owner.Username, "error", err)
		metrics.PubSubMessagesPublished.WithLabelValues("error").Inc()
		return nil
	}

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.broker.Publish(ctx, data)
	})
	if err != nil {
		slog.Error("Failed to publish alarm envelope, durable record kept",
			"username", owner.Username, "survey_id", surveyID, "error", err)
		metrics.PubSubMessagesPublished.WithLabelValues("error").Inc()
		return nil
	}

	metrics.PubSubMessagesPublished.WithLabelValues("ok").Inc()
	slog.Info("Alarm published", "username", owner.Username, "survey_id", surveyID,
		"type", string(alarmType), "alarms", len(alarms), "size_bytes", len(data))
	return nil
}
