package domain

import (
	"context"
	"time"
)

// AlarmType categorizes a notification.
type AlarmType string

const (
	AlarmSurveyResponse AlarmType = "SURVEY_RESPONSE"
	AlarmSurveyExpired  AlarmType = "SURVEY_EXPIRED"
)

// notificationMessages maps each alarm type to its human-readable summary.
var notificationMessages = map[AlarmType]string{
	AlarmSurveyResponse: "A new response has arrived.",
	AlarmSurveyExpired:  "The survey has expired.",
}

// Message returns the human-readable summary text for the alarm type.
// The second return value is false for unknown types.
func (t AlarmType) Message() (string, bool) {
	msg, ok := notificationMessages[t]
	return msg, ok
}

// RetentionPeriod is how long a notification stays relevant after creation.
// ExpiresAt is set to CreatedAt plus this period; expired rows are advisory
// only, purging is not this service's job.
const RetentionPeriod = 7 * 24 * time.Hour

// Notification is one durable "something happened for your survey" record.
type Notification struct {
	ID          int64
	Type        AlarmType
	RecipientID int64
	ReferenceID int64
	Message     string
	IsRead      bool
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// NotificationRepository is the durable notification log.
type NotificationRepository interface {
	// Create persists a new unread notification. Storage failures wrap
	// ErrStorageUnavailable.
	Create(ctx context.Context, recipientID, referenceID int64, message string, alarmType AlarmType) (*Notification, error)

	// MarkRead flips is_read for the recipient's notifications whose
	// reference id is in surveyIDs. Ids that don't exist or belong to
	// someone else are silently ignored.
	MarkRead(ctx context.Context, recipientID int64, surveyIDs []int64) error

	// Summaries returns the recipient's per-survey alarm summaries within
	// the retention window, most recent first.
	Summaries(ctx context.Context, recipientID int64) ([]Alarm, error)
}

// SurveyOwner identifies who should be notified about a survey, with the
// names needed to address and present the alarm.
type SurveyOwner struct {
	UserID      int64
	Username    string
	DisplayName string
}

// SurveyDirectory resolves survey ownership. Survey CRUD itself lives in a
// different service; this is the read-only slice the notifier needs.
type SurveyDirectory interface {
	OwnerOf(ctx context.Context, surveyID int64) (*SurveyOwner, error)
}

// UserDirectory maps an authenticated username to its user id.
type UserDirectory interface {
	IDOf(ctx context.Context, username string) (int64, error)
}
