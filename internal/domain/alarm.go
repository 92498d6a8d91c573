package domain

import "time"

// Alarm is one per-survey summary line as seen by the client: the latest
// state of a survey's notifications collapsed into a single entry with a
// running unread count.
type Alarm struct {
	Type        AlarmType `json:"type"`
	SurveyID    int64     `json:"surveyId"`
	SurveyTitle string    `json:"surveyTitle"`
	IsRead      bool      `json:"isRead"`
	CreatedAt   time.Time `json:"createdAt"`
	AlarmCount  int64     `json:"alarmCount"`
}

// AlarmMessage is the envelope carried on the broker channel. One publish
// per stored notification, but the alarm list aggregates all outstanding
// alarms for the recipient so clients never need to merge.
type AlarmMessage struct {
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	Alarms      []Alarm `json:"newResponseCreatedAlarms"`
}

// Registry is the process-local connection registry: which open push
// connections belong to which user.
type Registry interface {
	Deliver(username string, payload []byte)
	ClientCount(username string) int
}
