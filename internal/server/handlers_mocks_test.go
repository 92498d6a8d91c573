package server

import (
	"context"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kwakchaewon/surveypulse/internal/domain"
)

// fakeStore is an in-memory NotificationRepository for handler tests.
type fakeStore struct {
	mu        sync.Mutex
	alarms    map[int64][]domain.Alarm
	readCalls [][]int64
	err       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{alarms: make(map[int64][]domain.Alarm)}
}

func (s *fakeStore) Create(_ context.Context, recipientID, referenceID int64, message string, alarmType domain.AlarmType) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	now := time.Now().UTC()
	s.alarms[recipientID] = append(s.alarms[recipientID], domain.Alarm{
		Type: alarmType, SurveyID: referenceID, CreatedAt: now, AlarmCount: 1,
	})
	return &domain.Notification{
		ID: 1, Type: alarmType, RecipientID: recipientID, ReferenceID: referenceID,
		Message: message, CreatedAt: now, ExpiresAt: now.Add(domain.RetentionPeriod),
	}, nil
}

func (s *fakeStore) MarkRead(_ context.Context, recipientID int64, surveyIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.readCalls = append(s.readCalls, surveyIDs)
	ids := make(map[int64]bool, len(surveyIDs))
	for _, id := range surveyIDs {
		ids[id] = true
	}
	for i, a := range s.alarms[recipientID] {
		if ids[a.SurveyID] {
			s.alarms[recipientID][i].IsRead = true
		}
	}
	return nil
}

func (s *fakeStore) Summaries(_ context.Context, recipientID int64) ([]domain.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Alarm{}, s.alarms[recipientID]...), nil
}

// fakeUsers maps usernames to ids.
type fakeUsers struct {
	ids map[string]int64
}

func (u *fakeUsers) IDOf(_ context.Context, username string) (int64, error) {
	id, ok := u.ids[username]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	return id, nil
}

// fakePublisher records SendAlarm calls.
type fakePublisher struct {
	mu    sync.Mutex
	calls []int64
	err   error
}

func (p *fakePublisher) SendAlarm(_ context.Context, surveyID int64, _ domain.AlarmType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, surveyID)
	return nil
}

// fakeRedisHealth satisfies redisHealthChecker.
type fakeRedisHealth struct {
	err error
}

func (f *fakeRedisHealth) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", f.err)
}

// fakePostgresHealth satisfies postgresHealthChecker.
type fakePostgresHealth struct {
	err error
}

func (f *fakePostgresHealth) Ping(context.Context) error {
	return f.err
}
