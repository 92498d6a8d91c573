package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwakchaewon/surveypulse/internal/config"
	"github.com/kwakchaewon/surveypulse/internal/domain"
	"github.com/kwakchaewon/surveypulse/internal/hub"
)

const (
	testJWTSecret   = "0123456789abcdef0123456789abcdef"
	testInternalKey = "internal-test-key"
)

type testServer struct {
	srv       *Server
	hub       *hub.Hub
	store     *fakeStore
	publisher *fakePublisher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      testJWTSecret,
		InternalAPIKey: testInternalKey,
	}

	h := hub.New(clockwork.NewRealClock())
	t.Cleanup(func() { h.Stop() })

	store := newFakeStore()
	users := &fakeUsers{ids: map[string]int64{"alice": 1, "bob": 2}}
	publisher := &fakePublisher{}

	srv := NewServer(cfg, h, store, users, publisher, &fakeRedisHealth{}, &fakePostgresHealth{})

	return &testServer{srv: srv, hub: h, store: store, publisher: publisher}
}

func makeToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func (ts *testServer) request(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.srv.echo.ServeHTTP(rec, req)
	return rec
}

func TestGetNotifications(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.store.Create(context.Background(), 1, 7, "A new response has arrived.", domain.AlarmSurveyResponse)
	require.NoError(t, err)

	rec := ts.request(http.MethodGet, "/notification", makeToken(t, "alice"), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var alarms []domain.Alarm
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alarms))
	require.Len(t, alarms, 1)
	assert.Equal(t, int64(7), alarms[0].SurveyID)
}

func TestGetNotifications_RequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodGet, "/notification", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.request(http.MethodGet, "/notification", "garbage-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetNotifications_UnknownUser(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodGet, "/notification", makeToken(t, "mallory"), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetNotifications_StorageUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.store.err = domain.ErrStorageUnavailable

	rec := ts.request(http.MethodGet, "/notification", makeToken(t, "alice"), "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMarkRead(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	_, err := ts.store.Create(ctx, 1, 7, "A new response has arrived.", domain.AlarmSurveyResponse)
	require.NoError(t, err)
	_, err = ts.store.Create(ctx, 1, 9, "A new response has arrived.", domain.AlarmSurveyResponse)
	require.NoError(t, err)

	rec := ts.request(http.MethodPost, "/notification/read", makeToken(t, "alice"), "[7]")
	require.Equal(t, http.StatusNoContent, rec.Code)

	alarms, err := ts.store.Summaries(ctx, 1)
	require.NoError(t, err)
	byID := map[int64]domain.Alarm{}
	for _, a := range alarms {
		byID[a.SurveyID] = a
	}
	assert.True(t, byID[7].IsRead)
	assert.False(t, byID[9].IsRead, "survey 9 must stay untouched")
}

func TestMarkRead_RejectsBadBody(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/notification/read", makeToken(t, "alice"), `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerAlarm(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/internal/alarm", strings.NewReader(`{"surveyId":7,"type":"SURVEY_RESPONSE"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Api-Key", testInternalKey)
	rec := httptest.NewRecorder()
	ts.srv.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []int64{7}, ts.publisher.calls)
}

func TestTriggerAlarm_RequiresInternalKey(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/internal/alarm", strings.NewReader(`{"surveyId":7,"type":"SURVEY_RESPONSE"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ts.publisher.calls)
}

func TestTriggerAlarm_ValidatesBody(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing survey id", `{"type":"SURVEY_RESPONSE"}`, http.StatusBadRequest},
		{"unknown type", `{"surveyId":7,"type":"BOGUS"}`, http.StatusBadRequest},
		{"not json", `nope`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal/alarm", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Internal-Api-Key", testInternalKey)
			rec := httptest.NewRecorder()
			ts.srv.echo.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestTriggerAlarm_StorageUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.publisher.err = domain.ErrStorageUnavailable

	req := httptest.NewRequest(http.MethodPost, "/internal/alarm", strings.NewReader(`{"surveyId":7,"type":"SURVEY_RESPONSE"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Api-Key", testInternalKey)
	rec := httptest.NewRecorder()
	ts.srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.request(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness_FailsWhenDependencyDown(t *testing.T) {
	cfg := &config.Config{JWTSecret: testJWTSecret, InternalAPIKey: testInternalKey}
	h := hub.New(clockwork.NewRealClock())
	t.Cleanup(func() { h.Stop() })

	srv := NewServer(cfg, h, newFakeStore(), &fakeUsers{}, &fakePublisher{},
		&fakeRedisHealth{err: assert.AnError}, &fakePostgresHealth{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
}
