package alarm

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwakchaewon/surveypulse/internal/domain"
)

// fakeRegistry records deliveries.
type fakeRegistry struct {
	mu         sync.Mutex
	deliveries map[string][][]byte
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{deliveries: make(map[string][][]byte)}
}

func (r *fakeRegistry) Deliver(username string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries[username] = append(r.deliveries[username], payload)
}

func (r *fakeRegistry) ClientCount(username string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deliveries[username])
}

func TestDispatcher_DeliversAlarmsToRegistry(t *testing.T) {
	registry := newFakeRegistry()
	d := NewDispatcher(nil, registry)

	msg := domain.AlarmMessage{
		Username:    "alice",
		DisplayName: "Alice Kim",
		Alarms: []domain.Alarm{
			{Type: domain.AlarmSurveyResponse, SurveyID: 7, SurveyTitle: "Lunch survey", AlarmCount: 1},
		},
	}
	raw, err := json.Marshal(&msg)
	require.NoError(t, err)

	d.handleMessage(raw)

	require.Len(t, registry.deliveries["alice"], 1)
	var alarms []domain.Alarm
	require.NoError(t, json.Unmarshal(registry.deliveries["alice"][0], &alarms))
	require.Len(t, alarms, 1)
	assert.Equal(t, int64(7), alarms[0].SurveyID)
	assert.Equal(t, domain.AlarmSurveyResponse, alarms[0].Type)
}

func TestDispatcher_DropsMalformedEnvelope(t *testing.T) {
	registry := newFakeRegistry()
	d := NewDispatcher(nil, registry)

	// Must not panic and must not deliver anything.
	d.handleMessage([]byte("not json at all"))
	d.handleMessage([]byte(`{"username": 42}`))
	d.handleMessage(nil)

	assert.Empty(t, registry.deliveries)
}

func TestDispatcher_EnvelopeForUserWithNoConnections(t *testing.T) {
	registry := newFakeRegistry()
	d := NewDispatcher(nil, registry)

	raw, err := json.Marshal(&domain.AlarmMessage{
		Username: "nobody",
		Alarms:   []domain.Alarm{{SurveyID: 7, AlarmCount: 1}},
	})
	require.NoError(t, err)

	// The registry decides what "no local connections" means; the
	// dispatcher just hands the payload over without erroring.
	d.handleMessage(raw)
	require.Len(t, registry.deliveries["nobody"], 1)
}

func TestDispatcher_SkipsEnvelopeWithoutAlarms(t *testing.T) {
	registry := newFakeRegistry()
	d := NewDispatcher(nil, registry)

	// A missing, null, or empty alarm list must never reach clients as a
	// JSON null payload.
	d.handleMessage([]byte(`{"username":"alice","displayName":"Alice Kim"}`))
	d.handleMessage([]byte(`{"username":"alice","newResponseCreatedAlarms":null}`))
	d.handleMessage([]byte(`{"username":"alice","newResponseCreatedAlarms":[]}`))

	assert.Empty(t, registry.deliveries)
}

func TestDispatcher_SurvivesMixedTraffic(t *testing.T) {
	registry := newFakeRegistry()
	d := NewDispatcher(nil, registry)

	good, err := json.Marshal(&domain.AlarmMessage{Username: "alice", Alarms: []domain.Alarm{{SurveyID: 1}}})
	require.NoError(t, err)

	d.handleMessage([]byte("garbage"))
	d.handleMessage(good)
	d.handleMessage([]byte("{truncated"))
	d.handleMessage(good)

	assert.Len(t, registry.deliveries["alice"], 2)
}
