package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RoundTripThroughLog(t *testing.T) {
	log := NewEventLog(setupTestDB(t))

	_, err := log.Append(&SessionFailed{
		BaseEvent: NewSessionEvent(EventSessionFailed, "s1"),
		Stage:     "locate",
		Reason:    "no video file found",
	})
	require.NoError(t, err)

	raw, err := log.ForEntity(EntitySession, "s1")
	require.NoError(t, err)
	require.Len(t, raw, 1)

	e, err := DefaultRegistry().Unmarshal(raw[0])
	require.NoError(t, err)

	failed, ok := e.(*SessionFailed)
	require.True(t, ok, "expected *SessionFailed, got %T", e)
	assert.Equal(t, "locate", failed.Stage)
	assert.Equal(t, "s1", failed.EntityID())
}

func TestRegistry_UnknownType(t *testing.T) {
	_, err := NewRegistry().Unmarshal(RawEvent{EventType: "nope", Payload: "{}"})
	assert.ErrorContains(t, err, "unknown event type")
}

func TestRegistry_BadPayload(t *testing.T) {
	_, err := DefaultRegistry().Unmarshal(RawEvent{EventType: EventSessionCreated, Payload: "{"})
	assert.Error(t, err)
}

func TestDefaultRegistry_CoversAllTypes(t *testing.T) {
	r := DefaultRegistry()
	for _, typ := range []string{
		EventSessionCreated, EventDownloadOutput, EventDownloadFinished, EventAssetLocated,
		EventTranscodeStarted, EventTranscodeProgressed, EventTranscodeSkipped,
		EventSessionCompleted, EventSessionFailed,
	} {
		e, err := r.Unmarshal(RawEvent{EventType: typ, Payload: `{"type":"` + typ + `"}`})
		require.NoError(t, err, typ)
		assert.Equal(t, typ, e.EventType())
	}
}
