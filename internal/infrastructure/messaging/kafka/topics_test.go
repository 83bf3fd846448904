package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/pkg/errors"
	"github.com/Qubut/IP-Claim/pkg/types/common"
)

func TestTopicForEventType(t *testing.T) {
	topic, ok := TopicForEventType(patent.EventTypeImported)
	require.True(t, ok)
	assert.Equal(t, TopicPatentImported, topic)

	topic, ok = TopicForEventType(patent.EventTypeExtracted)
	require.True(t, ok)
	assert.Equal(t, TopicPatentExtracted, topic)

	_, ok = TopicForEventType("patent.vanished")
	assert.False(t, ok)
}

func TestEventEnvelopeRoundTrip(t *testing.T) {
	event := patent.NewExtractedEvent("US1234567", 42, 3, false)

	env, err := NewEventEnvelope(event)
	require.NoError(t, err)
	assert.Equal(t, event.EventID(), env.EventID)
	assert.Equal(t, patent.EventTypeExtracted, env.EventType)
	assert.Equal(t, "US1234567", env.AggregateID)
	assert.Equal(t, "v1", env.SchemaVersion)

	msg, err := env.ToMessage(TopicPatentExtracted)
	require.NoError(t, err)
	assert.Equal(t, TopicPatentExtracted, msg.Topic)
	assert.Equal(t, patent.EventTypeExtracted, msg.Headers["event_type"])

	decoded, err := DecodeEnvelope(&common.Message{Value: msg.Value})
	require.NoError(t, err)
	assert.Equal(t, env.EventID, decoded.EventID)

	var payload patent.ExtractedEvent
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.Equal(t, 42, payload.MentionCount)
	assert.Equal(t, 3, payload.ChunkCount)
	assert.False(t, payload.CacheHit)
}

func TestDecodeEnvelopeRejectsBadInput(t *testing.T) {
	_, err := DecodeEnvelope(&common.Message{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))

	_, err = DecodeEnvelope(&common.Message{Value: []byte("{not json")})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}

func TestDecodePayloadRequiresPayload(t *testing.T) {
	env := &EventEnvelope{}
	var payload patent.ImportedEvent
	err := env.DecodePayload(&payload)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSerialization))
}
