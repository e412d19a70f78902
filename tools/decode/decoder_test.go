package decode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Progress   int    `json:"progress"`
}

func TestPayloadMatchesJSONTags(t *testing.T) {
	raw := json.RawMessage(`{"receiverId":"u-2","content":"hi","progress":40}`)

	p, err := Payload[samplePayload](raw)
	require.NoError(t, err)
	assert.Equal(t, "u-2", p.ReceiverID)
	assert.Equal(t, "hi", p.Content)
	assert.Equal(t, 40, p.Progress)
}

func TestPayloadWeakTyping(t *testing.T) {
	// browser clients send numbers as strings and floats interchangeably
	raw := json.RawMessage(`{"receiverId":123,"progress":"40"}`)

	p, err := Payload[samplePayload](raw)
	require.NoError(t, err)
	assert.Equal(t, "123", p.ReceiverID)
	assert.Equal(t, 40, p.Progress)
}

func TestPayloadIgnoresUnknownFields(t *testing.T) {
	raw := json.RawMessage(`{"receiverId":"u-2","extra":true}`)

	p, err := Payload[samplePayload](raw)
	require.NoError(t, err)
	assert.Equal(t, "u-2", p.ReceiverID)
	assert.Empty(t, p.Content)
}

func TestPayloadRejectsNonObjects(t *testing.T) {
	_, err := Payload[samplePayload](nil)
	require.Error(t, err)

	_, err = Payload[samplePayload](json.RawMessage(`[1,2,3]`))
	require.Error(t, err)

	_, err = Payload[samplePayload](json.RawMessage(`"just a string"`))
	require.Error(t, err)
}

func TestFromMapFloatToInt(t *testing.T) {
	p, err := FromMap[samplePayload](map[string]any{"progress": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, p.Progress)
}
