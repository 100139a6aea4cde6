package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalMap(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestEnvelopeTransformer_Success(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "200", map[string]string{"id": "spell-1"})
	require.NoError(t, err)

	out := marshalMap(t, result)
	assert.InDelta(t, 1, out["v"], 0)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, map[string]any{"id": "spell-1"}, out["data"])
	assert.NotContains(t, out, "error")
	assert.NotContains(t, out, "version")
}

func TestEnvelopeTransformer_Error(t *testing.T) {
	result, err := EnvelopeTransformer(nil, "403", &APIError{
		Code:    "PROTECTED_ASSET",
		Message: "cannot delete built-in spells \"spell-b1\"",
		Details: map[string]string{"id": "spell-b1"},
	})
	require.NoError(t, err)

	out := marshalMap(t, result)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "PROTECTED_ASSET", out["code"])
	assert.Contains(t, out["error"], "built-in")
	assert.Equal(t, map[string]any{"id": "spell-b1"}, out["details"])
	assert.NotContains(t, out, "data")
}

func TestEnvelopeTransformer_RawBytesPassThrough(t *testing.T) {
	raw := []byte("## Help\n")
	result, err := EnvelopeTransformer(nil, "200", raw)
	require.NoError(t, err)
	assert.Equal(t, raw, result)
}

func TestStatusToCode(t *testing.T) {
	//nolint:govet // fieldalignment: test table
	tests := []struct {
		status int
		want   string
	}{
		{400, "VALIDATION"},
		{422, "VALIDATION"},
		{403, "PROTECTED_ASSET"},
		{404, "NOT_FOUND"},
		{409, "SYNC_IN_PROGRESS"},
		{429, "RATE_LIMITED"},
		{500, "INTERNAL"},
		{503, "INTERNAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusToCode(tt.status), "status %d", tt.status)
	}
}
