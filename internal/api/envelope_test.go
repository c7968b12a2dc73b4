package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalMap(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestEnvelopeTransformer_Success(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "200", map[string]string{"id": "rec-1"})
	require.NoError(t, err)

	m := marshalMap(t, out)
	assert.Equal(t, float64(1), m["v"])
	assert.Equal(t, true, m["success"])
	assert.Equal(t, map[string]any{"id": "rec-1"}, m["data"])
}

func TestEnvelopeTransformer_Error(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "409", &APIError{
		status:  http.StatusConflict,
		Code:    "ALREADY_EXISTS",
		Message: "book is already on your list",
		Details: map[string]string{"book_id": "book-1"},
	})
	require.NoError(t, err)

	m := marshalMap(t, out)
	assert.Equal(t, false, m["success"])
	assert.Equal(t, "ALREADY_EXISTS", m["code"])
	assert.Equal(t, "book is already on your list", m["error"])
	assert.Equal(t, m["error"], m["message"])
	assert.Contains(t, m, "details")
}

func TestEnvelopeTransformer_NoDoubleWrap(t *testing.T) {
	env := Envelope{V: envelopeVersion, Success: true, Data: 1}
	out, err := EnvelopeTransformer(nil, "200", env)
	require.NoError(t, err)
	assert.Equal(t, env, out)
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-10"`), &d))
	assert.Equal(t, "2026-03-10", d.Format("2006-01-02"))

	require.NoError(t, json.Unmarshal([]byte(`"2026-03-10T23:30:00Z"`), &d))
	assert.Equal(t, 23, d.Hour())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`12`), &d))

	b, err := json.Marshal(Date{Time: d.Time})
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-03-10"`, string(b))
}
