package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteErrorEnvelope(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteError(context.Background(), rr, NewError("invalid_request", "use case\ntoo long", http.StatusRequestEntityTooLarge).
		WithDetails(map[string]any{"limit": 16}))

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "invalid_request", body["error"])
	require.Equal(t, "use case too long", body["message"])
	require.EqualValues(t, http.StatusRequestEntityTooLarge, body["status"])
	require.EqualValues(t, 16, body["limit"])
	require.NotContains(t, body, "request_id")
}

func TestNewErrorDefaultsAndTruncates(t *testing.T) {
	t.Parallel()

	err := NewError(strings.Repeat("x", 100), "boom", 0)
	require.Equal(t, http.StatusInternalServerError, err.Status)
	require.Len(t, err.Code, 80)
}
