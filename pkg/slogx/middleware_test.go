package slogx_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/silverbridge/backend/pkg/idx"
	"github.com/silverbridge/backend/pkg/slogx"
)

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var seenID string
	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = slogx.RequestID(r.Context())
		slogx.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))

	t.Run("generates id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/users/join", nil))

		got := rec.Header().Get(slogx.HeaderRequestID)
		_, err := idx.Parse(got)
		require.NoError(t, err)
		require.Equal(t, got, seenID)

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 2)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(lines[1], &entry))
		require.Equal(t, "http_request", entry["msg"])
		require.Equal(t, got, entry["req_id"])
		require.EqualValues(t, http.StatusCreated, entry["status"])
		require.EqualValues(t, 5, entry["bytes"])
		require.Equal(t, "/api/users/join", entry["path"])
	})

	t.Run("echoes caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(slogx.HeaderRequestID, "trace-abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, "trace-abc-123", rec.Header().Get(slogx.HeaderRequestID))
	})

	t.Run("replaces unsafe caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(slogx.HeaderRequestID, "bad id\nwith newline")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.NotEqual(t, "bad id\nwith newline", rec.Header().Get(slogx.HeaderRequestID))
	})
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel(""))
}
