package logging_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/Amund211/japa/internal/logging"
	"github.com/stretchr/testify/require"
)

// Collects JSON log lines so tests can assert on them
type logRecorder struct {
	t   *testing.T
	buf bytes.Buffer
}

func newLogRecorder(t *testing.T) *logRecorder {
	return &logRecorder{t: t}
}

func (r *logRecorder) handler() slog.Handler {
	return slog.NewJSONHandler(&r.buf, nil)
}

// Drain the recorded entries. The time field is checked for recency and dropped.
func (r *logRecorder) entries() []map[string]any {
	r.t.Helper()

	var entries []map[string]any
	scanner := bufio.NewScanner(&r.buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(r.t, json.Unmarshal(scanner.Bytes(), &entry))

		rawTime, ok := entry["time"].(string)
		require.True(r.t, ok)
		loggedAt, err := time.Parse(time.RFC3339, rawTime)
		require.NoError(r.t, err)
		require.WithinDuration(r.t, time.Now(), loggedAt, 5*time.Second)
		delete(entry, "time")

		entries = append(entries, entry)
	}
	require.NoError(r.t, scanner.Err())
	r.buf.Reset()

	return entries
}

func (r *logRecorder) single() map[string]any {
	r.t.Helper()

	entries := r.entries()
	require.Len(r.t, entries, 1)
	return entries[0]
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("stored logger", func(t *testing.T) {
		t.Parallel()

		logger := slog.New(newLogRecorder(t).handler())
		ctx := logging.AddToContext(t.Context(), logger)

		require.Same(t, logger, logging.FromContext(ctx))
	})

	t.Run("fallback", func(t *testing.T) {
		t.Parallel()

		require.NotNil(t, logging.FromContext(t.Context()))
	})
}

func TestAddMetaToContext(t *testing.T) {
	t.Parallel()

	recorder := newLogRecorder(t)
	root := slog.New(recorder.handler()).With(slog.String("instanceID", "abc"))
	ctx := logging.AddToContext(t.Context(), root)

	withPort := logging.AddMetaToContext(ctx, slog.String("port", "register"))
	logging.FromContext(withPort).Info("first")
	require.Equal(t, map[string]any{
		"level":      "INFO",
		"msg":        "first",
		"instanceID": "abc",
		"port":       "register",
	}, recorder.single())

	// Later attrs win over earlier ones with the same key
	overridden := logging.AddMetaToContext(withPort, slog.String("port", "count"), slog.Int("attempt", 2))
	logging.FromContext(overridden).Info("second")
	require.Equal(t, map[string]any{
		"level":      "INFO",
		"msg":        "second",
		"instanceID": "abc",
		"port":       "count",
		"attempt":    float64(2),
	}, recorder.single())

	// The parent context keeps its logger
	logging.FromContext(ctx).Info("third")
	require.Equal(t, map[string]any{
		"level":      "INFO",
		"msg":        "third",
		"instanceID": "abc",
	}, recorder.single())
}

func TestAddDevoteeToContext(t *testing.T) {
	t.Parallel()

	recorder := newLogRecorder(t)
	ctx := logging.AddToContext(t.Context(), slog.New(recorder.handler()))

	ctx = logging.AddDevoteeToContext(ctx, "9876543210")
	logging.FromContext(ctx).Info("counted")

	require.Equal(t, map[string]any{
		"level":   "INFO",
		"msg":     "counted",
		"devotee": "******3210",
	}, recorder.single())
}
