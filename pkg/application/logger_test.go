package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordedEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type recordingLogger struct {
	entries []recordedEntry
}

func (l *recordingLogger) record(level, msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, recordedEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Info(_ context.Context, msg string, fields map[string]interface{}) {
	l.record("info", msg, fields)
}

func (l *recordingLogger) Debug(_ context.Context, msg string, fields map[string]interface{}) {
	l.record("debug", msg, fields)
}

func (l *recordingLogger) Error(_ context.Context, msg string, fields map[string]interface{}) {
	l.record("error", msg, fields)
}

func (l *recordingLogger) Trace(_ context.Context, msg string, fields map[string]interface{}) {
	l.record("trace", msg, fields)
}

func TestLogErrorAddsErrorWithoutTouchingCallerFields(t *testing.T) {
	logger := &recordingLogger{}
	fields := map[string]interface{}{"vehicle_id": "v-1"}

	LogError(context.Background(), logger, "save failed", errors.New("disk full"), fields)

	assert.Len(t, logger.entries, 1)
	assert.Equal(t, "error", logger.entries[0].level)
	assert.Equal(t, "v-1", logger.entries[0].fields["vehicle_id"])
	assert.EqualError(t, logger.entries[0].fields["error"].(error), "disk full")
	assert.NotContains(t, fields, "error")
}

func TestLogHelpersRouteToLevel(t *testing.T) {
	logger := &recordingLogger{}
	ctx := context.Background()

	LogInfo(ctx, logger, "a", nil)
	LogDebug(ctx, logger, "b", nil)
	LogTrace(ctx, logger, "c", nil)
	LogError(ctx, logger, "d", nil, nil)

	levels := make([]string, 0, len(logger.entries))
	for _, e := range logger.entries {
		levels = append(levels, e.level)
	}
	assert.Equal(t, []string{"info", "debug", "trace", "error"}, levels)
	assert.NotContains(t, logger.entries[3].fields, "error")
}
