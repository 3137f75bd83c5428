package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInfoWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Info("transcript.status", map[string]any{
		"transcript_id": "t-1",
		"attempt":       2,
		"error":         errors.New("boom"),
	})

	entries := logs.FilterMessage("transcript.status").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "t-1", fields["transcript_id"])
	assert.EqualValues(t, 2, fields["attempt"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}

func TestWarnAndErrorLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	defer restore()

	Warn("w", nil)
	Error("e", map[string]any{})

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, zapcore.WarnLevel, all[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, all[1].Level)
}

func TestSetLevelFallsBackToInfo(t *testing.T) {
	defer SetLevel("info")

	SetLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, level.Level())

	SetLevel("nonsense")
	assert.Equal(t, zapcore.InfoLevel, level.Level())
}

func TestRequestIDSurvivesDetach(t *testing.T) {
	ctx, cancel := context.WithCancel(WithRequestID(context.Background(), "req-1"))
	cancel()

	detached := Detach(ctx)
	assert.NoError(t, detached.Err())
	assert.Equal(t, "req-1", RequestID(detached))
	assert.Equal(t, "", RequestID(Detach(context.Background())))
}
