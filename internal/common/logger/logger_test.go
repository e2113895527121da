package logger

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Level(t *testing.T) {
	assert.True(t, New("debug", "json", "stderr").Core().Enabled(zapcore.DebugLevel))
	assert.False(t, New("warn", "console", "stderr").Core().Enabled(zapcore.InfoLevel))
	assert.True(t, New("bogus", "json", "stderr").Core().Enabled(zapcore.InfoLevel))
	assert.False(t, New("bogus", "json", "stderr").Core().Enabled(zapcore.DebugLevel))
}

func TestZapWrapper_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "store"})

	log.Info("created", map[string]interface{}{
		"id":    int64(4),
		"cause": stderrors.New("boom"),
	})
	log.WithError(stderrors.New("bad")).Warn("retrying", nil)

	entries := logs.AllUntimed()
	assert.Len(t, entries, 2)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "store", ctx["component"])
	assert.Equal(t, int64(4), ctx["id"])
	assert.Equal(t, "boom", ctx["cause"])

	assert.Equal(t, "bad", entries[1].ContextMap()["error"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNewNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Error("ignored", map[string]interface{}{"k": "v"})
	assert.NotNil(t, log.With(nil))
}
