package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("whatever"))
}

func TestComponentTagsEntries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Component(NewZapAdapter(zap.New(core)), "store")

	l.Warn("persist failed", map[string]interface{}{"error": errors.New("disk full"), "key": "state"})

	entries := logs.All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "store", fields["component"])
	assert.Equal(t, "disk full", fields["error"])
	assert.Equal(t, "state", fields["key"])
}

func TestComponentNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Component(nil, "x").Info("hello", nil)
	})
}
