package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Level(t *testing.T) {
	log, err := New(Options{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Options{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNamed_NilBase(t *testing.T) {
	assert.NotNil(t, Named(nil, "component"))
}

func TestNamed_ComponentName(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	Named(zap.New(core), "svc.inventory").Info("ledger loaded")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "svc.inventory", logs.All()[0].LoggerName)
}
