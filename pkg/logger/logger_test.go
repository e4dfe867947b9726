package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewSetsGlobals(t *testing.T) {
	l, err := New(Config{Level: "debug", Encoding: "json"})
	require.NoError(t, err)
	require.NotNil(t, l)
	require.Same(t, l, InfoLogger)
	require.True(t, l.Core().Enabled(zapcore.DebugLevel))

	require.NotPanics(t, func() { Info("hello %s", "world") })
}

func TestNewFallsBackToInfo(t *testing.T) {
	l, err := New(Config{Level: "loud"})
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.DebugLevel))
	require.True(t, l.Core().Enabled(zapcore.InfoLevel))
}
