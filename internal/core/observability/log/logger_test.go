package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("debug"))
	require.Equal(t, LevelWarn, ParseLevel("WARN"))
	require.Equal(t, LevelWarn, ParseLevel("warning"))
	require.Equal(t, LevelError, ParseLevel("error"))
	require.Equal(t, LevelFatal, ParseLevel("fatal"))
	require.Equal(t, LevelInfo, ParseLevel(""))
	require.Equal(t, LevelInfo, ParseLevel("garbage"))
}

func TestNew(t *testing.T) {
	logger := New(LevelDebug)
	require.NotNil(t, logger)
	require.True(t, logger.Core().Enabled(LevelDebug.zap()))

	// The first built logger becomes the process default, so late
	// consumers resolving via Provide see the configured logger.
	require.Same(t, logger, Provide())
}

func TestNop(t *testing.T) {
	require.NotNil(t, Nop())
	Nop().Info("discarded")
}
