package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		log, err := New("warn", format)
		require.NoError(t, err, format)

		core := log.Desugar().Core()
		assert.False(t, core.Enabled(zapcore.InfoLevel), format)
		assert.True(t, core.Enabled(zapcore.WarnLevel), format)
	}
}

func TestNew_DebugEnablesEverything(t *testing.T) {
	log, err := New("debug", "json")
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", "json")
	assert.ErrorContains(t, err, "loud")
}
