package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("trace")
	require.NoError(t, err)
	assert.Equal(t, LevelTrace, lvl)

	lvl, err = ParseLevel("Warning")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestModuleFiltering(t *testing.T) {
	var buf bytes.Buffer
	prev := Root()
	defer SetDefault(prev)
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelTrace, true)))

	DisableModule(InterpMonitoring)
	Trace(InterpMonitoring, "hidden")
	assert.Empty(t, buf.String())

	EnableModule(InterpMonitoring)
	defer DisableModule(InterpMonitoring)
	Trace(InterpMonitoring, "step", "addr", "00000100.00")
	out := buf.String()
	assert.Contains(t, out, "level=TRACE")
	assert.Contains(t, out, "module=reil_interp")
	assert.Contains(t, out, "addr=00000100.00")

	buf.Reset()
	Info(LiftMonitoring, "lifted")
	assert.Contains(t, buf.String(), "msg=lifted")
}

func TestDiscardHandler(t *testing.T) {
	l := NewLogger(DiscardHandler())
	assert.False(t, l.Enabled(context.Background(), LevelCrit))
	l.Info(CliMonitoring, "dropped")
}
