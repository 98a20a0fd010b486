package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"  Error  ", slog.LevelError},
		{"unknown", slog.LevelWarn},
		{"", slog.LevelWarn},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ParseLevel(tt.input), "input %q", tt.input)
	}
}

func TestForAddsComponent(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	For("fifo").Info("opened", "path", "/tmp/x")

	require.True(t, c.Has(slog.LevelInfo, "opened"))
	v, ok := c.Attr("opened", "component")
	require.True(t, ok)
	require.Equal(t, "fifo", v.String())
}

func TestOrPrefersExplicitLogger(t *testing.T) {
	var buf bytes.Buffer
	explicit := slog.New(slog.NewTextHandler(&buf, nil))
	require.Same(t, explicit, Or(explicit, "fifo"))
	require.NotNil(t, Or(nil, "fifo"))
}

func TestInitWriterJSON(t *testing.T) {
	prev, prevLevel := slog.Default(), level.Level()
	defer func() {
		slog.SetDefault(prev)
		SetLevel(prevLevel)
	}()

	var buf bytes.Buffer
	InitWriter(&buf, "info", "json")
	For("tty").Info("hello")
	require.Contains(t, buf.String(), `"component":"tty"`)
}

func TestForHonoursPackageLevel(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	SetLevel(slog.LevelWarn)
	log := For("fifo")
	log.Info("create", "read", "/tmp/r")
	log.Debug("detail")
	log.Warn("slow")
	log.Error("system error")

	require.Equal(t, 0, c.Count(slog.LevelInfo))
	require.Equal(t, 0, c.Count(slog.LevelDebug))
	require.Equal(t, 1, c.Count(slog.LevelWarn))
	require.Equal(t, 1, c.Count(slog.LevelError))
}

func TestDefaultLevelIsWarn(t *testing.T) {
	require.Equal(t, slog.LevelWarn, ParseLevel(""))

	// Mirror the state before Init: stdlib default handler, package level warn.
	prev, prevLevel := slog.Default(), level.Level()
	defer func() {
		slog.SetDefault(prev)
		SetLevel(prevLevel)
	}()
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	SetLevel(slog.LevelWarn)

	For("fifo").Info("create")
	require.Empty(t, buf.String())
	For("fifo").Warn("retry")
	require.Contains(t, buf.String(), "component=fifo")
}
