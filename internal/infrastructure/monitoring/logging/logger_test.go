package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// newTestLogger creates a logger that writes JSON entries to a buffer.
func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func TestNewLogger_JSONFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleFormat(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_Defaults(t *testing.T) {
	l, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestLoggerWritesFields(t *testing.T) {
	l, buf := newTestLogger(t)

	l.Info("chunk processed",
		String("publication_number", "US20130042345A1"),
		Int("chunk", 3),
		Bool("cached", false),
	)

	lines := buf.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"publication_number":"US20130042345A1"`)
	assert.Contains(t, lines[0], `"chunk":3`)
	assert.Contains(t, lines[0], `"cached":false`)
}

func TestWithAddsPersistentFields(t *testing.T) {
	l, buf := newTestLogger(t)

	child := l.With(String("component", "extractor"))
	child.Warn("boundary fallback")

	require.Len(t, buf.Lines(), 1)
	assert.Contains(t, buf.Lines()[0], `"component":"extractor"`)
}

func TestNamed(t *testing.T) {
	l, buf := newTestLogger(t)
	l.Named("importer").Info("started")

	require.Len(t, buf.Lines(), 1)
	assert.Contains(t, buf.Lines()[0], `"logger":"importer"`)
}

func TestErrField(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
	assert.Equal(t, "boom", Err(errors.New("boom")).Value)
	assert.Equal(t, "error", Err(nil).Key)
}

func TestToZapFieldTypes(t *testing.T) {
	fields := toZapFields([]Field{
		String("s", "v"),
		Int("i", 1),
		Int64("i64", int64(2)),
		Float64("f", 3.5),
		Bool("b", true),
		Duration("d", time.Second),
		Any("a", struct{}{}),
	})
	assert.Len(t, fields, 7)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.NotNil(t, l.With(String("k", "v")))
	assert.NotNil(t, l.Named("x"))
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, _ := newTestLogger(t)
	SetDefault(l)
	assert.Equal(t, l, Default())

	SetDefault(nil) // ignored
	assert.Equal(t, l, Default())
}
