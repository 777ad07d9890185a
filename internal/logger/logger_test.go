package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormLogger "gorm.io/gorm/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

func TestGormLevel(t *testing.T) {
	assert.Equal(t, gormLogger.Silent, GormLevel("silent"))
	assert.Equal(t, gormLogger.Info, GormLevel("info"))
	assert.Equal(t, gormLogger.Warn, GormLevel(""))
}

func TestNew(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		log, err := New("debug", env)
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("nope"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/listings/abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	ctx := entry.ContextMap()
	assert.Equal(t, "/listings/abc", ctx["path"])
	assert.Equal(t, int64(http.StatusNotFound), ctx["status"])
	assert.Equal(t, int64(4), ctx["bytes"])
}
