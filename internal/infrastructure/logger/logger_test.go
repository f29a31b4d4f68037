package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, time.RFC3339, cfg.TimeFormat)
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	log, err := New(nil)

	require.NoError(t, err)
	require.NotNil(t, log)
}

func TestNew_JSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	log, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("import completed")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"info"`)
	assert.Contains(t, string(data), "import completed")
	assert.Contains(t, string(data), `"time"`)
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	log, err := New(&Config{Level: "chatty", Format: "json", Output: path})
	require.NoError(t, err)

	log.Debug("should be dropped")
	log.Info("should be written")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should be dropped")
	assert.Contains(t, string(data), "should be written")
}

func TestNew_ConsoleFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	log, err := New(&Config{Level: "debug", Format: "console", Output: path})
	require.NoError(t, err)

	log.Warn("stock went negative")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stock went negative")
}

func TestNew_UnwritableOutput(t *testing.T) {
	_, err := New(&Config{Level: "info", Format: "json", Output: "/no/such/dir/service.log"})

	assert.Error(t, err)
}

func TestSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	log, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	assert.NoError(t, Sync(log))
}
