package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeDynamicConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_InitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic.json")
	writeDynamicConfig(t, path, `{"loader":{"batchWindowMs":5,"maxBatchSize":10},"resolution":{"cacheTtlSeconds":60}}`)

	watcher, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer watcher.Stop()

	current := watcher.Current()
	require.NotNil(t, current)
	assert.Equal(t, 5, current.Loader.BatchWindowMs)
	assert.Equal(t, 10, current.Loader.MaxBatchSize)
	assert.Equal(t, 60, current.Resolution.CacheTTLSeconds)
}

func TestWatcher_MissingFile(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())
	assert.Error(t, err)
}

func TestWatcher_ReloadNotifiesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic.json")
	writeDynamicConfig(t, path, `{"resolution":{"cacheTtlSeconds":60}}`)

	watcher, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer watcher.Stop()

	changed := make(chan *DynamicConfig, 1)
	watcher.OnChange(func(cfg *DynamicConfig) {
		select {
		case changed <- cfg:
		default:
		}
	})
	watcher.Start()

	writeDynamicConfig(t, path, `{"loader":{"maxBatchSize":50},"resolution":{"cacheTtlSeconds":300}}`)

	select {
	case cfg := <-changed:
		assert.Equal(t, 300, cfg.Resolution.CacheTTLSeconds)
		assert.Equal(t, 50, cfg.Loader.MaxBatchSize)
	case <-time.After(2 * time.Second):
		t.Fatal("reload never fired")
	}
}

func TestWatcher_KeepsPreviousOnBadReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynamic.json")
	writeDynamicConfig(t, path, `{"resolution":{"cacheTtlSeconds":60}}`)

	watcher, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	defer watcher.Stop()
	watcher.Start()

	writeDynamicConfig(t, path, `{not json`)

	// The broken write must not clobber the last good config
	time.Sleep(100 * time.Millisecond)
	current := watcher.Current()
	require.NotNil(t, current)
	assert.Equal(t, 60, current.Resolution.CacheTTLSeconds)
}
