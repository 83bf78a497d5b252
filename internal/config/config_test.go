package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "discuss.db", cfg.Database)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, 1024, cfg.Mentions.QueueSize)
	assert.Equal(t, 20, cfg.Search.DefaultPerPage)
	assert.Equal(t, 2, cfg.Search.MaxEdits)
	assert.Equal(t, 0, cfg.Search.RatePerMinute)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "discuss.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database: /var/lib/discuss/forum.db
log_level: debug
mentions:
  pool_size: 3
search:
  max_edits: 1
  suggest_scan_limit: 500
`), 0o600))
	t.Setenv("DISCUSS_PORT", "9090")
	t.Setenv("DISCUSS_SEARCH_RATE_PER_MINUTE", "30")
	t.Setenv("DISCUSS_SEARCH_DEFAULT_PER_PAGE", "0")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/discuss/forum.db", cfg.Database)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 3, cfg.Mentions.PoolSize)
	assert.Equal(t, 1, cfg.Search.MaxEdits)
	assert.Equal(t, 500, cfg.Search.SuggestScanLimit)
	assert.Equal(t, 30, cfg.Search.RatePerMinute)
	assert.Equal(t, 0, cfg.Search.DefaultPerPage)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	v := viper.New()
	v.Set("log_level", "loud")
	_, err := Load(v, "")
	assert.ErrorIs(t, err, ErrInvalidLogLevel)

	v = viper.New()
	v.Set("database", " ")
	_, err = Load(v, "")
	assert.ErrorIs(t, err, ErrDatabaseRequired)

	for _, key := range []string{"search.default_per_page", "search.max_edits", "search.suggest_scan_limit", "search.rate_per_minute"} {
		v = viper.New()
		v.Set(key, -1)
		_, err = Load(v, "")
		assert.ErrorIs(t, err, ErrInvalidSearchConfig, key)
	}

	_, err = Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
