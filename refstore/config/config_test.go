package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"REFSTORE_CONFIG_FILE", "REFSTORE_DATA_DIR", "REFSTORE_HASH_ALGORITHM",
		"REFSTORE_LOCK_FAIL_MODE", "REFSTORE_LOCK_RETRY_BUDGET", "REFSTORE_LOCK_RETRY_INTERVAL",
		"REFSTORE_REFLOG_DISABLED", "REFSTORE_REFLOG_AUTOCREATE_PREFIXES",
		"REFSTORE_LOG_LEVEL", "REFSTORE_LOG_FORMAT", "REFSTORE_LOG_OUTPUT",
		"REFSTORE_FORCE_CREATE_OVERRIDES_DISABLE", "REFSTORE_PREFETCH_CONCURRENCY",
	} {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sha1", cfg.Store.HashAlgorithm)
	assert.Equal(t, "immediate", cfg.Lock.FailMode)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_OverridesFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("REFSTORE_DATA_DIR", "/var/lib/refstore")
	t.Setenv("REFSTORE_HASH_ALGORITHM", "sha256")
	t.Setenv("REFSTORE_REFLOG_DISABLED", "true")
	t.Setenv("REFSTORE_REFLOG_AUTOCREATE_PREFIXES", "refs/heads/, refs/notes/")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/refstore", cfg.Store.DataDir)
	assert.Equal(t, "sha256", cfg.Store.HashAlgorithm)
	assert.True(t, cfg.Reflog.Disabled)
	assert.Equal(t, []string{"refs/heads/", "refs/notes/"}, cfg.Reflog.AutoCreatePrefixes)
}

func TestLoadFromEnv_FileOverlayThenEnvironmentWins(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "refstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  dataDir: /from/file
  hashAlgorithm: sha256
lock:
  failMode: retry
  retryBudget: 2s
`), 0o644))

	t.Setenv("REFSTORE_CONFIG_FILE", path)
	t.Setenv("REFSTORE_HASH_ALGORITHM", "sha1")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.Store.DataDir, "file overlay applies where env didn't override")
	assert.Equal(t, "sha1", cfg.Store.HashAlgorithm, "environment variable wins over file overlay")
	assert.Equal(t, "retry", cfg.Lock.FailMode)
	assert.Equal(t, 2*1e9, float64(cfg.Lock.RetryBudget))
}

func TestValidate_RejectsUnknownHashAlgorithm(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	cfg.Store.HashAlgorithm = "md5"
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsRetryModeWithoutBudget(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	cfg.Lock.FailMode = "retry"
	cfg.Lock.RetryBudget = 0
	assert.Error(t, cfg.Validate())
}

func TestHashWidth_MatchesAlgorithm(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Store.HashWidth())

	cfg.Store.HashAlgorithm = "sha256"
	assert.Equal(t, 32, cfg.Store.HashWidth())
}
