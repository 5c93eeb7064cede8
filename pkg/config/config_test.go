package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.SelectedProvider)
	assert.Equal(t, "reports", cfg.Audit.ReportsDir)
	assert.Equal(t, 1000, cfg.Audit.MinUID)
	assert.Equal(t, 10*time.Second, cfg.Audit.SSHTimeout)
	assert.Equal(t, "device_inventory.yaml", filepath.Base(cfg.Audit.InventoryFile))
	assert.Equal(t, "baselines", filepath.Base(cfg.Audit.BaselinesDir))
}

func TestLoadPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
audit:
  inventory_file: /etc/netaudit/inventory.yaml
  ssh_timeout: 3s
  min_uid: 500
`), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/etc/netaudit/inventory.yaml", cfg.Audit.InventoryFile)
	assert.Equal(t, 3*time.Second, cfg.Audit.SSHTimeout)
	assert.Equal(t, 500, cfg.Audit.MinUID)
	assert.Equal(t, "reports", cfg.Audit.ReportsDir)
	assert.NotNil(t, cfg.Providers)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audit: [\n"), 0600))
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestSaveAndLoadViaEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv(EnvConfigPath, path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.SetAPIKey("gemini", "k-123")
	cfg.SelectedModel = "gemini-1.5-pro"
	require.NoError(t, SaveConfig(cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "k-123", loaded.GetAPIKey("gemini"))
	assert.Equal(t, "gemini-1.5-pro", loaded.SelectedModel)
}

func TestGetAPIKeyEnvFallback(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "from-env")
	cfg := Default()
	assert.Equal(t, "from-env", cfg.GetAPIKey("gemini"))
	assert.Equal(t, "", cfg.GetAPIKey("openai"))
}
