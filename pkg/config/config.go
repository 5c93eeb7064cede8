package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the location of the config file
const EnvConfigPath = "NETAUDIT_CONFIG"

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

// AuditConfig holds the paths and knobs of an audit run
type AuditConfig struct {
	InventoryFile  string        `yaml:"inventory_file"`
	BaselinesDir   string        `yaml:"baselines_dir"`
	ReportsDir     string        `yaml:"reports_dir"`
	MinUID         int           `yaml:"min_uid"`
	SSHTimeout     time.Duration `yaml:"ssh_timeout"`
	KnownHostsFile string        `yaml:"known_hosts_file,omitempty"`
}

type Config struct {
	SelectedProvider string                    `yaml:"selected_provider"`
	SelectedModel    string                    `yaml:"selected_model"`
	Providers        map[string]ProviderConfig `yaml:"providers"`
	Audit            AuditConfig               `yaml:"audit"`
}

// GetEnvDefault returns the value of key, or defVal when it is unset
func GetEnvDefault(key, defVal string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defVal
	}
	return val
}

func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".netaudit")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// Default returns the configuration used when no file exists. Audit files
// live under ~/network-auditor.
func Default() *Config {
	base := "network-auditor"
	if home, err := os.UserHomeDir(); err == nil {
		base = filepath.Join(home, "network-auditor")
	}
	return &Config{
		SelectedProvider: "gemini",
		SelectedModel:    "gemini-pro",
		Providers:        make(map[string]ProviderConfig),
		Audit: AuditConfig{
			InventoryFile: filepath.Join(base, "device_inventory.yaml"),
			BaselinesDir:  filepath.Join(base, "baselines"),
			ReportsDir:    "reports",
			MinUID:        1000,
			SSHTimeout:    10 * time.Second,
		},
	}
}

func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path, filling unset fields with defaults
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	if c.SelectedProvider == "" {
		c.SelectedProvider = def.SelectedProvider
	}
	if c.Audit.InventoryFile == "" {
		c.Audit.InventoryFile = def.Audit.InventoryFile
	}
	if c.Audit.BaselinesDir == "" {
		c.Audit.BaselinesDir = def.Audit.BaselinesDir
	}
	if c.Audit.ReportsDir == "" {
		c.Audit.ReportsDir = def.Audit.ReportsDir
	}
	if c.Audit.MinUID <= 0 {
		c.Audit.MinUID = def.Audit.MinUID
	}
	if c.Audit.SSHTimeout <= 0 {
		c.Audit.SSHTimeout = def.Audit.SSHTimeout
	}
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo writes cfg to path
func SaveTo(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	// 0600 permissions for security (api keys)
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetAPIKey(provider, key string) {
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

// GetAPIKey returns the stored key, falling back to GOOGLE_API_KEY for gemini
func (c *Config) GetAPIKey(provider string) string {
	key := c.Providers[provider].APIKey
	if key == "" && provider == "gemini" {
		key = GetEnvDefault("GOOGLE_API_KEY", "")
	}
	return key
}
