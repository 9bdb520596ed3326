package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const appName = "omsctl"

// DefaultRefreshInterval is the cadence of background reloads.
const DefaultRefreshInterval = 120 * time.Second

// DefaultIPLookupURL resolves the caller's public address at login.
const DefaultIPLookupURL = "https://api.ipify.org?format=json"

// Config is the resolved client configuration.
type Config struct {
	Endpoint        string         `mapstructure:"endpoint" yaml:"endpoint"`
	IPLookupURL     string         `mapstructure:"ip_lookup_url" yaml:"ip_lookup_url"`
	RefreshInterval time.Duration  `mapstructure:"refresh_interval" yaml:"refresh_interval"`
	RequestTimeout  time.Duration  `mapstructure:"request_timeout" yaml:"request_timeout"`
	LogLevel        string         `mapstructure:"log_level" yaml:"log_level"`
	DefaultUnit     string         `mapstructure:"default_unit" yaml:"default_unit"`
	Username        string         `mapstructure:"username" yaml:"username"`
	Role            string         `mapstructure:"role" yaml:"role"`
	Roles           map[string]int `mapstructure:"roles" yaml:"roles"`
}

// DefaultRoles is the rank table used when the config file has none.
func DefaultRoles() map[string]int {
	return map[string]int{
		"admin":           1,
		"leader":          2,
		"idea":            3,
		"support":         4,
		"designer":        5,
		"designer online": 5,
	}
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		IPLookupURL:     DefaultIPLookupURL,
		RefreshInterval: DefaultRefreshInterval,
		LogLevel:        "warn",
		DefaultUnit:     "Printway",
		Roles:           DefaultRoles(),
	}
}

// GetDataDir resolves the base directory for local state. OMS_DIR wins, then
// the XDG data home, and finally the user's home directory.
func GetDataDir() string {
	if explicit := os.Getenv("OMS_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), appName)
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, appName)
}

// GetConfigPath returns the config file location. OMS_CONFIG overrides it.
func GetConfigPath() string {
	if explicit := os.Getenv("OMS_CONFIG"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	configHome := xdg.ConfigHome
	if configHome == "" {
		configHome = filepath.Join(GetDataDir(), "config")
	}
	return filepath.Join(configHome, appName, "config.yaml")
}

// GetDBPath returns the absolute path to the SQLite cache database.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "cache.db")
}

// GetLogPath returns the path of the structured log file.
func GetLogPath() string {
	return filepath.Join(GetDataDir(), "oms.log")
}

// GetLockDir returns the directory holding watcher lock files.
func GetLockDir() string {
	return filepath.Join(GetDataDir(), "locks")
}

// EncodeLockName sanitizes a screen/scope name so it can be used as a file name.
func EncodeLockName(name string) string {
	replacer := strings.NewReplacer("/", "-", ".", "-", "_", "-", " ", "-", ":", "-")
	return replacer.Replace(name)
}

// New builds a viper instance reading path (if it exists) and OMS_* env vars.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("endpoint", def.Endpoint)
	v.SetDefault("ip_lookup_url", def.IPLookupURL)
	v.SetDefault("refresh_interval", def.RefreshInterval)
	v.SetDefault("request_timeout", def.RequestTimeout)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("default_unit", def.DefaultUnit)
	v.SetDefault("username", def.Username)
	v.SetDefault("role", def.Role)

	v.SetEnvPrefix("OMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return v, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return v, nil
}

// Load decodes the viper state into a Config.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	cfg.Roles = nil
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.Roles) == 0 {
		cfg.Roles = DefaultRoles()
	}
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	return cfg, nil
}

// WriteDefault writes cfg as YAML to path. An existing file is kept unless
// force is set.
func WriteDefault(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, out, 0o600)
}
