// Package config resolves runtime settings from flags, AIT_* environment
// variables and an optional config.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/api"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/application"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "AIT"

	KeyEnv               = "env"
	KeyBaseURL           = "base_url"
	KeyTimeout           = "timeout"
	KeyMaxRetries        = "max_retries"
	KeyRetryBackoff      = "retry_backoff"
	KeyRetryServerErrors = "retry_server_errors"
	KeyRefreshTimeout    = "refresh_timeout"
	KeyCredentialsDir    = "credentials_dir"
	KeyCredentialBackend = "credential_backend"
	KeySnapshotPath      = "snapshot_path"
	KeyLogLevel          = "log_level"
	KeyTimezone          = "timezone"

	EnvDev        = "dev"
	EnvProduction = "production"

	// BackendAuto tries pass first and falls back to files under
	// credentials_dir.
	BackendAuto = "auto"
	BackendPass = "pass"
	BackendFile = "file"

	// DevBaseURL is the local development server used when env is dev and no
	// base_url is set.
	DevBaseURL = "http://localhost:8000/api"

	appDir         = "ait"
	configFileName = "config"
	configFileType = "toml"
)

var ErrMissingBaseURL = errors.New("base_url is not configured (set AIT_BASE_URL or --base-url)")

type Config struct {
	Env               string
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	RetryServerErrors bool
	RefreshTimeout    time.Duration
	CredentialsDir    string
	CredentialBackend string
	LogLevel          string
	Location          *time.Location
	// ConfigFile is the config file that was read, if any.
	ConfigFile string
}

func (c Config) IsDev() bool {
	return c.Env == EnvDev
}

// APIBaseURL returns the configured base URL, the development fallback in dev,
// or ErrMissingBaseURL.
func (c Config) APIBaseURL() (string, error) {
	if c.BaseURL != "" {
		return c.BaseURL, nil
	}
	if c.IsDev() {
		return DevBaseURL, nil
	}
	return "", ErrMissingBaseURL
}

func (c Config) Client(baseURL string) api.Config {
	return api.Config{
		BaseURL:           baseURL,
		Timeout:           c.Timeout,
		MaxRetries:        c.MaxRetries,
		RetryBackoff:      c.RetryBackoff,
		RetryServerErrors: c.RetryServerErrors,
	}
}

// New returns a viper instance with defaults, the AIT_ environment binding and
// the config file search path.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyEnv, EnvProduction)
	v.SetDefault(KeyTimeout, api.DefaultTimeout)
	v.SetDefault(KeyMaxRetries, api.DefaultMaxRetries)
	v.SetDefault(KeyRetryBackoff, api.DefaultRetryBackoff)
	v.SetDefault(KeyRetryServerErrors, false)
	v.SetDefault(KeyRefreshTimeout, application.DefaultRefreshTimeout)
	v.SetDefault(KeyCredentialBackend, BackendAuto)
	v.SetDefault(KeyLogLevel, "warn")

	// Bound explicitly so AutomaticEnv sees keys without a default.
	for _, key := range []string{KeyBaseURL, KeyCredentialsDir, KeySnapshotPath, KeyTimezone} {
		_ = v.BindEnv(key)
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	if dir, err := configDir(); err == nil {
		v.AddConfigPath(dir)
	}

	return v
}

// Load reads the config file, if one exists, and resolves every setting.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Env:               strings.ToLower(strings.TrimSpace(v.GetString(KeyEnv))),
		BaseURL:           strings.TrimSpace(v.GetString(KeyBaseURL)),
		Timeout:           v.GetDuration(KeyTimeout),
		MaxRetries:        v.GetInt(KeyMaxRetries),
		RetryBackoff:      v.GetDuration(KeyRetryBackoff),
		RetryServerErrors: v.GetBool(KeyRetryServerErrors),
		RefreshTimeout:    v.GetDuration(KeyRefreshTimeout),
		CredentialsDir:    strings.TrimSpace(v.GetString(KeyCredentialsDir)),
		CredentialBackend: strings.ToLower(strings.TrimSpace(v.GetString(KeyCredentialBackend))),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		ConfigFile:        v.ConfigFileUsed(),
	}

	if cfg.MaxRetries < 0 {
		return Config{}, fmt.Errorf("%s must not be negative, got %d", KeyMaxRetries, cfg.MaxRetries)
	}
	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %s", KeyTimeout, cfg.Timeout)
	}

	switch cfg.CredentialBackend {
	case BackendAuto, BackendPass, BackendFile:
	default:
		return Config{}, fmt.Errorf("unsupported %s %q (auto|pass|file)", KeyCredentialBackend, cfg.CredentialBackend)
	}

	if cfg.CredentialsDir == "" {
		dir, err := defaultCredentialsDir()
		if err != nil {
			return Config{}, err
		}
		cfg.CredentialsDir = dir
	}

	location, err := loadLocation(v.GetString(KeyTimezone))
	if err != nil {
		return Config{}, err
	}
	cfg.Location = location

	return cfg, nil
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local, nil
	}

	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load %s %q: %w", KeyTimezone, name, err)
	}
	return location, nil
}

func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appDir), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appDir), nil
}

func defaultCredentialsDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appDir, "credentials"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", appDir, "credentials"), nil
}
