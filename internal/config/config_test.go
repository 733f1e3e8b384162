package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	for _, key := range []string{"AIT_ENV", "AIT_BASE_URL", "AIT_TIMEOUT", "AIT_MAX_RETRIES", "AIT_TIMEZONE", "AIT_CREDENTIALS_DIR", "AIT_CREDENTIAL_BACKEND", "AIT_LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Empty(t, cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.False(t, cfg.RetryServerErrors)
	assert.Equal(t, 15*time.Second, cfg.RefreshTimeout)
	assert.Equal(t, filepath.Join(home, ".local", "share", "ait", "credentials"), cfg.CredentialsDir)
	assert.Equal(t, BackendAuto, cfg.CredentialBackend)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Empty(t, cfg.ConfigFile)
}

func TestAPIBaseURL(t *testing.T) {
	isolate(t)

	cfg, err := Load(New())
	require.NoError(t, err)
	_, err = cfg.APIBaseURL()
	assert.ErrorIs(t, err, ErrMissingBaseURL)

	cfg.Env = EnvDev
	baseURL, err := cfg.APIBaseURL()
	require.NoError(t, err)
	assert.Equal(t, DevBaseURL, baseURL)

	cfg.BaseURL = "https://issues.example.test/api"
	baseURL, err = cfg.APIBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "https://issues.example.test/api", baseURL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("AIT_ENV", "DEV")
	t.Setenv("AIT_BASE_URL", "https://issues.example.test/api")
	t.Setenv("AIT_TIMEOUT", "3s")
	t.Setenv("AIT_MAX_RETRIES", "5")
	t.Setenv("AIT_TIMEZONE", "Africa/Kampala")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, "https://issues.example.test/api", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, "Africa/Kampala", cfg.Location.String())

	client := cfg.Client(cfg.BaseURL)
	assert.Equal(t, 5, client.MaxRetries)
	assert.Equal(t, 3*time.Second, client.Timeout)
}

func TestLoadReadsConfigFile(t *testing.T) {
	home := isolate(t)

	dir := filepath.Join(home, ".config", "ait")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(
		"base_url = \"https://file.example.test/api\"\nretry_server_errors = true\nmax_retries = 1\n",
	), 0o600))

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "https://file.example.test/api", cfg.BaseURL)
	assert.True(t, cfg.RetryServerErrors)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.Equal(t, filepath.Join(dir, "config.toml"), cfg.ConfigFile)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]struct {
		key, value, want string
	}{
		"negative retries": {key: "AIT_MAX_RETRIES", value: "-1", want: "max_retries must not be negative"},
		"zero timeout":     {key: "AIT_TIMEOUT", value: "0s", want: "timeout must be positive"},
		"unknown timezone": {key: "AIT_TIMEZONE", value: "Mars/Olympus", want: "load timezone"},
		"unknown backend":  {key: "AIT_CREDENTIAL_BACKEND", value: "vault", want: "unsupported credential_backend"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load(New())
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}
