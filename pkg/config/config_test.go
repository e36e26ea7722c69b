package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamConfig struct {
	APIKey  string        `env:"TEST_UPSTREAM_KEY" yaml:"api_key"`
	Model   string        `env:"TEST_UPSTREAM_MODEL" yaml:"model" default:"gpt-4"`
	Timeout time.Duration `env:"TEST_UPSTREAM_TIMEOUT" yaml:"timeout" default:"2s"`
}

type testConfig struct {
	Name     string         `env:"TEST_NAME" yaml:"name" required:"true"`
	Port     int            `env:"TEST_PORT" yaml:"port" default:"3000"`
	Ratio    float64        `env:"TEST_RATIO" yaml:"ratio" default:"0.5"`
	Debug    bool           `env:"TEST_DEBUG" yaml:"debug" default:"false"`
	Origins  []string       `env:"TEST_ORIGINS" yaml:"origins" default:"*"`
	Upstream upstreamConfig `yaml:"upstream"`
}

type validatedConfig struct {
	Port int `env:"TEST_VALIDATED_PORT" default:"80"`
}

func (c validatedConfig) Validate() error {
	if c.Port > 65535 {
		return errors.New("port out of range")
	}
	return nil
}

func TestGetConfigFromEnvVars(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
		want    testConfig
		wantErr bool
	}{
		{
			name:    "defaults applied when only required field set",
			envVars: map[string]string{"TEST_NAME": "relay"},
			want: testConfig{
				Name:     "relay",
				Port:     3000,
				Ratio:    0.5,
				Origins:  []string{"*"},
				Upstream: upstreamConfig{Model: "gpt-4", Timeout: 2 * time.Second},
			},
		},
		{
			name: "environment overrides defaults, including nested structs",
			envVars: map[string]string{
				"TEST_NAME":             "relay",
				"TEST_PORT":             "8080",
				"TEST_DEBUG":            "true",
				"TEST_ORIGINS":          "https://a.example, https://b.example",
				"TEST_UPSTREAM_KEY":     "sk-test",
				"TEST_UPSTREAM_TIMEOUT": "150ms",
			},
			want: testConfig{
				Name:     "relay",
				Port:     8080,
				Ratio:    0.5,
				Debug:    true,
				Origins:  []string{"https://a.example", "https://b.example"},
				Upstream: upstreamConfig{APIKey: "sk-test", Model: "gpt-4", Timeout: 150 * time.Millisecond},
			},
		},
		{
			name:    "missing required field",
			envVars: map[string]string{},
			want:    testConfig{},
			wantErr: true,
		},
		{
			name:    "unparsable int",
			envVars: map[string]string{"TEST_NAME": "relay", "TEST_PORT": "three thousand"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.envVars {
				t.Setenv(k, v)
			}

			var cfg testConfig
			err := GetConfigFromEnvVars(&cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg)
		})
	}
}

func TestGetConfigFromEnvVars_RunsValidator(t *testing.T) {
	t.Setenv("TEST_VALIDATED_PORT", "70000")

	var cfg validatedConfig
	err := GetConfigFromEnvVars(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port out of range")
}

func TestGetConfig_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: from-file
port: 4000
upstream:
  model: llama
`), 0o600))

	t.Setenv("TEST_PORT", "5000")

	var cfg testConfig
	require.NoError(t, GetConfig(&cfg, path, false))

	assert.Equal(t, "from-file", cfg.Name)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "llama", cfg.Upstream.Model)
	assert.Equal(t, 2*time.Second, cfg.Upstream.Timeout)
}

func TestGetConfig_FileErrors(t *testing.T) {
	t.Setenv("TEST_NAME", "env-only")

	var strict testConfig
	err := GetConfig(&strict, filepath.Join(t.TempDir(), "missing.yaml"), false)
	assert.Error(t, err)

	var lenient testConfig
	require.NoError(t, GetConfig(&lenient, filepath.Join(t.TempDir(), "missing.yaml"), true))
	assert.Equal(t, "env-only", lenient.Name)
}
