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

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func loadWith(t *testing.T, env map[string]string, overlay string) *Config {
	t.Helper()
	dir := t.TempDir()
	opts := LoadOptions{
		ConfigFile:  filepath.Join(dir, ConfigFileName),
		OverlayFile: filepath.Join(dir, OverlayFileName),
		LookupEnv:   envFrom(env),
	}
	if overlay != "" {
		require.NoError(t, os.WriteFile(opts.OverlayFile, []byte(overlay), 0o600))
	}
	cfg, err := Load(opts)
	require.NoError(t, err)
	return cfg
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := loadWith(t, nil, "")

		assert.Equal(t, DefaultBindAddress, cfg.BindAddress)
		assert.Equal(t, DefaultOpenAIModel, cfg.OpenAIModel)
		assert.Equal(t, DefaultDBConnectTimeout, cfg.DBConnectTimeout)
		assert.Equal(t, "default", cfg.Source("port"))
		assert.False(t, cfg.OverlayFileExists())
	})

	t.Run("environment", func(t *testing.T) {
		cfg := loadWith(t, map[string]string{
			EnvPort:             "6000",
			EnvMongoDBURI:       "mongodb://localhost/test",
			EnvDBConnectTimeout: "3",
		}, "")

		assert.Equal(t, "6000", cfg.Port)
		assert.Equal(t, "mongodb://localhost/test", cfg.MongoDBURI)
		assert.Equal(t, 3*time.Second, cfg.DBConnectTimeout)
		assert.Equal(t, "environment", cfg.Source("port"))
		assert.True(t, cfg.CredentialMissing())
	})

	t.Run("overlay fills unset keys only", func(t *testing.T) {
		cfg := loadWith(t, map[string]string{EnvPort: "7000"},
			"PORT=9999\nMONGODB_URI=mongodb://db/chat\nOPENAI_API_KEY=sk-overlay\n")

		assert.True(t, cfg.OverlayFileExists())
		assert.Equal(t, "7000", cfg.Port)
		assert.Equal(t, "environment", cfg.Source("port"))
		assert.Equal(t, "mongodb://db/chat", cfg.MongoDBURI)
		assert.Equal(t, "overlay", cfg.Source("mongodb_uri"))
		assert.False(t, cfg.CredentialMissing())
	})

	t.Run("overlay does not touch process environment", func(t *testing.T) {
		t.Setenv(EnvOpenAIModel, "")
		_ = loadWith(t, nil, "OPENAI_MODEL=gpt-4o\n")

		assert.Equal(t, "", os.Getenv(EnvOpenAIModel))
	})

	t.Run("yaml file", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, ConfigFileName)
		require.NoError(t, os.WriteFile(file, []byte("openai_model: gpt-4o\ndb_connect_timeout: 2s\nrate_limit_burst: 3\n"), 0o600))

		cfg, err := Load(LoadOptions{
			ConfigFile:  file,
			OverlayFile: filepath.Join(dir, OverlayFileName),
			LookupEnv:   envFrom(map[string]string{EnvOpenAIModel: "gpt-4o-mini"}),
		})
		require.NoError(t, err)

		assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
		assert.Equal(t, 2*time.Second, cfg.DBConnectTimeout)
		assert.Equal(t, "file", cfg.Source("db_connect_timeout"))
		assert.Equal(t, 3, cfg.RateLimitBurst)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, ConfigFileName)
		require.NoError(t, os.WriteFile(file, []byte("rate_limit_burst: [nope"), 0o600))

		_, err := Load(LoadOptions{ConfigFile: file, OverlayFile: filepath.Join(dir, OverlayFileName), LookupEnv: envFrom(nil)})
		assert.Error(t, err)
	})

	t.Run("bad timeout", func(t *testing.T) {
		dir := t.TempDir()
		_, err := Load(LoadOptions{
			ConfigFile:  filepath.Join(dir, ConfigFileName),
			OverlayFile: filepath.Join(dir, OverlayFileName),
			LookupEnv:   envFrom(map[string]string{EnvDBConnectTimeout: "soon"}),
		})
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		missing []string
	}{
		{"missing port", map[string]string{EnvMongoDBURI: "mongodb://localhost/test"}, []string{EnvPort}},
		{"missing uri", map[string]string{EnvPort: "6000"}, []string{EnvMongoDBURI}},
		{"missing both", map[string]string{EnvOpenAIAPIKey: "sk-test"}, []string{EnvPort, EnvMongoDBURI}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loadWith(t, tt.env, "").Validate()

			require.ErrorIs(t, err, ErrConfigurationMissing)
			var missing *MissingError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.missing, missing.Keys)
		})
	}

	t.Run("no api key is not an error", func(t *testing.T) {
		cfg := loadWith(t, map[string]string{EnvPort: "6000", EnvMongoDBURI: "mongodb://localhost/test"}, "")
		assert.NoError(t, cfg.Validate())
		assert.True(t, cfg.CredentialMissing())
	})

	t.Run("non numeric port", func(t *testing.T) {
		cfg := loadWith(t, map[string]string{EnvPort: "http", EnvMongoDBURI: "mongodb://localhost/test"}, "")
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfiguration)
	})
}

func TestAttributesMaskCredentials(t *testing.T) {
	cfg := loadWith(t, map[string]string{
		EnvOpenAIAPIKey: "sk-abcdefghijklmnop",
		EnvMongoDBURI:   "mongodb://user:hunter2@db:27017/chat",
	}, "")

	text := cfg.FormatText()
	assert.NotContains(t, text, "hunter2")
	assert.NotContains(t, text, "sk-abcdefghijklmnop")
	assert.Contains(t, text, "mongodb://user:****@db:27017/chat")

	out, err := cfg.FormatJSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "openai_api_key"`)
	assert.NotContains(t, out, "hunter2")
}

func TestAddress(t *testing.T) {
	cfg := loadWith(t, map[string]string{EnvPort: "6000", EnvBindAddress: "127.0.0.1"}, "")
	assert.Equal(t, "127.0.0.1:6000", cfg.Address())
}

func TestApplyFlags(t *testing.T) {
	cfg := loadWith(t, map[string]string{EnvPort: "6000", EnvMongoDBURI: "mongodb://localhost/test"}, "")

	cfg.ApplyFlags("", "")
	assert.Equal(t, "6000", cfg.Port)
	assert.Equal(t, "environment", cfg.Source("port"))
	assert.Equal(t, "default", cfg.Source("bind_address"))

	cfg.ApplyFlags("7000", "127.0.0.1")
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.BindAddress)
	assert.Equal(t, "flag", cfg.Source("port"))
	assert.Equal(t, "flag", cfg.Source("bind_address"))
	assert.Equal(t, "127.0.0.1:7000", cfg.Address())
}
