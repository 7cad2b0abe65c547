package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"whitecarrot/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *errors.Logger {
	logger, _ := errors.New("debug")
	return logger
}

// fakeSecrets serves KVv2 secrets from memory
type fakeSecrets map[string]map[string]any

func (f fakeSecrets) GetSecretV2(path string) (*VaultSecret, error) {
	data, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return &VaultSecret{Data: data, Version: 1}, nil
}

func (f fakeSecrets) GetStringSecret(path, key string) (string, error) {
	secret, err := f.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key].(string)
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	return value, nil
}

func (f fakeSecrets) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := f.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitList(value), nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(7), expected: 7},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/test")

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	logger := newTestLogger()

	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		tokenFile := filepath.Join(t.TempDir(), "vault-token")
		require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: tokenFile}, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token/file"}, logger)
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{}, logger)
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestVaultClientExtractSecret(t *testing.T) {
	vc := &VaultClient{logger: newTestLogger()}

	secret := &api.Secret{
		Data: map[string]any{
			"data":     map[string]any{"dsn": "postgres://ats"},
			"metadata": map[string]any{"version": "3"},
		},
	}

	data, err := vc.extractSecretData(secret, "secret/data/store")
	require.NoError(t, err)
	assert.Equal(t, "postgres://ats", data["dsn"])

	version, err := vc.extractSecretVersion(secret, "secret/data/store")
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	_, err = vc.extractSecretData(&api.Secret{Data: map[string]any{"data": "flat"}}, "secret/data/x")
	assert.ErrorContains(t, err, "not in KVv2 format")

	_, err = vc.extractSecretVersion(&api.Secret{Data: map[string]any{"metadata": map[string]any{}}}, "secret/data/x")
	assert.ErrorContains(t, err, "missing 'version'")
}

func TestLoadAllSecretsFromVault(t *testing.T) {
	logger := newTestLogger()
	secrets := fakeSecrets{
		"secret/data/whitecarrot/api": {"keys": "alpha, beta"},
		"secret/data/whitecarrot/store": {
			"dsn":            "postgres://ats:pw@db/ats",
			"redis_password": "r3dis",
		},
		"secret/data/whitecarrot/amqp": {"url": "amqp://guest:guest@mq:5672/"},
	}

	cfg := Default()
	cfg.Vault.Secrets = VaultSecrets{
		APIKeys: "secret/data/whitecarrot/api",
		Store:   "secret/data/whitecarrot/store",
		AMQP:    "secret/data/whitecarrot/amqp",
	}

	require.NoError(t, loadAllSecretsFromVault(secrets, cfg, logger))
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Server.APIKeys)
	assert.Equal(t, "postgres://ats:pw@db/ats", cfg.Store.Postgres.DSN)
	assert.Equal(t, "r3dis", cfg.Store.Redis.Password)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.Notify.AMQP.URL)
}

func TestLoadAllSecretsFromVaultMissingPath(t *testing.T) {
	cfg := Default()
	cfg.Vault.Secrets.Store = "secret/data/missing"

	err := loadAllSecretsFromVault(fakeSecrets{}, cfg, newTestLogger())
	assert.ErrorContains(t, err, "failed to load store credentials from vault")
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: false}}
	assert.NoError(t, ApplyVaultSecrets(cfg, newTestLogger()))
}
