package ssh

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/k3smox/internal/config"
	"github.com/imamik/k3smox/internal/util/keygen"
)

// generateTestKey generates a key pair for use in tests.
func generateTestKey(t *testing.T) *keygen.KeyPair {
	t.Helper()
	keyPair, err := keygen.GenerateKeyPair("test")
	require.NoError(t, err)
	return keyPair
}

func TestNewClient_AppliesDefaults(t *testing.T) {
	t.Parallel()
	keyPair := generateTestKey(t)

	tests := []struct {
		name            string
		cfg             *Config
		wantPort        int
		wantDialTimeout time.Duration
		wantMaxRetries  int
		wantRetryDelay  time.Duration
	}{
		{
			name: "zero values get defaults",
			cfg: &Config{
				Host:       "10.10.0.20",
				User:       "ubuntu",
				PrivateKey: keyPair.PrivateKey,
			},
			wantPort:        defaultPort,
			wantDialTimeout: defaultDialTimeout,
			wantMaxRetries:  defaultMaxRetries,
			wantRetryDelay:  defaultRetryDelay,
		},
		{
			name: "custom values are preserved",
			cfg: &Config{
				Host:        "10.10.0.20",
				Port:        2222,
				User:        "ubuntu",
				PrivateKey:  keyPair.PrivateKey,
				DialTimeout: 5 * time.Second,
				MaxRetries:  10,
				RetryDelay:  time.Second,
			},
			wantPort:        2222,
			wantDialTimeout: 5 * time.Second,
			wantMaxRetries:  10,
			wantRetryDelay:  time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client, err := NewClient(tt.cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPort, client.config.Port)
			assert.Equal(t, tt.wantDialTimeout, client.config.DialTimeout)
			assert.Equal(t, tt.wantMaxRetries, client.config.MaxRetries)
			assert.Equal(t, tt.wantRetryDelay, client.config.RetryDelay)
			assert.NotNil(t, client.config.HostKeyCallback)
			assert.Equal(t, "10.10.0.20", client.Host())
		})
	}
}

func TestNewClient_ConfigNotMutated(t *testing.T) {
	t.Parallel()
	keyPair := generateTestKey(t)

	cfg := &Config{Host: "10.10.0.21", User: "ubuntu", PrivateKey: keyPair.PrivateKey}
	_, err := NewClient(cfg)
	require.NoError(t, err)

	assert.Zero(t, cfg.Port)
	assert.Zero(t, cfg.DialTimeout)
	assert.Zero(t, cfg.MaxRetries)
	assert.Nil(t, cfg.HostKeyCallback)
}

func TestNewClient_Errors(t *testing.T) {
	t.Parallel()
	keyPair := generateTestKey(t)

	tests := []struct {
		name string
		cfg  *Config
		want string
	}{
		{name: "nil config", cfg: nil, want: "config cannot be nil"},
		{name: "empty host", cfg: &Config{User: "ubuntu", PrivateKey: keyPair.PrivateKey}, want: "config host cannot be empty"},
		{name: "empty user", cfg: &Config{Host: "10.10.0.20", PrivateKey: keyPair.PrivateKey}, want: "config user cannot be empty"},
		{name: "empty key", cfg: &Config{Host: "10.10.0.20", User: "ubuntu"}, want: "config private key cannot be empty"},
		{name: "invalid key", cfg: &Config{Host: "10.10.0.20", User: "ubuntu", PrivateKey: []byte("invalid key")}, want: "failed to parse private key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewClient(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestClient_Execute_CancelledContext(t *testing.T) {
	t.Parallel()
	keyPair := generateTestKey(t)

	client, err := NewClient(&Config{
		Host:        "127.0.0.1",
		Port:        1,
		User:        "ubuntu",
		PrivateKey:  keyPair.PrivateKey,
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  3,
		RetryDelay:  10 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Execute(ctx, "echo test")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFactory(t *testing.T) {
	t.Parallel()
	keyPair := generateTestKey(t)

	keyPath := filepath.Join(t.TempDir(), "id_rsa")
	require.NoError(t, os.WriteFile(keyPath, keyPair.PrivateKey, 0o600))

	factory, err := NewFactory(config.SSHConfig{User: "ubuntu", Port: 2200, PrivateKeyPath: keyPath})
	require.NoError(t, err)

	exec, err := factory("10.10.0.22")
	require.NoError(t, err)

	client, ok := exec.(*Client)
	require.True(t, ok)
	assert.Equal(t, "10.10.0.22", client.Host())
	assert.Equal(t, 2200, client.config.Port)
	assert.Equal(t, "ubuntu", client.config.User)
}

func TestNewFactory_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewFactory(config.SSHConfig{User: "ubuntu", PrivateKeyPath: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read ssh private key")

	badPath := filepath.Join(t.TempDir(), "bad")
	require.NoError(t, os.WriteFile(badPath, []byte("not a key"), 0o600))
	_, err = NewFactory(config.SSHConfig{User: "ubuntu", PrivateKeyPath: badPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse private key")
}

func TestQuote(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `'plain'`, Quote("plain"))
	assert.Equal(t, `'it'\''s'`, Quote("it's"))
	assert.Equal(t, `''`, Quote(""))
}
