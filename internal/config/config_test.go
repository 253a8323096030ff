package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REPOSITORY_PATH", "/openorgs/data/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "openorgs/data", cfg.Repository.Path)
	assert.Equal(t, "master", cfg.Repository.Branch)
	assert.Equal(t, "refs/heads/master", cfg.Repository.Ref())
	assert.Equal(t, "https://raw.githubusercontent.com", cfg.Repository.ContentHost)
	assert.Equal(t, "https://api.opencorporates.com", cfg.Registry.Host)
	assert.Equal(t, 30*time.Second, cfg.Repository.HTTPTimeout)
	assert.Equal(t, 32, cfg.Sync.QueueSize)
	assert.False(t, cfg.WhatsApp.Enabled)
	assert.Empty(t, cfg.Security.APIKeys)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REPOSITORY_PATH", "openorgs/data")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("API_KEYS", " first-secret-key , ,second-secret-key")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("CONTENT_HOST", "http://localhost:9000/")
	t.Setenv("WHATSAPP_ENABLED", "true")
	t.Setenv("WHATSAPP_RECIPIENT", "447700900123@s.whatsapp.net")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"first-secret-key", "second-secret-key"}, cfg.Security.APIKeys)
	assert.Equal(t, 5*time.Second, cfg.Repository.HTTPTimeout)
	assert.Equal(t, 5*time.Second, cfg.Registry.Timeout)
	assert.Equal(t, "http://localhost:9000", cfg.Repository.ContentHost)
	assert.True(t, cfg.WhatsApp.Enabled)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing repository", map[string]string{}},
		{"repository without owner", map[string]string{"REPOSITORY_PATH": "data"}},
		{"bad port", map[string]string{"REPOSITORY_PATH": "o/d", "SERVER_PORT": "70000"}},
		{"weak api key", map[string]string{"REPOSITORY_PATH": "o/d", "API_KEYS": "short"}},
		{"default api key", map[string]string{"REPOSITORY_PATH": "o/d", "API_KEYS": "default-api-key"}},
		{"notifier without recipient", map[string]string{"REPOSITORY_PATH": "o/d", "WHATSAPP_ENABLED": "true"}},
		{"cache size", map[string]string{"REPOSITORY_PATH": "o/d", "ENRICHMENT_CACHE_SIZE": "0"}},
		{"queue size", map[string]string{"REPOSITORY_PATH": "o/d", "SYNC_QUEUE_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REPOSITORY_PATH", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestAddress(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", s.Address())
}
