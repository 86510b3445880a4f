package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromFile_CreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "conf.ini")

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
	assert.Equal(t, "8091", cfg.GetString(KeyServerPort))
	assert.Equal(t, "local", cfg.GetString(KeyStorageDriver))
	assert.Equal(t, 24*time.Hour, cfg.GetDuration(KeyIntakeDraftTTL, time.Minute))
	assert.Equal(t, 3, cfg.GetInt(KeyIntakeMaxImageMB))
}

func TestNewConfigFromFile_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.ini")
	require.NoError(t, os.WriteFile(path, []byte("[Upstream]\nBaseURL = http://a.example/\n"), 0644))
	t.Setenv("FMCONSOLE_UPSTREAM_BASEURL", "http://b.example/")

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://b.example/", cfg.GetString(KeyUpstreamBaseURL))
}

func TestNewConfigFromFile_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.ini")
	require.NoError(t, os.WriteFile(path, []byte("[Unclosed\nKey"), 0644))

	_, err := NewConfigFromFile(path)
	assert.Error(t, err)
}

func TestConfig_GetDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"标准时长", "90s", 90 * time.Second},
		{"纯数字按秒", "120", 2 * time.Minute},
		{"空值用默认", "", time.Hour},
		{"非法值用默认", "soon", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfigFromMap(map[string]string{KeyUpstreamTimeout: tt.value})
			assert.Equal(t, tt.want, cfg.GetDuration(KeyUpstreamTimeout, time.Hour))
		})
	}
}

func TestConfig_GetStringSlice(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"多个来源", "http://a.test, http://b.test", []string{"http://a.test", "http://b.test"}},
		{"忽略空项", " ,http://a.test,, ", []string{"http://a.test"}},
		{"空值", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfigFromMap(map[string]string{KeyServerAllowOrigins: tt.value})
			assert.Equal(t, tt.want, cfg.GetStringSlice(KeyServerAllowOrigins))
		})
	}
}
