package intake

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDefaults = Presets{
	"event": {
		"cover_image":  {"16:9", "9:16", "1:1"},
		"event_images": {"16:9", "9:16", "1:1"},
	},
}

func TestParsePresets(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, p Presets)
	}{
		{
			name: "合法预设并归一化标签",
			yaml: "event:\n  cover_image: [\"16x9\", \"1:1\"]\n",
			check: func(t *testing.T, p Presets) {
				assert.Equal(t, []string{"16:9", "1:1"}, p["event"]["cover_image"])
			},
		},
		{name: "YAML 语法错误", yaml: "event: [", wantErr: true},
		{name: "非法比例", yaml: "event:\n  cover_image: [\"16:0\"]\n", wantErr: true},
		{name: "重复比例", yaml: "event:\n  cover_image: [\"1:1\", \"1x1\"]\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePresets([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestPresetStore_MissingFileUsesDefaults(t *testing.T) {
	store, err := NewPresetStore(filepath.Join(t.TempDir(), "absent.yaml"), testDefaults)
	require.NoError(t, err)
	assert.Equal(t, []string{"16:9", "9:16", "1:1"}, store.Labels("event", "cover_image"))

	ratios, err := store.Ratios("unknown", "group")
	require.NoError(t, err)
	assert.Len(t, ratios, len(DefaultRatios()))
}

func TestPresetStore_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("event: ["), 0644))

	_, err := NewPresetStore(path, testDefaults)
	assert.Error(t, err)
}

func TestPresetStore_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("event:\n  cover_image: [\"16:9\"]\n"), 0644))

	store, err := NewPresetStore(path, testDefaults)
	require.NoError(t, err)
	assert.Equal(t, []string{"16:9"}, store.Labels("event", "cover_image"))
	assert.Equal(t, []string{"16:9", "9:16", "1:1"}, store.Labels("event", "event_images"))

	labels := store.Labels("event", "cover_image")
	labels[0] = "changed"
	assert.Equal(t, []string{"16:9"}, store.Labels("event", "cover_image"), "返回副本")
}

func TestPresetStore_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("event:\n  cover_image: [\"16:9\"]\n"), 0644))

	store, err := NewPresetStore(path, testDefaults)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Watch(ctx))

	require.NoError(t, os.WriteFile(path, []byte("event:\n  cover_image: [\"1:1\", \"3:2\"]\n"), 0644))
	assert.Eventually(t, func() bool {
		labels := store.Labels("event", "cover_image")
		return len(labels) == 2 && labels[0] == "1:1"
	}, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("event: ["), 0644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, []string{"1:1", "3:2"}, store.Labels("event", "cover_image"), "解析失败时保留旧配置")
}
