package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildObjectKey(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"无前缀", "", "drafts/a/1.png", "drafts/a/1.png"},
		{"带前缀", "/staging/", "drafts/a/1.png", "staging/drafts/a/1.png"},
		{"清理上级目录", "staging", "../../etc/passwd", "staging/etc/passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildObjectKey(&Policy{BasePath: tt.base}, tt.key))
		})
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		driver  constant.StorageDriver
		want    interface{}
		wantErr bool
	}{
		{constant.StorageDriverLocal, &LocalProvider{}, false},
		{"", &LocalProvider{}, false},
		{constant.StorageDriverS3, &AWSS3Provider{}, false},
		{constant.StorageDriverAliOSS, &AliOSSProvider{}, false},
		{constant.StorageDriverTencentCOS, &TencentCOSProvider{}, false},
		{constant.StorageDriverQiniu, &QiniuKodoProvider{}, false},
		{"onedrive", nil, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.driver), func(t *testing.T) {
			p, err := NewProvider(tt.driver)
			if tt.wantErr {
				assert.ErrorIs(t, err, constant.ErrUnknownStorageDriver)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}
}

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewStore(Policy{BasePath: root})
	require.NoError(t, err)
	assert.Equal(t, constant.StorageDriverLocal, store.Driver())

	res, err := store.Put(ctx, "drafts/d1/img-1.png", []byte("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "drafts/d1/img-1.png", res.Source)
	assert.EqualValues(t, 9, res.Size)
	assert.Equal(t, "image/png", res.MimeType)

	data, err := store.Get(ctx, res.Source)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	require.NoError(t, store.Delete(ctx, res.Source))
	_, err = store.Get(ctx, res.Source)
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = os.Stat(filepath.Join(root, "drafts"))
	assert.True(t, os.IsNotExist(err), "空目录被清理")
	_, err = os.Stat(root)
	assert.NoError(t, err, "根目录保留")

	assert.NoError(t, store.Delete(ctx, res.Source), "重复删除不报错")
}

func TestLocalStore_RejectsEscape(t *testing.T) {
	store, err := NewStore(Policy{BasePath: t.TempDir()})
	require.NoError(t, err)
	_, err = store.Get(context.Background(), "../outside.txt")
	assert.Error(t, err)
}

func TestCloudProviders_RequireCredentials(t *testing.T) {
	ctx := context.Background()
	for _, driver := range []constant.StorageDriver{
		constant.StorageDriverS3,
		constant.StorageDriverAliOSS,
		constant.StorageDriverTencentCOS,
		constant.StorageDriverQiniu,
	} {
		t.Run(string(driver), func(t *testing.T) {
			store, err := NewStore(Policy{Driver: driver})
			require.NoError(t, err)
			_, err = store.Put(ctx, "drafts/a.png", []byte("x"))
			assert.Error(t, err)
		})
	}
}
