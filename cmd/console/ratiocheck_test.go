package console

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/intake"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0644))
	return p
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	wide := writePNG(t, dir, "wide.png", 320, 180)
	square := writePNG(t, dir, "square.png", 100, 100)
	odd := writePNG(t, dir, "odd.png", 300, 100)
	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("not an image"), 0644))

	results := CheckFiles(context.Background(), intake.NewImagingDecoder(), intake.DefaultRatios(),
		[]string{wide, square, odd, broken, filepath.Join(dir, "missing.png")})
	require.Len(t, results, 5)

	testCases := []struct {
		name     string
		index    int
		label    string
		measured string
		ok       bool
		wantErr  bool
	}{
		{name: "16:9 图片匹配", index: 0, label: "16:9", measured: "1.78", ok: true},
		{name: "正方形匹配 1:1", index: 1, label: "1:1", measured: "1.00", ok: true},
		{name: "3:1 不匹配任何比例", index: 2, label: "", measured: "3.00"},
		{name: "无法解码的文件", index: 3, wantErr: true},
		{name: "不存在的文件", index: 4, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := results[tc.index]
			if tc.wantErr {
				assert.Error(t, r.Err)
				assert.False(t, r.OK())
				return
			}
			require.NoError(t, r.Err)
			assert.Equal(t, tc.label, r.Label)
			assert.Equal(t, tc.measured, r.Measured)
			assert.Equal(t, tc.ok, r.OK())
		})
	}
}

func TestPrintResults(t *testing.T) {
	results := []CheckResult{
		{File: "a.png", Width: 160, Height: 90, Measured: "1.78", Label: "16:9"},
		{File: "b.png", Width: 300, Height: 100, Measured: "3.00"},
		{File: "c.png", Err: os.ErrNotExist},
	}

	var buf bytes.Buffer
	failed := PrintResults(&buf, results)

	assert.Equal(t, 2, failed)
	out := buf.String()
	assert.Contains(t, out, "✓ 16:9")
	assert.Contains(t, out, "300x100")
	assert.Contains(t, out, "错误:")
}

func TestRootCmdRegistersSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"serve", "ratiocheck", "token"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
}
