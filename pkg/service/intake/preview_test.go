package intake

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewDataURL(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		wantW int
	}{
		{"宽图缩放到预览宽度", 640, 480, PreviewWidth},
		{"小图保持原尺寸", 100, 50, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			url, err := PreviewDataURL(img)
			require.NoError(t, err)

			const prefix = "data:image/jpeg;base64,"
			require.True(t, strings.HasPrefix(url, prefix))
			raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
			require.NoError(t, err)

			cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", format)
			assert.Equal(t, tt.wantW, cfg.Width)
		})
	}
}

func TestPrimaryColor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	assert.Regexp(t, `^(#[0-9a-f]{6})?$`, PrimaryColor(img))
}
