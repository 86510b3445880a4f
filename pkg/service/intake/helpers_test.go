package intake

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
	"github.com/stretchr/testify/require"
)

// pngBytes 生成指定尺寸的 PNG，左半部分为红色便于裁剪测试
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{B: 200, A: 255}
			if x < w/2 {
				c = color.RGBA{R: 220, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// brokenPNG 有 PNG 文件头但内容无法解码
func brokenPNG() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x42}, 64)...)
}

// mp4Bytes 是最小的 MP4 文件头
func mp4Bytes(size int) []byte {
	head := []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")
	if size <= len(head) {
		return head
	}
	return append(head, make([]byte, size-len(head))...)
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recordingNotifier) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notices))
	for i, n := range r.notices {
		out[i] = n.Message
	}
	return out
}

type cancellingCropper struct{}

func (cancellingCropper) Crop(ctx context.Context, req CropRequest) (*CropResult, error) {
	return nil, fmt.Errorf("用户关闭裁剪框: %w", constant.ErrCropCancelled)
}

type blockingDecoder struct{}

func (blockingDecoder) Decode(ctx context.Context, data []byte) (*Decoded, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("img-%d", n)
	}
}

var fixedNow = time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

// newTestWidget 创建关闭预览、使用固定时钟和顺序 ID 的组件
func newTestWidget(t *testing.T, cfg Config, opts ...Option) (*Widget, *recordingNotifier) {
	t.Helper()
	cfg.SkipPreview = true
	notifier := &recordingNotifier{}
	base := []Option{
		WithNotifier(notifier),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
	}
	w, err := NewWidget(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return w, notifier
}

func ratiosOf(t *testing.T, labels ...string) []model.TargetRatio {
	t.Helper()
	ratios, err := RatiosFromLabels(labels)
	require.NoError(t, err)
	return ratios
}
