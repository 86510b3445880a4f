/*
 * @Description: 异步图片解码，获取真实像素尺寸
 * @Author: 安知鱼
 * @Date: 2026-10-12 16:05:52
 * @LastEditTime: 2026-10-15 09:48:03
 * @LastEditors: 安知鱼
 */
package intake

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decoded 是解码后的图片和它的真实像素尺寸
type Decoded struct {
	Image  image.Image
	Width  int
	Height int
	Format string
}

// Ratio 返回宽高比
func (d *Decoded) Ratio() float64 {
	if d.Height == 0 {
		return 0
	}
	return float64(d.Width) / float64(d.Height)
}

// Decoder 负责把文件数据解码为图片
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*Decoded, error)
}

// ImagingDecoder 使用 imaging 解码并按 EXIF 方向自动旋转，
// 这样旋转拍摄的照片报告的是显示时的宽高。
type ImagingDecoder struct{}

// NewImagingDecoder 创建默认解码器
func NewImagingDecoder() *ImagingDecoder {
	return &ImagingDecoder{}
}

type decodeResult struct {
	decoded *Decoded
	err     error
}

// Decode 在独立的 goroutine 中解码，ctx 取消时立即返回
func (d *ImagingDecoder) Decode(ctx context.Context, data []byte) (*Decoded, error) {
	resultChan := make(chan decodeResult, 1)

	go func() {
		resultChan <- decodeBytes(data)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.decoded, res.err
	}
}

func decodeBytes(data []byte) decodeResult {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return decodeResult{err: fmt.Errorf("识别图片格式失败: %w", err)}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return decodeResult{err: fmt.Errorf("解码 %s 图片失败: %w", format, err)}
	}

	bounds := img.Bounds()
	return decodeResult{decoded: &Decoded{
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}}
}
