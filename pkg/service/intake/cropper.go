/*
 * @Description: 可取消的裁剪步骤
 * @Author: 安知鱼
 * @Date: 2026-10-12 16:40:27
 * @LastEditTime: 2026-10-15 11:06:44
 * @LastEditors: 安知鱼
 */
package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"
)

// CropBox 是客户端绘制的裁剪矩形，单位为像素，坐标基于自动旋转后的图片
type CropBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect 转换为 image.Rectangle
func (b CropBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// CropRequest 是一次裁剪请求。
// Box 优先；Auto 为 true 且有 Target 时按目标比例智能裁剪；两者都没有时原样返回。
type CropRequest struct {
	Data     []byte
	MimeType string
	Target   *model.TargetRatio
	Box      *CropBox
	Auto     bool
}

// CropResult 是裁剪输出
type CropResult struct {
	Data     []byte
	MimeType string
	Cropped  bool
}

// Cropper 是裁剪步骤，返回 ErrCropCancelled 表示用户取消
type Cropper interface {
	Crop(ctx context.Context, req CropRequest) (*CropResult, error)
}

// SmartCropper 使用 smartcrop 寻找最佳裁剪窗口，使用 imaging 完成裁剪和编码
type SmartCropper struct {
	resampler   imaging.ResampleFilter
	jpegQuality int
}

// NewSmartCropper 创建默认裁剪器
func NewSmartCropper() *SmartCropper {
	return &SmartCropper{resampler: imaging.Lanczos, jpegQuality: 92}
}

// Crop 实现 Cropper
func (c *SmartCropper) Crop(ctx context.Context, req CropRequest) (*CropResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrCropCancelled, err)
	}
	if req.Box == nil && (!req.Auto || req.Target == nil) {
		return &CropResult{Data: req.Data, MimeType: req.MimeType}, nil
	}

	type cropOutput struct {
		res *CropResult
		err error
	}
	resultChan := make(chan cropOutput, 1)

	go func() {
		res, err := c.crop(req)
		resultChan <- cropOutput{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", constant.ErrCropCancelled, ctx.Err())
	case out := <-resultChan:
		return out.res, out.err
	}
}

func (c *SmartCropper) crop(req CropRequest) (*CropResult, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(req.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrDecodeFailed, err)
	}
	img, err := imaging.Decode(bytes.NewReader(req.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrDecodeFailed, err)
	}

	var rect image.Rectangle
	if req.Box != nil {
		rect = req.Box.Rect().Intersect(img.Bounds())
		if rect.Empty() {
			return nil, fmt.Errorf("%w: 裁剪区域 %+v 不在图片范围内", constant.ErrBadRequest, *req.Box)
		}
	} else {
		rect, err = c.bestCrop(img, req.Target.Ratio)
		if err != nil {
			return nil, err
		}
	}

	cropped := imaging.Crop(img, rect)

	var buf bytes.Buffer
	mimeType := "image/jpeg"
	if format == "png" {
		mimeType = "image/png"
		err = imaging.Encode(&buf, cropped, imaging.PNG)
	} else {
		err = imaging.Encode(&buf, cropped, imaging.JPEG, imaging.JPEGQuality(c.jpegQuality))
	}
	if err != nil {
		return nil, fmt.Errorf("编码裁剪结果失败: %w", err)
	}

	return &CropResult{Data: buf.Bytes(), MimeType: mimeType, Cropped: true}, nil
}

// bestCrop 按目标比例寻找内容最丰富的裁剪窗口
func (c *SmartCropper) bestCrop(img image.Image, ratio float64) (image.Rectangle, error) {
	const base = 1000
	w, h := base, base
	if ratio >= 1 {
		h = int(base / ratio)
	} else {
		w = int(base * ratio)
	}

	analyzer := smartcrop.NewAnalyzer(&resizer{resampler: c.resampler})
	rect, err := analyzer.FindBestCrop(img, w, h)
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("查找最佳裁剪区域失败: %w", err)
	}
	return rect, nil
}

// resizer 实现 smartcrop 的 Resizer 接口
type resizer struct {
	resampler imaging.ResampleFilter
}

func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

// IsCropCancelled 判断错误是否代表裁剪被取消
func IsCropCancelled(err error) bool {
	return errors.Is(err, constant.ErrCropCancelled) || errors.Is(err, context.Canceled)
}
