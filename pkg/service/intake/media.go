/*
 * @Description: 媒体类型嗅探与大小限制
 * @Author: 安知鱼
 * @Date: 2026-10-12 15:40:09
 * @LastEditTime: 2026-10-15 10:12:30
 * @LastEditors: 安知鱼
 */
package intake

import (
	"fmt"
	"strings"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// MB 是文件大小限制使用的单位
const MB = 1024 * 1024

// MediaInfo 是嗅探结果
type MediaInfo struct {
	MimeType  string
	Extension string
	MediaType string
}

// LimitError 是超过大小限制的错误，Message 可直接展示给用户
type LimitError struct {
	Message string
}

func (e *LimitError) Error() string {
	return constant.ErrFileTooLarge.Error() + ": " + e.Message
}

func (e *LimitError) Unwrap() error { return constant.ErrFileTooLarge }

// MediaGuard 按文件内容而不是客户端声明来判断类型，并执行大小限制
type MediaGuard struct {
	AllowVideo    bool
	MaxImageBytes int64
	MaxVideoBytes int64
}

// Inspect 嗅探数据类型并校验大小。
// 非 image/*（视频模式下非 video/*）返回 ErrUnsupportedMedia，超限返回 *LimitError。
func (g MediaGuard) Inspect(name string, data []byte) (MediaInfo, error) {
	mt := mimetype.Detect(data)
	mime := mt.String()
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = mime[:idx]
	}

	info := MediaInfo{MimeType: mime, Extension: mt.Extension()}
	size := int64(len(data))

	switch {
	case strings.HasPrefix(mime, "image/"):
		info.MediaType = model.MediaTypeImage
		if g.MaxImageBytes > 0 && size > g.MaxImageBytes {
			return info, &LimitError{Message: "Image size must be less than " + limitText(g.MaxImageBytes)}
		}
	case g.AllowVideo && strings.HasPrefix(mime, "video/"):
		info.MediaType = model.MediaTypeVideo
		if g.MaxVideoBytes > 0 && size > g.MaxVideoBytes {
			return info, &LimitError{Message: "Video size must be less than " + limitText(g.MaxVideoBytes)}
		}
	default:
		return info, fmt.Errorf("%w: %s (%s)", constant.ErrUnsupportedMedia, name, mime)
	}
	return info, nil
}

// AcceptFilter 返回文件选择器使用的 accept 属性
func (g MediaGuard) AcceptFilter() string {
	if g.AllowVideo {
		return "image/*,video/*"
	}
	return "image/*"
}

// limitText 整数兆字节写成 "3MB"，其余交给 humanize
func limitText(limit int64) string {
	if limit%MB == 0 {
		return fmt.Sprintf("%dMB", limit/MB)
	}
	return humanize.IBytes(uint64(limit))
}

// SizeInMB 将字节数换算为 MB
func SizeInMB(size int64) float64 {
	return float64(size) / MB
}
