/*
 * @Description: 预览缩略图与主色调
 * @Author: 安知鱼
 * @Date: 2026-10-12 17:10:35
 * @LastEditTime: 2026-10-14 16:27:19
 * @LastEditors: 安知鱼
 */
package intake

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/disintegration/imaging"
)

// PreviewWidth 是预览缩略图的宽度
const PreviewWidth = 320

// PreviewDataURL 生成 320px 宽的 JPEG 缩略图，以 data URL 形式返回
func PreviewDataURL(img image.Image) (string, error) {
	thumb := img
	if img.Bounds().Dx() > PreviewWidth {
		thumb = imaging.Resize(img, PreviewWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("生成预览图失败: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// PrimaryColor 使用 K-Means 提取主色调，失败时返回空字符串
func PrimaryColor(img image.Image) string {
	colors, err := prominentcolor.KmeansWithArgs(1, img)
	if err != nil || len(colors) == 0 {
		return ""
	}
	c := colors[0].Color
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
