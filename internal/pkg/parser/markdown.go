/*
 * @Description: 表单描述字段的 Markdown 预览
 * @Author: 安知鱼
 * @Date: 2025-08-08 15:57:23
 * @LastEditTime: 2026-10-18 16:44:10
 * @LastEditors: 安知鱼
 */
package parser

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var mdParser goldmark.Markdown
var previewPolicy *bluemonday.Policy

func init() {
	// 公告和活动描述只需要基础排版
	mdParser = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(), // 原始 HTML 交给 bluemonday 清理
		),
	)

	previewPolicy = bluemonday.UGCPolicy()
	previewPolicy.AllowElements("table", "thead", "tbody", "tr", "th", "td")
}

// MarkdownToHTML 将 Markdown 转换为安全的 HTML
func MarkdownToHTML(mdContent string) (string, error) {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(mdContent), &buf); err != nil {
		return "", err
	}
	return previewPolicy.Sanitize(buf.String()), nil
}
