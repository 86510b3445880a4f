/*
 * @Description: 自由文本字段的清理
 * @Author: 安知鱼
 * @Date: 2025-08-08 16:10:36
 * @LastEditTime: 2026-10-18 16:40:02
 * @LastEditors: 安知鱼
 */
package parser

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripTagsPolicy *bluemonday.Policy
	ugcPolicy       *bluemonday.Policy
)

func init() {
	stripTagsPolicy = bluemonday.StripTagsPolicy()
	ugcPolicy = bluemonday.UGCPolicy()
}

// StripHTML 去除所有标签，返回纯文本
func StripHTML(htmlContent string) string {
	return html.UnescapeString(stripTagsPolicy.Sanitize(htmlContent))
}

// SanitizeUGC 按用户生成内容策略清理文本，保留安全的格式标签。
// 不含标签的纯文本原样返回，避免引号等字符被转义后提交给后端。
func SanitizeUGC(text string) string {
	if !strings.ContainsAny(text, "<>") {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(ugcPolicy.Sanitize(text))
}
