/*
 * @Description: 字符串截断
 * @Author: 安知鱼
 * @Date: 2025-08-08 16:10:53
 * @LastEditTime: 2026-10-18 16:52:30
 * @LastEditors: 安知鱼
 */
package strutil

import "unicode/utf8"

// Truncate 按字符数截断 UTF-8 字符串，超出时追加省略号
func Truncate(s string, maxLength int) string {
	if maxLength < 0 {
		maxLength = 0
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLength]) + "..."
}

// RuneLen 返回字符数，表单长度限制按字符计算
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
