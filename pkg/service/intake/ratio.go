/*
 * @Description: 宽高比解析、容差匹配与字段命名
 * @Author: 安知鱼
 * @Date: 2026-10-12 15:02:11
 * @LastEditTime: 2026-10-15 10:31:46
 * @LastEditors: 安知鱼
 */
package intake

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
)

// Tolerance 是测量比例与目标比例之间允许的最大绝对差
const Tolerance = 0.1

// 浮点误差余量，保证 |M-R| 恰好等于 0.1 时仍然算作匹配
const toleranceEpsilon = 1e-9

// DefaultRatios 返回组件默认的四个目标比例
func DefaultRatios() []model.TargetRatio {
	return []model.TargetRatio{
		{Label: "16:9", Ratio: 16.0 / 9.0, Width: 200, Height: 112},
		{Label: "9:16", Ratio: 9.0 / 16.0, Width: 120, Height: 213},
		{Label: "1:1", Ratio: 1, Width: 150, Height: 150},
		{Label: "3:2", Ratio: 3.0 / 2.0, Width: 180, Height: 120},
	}
}

// NormalizeLabel 将 URL 中常见的写法 "16x9"、"16_by_9"、"16-9" 统一为 "16:9"
func NormalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	for _, sep := range []string{"_by_", "x", "X", "-", "_", "/"} {
		if strings.Contains(label, sep) && !strings.Contains(label, ":") {
			return strings.Replace(label, sep, ":", 1)
		}
	}
	return label
}

// ParseRatioLabel 解析 "W:H" 形式的标签，返回 W/H
func ParseRatioLabel(label string) (float64, error) {
	parts := strings.Split(label, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("比例标签 '%s' 格式错误，应为 W:H", label)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, fmt.Errorf("比例标签 '%s' 的宽度无效: %w", label, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("比例标签 '%s' 的高度无效: %w", label, err)
	}
	ratio := w / h
	if w <= 0 || h <= 0 || math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return 0, fmt.Errorf("比例标签 '%s' 必须为正数", label)
	}
	return ratio, nil
}

// NewTargetRatio 根据标签和展示尺寸构建目标比例
func NewTargetRatio(label string, width, height int) (model.TargetRatio, error) {
	ratio, err := ParseRatioLabel(label)
	if err != nil {
		return model.TargetRatio{}, err
	}
	return model.TargetRatio{Label: label, Ratio: ratio, Width: width, Height: height}, nil
}

// RatiosFromLabels 从标签列表构建目标比例，展示尺寸沿用默认比例中的同名项，
// 未知标签按 150px 的短边推算
func RatiosFromLabels(labels []string) ([]model.TargetRatio, error) {
	defaults := make(map[string]model.TargetRatio)
	for _, r := range DefaultRatios() {
		defaults[r.Label] = r
	}

	ratios := make([]model.TargetRatio, 0, len(labels))
	for _, raw := range labels {
		label := NormalizeLabel(raw)
		if r, ok := defaults[label]; ok {
			ratios = append(ratios, r)
			continue
		}
		value, err := ParseRatioLabel(label)
		if err != nil {
			return nil, err
		}
		w, h := 150, 150
		if value >= 1 {
			w = int(math.Round(150 * value))
		} else {
			h = int(math.Round(150 / value))
		}
		ratios = append(ratios, model.TargetRatio{Label: label, Ratio: value, Width: w, Height: h})
	}
	if err := ValidateRatios(ratios); err != nil {
		return nil, err
	}
	return ratios, nil
}

// ValidateRatios 校验标签唯一且比例为正的有限数
func ValidateRatios(ratios []model.TargetRatio) error {
	seen := make(map[string]struct{}, len(ratios))
	for _, r := range ratios {
		if r.Label == "" {
			return fmt.Errorf("比例标签不能为空")
		}
		if _, dup := seen[r.Label]; dup {
			return fmt.Errorf("比例标签 '%s' 重复", r.Label)
		}
		seen[r.Label] = struct{}{}
		if r.Ratio <= 0 || math.IsInf(r.Ratio, 0) || math.IsNaN(r.Ratio) {
			return fmt.Errorf("比例 '%s' 的值 %v 无效", r.Label, r.Ratio)
		}
	}
	return nil
}

// MatchesRatio 判断测量比例是否落在目标比例的容差内 (|M-R| <= 0.1)
func MatchesRatio(measured, target float64) bool {
	return math.Abs(measured-target) <= Tolerance+toleranceEpsilon
}

// DetectLabel 返回第一个容差内匹配的已配置标签
func DetectLabel(measured float64, ratios []model.TargetRatio) (string, bool) {
	for _, r := range ratios {
		if MatchesRatio(measured, r.Ratio) {
			return r.Label, true
		}
	}
	return "", false
}

// FormatRatio 将比例格式化为两位小数，例如 1.33
func FormatRatio(measured float64) string {
	return strconv.FormatFloat(measured, 'f', 2, 64)
}

// DescribeMeasured 返回测量比例的展示文本：匹配的已配置标签，否则为两位小数
func DescribeMeasured(measured float64, ratios []model.TargetRatio) string {
	if label, ok := DetectLabel(measured, ratios); ok {
		return label
	}
	return FormatRatio(measured)
}

// ResolveLabel 决定记录的展示标签：目标标签优先，其次是匹配的已配置标签，最后是两位小数
func ResolveLabel(measured float64, targetLabel string, ratios []model.TargetRatio) string {
	if targetLabel != "" {
		return targetLabel
	}
	return DescribeMeasured(measured, ratios)
}

// FindRatio 在比例列表中查找标签
func FindRatio(ratios []model.TargetRatio, label string) (model.TargetRatio, bool) {
	for _, r := range ratios {
		if r.Label == label {
			return r, true
		}
	}
	return model.TargetRatio{}, false
}

// FieldKey 生成 multipart 字段名，例如 ("cover_image", "16:9") -> "cover_image_16_by_9"
func FieldKey(prefix, label string) string {
	return prefix + "_" + strings.ReplaceAll(label, ":", "_by_")
}

// Pluralize 返回 "image" 或 "images"
func Pluralize(count int) string {
	if count == 1 {
		return "image"
	}
	return "images"
}

// ContinueLabel 返回继续按钮的文本
func ContinueLabel(count int) string {
	return fmt.Sprintf("Continue (%d %s uploaded)", count, Pluralize(count))
}

// SupportsDescription 生成 "Supports 16:9, 1:1 aspect ratios" 形式的说明
func SupportsDescription(ratios []model.TargetRatio) string {
	labels := make([]string, len(ratios))
	for i, r := range ratios {
		labels[i] = r.Label
	}
	return fmt.Sprintf("Supports %s aspect ratios", strings.Join(labels, ", "))
}
