/*
 * @Description: 内容草稿模型
 * @Author: 安知鱼
 * @Date: 2026-10-12 14:05:31
 * @LastEditTime: 2026-10-14 09:20:02
 * @LastEditors: 安知鱼
 */
package model

import "time"

// Draft 是一个尚未提交的内容表单，持有表单文本字段和每个图片分组的采集状态。
// RecordID 非空表示编辑已有记录，提交时使用 PUT。
type Draft struct {
	ID        string                  `json:"id"`
	Kind      string                  `json:"kind"`
	RecordID  string                  `json:"recordId,omitempty"`
	Fields    map[string]string       `json:"fields"`
	Groups    map[string]*IntakeState `json:"groups"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
	ExpiresAt time.Time               `json:"expiresAt"`
}

// IsEdit 返回草稿是否是对已有记录的编辑
func (d *Draft) IsEdit() bool {
	return d.RecordID != ""
}

// Group 返回指定分组的采集状态
func (d *Draft) Group(name string) (*IntakeState, bool) {
	state, ok := d.Groups[name]
	return state, ok
}

// StagedSources 返回草稿中所有已暂存文件的 key
func (d *Draft) StagedSources() []string {
	var sources []string
	for _, state := range d.Groups {
		if state == nil {
			continue
		}
		for _, img := range state.Images {
			if img.File.Source != "" {
				sources = append(sources, img.File.Source)
			}
		}
	}
	return sources
}
