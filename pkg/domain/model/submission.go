/*
 * @Description: 提交记录模型
 * @Author: 安知鱼
 * @Date: 2026-10-12 14:20:44
 * @LastEditTime: 2026-10-14 09:22:17
 * @LastEditors: 安知鱼
 */
package model

import "time"

// SubmissionStatus 提交状态
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionFailed    SubmissionStatus = "failed"
)

// Submission 记录一次向内容后端提交表单的尝试
type Submission struct {
	ID         uint             `json:"-"`
	PublicID   string           `json:"id"`
	DraftID    string           `json:"draftId"`
	RecordID   string           `json:"recordId,omitempty"`
	Kind       string           `json:"kind"`
	Method     string           `json:"method"`
	Endpoint   string           `json:"endpoint"`
	Status     SubmissionStatus `json:"status"`
	HTTPStatus int              `json:"httpStatus"`
	Message    string           `json:"message"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// ListSubmissionsOptions 分页查询参数
type ListSubmissionsOptions struct {
	Page     int
	PageSize int
	Kind     string
	Status   SubmissionStatus
}

// Normalize 修正非法的分页参数
func (o *ListSubmissionsOptions) Normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 || o.PageSize > 100 {
		o.PageSize = 20
	}
}
