/*
 * @Description: 提交记录 Repository 接口
 * @Author: 安知鱼
 * @Date: 2026-10-12
 */
package repository

import (
	"context"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
)

// SubmissionRepository 提交记录仓库接口
type SubmissionRepository interface {
	// Create 创建提交记录，回填 ID 和时间戳
	Create(ctx context.Context, s *model.Submission) error

	// UpdateResult 更新提交结果
	UpdateResult(ctx context.Context, id uint, status model.SubmissionStatus, httpStatus int, message string) error

	// FindByID 根据ID获取提交记录
	FindByID(ctx context.Context, id uint) (*model.Submission, error)

	// List 分页列出提交记录，按创建时间倒序
	List(ctx context.Context, opts model.ListSubmissionsOptions) ([]*model.Submission, int64, error)
}
