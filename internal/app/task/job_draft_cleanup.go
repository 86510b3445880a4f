/*
 * @Description: 清理过期草稿的暂存文件
 * @Author: 安知鱼
 * @Date: 2026-10-19 10:15:02
 * @LastEditTime: 2026-10-19 10:15:02
 * @LastEditors: 安知鱼
 */
package task

import (
	"context"
	"log/slog"
	"time"
)

// DraftPurger 是清理任务所需的最小能力，draft.Service 满足它。
type DraftPurger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// DraftCleanupJob 扫描草稿索引，删除缓存已过期草稿在存储中的暂存对象。
type DraftCleanupJob struct {
	drafts  DraftPurger
	logger  *slog.Logger
	timeout time.Duration
}

// NewDraftCleanupJob 创建清理任务，timeout <= 0 时使用 2 分钟。
func NewDraftCleanupJob(drafts DraftPurger, logger *slog.Logger, timeout time.Duration) *DraftCleanupJob {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftCleanupJob{drafts: drafts, logger: logger, timeout: timeout}
}

func (j *DraftCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	purged, err := j.drafts.PurgeExpired(ctx)
	if err != nil {
		j.logger.Error("草稿清理失败", slog.String("job_name", j.Name()), slog.Any("error", err), slog.Int("purged", purged))
		return
	}
	j.logger.Info("草稿清理完成", slog.String("job_name", j.Name()), slog.Int("purged", purged))
}

func (j *DraftCleanupJob) Name() string {
	return "DraftCleanupJob"
}
