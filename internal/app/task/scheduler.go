/*
 * @Description: 定时任务调度器
 * @Author: 安知鱼
 * @Date: 2025-07-12 16:09:46
 * @LastEditTime: 2026-10-19 10:20:11
 * @LastEditors: 安知鱼
 */
package task

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/robfig/cron/v3"
)

// DraftCleanupSpec 每 10 分钟执行一次（带秒字段）。
const DraftCleanupSpec = "0 */10 * * * *"

// Scheduler 封装了 cron 实例和其依赖，负责任务的注册、启动和停止。
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	drafts DraftPurger
}

// NewScheduler 创建调度器，日志写入 out（为 nil 时写到标准输出）。
func NewScheduler(drafts DraftPurger, out io.Writer) *Scheduler {
	if out == nil {
		out = os.Stdout
	}
	slogHandler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(slogHandler).With("system", "cron")

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(
			cron.DelayIfStillRunning(cron.DefaultLogger),
			NewPanicRecoveryWrapper(logger),
			NewLoggingWrapper(logger),
		),
	)

	return &Scheduler{
		cron:   c,
		logger: logger,
		drafts: drafts,
	}
}

func (s *Scheduler) schedules() []schedule {
	return []schedule{
		{
			spec: DraftCleanupSpec,
			desc: "every 10 minutes",
			job:  NewDraftCleanupJob(s.drafts, s.logger, 0),
		},
	}
}

// RegisterJobs 注册所有周期任务，任何一条失败都会返回错误。
func (s *Scheduler) RegisterJobs() error {
	s.logger.Info("Registering all periodic jobs...")

	for _, item := range s.schedules() {
		if _, err := s.cron.AddJob(item.spec, item.job); err != nil {
			s.logger.Error("Failed to add job", slog.String("job_name", item.job.Name()), slog.Any("error", err))
			return fmt.Errorf("注册任务 %s 失败: %w", item.job.Name(), err)
		}
		s.logger.Info("-> Successfully registered job", "job_name", item.job.Name(), "schedule", item.desc)
	}

	s.logger.Info("All periodic jobs registered.", "count", len(s.cron.Entries()))
	return nil
}

// Entries 返回已注册的条目数。
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start 启动 cron 调度器。
func (s *Scheduler) Start() {
	s.logger.Info("Cron scheduler started.")
	s.cron.Start()
}

// Stop 停止调度器，并等待正在运行的任务结束。
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron scheduler gracefully stopped.")
}
