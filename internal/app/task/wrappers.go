/*
 * @Description: cron 任务装饰器：执行日志与 panic 恢复
 * @Author: 安知鱼
 * @Date: 2025-06-29 22:36:09
 * @LastEditTime: 2026-10-19 10:18:27
 * @LastEditors: 安知鱼
 */
package task

import (
	"log/slog"
	"reflect"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// namedFunc 让装饰后的任务仍能报告原始任务名。
type namedFunc struct {
	name string
	run  func()
}

func (n namedFunc) Run()         { n.run() }
func (n namedFunc) Name() string { return n.name }

// NewLoggingWrapper 为每次执行打上 execution_id，记录开始、结束和耗时。
func NewLoggingWrapper(logger *slog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		name := jobName(j)
		return namedFunc{name: name, run: func() {
			runLogger := logger.With(
				slog.String("job_name", name),
				slog.String("execution_id", uuid.NewString()),
			)
			started := time.Now()
			runLogger.Info("Job execution started")
			j.Run()
			runLogger.Info("Job execution finished", slog.Duration("duration", time.Since(started)))
		}}
	}
}

// NewPanicRecoveryWrapper 捕获任务 panic 并记录堆栈，调度器继续运行。
func NewPanicRecoveryWrapper(logger *slog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		name := jobName(j)
		return namedFunc{name: name, run: func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Job panicked",
						slog.String("job_name", name),
						slog.Any("panic", r),
						slog.String("stack_trace", string(debug.Stack())),
					)
				}
			}()
			j.Run()
		}}
	}
}

// jobName 优先用 Name()，否则退回到类型名。
func jobName(j cron.Job) string {
	if named, ok := j.(interface{ Name() string }); ok {
		return named.Name()
	}
	t := reflect.TypeOf(j)
	if t.Kind() == reflect.Ptr {
		return t.Elem().String()
	}
	return t.String()
}
