/*
 * @Description: 定时任务接口
 * @Author: 安知鱼
 * @Date: 2025-07-12 16:09:46
 * @LastEditTime: 2026-10-19 10:12:40
 * @LastEditors: 安知鱼
 */
package task

import "github.com/robfig/cron/v3"

// Job 是带名字的 cron 任务，名字会出现在每条执行日志里。
type Job interface {
	cron.Job
	Name() string
}

// schedule 描述一条注册项。
type schedule struct {
	spec string
	desc string
	job  Job
}
