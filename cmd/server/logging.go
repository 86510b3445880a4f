/*
 * @Description: 日志输出配置
 * @Author: 安知鱼
 * @Date: 2026-10-19 12:20:44
 * @LastEditTime: 2026-10-19 12:20:44
 * @LastEditors: 安知鱼
 */
package server

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/config"
)

// setupLogging 配置标准库 log 的输出。System.LogFile 非空时同时写入滚动日志文件。
// 返回的 writer 供 gin 和任务调度器复用。
func setupLogging(cfg *config.Config) (io.Writer, func()) {
	path := cfg.GetString(config.KeyServerLogFile)
	if path == "" {
		log.SetOutput(os.Stdout)
		return os.Stdout, func() {}
	}

	roller := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    20, // MB
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}
	out := io.MultiWriter(os.Stdout, roller)
	log.SetOutput(out)
	log.Printf("日志同时写入文件: %s", path)
	return out, func() {
		log.SetOutput(os.Stdout)
		roller.Close()
	}
}
