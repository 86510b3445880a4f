/*
 * @Description: 版本信息与运行统计接口
 * @Author: 安知鱼
 * @Date: 2025-09-26 09:52:32
 * @LastEditTime: 2026-10-19 11:05:40
 * @LastEditors: 安知鱼
 */
package version

import (
	"github.com/anzhiyu-c/anheyu-fm-console/internal/app/listener"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/response"
	"github.com/gin-gonic/gin"
)

// Handler 版本信息处理器
type Handler struct {
	stats func() listener.ActivityStats
}

// NewHandler 创建版本信息处理器实例，stats 为 nil 时统计接口返回零值
func NewHandler(stats func() listener.ActivityStats) *Handler {
	return &Handler{stats: stats}
}

// GetVersion 返回构建信息，响应不允许缓存
func (h *Handler) GetVersion(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	info := version.GetBuildInfo()
	response.Success(c, gin.H{
		"version":   info.Version,
		"commit":    info.Commit,
		"date":      info.Date,
		"goVersion": info.GoVersion,
		"string":    version.GetVersionString(),
	}, "获取版本信息成功")
}

// GetStats 返回自启动以来的采集与提交事件计数
func (h *Handler) GetStats(c *gin.Context) {
	var stats listener.ActivityStats
	if h.stats != nil {
		stats = h.stats()
	}
	response.Success(c, stats, "获取统计信息成功")
}
