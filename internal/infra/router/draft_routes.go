/*
 * @Description: 草稿与图片采集路由
 * @Author: 安知鱼
 * @Date: 2026-10-19 12:08:41
 * @LastEditTime: 2026-10-19 12:08:41
 * @LastEditors: 安知鱼
 */
package router

import (
	"github.com/anzhiyu-c/anheyu-fm-console/internal/app/middleware"
	"github.com/gin-gonic/gin"
)

// registerDraftRoutes 注册草稿相关的路由
func (r *Router) registerDraftRoutes(api *gin.RouterGroup) {
	uploadLimit := middleware.RateLimit(r.limits.UploadPerMinute, r.limits.UploadBurst)
	submitLimit := middleware.RateLimit(r.limits.SubmitPerMinute, r.limits.SubmitBurst)

	drafts := api.Group("/drafts")
	{
		drafts.POST("", r.draftHandler.Create)
		drafts.GET("/:id", r.draftHandler.Get)
		drafts.DELETE("/:id", r.draftHandler.Delete)
		drafts.PUT("/:id/fields", r.draftHandler.SetFields)
		drafts.GET("/:id/preview", r.draftHandler.Preview)
		drafts.POST("/:id/submit", submitLimit, r.draftHandler.Submit)
	}

	// 单个图片分组: /api/drafts/:id/groups/:group/...
	groups := drafts.Group("/:id/groups/:group")
	{
		groups.GET("", r.draftHandler.Display)
		groups.POST("/slots/:label/select", r.draftHandler.SelectSlot)
		groups.POST("/images", uploadLimit, r.draftHandler.Upload)
		groups.DELETE("/images/:imageId", r.draftHandler.RemoveImage)
		groups.POST("/cancel", r.draftHandler.Cancel)
		groups.POST("/continue", r.draftHandler.Continue)
	}
}
