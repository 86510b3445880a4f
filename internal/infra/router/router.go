/*
 * @Description: 路由注册
 * @Author: 安知鱼
 * @Date: 2025-06-15 11:30:55
 * @LastEditTime: 2026-10-19 12:06:20
 * @LastEditors: 安知鱼
 */
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/app/middleware"
	draft_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/draft"
	form_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/form"
	submission_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/submission"
	version_handler "github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/version"
)

// NoCacheMiddleware 禁止缓存 API 响应
func NoCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate, private, max-age=0")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Next()
	}
}

// RateLimits 是写接口的限流配置，每分钟请求数和突发数
type RateLimits struct {
	UploadPerMinute int
	UploadBurst     int
	SubmitPerMinute int
	SubmitBurst     int
}

// DefaultRateLimits 返回默认的限流配置
func DefaultRateLimits() RateLimits {
	return RateLimits{UploadPerMinute: 60, UploadBurst: 20, SubmitPerMinute: 10, SubmitBurst: 5}
}

// Router 封装了应用的所有路由和其依赖的处理器。
type Router struct {
	formHandler       *form_handler.Handler
	draftHandler      *draft_handler.Handler
	submissionHandler *submission_handler.Handler
	versionHandler    *version_handler.Handler
	mw                *middleware.Middleware
	limits            RateLimits
}

// NewRouter 是 Router 的构造函数，通过依赖注入接收所有处理器。
func NewRouter(
	formHandler *form_handler.Handler,
	draftHandler *draft_handler.Handler,
	submissionHandler *submission_handler.Handler,
	versionHandler *version_handler.Handler,
	mw *middleware.Middleware,
	limits RateLimits,
) *Router {
	return &Router{
		formHandler:       formHandler,
		draftHandler:      draftHandler,
		submissionHandler: submissionHandler,
		versionHandler:    versionHandler,
		mw:                mw,
		limits:            limits,
	}
}

// Setup 将所有路由注册到 /api 分组下
func (r *Router) Setup(engine *gin.Engine) {
	apiGroup := engine.Group("/api")
	apiGroup.Use(NoCacheMiddleware())

	apiGroup.GET("/version", r.versionHandler.GetVersion)

	protected := apiGroup.Group("")
	protected.Use(r.mw.JWTAuth())

	r.registerFormRoutes(protected)
	r.registerDraftRoutes(protected)
	r.registerSubmissionRoutes(protected)
	protected.GET("/stats", r.versionHandler.GetStats)
}

func (r *Router) registerFormRoutes(api *gin.RouterGroup) {
	api.GET("/intake/ratios", r.formHandler.GetRatios)
	api.GET("/forms", r.formHandler.ListForms)
}

func (r *Router) registerSubmissionRoutes(api *gin.RouterGroup) {
	submissions := api.Group("/submissions")
	{
		submissions.GET("", r.submissionHandler.List)
		submissions.GET("/:id", r.submissionHandler.Get)
	}
}
