/*
 * @Description: 表单与比例查询接口
 * @Author: 安知鱼
 * @Date: 2026-10-19 11:20:44
 * @LastEditTime: 2026-10-19 11:20:44
 * @LastEditors: 安知鱼
 */
package form_handler

import (
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/httperr"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/response"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/content"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/intake"

	"github.com/gin-gonic/gin"
)

// Handler 提供表单元数据
type Handler struct {
	contentSvc content.Service
}

func NewHandler(contentSvc content.Service) *Handler {
	return &Handler{contentSvc: contentSvc}
}

// GetRatios 返回默认的比例集合和描述
func (h *Handler) GetRatios(c *gin.Context) {
	ratios := intake.DefaultRatios()
	response.Success(c, gin.H{
		"ratios":      ratios,
		"description": intake.SupportsDescription(ratios),
	}, "获取比例成功")
}

// ListForms 返回所有表单及其图片分组、当前生效的比例和字段
func (h *Handler) ListForms(c *gin.Context) {
	views, err := h.contentSvc.Forms()
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, views, "获取表单成功")
}
