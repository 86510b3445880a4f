/*
 * @Description: 提交历史查询接口
 * @Author: 安知鱼
 * @Date: 2026-10-19 11:24:10
 * @LastEditTime: 2026-10-19 11:24:10
 * @LastEditors: 安知鱼
 */
package submission_handler

import (
	"strconv"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/httperr"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/response"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/content"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	contentSvc content.Service
}

func NewHandler(contentSvc content.Service) *Handler {
	return &Handler{contentSvc: contentSvc}
}

// List 分页查询提交记录，支持按 kind 和 status 过滤
func (h *Handler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	opts := model.ListSubmissionsOptions{
		Page:     page,
		PageSize: pageSize,
		Kind:     c.Query("kind"),
		Status:   model.SubmissionStatus(c.Query("status")),
	}
	opts.Normalize()

	items, total, err := h.contentSvc.ListSubmissions(c.Request.Context(), opts)
	if err != nil {
		httperr.Fail(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":     items,
		"total":    total,
		"pageNum":  opts.Page,
		"pageSize": opts.PageSize,
	}, "获取提交记录成功")
}

// Get 按公共 ID 查询单条提交记录
func (h *Handler) Get(c *gin.Context) {
	sub, err := h.contentSvc.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, sub, "获取提交记录成功")
}
