/*
 * @Description: 草稿与图片采集接口
 * @Author: 安知鱼
 * @Date: 2026-10-19 11:28:36
 * @LastEditTime: 2026-10-19 11:58:02
 * @LastEditors: 安知鱼
 */
package draft_handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/handler/httperr"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/response"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/content"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/draft"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/intake"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// Handler 封装草稿相关的接口
type Handler struct {
	draftSvc   draft.Service
	contentSvc content.Service
	// maxUpload 是单个上传文件读取的上限，具体类型的限制由采集组件执行
	maxUpload int64
}

func NewHandler(draftSvc draft.Service, contentSvc content.Service, maxUpload int64) *Handler {
	return &Handler{draftSvc: draftSvc, contentSvc: contentSvc, maxUpload: maxUpload}
}

type createRequest struct {
	Kind     string `json:"kind" binding:"required"`
	RecordID string `json:"recordId"`
}

// Create 新建草稿，带 recordId 时为编辑已有记录
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	d, err := h.contentSvc.CreateDraft(c.Request.Context(), req.Kind, strings.TrimSpace(req.RecordID))
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.SuccessWithStatus(c, http.StatusCreated, d, "草稿创建成功")
}

func (h *Handler) Get(c *gin.Context) {
	d, err := h.draftSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, d, "获取草稿成功")
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.draftSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, nil, "草稿已删除")
}

// SetFields 合并文本字段，请求体为 {"fields": {...}}
func (h *Handler) SetFields(c *gin.Context) {
	var req struct {
		Fields map[string]string `json:"fields" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	d, err := h.contentSvc.SetFields(c.Request.Context(), c.Param("id"), req.Fields)
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, d, "字段已保存")
}

// SelectSlot 打开比例槽位，槽位已被合格图片占用时 opened 为 false
func (h *Handler) SelectSlot(c *gin.Context) {
	res, err := h.draftSvc.SelectSlot(c.Request.Context(), c.Param("id"), c.Param("group"), c.Param("label"))
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, res, "槽位已选择")
}

// Upload 接收 multipart 的 file 字段。
// 可选字段：ratio 直接指定目标比例；crop_x/crop_y/crop_w/crop_h 为裁剪框；auto_crop 按目标比例智能裁剪。
func (h *Handler) Upload(c *gin.Context) {
	file, err := h.chosenFile(c)
	if err != nil {
		httperr.Fail(c, err)
		return
	}

	res, err := h.draftSvc.Upload(c.Request.Context(), c.Param("id"), c.Param("group"), *file)
	if err != nil {
		httperr.FailWithData(c, err, res)
		return
	}
	response.Success(c, res, "图片已处理")
}

func (h *Handler) chosenFile(c *gin.Context) (*intake.ChosenFile, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: 缺少上传文件", constant.ErrBadRequest)
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return nil, fmt.Errorf("%w: File size must be less than %s", constant.ErrFileTooLarge, humanize.IBytes(uint64(h.maxUpload)))
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if h.maxUpload > 0 {
		reader = io.LimitReader(f, h.maxUpload+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}
	if h.maxUpload > 0 && int64(len(data)) > h.maxUpload {
		return nil, fmt.Errorf("%w: File size must be less than %s", constant.ErrFileTooLarge, humanize.IBytes(uint64(h.maxUpload)))
	}

	crop, err := parseCropBox(c)
	if err != nil {
		return nil, err
	}
	autoCrop := false
	if raw := c.PostForm("auto_crop"); raw != "" {
		if autoCrop, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("%w: auto_crop 不是合法的布尔值", constant.ErrBadRequest)
		}
	}

	return &intake.ChosenFile{
		Name:        header.Filename,
		MimeType:    header.Header.Get("Content-Type"),
		Data:        data,
		TargetLabel: c.PostForm("ratio"),
		Crop:        crop,
		AutoCrop:    autoCrop,
	}, nil
}

// parseCropBox 四个裁剪字段要么都不传，要么全部是合法整数
func parseCropBox(c *gin.Context) (*intake.CropBox, error) {
	keys := []string{"crop_x", "crop_y", "crop_w", "crop_h"}
	values := make([]int, len(keys))
	present := 0
	for i, key := range keys {
		raw := strings.TrimSpace(c.PostForm(key))
		if raw == "" {
			continue
		}
		present++
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s 必须是整数", constant.ErrBadRequest, key)
		}
		values[i] = v
	}
	switch {
	case present == 0:
		return nil, nil
	case present != len(keys):
		return nil, fmt.Errorf("%w: 裁剪框需要同时提供 crop_x、crop_y、crop_w 和 crop_h", constant.ErrBadRequest)
	case values[0] < 0 || values[1] < 0 || values[2] <= 0 || values[3] <= 0:
		return nil, fmt.Errorf("%w: 裁剪框尺寸无效", constant.ErrBadRequest)
	}
	return &intake.CropBox{X: values[0], Y: values[1], Width: values[2], Height: values[3]}, nil
}

func (h *Handler) Cancel(c *gin.Context) {
	display, err := h.draftSvc.Cancel(c.Request.Context(), c.Param("id"), c.Param("group"))
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, display, "已取消")
}

func (h *Handler) RemoveImage(c *gin.Context) {
	display, err := h.draftSvc.RemoveImage(c.Request.Context(), c.Param("id"), c.Param("group"), c.Param("imageId"))
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, display, "图片已移除")
}

func (h *Handler) Display(c *gin.Context) {
	display, err := h.draftSvc.Display(c.Request.Context(), c.Param("id"), c.Param("group"))
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, display, "获取分组成功")
}

// Continue 返回分组中可以继续提交的图片，没有时返回 422 和分组的提示文案
func (h *Handler) Continue(c *gin.Context) {
	res, err := h.draftSvc.Continue(c.Request.Context(), c.Param("id"), c.Param("group"))
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, res, "OK")
}

func (h *Handler) Preview(c *gin.Context) {
	p, err := h.contentSvc.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		httperr.Fail(c, err)
		return
	}
	response.Success(c, p, "预览成功")
}

// Submit 提交草稿。已发出请求但失败时，响应中带有提交记录，草稿保留以便重试。
func (h *Handler) Submit(c *gin.Context) {
	sub, err := h.contentSvc.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		if sub != nil {
			response.FailWithData(c, http.StatusBadGateway, content.FailureMessage(err), sub)
			return
		}
		httperr.Fail(c, err)
		return
	}
	response.Success(c, sub, "Submitted successfully")
}
