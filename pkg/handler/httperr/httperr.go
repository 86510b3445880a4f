/*
 * @Description: 业务错误到 HTTP 状态码的映射
 * @Author: 安知鱼
 * @Date: 2026-10-19 11:12:30
 * @LastEditTime: 2026-10-19 11:12:30
 * @LastEditors: 安知鱼
 */
package httperr

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/backend"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/response"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/content"

	"github.com/gin-gonic/gin"
)

// Status 返回错误对应的 HTTP 状态码
func Status(err error) int {
	if _, ok := backend.AsUpstreamError(err); ok {
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, constant.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, constant.ErrNoEligibleImages):
		return http.StatusUnprocessableEntity
	case errors.Is(err, constant.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, constant.ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, constant.ErrSlotSatisfied), errors.Is(err, constant.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, constant.ErrUnauthorized), errors.Is(err, constant.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, constant.ErrBadRequest),
		errors.Is(err, constant.ErrValidation),
		errors.Is(err, constant.ErrUnknownRatio),
		errors.Is(err, constant.ErrDecodeFailed),
		errors.Is(err, constant.ErrCropCancelled),
		errors.Is(err, constant.ErrInvalidPublicID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message 返回给前端的消息，上游错误按提交失败的固定文案展示
func Message(err error) string {
	if _, ok := backend.AsUpstreamError(err); ok {
		return content.FailureMessage(err)
	}
	if Status(err) == http.StatusInternalServerError {
		return "服务器内部错误"
	}
	// 这些错误的附加文案本身就是给用户看的提示
	for _, sentinel := range []error{constant.ErrValidation, constant.ErrNoEligibleImages, constant.ErrFileTooLarge} {
		if errors.Is(err, sentinel) {
			return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
		}
	}
	return err.Error()
}

// Fail 按错误类型写出失败响应，5xx 会记录日志
func Fail(c *gin.Context, err error) {
	FailWithData(c, err, nil)
}

// FailWithData 同 Fail，并附带数据
func FailWithData(c *gin.Context, err error, data interface{}) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s %s 失败: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	response.FailWithData(c, status, Message(err), data)
}
