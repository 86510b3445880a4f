package httperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/backend"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "未找到", err: fmt.Errorf("草稿 x: %w", constant.ErrNotFound), want: http.StatusNotFound},
		{name: "请求错误", err: constant.ErrBadRequest, want: http.StatusBadRequest},
		{name: "校验失败", err: fmt.Errorf("%w: Title is required", constant.ErrValidation), want: http.StatusBadRequest},
		{name: "未知比例", err: constant.ErrUnknownRatio, want: http.StatusBadRequest},
		{name: "解码失败", err: constant.ErrDecodeFailed, want: http.StatusBadRequest},
		{name: "公共ID无效", err: constant.ErrInvalidPublicID, want: http.StatusBadRequest},
		{name: "没有合格图片", err: constant.ErrNoEligibleImages, want: http.StatusUnprocessableEntity},
		{name: "文件过大", err: constant.ErrFileTooLarge, want: http.StatusRequestEntityTooLarge},
		{name: "类型不支持", err: constant.ErrUnsupportedMedia, want: http.StatusUnsupportedMediaType},
		{name: "槽位已满", err: constant.ErrSlotSatisfied, want: http.StatusConflict},
		{name: "上游错误", err: fmt.Errorf("提交: %w", &backend.UpstreamError{Status: 422, Message: "bad"}), want: http.StatusBadGateway},
		{name: "其它错误", err: errors.New("boom"), want: http.StatusInternalServerError},
		{name: "上下文取消", err: context.Canceled, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "上游带消息", err: &backend.UpstreamError{Status: 422, Message: "Title has already been taken"}, want: "Error: Title has already been taken"},
		{name: "上游无消息", err: &backend.UpstreamError{Status: 500}, want: "Submission failed"},
		{name: "内部错误不外泄", err: errors.New("dial tcp: refused"), want: "服务器内部错误"},
		{name: "校验错误只保留提示", err: fmt.Errorf("%w: Title is required", constant.ErrValidation), want: "Title is required"},
		{name: "没有合格图片", err: fmt.Errorf("%w: No valid cover image selected.", constant.ErrNoEligibleImages), want: "No valid cover image selected."},
		{name: "文件过大", err: fmt.Errorf("%w: Image size must be less than 3MB", constant.ErrFileTooLarge), want: "Image size must be less than 3MB"},
		{name: "业务错误原样返回", err: fmt.Errorf("%w: 9:9", constant.ErrUnknownRatio), want: "unknown aspect ratio: 9:9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}
