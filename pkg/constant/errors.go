/*
 * @Description: 业务错误定义
 * @Author: 安知鱼
 * @Date: 2025-06-27 12:08:15
 * @LastEditTime: 2026-10-12 10:41:03
 * @LastEditors: 安知鱼
 */
package constant

import "errors"

// 定义业务逻辑相关的标准错误
var (
	// ErrNotFound 表示资源未找到，可以由 Handler 转换为 404
	ErrNotFound = errors.New("资源未找到")

	// ErrBadRequest 表示请求参数错误，可以由 Handler 转换为 400
	ErrBadRequest = errors.New("错误的请求")

	// ErrConflict 表示资源冲突，可以由 Handler 转换为 409
	ErrConflict = errors.New("资源冲突")

	// ErrUnauthorized 表示未授权，可以由 Handler 转换为 401
	ErrUnauthorized = errors.New("未经授权的访问")

	// ErrInvalidToken 表示无效的令牌，可以由 Handler 转换为 401
	ErrInvalidToken = errors.New("无效令牌")

	// ErrInvalidPublicID 表示无效的公共ID，可以由 Handler 转换为 400
	ErrInvalidPublicID = errors.New("无效的公共ID")

	// ErrUnknownStorageDriver 表示配置了不支持的存储驱动
	ErrUnknownStorageDriver = errors.New("不支持的存储驱动")
)

// 图片采集相关错误
var (
	// ErrUnknownRatio 表示请求的比例不在当前展示的比例集合中，转换为 400
	ErrUnknownRatio = errors.New("unknown aspect ratio")

	// ErrNoEligibleImages 表示没有可以继续提交的图片，转换为 422
	ErrNoEligibleImages = errors.New("no eligible images to continue with")

	// ErrDecodeFailed 表示图片无法解码，候选图片被丢弃，转换为 400
	ErrDecodeFailed = errors.New("unable to decode image")

	// ErrCropCancelled 表示用户取消了裁剪
	ErrCropCancelled = errors.New("crop cancelled")

	// ErrFileTooLarge 表示文件超过大小限制，转换为 413
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedMedia 表示文件类型不被接受，转换为 415
	ErrUnsupportedMedia = errors.New("unsupported media type")

	// ErrValidation 表示表单字段校验失败，转换为 400
	ErrValidation = errors.New("validation failed")
)

// ErrSlotSatisfied 表示该比例槽位已有合格图片，不能再次选择，转换为 409
var ErrSlotSatisfied = errors.New("aspect ratio slot already satisfied")
