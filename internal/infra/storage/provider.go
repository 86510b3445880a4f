/*
 * @Description: 定义了所有存储驱动需要遵守的接口和公共结构
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2026-10-17 09:40:18
 * @LastEditors: 安知鱼
 */
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
)

// Policy 是暂存文件使用的存储配置，对应配置文件中的 [Storage] 段。
// BasePath 在本地驱动中是根目录，在云存储中是对象键前缀。
type Policy struct {
	Driver    constant.StorageDriver
	BasePath  string
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// Domain 是七牛云的访问域名
	Domain string
}

// UploadResult 封装了上传操作成功后的文件信息。
type UploadResult struct {
	Source   string
	Size     int64
	MimeType string
}

// ErrObjectNotFound 表示暂存对象不存在
var ErrObjectNotFound = errors.New("staged object not found")

// IStorageProvider 定义了所有存储提供者必须实现的接口。
// key 是相对于 BasePath 的路径，例如 drafts/<draftID>/<imageID>.png；
// source 是 Upload 返回的完整对象键，由调用方保存。
type IStorageProvider interface {
	// Upload 将文件流上传到存储
	Upload(ctx context.Context, file io.Reader, policy *Policy, key string) (*UploadResult, error)
	// Get 返回一个可读的文件流
	Get(ctx context.Context, policy *Policy, source string) (io.ReadCloser, error)
	// Delete 删除一个或多个对象，对象不存在不算错误
	Delete(ctx context.Context, policy *Policy, sources []string) error
}

// buildObjectKey 将 BasePath 与 key 拼接为对象键，对象键不以斜杠开头
func buildObjectKey(policy *Policy, key string) string {
	base := strings.Trim(policy.BasePath, "/")
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if base == "" {
		return key
	}
	return base + "/" + key
}
