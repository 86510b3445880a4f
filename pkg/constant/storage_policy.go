/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-06-23 15:10:56
 * @LastEditTime: 2026-10-12 10:47:12
 * @LastEditors: 安知鱼
 */
package constant

// StorageDriver 定义了暂存图片所使用的存储驱动类型
type StorageDriver string

// 定义支持的存储驱动常量
const (
	StorageDriverLocal      StorageDriver = "local"
	StorageDriverTencentCOS StorageDriver = "tencent_cos"
	StorageDriverAliOSS     StorageDriver = "aliyun_oss"
	StorageDriverS3         StorageDriver = "aws_s3"
	StorageDriverQiniu      StorageDriver = "qiniu_kodo"
)

// String 返回驱动的字符串表示
func (d StorageDriver) String() string {
	return string(d)
}

// 文件大小限制，单位 MB
const (
	DefaultMaxImageMB = 3
	DefaultMaxVideoMB = 10
)
