/*
 * @Description: 阿里云OSS存储提供者实现
 * @Author: 安知鱼
 * @Date: 2025-09-28 18:00:00
 * @LastEditTime: 2026-10-17 10:41:37
 * @LastEditors: 安知鱼
 */
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type AliOSSProvider struct{}

func NewAliOSSProvider() IStorageProvider {
	return &AliOSSProvider{}
}

func (p *AliOSSProvider) getBucket(policy *Policy) (*oss.Bucket, error) {
	if policy.Bucket == "" {
		return nil, fmt.Errorf("阿里云OSS配置缺少存储桶名称")
	}
	if policy.AccessKey == "" || policy.SecretKey == "" {
		return nil, fmt.Errorf("阿里云OSS配置缺少AccessKey或SecretKey")
	}
	// Endpoint 格式如: https://oss-cn-shanghai.aliyuncs.com
	if policy.Endpoint == "" {
		return nil, fmt.Errorf("阿里云OSS配置缺少Endpoint")
	}

	client, err := oss.New(policy.Endpoint, policy.AccessKey, policy.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("创建阿里云OSS客户端失败: %w", err)
	}
	bucket, err := client.Bucket(policy.Bucket)
	if err != nil {
		return nil, fmt.Errorf("获取阿里云OSS存储桶失败: %w", err)
	}
	return bucket, nil
}

func (p *AliOSSProvider) Upload(ctx context.Context, file io.Reader, policy *Policy, key string) (*UploadResult, error) {
	bucket, err := p.getBucket(policy)
	if err != nil {
		return nil, err
	}
	objectKey := buildObjectKey(policy, key)

	counter := &countingReader{r: file}
	if err := bucket.PutObject(objectKey, counter, oss.WithContext(ctx)); err != nil {
		return nil, fmt.Errorf("上传文件到阿里云OSS失败: %w", err)
	}

	log.Printf("[阿里云OSS] 上传成功: objectKey=%s", objectKey)
	return &UploadResult{Source: objectKey, Size: counter.n, MimeType: oss.TypeByExtension(objectKey)}, nil
}

func (p *AliOSSProvider) Get(ctx context.Context, policy *Policy, source string) (io.ReadCloser, error) {
	bucket, err := p.getBucket(policy)
	if err != nil {
		return nil, err
	}
	body, err := bucket.GetObject(source, oss.WithContext(ctx))
	if err != nil {
		var svcErr oss.ServiceError
		if errors.As(err, &svcErr) && svcErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, source)
		}
		return nil, fmt.Errorf("从阿里云OSS获取文件失败: %w", err)
	}
	return body, nil
}

func (p *AliOSSProvider) Delete(ctx context.Context, policy *Policy, sources []string) error {
	if len(sources) == 0 {
		return nil
	}
	bucket, err := p.getBucket(policy)
	if err != nil {
		return err
	}
	if _, err := bucket.DeleteObjects(sources, oss.DeleteObjectsQuiet(true), oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("批量删除阿里云OSS对象失败: %w", err)
	}
	return nil
}

// countingReader 统计实际上传的字节数
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
