/*
 * @Description: 腾讯云COS存储提供者实现
 * @Author: 安知鱼
 * @Date: 2025-09-28 18:00:00
 * @LastEditTime: 2026-10-17 10:55:12
 * @LastEditors: 安知鱼
 */
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/tencentyun/cos-go-sdk-v5"
)

type TencentCOSProvider struct{}

func NewTencentCOSProvider() IStorageProvider {
	return &TencentCOSProvider{}
}

func (p *TencentCOSProvider) getCOSClient(policy *Policy) (*cos.Client, error) {
	if policy.AccessKey == "" || policy.SecretKey == "" {
		return nil, fmt.Errorf("腾讯云COS配置缺少SecretID或SecretKey")
	}
	// Endpoint 是存储桶访问域名，例如 https://examplebucket-1250000000.cos.ap-guangzhou.myqcloud.com
	if policy.Endpoint == "" {
		return nil, fmt.Errorf("腾讯云COS配置缺少访问域名")
	}
	u, err := url.Parse(policy.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("解析存储桶URL失败: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Timeout: 100 * time.Second,
		Transport: &cos.AuthorizationTransport{
			SecretID:  policy.AccessKey,
			SecretKey: policy.SecretKey,
		},
	})
	return client, nil
}

func (p *TencentCOSProvider) Upload(ctx context.Context, file io.Reader, policy *Policy, key string) (*UploadResult, error) {
	client, err := p.getCOSClient(policy)
	if err != nil {
		return nil, err
	}
	objectKey := buildObjectKey(policy, key)

	counter := &countingReader{r: file}
	if _, err := client.Object.Put(ctx, objectKey, counter, nil); err != nil {
		return nil, fmt.Errorf("上传文件到腾讯云COS失败: %w", err)
	}

	log.Printf("[腾讯云COS] 上传成功: objectKey=%s", objectKey)
	return &UploadResult{Source: objectKey, Size: counter.n}, nil
}

func (p *TencentCOSProvider) Get(ctx context.Context, policy *Policy, source string) (io.ReadCloser, error) {
	client, err := p.getCOSClient(policy)
	if err != nil {
		return nil, err
	}
	resp, err := client.Object.Get(ctx, source, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, source)
		}
		return nil, fmt.Errorf("从腾讯云COS获取文件失败: %w", err)
	}
	return resp.Body, nil
}

func (p *TencentCOSProvider) Delete(ctx context.Context, policy *Policy, sources []string) error {
	if len(sources) == 0 {
		return nil
	}
	client, err := p.getCOSClient(policy)
	if err != nil {
		return err
	}

	for _, source := range sources {
		if _, err := client.Object.Delete(ctx, source); err != nil && !cos.IsNotFoundError(err) {
			return fmt.Errorf("删除腾讯云COS对象 %s 失败: %w", source, err)
		}
	}
	return nil
}
