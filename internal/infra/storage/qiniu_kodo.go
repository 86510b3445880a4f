/*
 * @Description: 七牛云Kodo存储提供者实现
 * @Author: 安知鱼
 * @Date: 2025-09-28 18:00:00
 * @LastEditTime: 2026-10-17 11:12:46
 * @LastEditors: 安知鱼
 */
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/qiniu/go-sdk/v7/auth"
	"github.com/qiniu/go-sdk/v7/storage"
)

type QiniuKodoProvider struct {
	httpClient *http.Client
}

func NewQiniuKodoProvider() IStorageProvider {
	return &QiniuKodoProvider{httpClient: &http.Client{Timeout: 60 * time.Second}}
}

func (p *QiniuKodoProvider) getCredentials(policy *Policy) (*auth.Credentials, error) {
	if policy.Bucket == "" {
		return nil, fmt.Errorf("七牛云配置缺少存储空间名称")
	}
	if policy.AccessKey == "" || policy.SecretKey == "" {
		return nil, fmt.Errorf("七牛云配置缺少AccessKey或SecretKey")
	}
	return auth.New(policy.AccessKey, policy.SecretKey), nil
}

// getConfig 按 Region 选择上传区域：z0=华东, z1=华北, z2=华南, na0=北美, as0=东南亚
func (p *QiniuKodoProvider) getConfig(policy *Policy) *storage.Config {
	cfg := &storage.Config{UseHTTPS: true}
	switch strings.ToLower(policy.Region) {
	case "z1":
		cfg.Region = &storage.ZoneHuabei
	case "z2":
		cfg.Region = &storage.ZoneHuanan
	case "na0":
		cfg.Region = &storage.ZoneBeimei
	case "as0":
		cfg.Region = &storage.ZoneXinjiapo
	default:
		cfg.Region = &storage.ZoneHuadong
	}
	return cfg
}

func (p *QiniuKodoProvider) Upload(ctx context.Context, file io.Reader, policy *Policy, key string) (*UploadResult, error) {
	mac, err := p.getCredentials(policy)
	if err != nil {
		return nil, err
	}
	objectKey := buildObjectKey(policy, key)

	putPolicy := storage.PutPolicy{
		Scope: fmt.Sprintf("%s:%s", policy.Bucket, objectKey),
	}
	upToken := putPolicy.UploadToken(mac)

	// 七牛云SDK需要知道文件大小
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件失败: %w", err)
	}

	formUploader := storage.NewFormUploader(p.getConfig(policy))
	ret := storage.PutRet{}
	putExtra := storage.PutExtra{}
	if err := formUploader.Put(ctx, &ret, upToken, objectKey, bytes.NewReader(data), int64(len(data)), &putExtra); err != nil {
		return nil, fmt.Errorf("上传文件到七牛云失败: %w", err)
	}

	log.Printf("[七牛云] 上传成功: objectKey=%s, hash=%s", objectKey, ret.Hash)
	return &UploadResult{Source: objectKey, Size: int64(len(data))}, nil
}

// Get 通过私有下载链接读取对象，公开空间同样适用
func (p *QiniuKodoProvider) Get(ctx context.Context, policy *Policy, source string) (io.ReadCloser, error) {
	mac, err := p.getCredentials(policy)
	if err != nil {
		return nil, err
	}
	domain := strings.TrimSuffix(policy.Domain, "/")
	if domain == "" {
		return nil, fmt.Errorf("七牛云配置缺少访问域名")
	}
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}

	deadline := time.Now().Add(time.Hour).Unix()
	downloadURL := storage.MakePrivateURL(mac, domain, source, deadline)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建七牛云下载请求失败: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("从七牛云获取文件失败: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, source)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("从七牛云获取文件失败: HTTP %d", resp.StatusCode)
	}
}

func (p *QiniuKodoProvider) Delete(ctx context.Context, policy *Policy, sources []string) error {
	if len(sources) == 0 {
		return nil
	}
	mac, err := p.getCredentials(policy)
	if err != nil {
		return err
	}
	bucketManager := storage.NewBucketManager(mac, p.getConfig(policy))

	for _, source := range sources {
		if err := bucketManager.Delete(policy.Bucket, source); err != nil {
			// 612 是七牛云的文件不存在错误码
			if strings.Contains(err.Error(), "no such file or directory") || strings.Contains(err.Error(), "612") {
				continue
			}
			return fmt.Errorf("删除七牛云对象 %s 失败: %w", source, err)
		}
	}
	return nil
}
