/*
 * @Description: AWS S3存储提供者实现（使用aws-sdk-go-v2），同时兼容 MinIO 等 S3 协议服务
 * @Author: 安知鱼
 * @Date: 2025-09-28 19:00:00
 * @LastEditTime: 2026-10-17 10:30:05
 * @LastEditors: 安知鱼
 */
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type AWSS3Provider struct{}

func NewAWSS3Provider() IStorageProvider {
	return &AWSS3Provider{}
}

func (p *AWSS3Provider) getS3Client(ctx context.Context, policy *Policy) (*s3.Client, error) {
	if policy.Bucket == "" {
		return nil, fmt.Errorf("AWS S3配置缺少存储桶名称")
	}
	if policy.AccessKey == "" || policy.SecretKey == "" {
		return nil, fmt.Errorf("AWS S3配置缺少AccessKey或SecretKey")
	}

	region := policy.Region
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			policy.AccessKey,
			policy.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("创建AWS S3配置失败: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if policy.Endpoint != "" {
			o.BaseEndpoint = aws.String(policy.Endpoint)
			// 对于自定义endpoint通常需要path-style
			o.UsePathStyle = true
		}
	}), nil
}

func (p *AWSS3Provider) Upload(ctx context.Context, file io.Reader, policy *Policy, key string) (*UploadResult, error) {
	client, err := p.getS3Client(ctx, policy)
	if err != nil {
		return nil, err
	}
	objectKey := buildObjectKey(policy, key)

	// 读入内存以获得准确的 ContentLength，第三方 S3 兼容服务对 SHA256 校验更严格
	fileContent, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取文件内容失败: %w", err)
	}
	hash := sha256.Sum256(fileContent)

	mimeType := mime.TypeByExtension(filepath.Ext(objectKey))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(policy.Bucket),
		Key:            aws.String(objectKey),
		Body:           bytes.NewReader(fileContent),
		ContentLength:  aws.Int64(int64(len(fileContent))),
		ContentType:    aws.String(mimeType),
		ChecksumSHA256: aws.String(base64.StdEncoding.EncodeToString(hash[:])),
	})
	if err != nil {
		return nil, fmt.Errorf("上传文件到AWS S3失败: %w", err)
	}

	log.Printf("[AWS S3] 上传成功: objectKey=%s", objectKey)
	return &UploadResult{Source: objectKey, Size: int64(len(fileContent)), MimeType: mimeType}, nil
}

func (p *AWSS3Provider) Get(ctx context.Context, policy *Policy, source string) (io.ReadCloser, error) {
	client, err := p.getS3Client(ctx, policy)
	if err != nil {
		return nil, err
	}

	output, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(policy.Bucket),
		Key:    aws.String(source),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, source)
		}
		return nil, fmt.Errorf("从AWS S3获取文件失败: %w", err)
	}
	return output.Body, nil
}

func (p *AWSS3Provider) Delete(ctx context.Context, policy *Policy, sources []string) error {
	if len(sources) == 0 {
		return nil
	}
	client, err := p.getS3Client(ctx, policy)
	if err != nil {
		return err
	}

	for _, source := range sources {
		// S3 删除不存在的对象同样返回成功
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(policy.Bucket),
			Key:    aws.String(source),
		}); err != nil {
			return fmt.Errorf("删除AWS S3对象 %s 失败: %w", source, err)
		}
	}
	return nil
}
