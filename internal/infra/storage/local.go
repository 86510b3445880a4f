/*
 * @Description: 本地磁盘存储
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:24:10
 * @LastEditTime: 2026-10-17 10:02:51
 * @LastEditors: 安知鱼
 */
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

type LocalProvider struct{}

func NewLocalProvider() IStorageProvider {
	return &LocalProvider{}
}

// physicalPath 将 source 解析为 BasePath 下的绝对路径，拒绝越出根目录的路径
func (p *LocalProvider) physicalPath(policy *Policy, source string) (string, error) {
	root, err := filepath.Abs(policy.BasePath)
	if err != nil {
		return "", fmt.Errorf("解析本地存储根目录失败: %w", err)
	}
	full := filepath.Join(root, filepath.FromSlash(source))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("非法的存储路径: %s", source)
	}
	return full, nil
}

func (p *LocalProvider) Upload(ctx context.Context, file io.Reader, policy *Policy, key string) (*UploadResult, error) {
	source := strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+key)), "/")
	dst, err := p.physicalPath(policy, source)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, fmt.Errorf("创建本地目录失败: %w", err)
	}

	destFile, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("无法创建目标文件: %w", err)
	}
	defer destFile.Close()

	size, err := io.Copy(destFile, file)
	if err != nil {
		return nil, fmt.Errorf("写入文件内容失败: %w", err)
	}
	if err := destFile.Sync(); err != nil {
		return nil, fmt.Errorf("同步文件到磁盘失败: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(dst))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &UploadResult{Source: source, Size: size, MimeType: mimeType}, nil
}

func (p *LocalProvider) Get(ctx context.Context, policy *Policy, source string) (io.ReadCloser, error) {
	full, err := p.physicalPath(policy, source)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, source)
		}
		return nil, fmt.Errorf("无法打开物理文件 '%s': %w", full, err)
	}
	return file, nil
}

// Delete 删除文件，并清理因此变空的父目录（不会删除根目录）
func (p *LocalProvider) Delete(ctx context.Context, policy *Policy, sources []string) error {
	root, err := filepath.Abs(policy.BasePath)
	if err != nil {
		return fmt.Errorf("解析本地存储根目录失败: %w", err)
	}

	var errs []error
	for _, source := range sources {
		full, err := p.physicalPath(policy, source)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("删除本地文件 '%s' 失败: %w", source, err))
			continue
		}

		for dir := filepath.Dir(full); dir != root && strings.HasPrefix(dir, root); dir = filepath.Dir(dir) {
			entries, err := os.ReadDir(dir)
			if err != nil || len(entries) > 0 {
				break
			}
			if err := os.Remove(dir); err != nil {
				log.Printf("警告: 清理空目录 '%s' 失败: %v", dir, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}
