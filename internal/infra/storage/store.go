/*
 * @Description: 绑定了存储配置的暂存区，供草稿服务使用
 * @Author: 安知鱼
 * @Date: 2026-10-17 11:30:22
 * @LastEditTime: 2026-10-17 14:08:10
 * @LastEditors: 安知鱼
 */
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
)

// NewProvider 按驱动名创建存储提供者
func NewProvider(driver constant.StorageDriver) (IStorageProvider, error) {
	switch driver {
	case constant.StorageDriverLocal, "":
		return NewLocalProvider(), nil
	case constant.StorageDriverTencentCOS:
		return NewTencentCOSProvider(), nil
	case constant.StorageDriverAliOSS:
		return NewAliOSSProvider(), nil
	case constant.StorageDriverS3:
		return NewAWSS3Provider(), nil
	case constant.StorageDriverQiniu:
		return NewQiniuKodoProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %s", constant.ErrUnknownStorageDriver, driver)
	}
}

// Store 是绑定了 Policy 的存储提供者
type Store struct {
	provider IStorageProvider
	policy   *Policy
}

// NewStore 根据配置创建暂存区
func NewStore(policy Policy) (*Store, error) {
	provider, err := NewProvider(policy.Driver)
	if err != nil {
		return nil, err
	}
	if policy.Driver == "" {
		policy.Driver = constant.StorageDriverLocal
	}
	return &Store{provider: provider, policy: &policy}, nil
}

// NewStoreWithProvider 使用指定的提供者创建暂存区
func NewStoreWithProvider(provider IStorageProvider, policy Policy) *Store {
	return &Store{provider: provider, policy: &policy}
}

// Driver 返回当前驱动名
func (s *Store) Driver() constant.StorageDriver {
	return s.policy.Driver
}

// Put 保存数据，返回对象的 source
func (s *Store) Put(ctx context.Context, key string, data []byte) (*UploadResult, error) {
	return s.provider.Upload(ctx, bytes.NewReader(data), s.policy, key)
}

// Get 读取对象的全部内容
func (s *Store) Get(ctx context.Context, source string) ([]byte, error) {
	rc, err := s.provider.Get(ctx, s.policy, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("读取暂存文件 %s 失败: %w", source, err)
	}
	return data, nil
}

// Delete 删除一个或多个对象
func (s *Store) Delete(ctx context.Context, sources ...string) error {
	if len(sources) == 0 {
		return nil
	}
	return s.provider.Delete(ctx, s.policy, sources)
}
