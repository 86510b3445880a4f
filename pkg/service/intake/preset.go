/*
 * @Description: 各表单图片分组的比例预设，支持文件热更新
 * @Author: 安知鱼
 * @Date: 2026-10-13 10:44:06
 * @LastEditTime: 2026-10-16 11:18:52
 * @LastEditors: 安知鱼
 */
package intake

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Presets 是 表单类型 -> 图片分组 -> 比例标签 的映射
type Presets map[string]map[string][]string

// ParsePresets 解析 YAML 预设并校验每一组比例
func ParsePresets(data []byte) (Presets, error) {
	var presets Presets
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("解析比例预设失败: %w", err)
	}
	for kind, groups := range presets {
		for group, labels := range groups {
			normalized := make([]string, len(labels))
			for i, l := range labels {
				normalized[i] = NormalizeLabel(l)
			}
			if _, err := RatiosFromLabels(normalized); err != nil {
				return nil, fmt.Errorf("比例预设 %s.%s 无效: %w", kind, group, err)
			}
			groups[group] = normalized
		}
	}
	return presets, nil
}

// PresetStore 持有当前生效的预设。文件中的配置按 表单类型/分组 覆盖内置默认值，
// 文件损坏时保留上一次成功加载的结果。
type PresetStore struct {
	path     string
	defaults Presets

	mu      sync.RWMutex
	current Presets

	watcher *fsnotify.Watcher
}

// NewPresetStore 创建预设存储；path 为空或文件不存在时只使用内置默认值
func NewPresetStore(path string, defaults Presets) (*PresetStore, error) {
	s := &PresetStore{path: path, defaults: defaults, current: Presets{}}
	if path == "" {
		return s, nil
	}
	if err := s.Reload(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("提示: 未找到比例预设文件 %s，使用内置默认值。", path)
			return s, nil
		}
		return nil, err
	}
	return s, nil
}

// Reload 重新读取预设文件
func (s *PresetStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	presets, err := ParsePresets(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = presets
	s.mu.Unlock()
	log.Printf("✅ 已加载比例预设: %s", s.path)
	return nil
}

// Labels 返回某个表单分组的比例标签
func (s *PresetStore) Labels(kind, group string) []string {
	s.mu.RLock()
	labels, ok := s.current[kind][group]
	s.mu.RUnlock()
	if !ok {
		labels = s.defaults[kind][group]
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Ratios 返回某个表单分组的目标比例，没有配置时使用组件默认比例
func (s *PresetStore) Ratios(kind, group string) ([]model.TargetRatio, error) {
	labels := s.Labels(kind, group)
	if len(labels) == 0 {
		return DefaultRatios(), nil
	}
	return RatiosFromLabels(labels)
}

// Watch 监听预设文件所在目录，文件变化时重新加载，直到 ctx 结束
func (s *PresetStore) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听失败: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("监听目录 %s 失败: %w", dir, err)
	}
	s.watcher = watcher

	go s.watchLoop(ctx)
	return nil
}

func (s *PresetStore) watchLoop(ctx context.Context) {
	defer s.watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				if err := s.Reload(); err != nil {
					log.Printf("⚠️ 比例预设重新加载失败，继续使用旧配置: %v", err)
				}
			})
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️ 比例预设文件监听出错: %v", err)
		}
	}
}
