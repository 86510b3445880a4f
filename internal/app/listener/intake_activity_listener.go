/*
 * @Description: 监听图片采集和提交事件，输出审计日志并累计计数
 * @Author: 安知鱼
 * @Date: 2025-07-18 17:30:00
 * @LastEditTime: 2026-10-19 12:20:33
 * @LastEditors: 安知鱼
 */
package listener

import (
	"log"
	"sync"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/draft"
)

// ActivityStats 是自启动以来的事件计数
type ActivityStats struct {
	Appended  int `json:"appended"`
	Removed   int `json:"removed"`
	Invalid   int `json:"invalid"`
	Purged    int `json:"purged"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// IntakeActivityListener 订阅采集、清理和提交事件
type IntakeActivityListener struct {
	mu    sync.Mutex
	stats ActivityStats
}

// NewIntakeActivityListener 创建监听器并完成订阅
func NewIntakeActivityListener(eventBus *event.EventBus) *IntakeActivityListener {
	l := &IntakeActivityListener{}
	eventBus.Subscribe(event.IntakeAppended, l.handleAppended)
	eventBus.Subscribe(event.IntakeRemoved, l.handleRemoved)
	eventBus.Subscribe(event.DraftPurged, l.handlePurged)
	eventBus.Subscribe(event.SubmissionSettled, l.handleSettled)
	return l
}

// Stats 返回当前计数的副本
func (l *IntakeActivityListener) Stats() ActivityStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *IntakeActivityListener) handleAppended(payload interface{}) {
	e, ok := payload.(draft.IntakeEvent)
	if !ok {
		log.Printf("[IntakeActivity] 错误：收到的 intake:appended 事件负载类型不正确")
		return
	}
	l.mu.Lock()
	l.stats.Appended++
	if !e.Record.IsValid {
		l.stats.Invalid++
	}
	l.mu.Unlock()

	log.Printf("[IntakeActivity] 草稿 %s 分组 %s 新增 %s (%s, 比例 %s, 合格: %t)，当前共 %d 张",
		e.DraftID, e.Group, e.Record.DisplayName, e.Record.MediaType, e.Record.ResolvedLabel, e.Record.IsValid, len(e.Images))
}

func (l *IntakeActivityListener) handleRemoved(payload interface{}) {
	e, ok := payload.(draft.IntakeEvent)
	if !ok {
		log.Printf("[IntakeActivity] 错误：收到的 intake:removed 事件负载类型不正确")
		return
	}
	l.mu.Lock()
	l.stats.Removed++
	l.mu.Unlock()

	log.Printf("[IntakeActivity] 草稿 %s 分组 %s 移除 %s，剩余 %d 张", e.DraftID, e.Group, e.Record.DisplayName, len(e.Images))
}

func (l *IntakeActivityListener) handlePurged(payload interface{}) {
	id, ok := payload.(string)
	if !ok {
		log.Printf("[IntakeActivity] 错误：收到的 draft:purged 事件负载类型不正确")
		return
	}
	l.mu.Lock()
	l.stats.Purged++
	l.mu.Unlock()

	log.Printf("[IntakeActivity] 草稿 %s 的暂存文件已清理", id)
}

func (l *IntakeActivityListener) handleSettled(payload interface{}) {
	sub, ok := payload.(model.Submission)
	if !ok {
		log.Printf("[IntakeActivity] 错误：收到的 submission:settled 事件负载类型不正确")
		return
	}
	l.mu.Lock()
	if sub.Status == model.SubmissionSucceeded {
		l.stats.Succeeded++
	} else {
		l.stats.Failed++
	}
	l.mu.Unlock()

	if sub.Status == model.SubmissionSucceeded {
		log.Printf("[IntakeActivity] ✅ 草稿 %s 已提交 %s %s (HTTP %d)", sub.DraftID, sub.Method, sub.Endpoint, sub.HTTPStatus)
		return
	}
	log.Printf("[IntakeActivity] ⚠️ 草稿 %s 提交失败 %s %s: %s", sub.DraftID, sub.Method, sub.Endpoint, sub.Message)
}
