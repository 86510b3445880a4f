/*
 * @Description: 草稿服务，持有每个表单的文本字段和各图片分组的采集状态
 * @Author: 安知鱼
 * @Date: 2026-10-18 14:12:05
 * @LastEditTime: 2026-10-19 10:36:41
 * @LastEditors: 安知鱼
 */
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"time"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/storage"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/intake"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/utility"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultTTL 是草稿在缓存中的默认有效期
const DefaultTTL = 24 * time.Hour

const (
	draftKeyPrefix   = "fm:draft:"
	sourceKeyPrefix  = "fm:draft:sources:"
	draftIndexKey    = "fm:draft:index"
	stagingKeyPrefix = "drafts"
)

func draftKey(id string) string   { return draftKeyPrefix + id }
func sourcesKey(id string) string { return sourceKeyPrefix + id }

// WidgetFactory 按表单类型和分组创建采集组件
type WidgetFactory interface {
	// Groups 返回表单类型的图片分组名，类型未知时返回 ErrNotFound
	Groups(kind string) ([]string, error)
	Widget(kind, group string, opts ...intake.Option) (*intake.Widget, error)
}

// IntakeEvent 是 intake:appended / intake:removed 事件的 payload
type IntakeEvent struct {
	DraftID string                      `json:"draftId"`
	Group   string                      `json:"group"`
	Record  model.AcceptedImageRecord   `json:"record"`
	Images  []model.AcceptedImageRecord `json:"images"`
}

// SelectResult 是 SelectSlot 的结果，槽位已被占用时 Opened 为 false
type SelectResult struct {
	Opened  bool               `json:"opened"`
	Display intake.DisplaySets `json:"display"`
}

// UploadResult 是一次选图交互的结果。出错时也会返回，Notices 中带有用户可见提示。
type UploadResult struct {
	Record   *model.AcceptedImageRecord `json:"record,omitempty"`
	Warnings []string                   `json:"warnings,omitempty"`
	Notices  []intake.Notice            `json:"notices,omitempty"`
	Display  intake.DisplaySets         `json:"display"`
}

// Service 定义了草稿服务的接口
type Service interface {
	Create(ctx context.Context, kind, recordID string) (*model.Draft, error)
	Get(ctx context.Context, id string) (*model.Draft, error)
	Delete(ctx context.Context, id string) error
	SetFields(ctx context.Context, id string, fields map[string]string) (*model.Draft, error)

	SelectSlot(ctx context.Context, id, group, label string) (*SelectResult, error)
	Upload(ctx context.Context, id, group string, file intake.ChosenFile) (*UploadResult, error)
	Cancel(ctx context.Context, id, group string) (*intake.DisplaySets, error)
	RemoveImage(ctx context.Context, id, group, imageID string) (*intake.DisplaySets, error)
	Display(ctx context.Context, id, group string) (*intake.DisplaySets, error)
	Continue(ctx context.Context, id, group string) (*intake.ContinueResult, error)

	// ReadStaged 读取已暂存文件的内容
	ReadStaged(ctx context.Context, record model.AcceptedImageRecord) ([]byte, error)
	// Purge 删除草稿的全部暂存文件
	Purge(ctx context.Context, id string) error
	// PurgeExpired 清理缓存已过期草稿的暂存文件，返回清理的草稿数
	PurgeExpired(ctx context.Context) (int, error)
}

type draftService struct {
	cache   utility.CacheService
	store   *storage.Store
	widgets WidgetFactory
	bus     *event.EventBus
	locker  *utility.KeyedLocker
	ttl     time.Duration
	now     func() time.Time
	newID   func() string
}

// NewService 创建草稿服务，ttl 小于等于 0 时使用 DefaultTTL
func NewService(cache utility.CacheService, store *storage.Store, widgets WidgetFactory, bus *event.EventBus, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &draftService{
		cache:   cache,
		store:   store,
		widgets: widgets,
		bus:     bus,
		locker:  utility.NewKeyedLocker(),
		ttl:     ttl,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *draftService) Create(ctx context.Context, kind, recordID string) (*model.Draft, error) {
	groups, err := s.widgets.Groups(kind)
	if err != nil {
		return nil, err
	}

	now := s.now()
	d := &model.Draft{
		ID:        s.newID(),
		Kind:      kind,
		RecordID:  recordID,
		Fields:    map[string]string{},
		Groups:    make(map[string]*model.IntakeState, len(groups)),
		CreatedAt: now,
	}
	for _, g := range groups {
		state := model.NewIntakeState()
		d.Groups[g] = &state
	}

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	if _, err := s.cache.SAdd(ctx, draftIndexKey, d.ID); err != nil {
		return nil, fmt.Errorf("登记草稿索引失败: %w", err)
	}
	log.Printf("[Draft] 创建草稿 %s (kind=%s, record=%s)", d.ID, kind, recordID)
	return d, nil
}

func (s *draftService) Get(ctx context.Context, id string) (*model.Draft, error) {
	return s.load(ctx, id)
}

func (s *draftService) Delete(ctx context.Context, id string) error {
	s.locker.Lock(id)
	defer s.locker.Unlock(id)

	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.Purge(ctx, id); err != nil {
		return err
	}
	return s.cache.Delete(ctx, draftKey(id))
}

func (s *draftService) SetFields(ctx context.Context, id string, fields map[string]string) (*model.Draft, error) {
	s.locker.Lock(id)
	defer s.locker.Unlock(id)

	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Fields == nil {
		d.Fields = map[string]string{}
	}
	for k, v := range fields {
		d.Fields[k] = v
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *draftService) SelectSlot(ctx context.Context, id, group, label string) (*SelectResult, error) {
	s.locker.Lock(id)
	defer s.locker.Unlock(id)

	d, state, w, err := s.loadGroup(ctx, id, group)
	if err != nil {
		return nil, err
	}
	next, opened, err := w.SelectSlot(*state, label)
	if err != nil {
		return nil, err
	}
	if opened {
		d.Groups[group] = &next
		if err := s.save(ctx, d); err != nil {
			return nil, err
		}
	}
	return &SelectResult{Opened: opened, Display: w.ComputeDisplaySets(next)}, nil
}

// Upload 在锁外执行裁剪和解码，完成后重新加锁读取最新草稿再追加，
// 因此两个槽位可以同时处理，追加按完成顺序落地。
func (s *draftService) Upload(ctx context.Context, id, group string, file intake.ChosenFile) (*UploadResult, error) {
	s.locker.Lock(id)
	d, snapshot, _, err := s.loadGroup(ctx, id, group)
	s.locker.Unlock(id)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{}
	w, err := s.widgets.Widget(d.Kind, group, intake.WithNotifier(intake.NotifierFunc(func(n intake.Notice) {
		result.Notices = append(result.Notices, n)
	})))
	if err != nil {
		return nil, err
	}

	consumed := intake.NormalizeLabel(file.TargetLabel)
	if consumed == "" {
		consumed = snapshot.OpenSlot
	}

	_, events, pipelineErr := w.OnFileChosen(ctx, *snapshot, file)

	var appended *intake.Event
	for i := range events {
		switch events[i].Kind {
		case intake.EventAppended:
			appended = &events[i]
		case intake.EventWarning:
			result.Warnings = append(result.Warnings, events[i].Message)
		}
	}

	var record model.AcceptedImageRecord
	if appended != nil {
		record = *appended.Record
		source, err := s.stage(ctx, id, record, appended.Data)
		if err != nil {
			// 暂存失败时不追加，但槽位状态照常写回
			appended = nil
			pipelineErr = err
		} else {
			record.File.Source = source
		}
	}

	// 请求被取消时仍需要写回槽位状态
	persistCtx := context.WithoutCancel(ctx)

	s.locker.Lock(id)
	defer s.locker.Unlock(id)

	d, current, _, err := s.loadGroup(persistCtx, id, group)
	if err != nil {
		if appended != nil {
			s.discardStaged(persistCtx, id, record.File.Source)
		}
		return result, err
	}

	next := *current
	next.Images = current.CloneImages()
	if next.OpenSlot == consumed {
		next.OpenSlot = ""
	}
	next.Phase = model.PhaseIdle
	if next.OpenSlot != "" {
		next.Phase = model.PhaseFileSelected
	}

	// 锁外处理期间同一槽位可能已被另一次上传占用
	if appended != nil && record.IsValid && consumed != "" && w.SlotSatisfied(next, record.ResolvedLabel) {
		s.discardStaged(persistCtx, id, record.File.Source)
		appended = nil
		msg := fmt.Sprintf("An image for %s has already been uploaded.", record.ResolvedLabel)
		result.Notices = append(result.Notices, intake.Notice{Level: intake.NoticeWarning, Message: msg})
		pipelineErr = fmt.Errorf("%w: %s", constant.ErrSlotSatisfied, record.ResolvedLabel)
	}

	var published []intake.Event
	if appended != nil {
		next, published = w.AppendRecord(next, record)
		result.Record = &record
	}

	d.Groups[group] = &next
	if err := s.save(persistCtx, d); err != nil {
		return result, err
	}
	for _, e := range published {
		s.publish(event.IntakeAppended, id, group, e)
	}

	result.Display = w.ComputeDisplaySets(next)
	return result, pipelineErr
}

func (s *draftService) Cancel(ctx context.Context, id, group string) (*intake.DisplaySets, error) {
	s.locker.Lock(id)
	defer s.locker.Unlock(id)

	d, state, w, err := s.loadGroup(ctx, id, group)
	if err != nil {
		return nil, err
	}
	next := w.Cancel(*state)
	d.Groups[group] = &next
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}
	sets := w.ComputeDisplaySets(next)
	return &sets, nil
}

func (s *draftService) RemoveImage(ctx context.Context, id, group, imageID string) (*intake.DisplaySets, error) {
	s.locker.Lock(id)
	defer s.locker.Unlock(id)

	d, state, w, err := s.loadGroup(ctx, id, group)
	if err != nil {
		return nil, err
	}
	next, events := w.RemoveImage(*state, imageID)
	if len(events) > 0 {
		d.Groups[group] = &next
		if err := s.save(ctx, d); err != nil {
			return nil, err
		}
		for _, e := range events {
			s.discardStaged(ctx, id, e.Record.File.Source)
			s.publish(event.IntakeRemoved, id, group, e)
		}
	}
	sets := w.ComputeDisplaySets(next)
	return &sets, nil
}

func (s *draftService) Display(ctx context.Context, id, group string) (*intake.DisplaySets, error) {
	_, state, w, err := s.loadGroup(ctx, id, group)
	if err != nil {
		return nil, err
	}
	sets := w.ComputeDisplaySets(*state)
	return &sets, nil
}

func (s *draftService) Continue(ctx context.Context, id, group string) (*intake.ContinueResult, error) {
	_, state, w, err := s.loadGroup(ctx, id, group)
	if err != nil {
		return nil, err
	}
	res, err := w.Continue(*state)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *draftService) ReadStaged(ctx context.Context, record model.AcceptedImageRecord) ([]byte, error) {
	if record.File.Source == "" {
		return nil, fmt.Errorf("%w: 图片 %s 没有暂存文件", constant.ErrNotFound, record.ID)
	}
	data, err := s.store.Get(ctx, record.File.Source)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: 暂存文件 %s", constant.ErrNotFound, record.File.Source)
		}
		return nil, err
	}
	return data, nil
}

func (s *draftService) Purge(ctx context.Context, id string) error {
	sources, err := s.cache.SMembers(ctx, sourcesKey(id))
	if err != nil {
		return fmt.Errorf("读取草稿 %s 的暂存文件列表失败: %w", id, err)
	}
	if len(sources) > 0 {
		if err := s.store.Delete(ctx, sources...); err != nil {
			return fmt.Errorf("删除草稿 %s 的暂存文件失败: %w", id, err)
		}
	}
	if err := s.cache.Delete(ctx, sourcesKey(id)); err != nil {
		return err
	}
	if _, err := s.cache.SRem(ctx, draftIndexKey, id); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Publish(event.DraftPurged, id)
	}
	log.Printf("[Draft] 已清理草稿 %s 的 %d 个暂存文件", id, len(sources))
	return nil
}

func (s *draftService) PurgeExpired(ctx context.Context) (int, error) {
	ids, err := s.cache.SMembers(ctx, draftIndexKey)
	if err != nil {
		return 0, fmt.Errorf("读取草稿索引失败: %w", err)
	}

	purged := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return purged, err
		}
		alive, err := s.cache.Exists(ctx, draftKey(id))
		if err != nil {
			return purged, err
		}
		if alive {
			continue
		}
		s.locker.Lock(id)
		err = s.Purge(ctx, id)
		s.locker.Unlock(id)
		if err != nil {
			log.Printf("[Draft] ⚠️ 清理过期草稿 %s 失败: %v", id, err)
			continue
		}
		purged++
	}
	return purged, nil
}

func (s *draftService) load(ctx context.Context, id string) (*model.Draft, error) {
	raw, err := s.cache.Get(ctx, draftKey(id))
	if err != nil {
		return nil, fmt.Errorf("读取草稿失败: %w", err)
	}
	if raw == "" {
		return nil, fmt.Errorf("%w: 草稿 %s 不存在或已过期", constant.ErrNotFound, id)
	}
	var d model.Draft
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("解析草稿失败: %w", err)
	}
	return &d, nil
}

// save 写入快照并顺延有效期
func (s *draftService) save(ctx context.Context, d *model.Draft) error {
	now := s.now()
	d.UpdatedAt = now
	d.ExpiresAt = now.Add(s.ttl)
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("序列化草稿失败: %w", err)
	}
	if err := s.cache.Set(ctx, draftKey(d.ID), string(data), s.ttl); err != nil {
		return fmt.Errorf("保存草稿失败: %w", err)
	}
	return nil
}

func (s *draftService) loadGroup(ctx context.Context, id, group string) (*model.Draft, *model.IntakeState, *intake.Widget, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	state, ok := d.Group(group)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: 表单 %s 没有图片分组 %s", constant.ErrNotFound, d.Kind, group)
	}
	if state == nil {
		empty := model.NewIntakeState()
		state = &empty
	}
	w, err := s.widgets.Widget(d.Kind, group)
	if err != nil {
		return nil, nil, nil, err
	}
	return d, state, w, nil
}

// stage 保存最终文件并登记到草稿的暂存列表
func (s *draftService) stage(ctx context.Context, id string, record model.AcceptedImageRecord, data []byte) (string, error) {
	key := path.Join(stagingKeyPrefix, id, record.ID+extensionFor(record.File.MimeType, record.File.Name))
	res, err := s.store.Put(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("暂存文件 %s 失败: %w", record.File.Name, err)
	}
	if _, err := s.cache.SAdd(ctx, sourcesKey(id), res.Source); err != nil {
		s.discardStaged(ctx, id, res.Source)
		return "", fmt.Errorf("登记暂存文件失败: %w", err)
	}
	return res.Source, nil
}

// discardStaged 尽力删除单个暂存文件
func (s *draftService) discardStaged(ctx context.Context, id, source string) {
	if source == "" {
		return
	}
	if err := s.store.Delete(ctx, source); err != nil {
		log.Printf("[Draft] ⚠️ 删除暂存文件 %s 失败: %v", source, err)
	}
	if _, err := s.cache.SRem(ctx, sourcesKey(id), source); err != nil {
		log.Printf("[Draft] ⚠️ 注销暂存文件 %s 失败: %v", source, err)
	}
}

func (s *draftService) publish(topic event.Topic, id, group string, e intake.Event) {
	if s.bus == nil || e.Record == nil {
		return
	}
	s.bus.Publish(topic, IntakeEvent{DraftID: id, Group: group, Record: *e.Record, Images: e.Images})
}

func extensionFor(mimeType, name string) string {
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return filepath.Ext(name)
}
