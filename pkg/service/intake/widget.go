/*
 * @Description: 宽高比约束的图片采集组件
 * @Author: 安知鱼
 * @Date: 2026-10-12 17:32:50
 * @LastEditTime: 2026-10-16 14:55:21
 * @LastEditors: 安知鱼
 */
package intake

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"

	"github.com/google/uuid"
)

// Config 是组件配置
type Config struct {
	Label       string              `json:"label" yaml:"label"`
	Description string              `json:"description" yaml:"description"`
	Ratios      []model.TargetRatio `json:"ratios" yaml:"-"`
	// RatioFilter 为空表示展示全部比例
	RatioFilter          []string `json:"ratioFilter" yaml:"ratio_filter"`
	EnableCropping       bool     `json:"enableCropping" yaml:"enable_cropping"`
	IncludeInvalidRatios bool     `json:"includeInvalidRatios" yaml:"include_invalid_ratios"`
	// ShowAsModal 只影响展示，Continue 时据此返回 Close
	ShowAsModal bool `json:"showAsModal" yaml:"show_as_modal"`
	// AllowVideo 开启视频变体：接受 video/*，并执行大小限制
	AllowVideo    bool  `json:"allowVideo" yaml:"allow_video"`
	MaxImageBytes int64 `json:"maxImageBytes" yaml:"-"`
	MaxVideoBytes int64 `json:"maxVideoBytes" yaml:"-"`
	// EmptyContinueMessage 是没有可提交图片时的提示
	EmptyContinueMessage string `json:"-" yaml:"-"`
	SkipPreview          bool   `json:"-" yaml:"-"`
}

// DefaultConfig 返回组件默认配置
func DefaultConfig() Config {
	return Config{
		Label:                "Upload Images",
		Description:          "Upload images supporting multiple aspect ratios.",
		Ratios:               DefaultRatios(),
		EnableCropping:       true,
		EmptyContinueMessage: "No valid images selected.",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Label == "" {
		c.Label = def.Label
	}
	if c.Description == "" {
		c.Description = def.Description
	}
	if len(c.Ratios) == 0 {
		c.Ratios = def.Ratios
	}
	if c.EmptyContinueMessage == "" {
		c.EmptyContinueMessage = def.EmptyContinueMessage
	}
	filter := make([]string, len(c.RatioFilter))
	for i, label := range c.RatioFilter {
		filter[i] = NormalizeLabel(label)
	}
	c.RatioFilter = filter
	return c
}

// NoticeLevel 是用户可见提示的级别
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice 是一条短暂的用户可见提示
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Notifier 接收用户可见提示
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc 让普通函数实现 Notifier
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type logNotifier struct{}

func (logNotifier) Notify(n Notice) {
	log.Printf("[Intake] ⚠️ %s: %s", n.Level, n.Message)
}

// EventKind 是组件产生的离散事件类型
type EventKind string

const (
	EventAppended EventKind = "appended"
	EventRemoved  EventKind = "removed"
	EventWarning  EventKind = "warning"
)

// Event 是一次状态变更的通知。Images 是变更后的完整列表。
// appended 事件的 Data 携带最终（可能已裁剪）的文件数据，由调用方决定如何保存。
type Event struct {
	Kind    EventKind                   `json:"kind"`
	Record  *model.AcceptedImageRecord  `json:"record,omitempty"`
	Images  []model.AcceptedImageRecord `json:"images,omitempty"`
	Message string                      `json:"message,omitempty"`
	Data    []byte                      `json:"-"`
}

// ChosenFile 是用户选择的文件。
// TargetLabel 非空时直接以该槽位为目标，否则使用状态中打开的槽位。
type ChosenFile struct {
	Name        string
	MimeType    string
	Data        []byte
	TargetLabel string
	Crop        *CropBox
	AutoCrop    bool
}

// Option 配置组件的协作者
type Option func(*Widget)

func WithDecoder(d Decoder) Option { return func(w *Widget) { w.decoder = d } }

func WithCropper(c Cropper) Option { return func(w *Widget) { w.cropper = c } }

func WithNotifier(n Notifier) Option { return func(w *Widget) { w.notifier = n } }

func WithClock(now func() time.Time) Option { return func(w *Widget) { w.now = now } }

func WithIDGenerator(gen func() string) Option { return func(w *Widget) { w.newID = gen } }

// WithPhaseObserver 在每次阶段切换时回调，便于追踪状态机
func WithPhaseObserver(fn func(model.Phase)) Option { return func(w *Widget) { w.observe = fn } }

// Widget 是无状态的组件实现，所有状态由调用方通过 IntakeState 持有
type Widget struct {
	cfg      Config
	guard    MediaGuard
	decoder  Decoder
	cropper  Cropper
	notifier Notifier
	now      func() time.Time
	newID    func() string
	observe  func(model.Phase)
}

// NewWidget 创建组件，配置中的比例必须合法
func NewWidget(cfg Config, opts ...Option) (*Widget, error) {
	cfg = cfg.withDefaults()
	if err := ValidateRatios(cfg.Ratios); err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrBadRequest, err)
	}

	w := &Widget{
		cfg: cfg,
		guard: MediaGuard{
			AllowVideo:    cfg.AllowVideo,
			MaxImageBytes: cfg.MaxImageBytes,
			MaxVideoBytes: cfg.MaxVideoBytes,
		},
		decoder:  NewImagingDecoder(),
		cropper:  NewSmartCropper(),
		notifier: logNotifier{},
		now:      time.Now,
		newID:    uuid.NewString,
		observe:  func(model.Phase) {},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Config 返回补全默认值后的配置
func (w *Widget) Config() Config {
	return w.cfg
}

// AcceptFilter 返回文件选择器的 MIME 过滤条件
func (w *Widget) AcceptFilter() string {
	return w.guard.AcceptFilter()
}

// SelectSlot 打开指定比例槽位的文件选择。
// 槽位已被合格图片占用时不做任何改变并返回 opened=false。
func (w *Widget) SelectSlot(state model.IntakeState, label string) (model.IntakeState, bool, error) {
	label = NormalizeLabel(label)
	if _, ok := FindRatio(w.displayedRatios(), label); !ok {
		return state, false, fmt.Errorf("%w: %s", constant.ErrUnknownRatio, label)
	}
	if isSatisfied(state, label) {
		return state, false, nil
	}

	next := model.IntakeState{
		Images:   state.CloneImages(),
		OpenSlot: label,
		Phase:    model.PhaseFileSelected,
	}
	w.observe(model.PhaseFileSelected)
	return next, true, nil
}

// Cancel 关闭打开的槽位并回到空闲状态，不产生事件
func (w *Widget) Cancel(state model.IntakeState) model.IntakeState {
	w.observe(model.PhaseIdle)
	return model.IntakeState{Images: state.CloneImages(), Phase: model.PhaseIdle}
}

// OnFileChosen 依次执行 类型检查 -> 裁剪 -> 解码 -> 校验 -> 追加。
// 任何情况下返回的状态都已回到空闲；裁剪取消和解码失败都不会追加记录，也不产生事件。
func (w *Widget) OnFileChosen(ctx context.Context, state model.IntakeState, file ChosenFile) (model.IntakeState, []Event, error) {
	target := NormalizeLabel(file.TargetLabel)
	explicit := target != ""
	if !explicit {
		target = state.OpenSlot
	}
	idle := toIdle(state, target)

	var targetRatio *model.TargetRatio
	if target != "" {
		r, ok := FindRatio(w.displayedRatios(), target)
		if !ok {
			return idle, nil, fmt.Errorf("%w: %s", constant.ErrUnknownRatio, target)
		}
		if explicit && isSatisfied(state, target) {
			return idle, nil, fmt.Errorf("%w: %s", constant.ErrSlotSatisfied, target)
		}
		targetRatio = &r
	}
	w.observe(model.PhaseFileSelected)

	info, err := w.guard.Inspect(file.Name, file.Data)
	if err != nil {
		w.notify(NoticeError, noticeFor(err, file.Name))
		w.observe(model.PhaseIdle)
		return idle, nil, err
	}

	if info.MediaType == model.MediaTypeVideo {
		next, events := w.acceptVideo(idle, file, info, target)
		w.observe(model.PhaseIdle)
		return next, events, nil
	}

	data, mimeType := file.Data, info.MimeType
	if w.cfg.EnableCropping {
		w.observe(model.PhaseCroppingActive)
		res, err := w.cropper.Crop(ctx, CropRequest{
			Data:     data,
			MimeType: mimeType,
			Target:   targetRatio,
			Box:      file.Crop,
			Auto:     file.AutoCrop,
		})
		if err != nil {
			if IsCropCancelled(err) || ctx.Err() != nil {
				w.observe(model.PhaseCropCancelled)
				w.observe(model.PhaseIdle)
				return idle, nil, fmt.Errorf("%w: %s", constant.ErrCropCancelled, file.Name)
			}
			if errors.Is(err, constant.ErrDecodeFailed) {
				w.notify(NoticeError, "Unable to read image "+file.Name)
			}
			w.observe(model.PhaseIdle)
			return idle, nil, err
		}
		w.observe(model.PhaseCropCommitted)
		data, mimeType = res.Data, res.MimeType
	}

	w.observe(model.PhaseDecoding)
	decoded, err := w.decoder.Decode(ctx, data)
	if err != nil {
		w.observe(model.PhaseIdle)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return idle, nil, ctxErr
		}
		w.notify(NoticeError, "Unable to read image "+file.Name)
		return idle, nil, fmt.Errorf("%w: %s: %v", constant.ErrDecodeFailed, file.Name, err)
	}

	measured := decoded.Ratio()
	isValid := targetRatio == nil || MatchesRatio(measured, targetRatio.Ratio)
	w.observe(model.PhaseValidated)

	var events []Event
	if !isValid {
		msg := fmt.Sprintf("Invalid image ratio. Detected: %s, Expected: %s",
			DescribeMeasured(measured, w.cfg.Ratios), targetRatio.Label)
		w.notify(NoticeWarning, msg)
		events = append(events, Event{Kind: EventWarning, Message: msg})
	}

	record := model.AcceptedImageRecord{
		ID:          w.newID(),
		DisplayName: file.Name,
		File: model.FileRef{
			Name:     file.Name,
			MimeType: mimeType,
			Size:     int64(len(data)),
		},
		FileSizeMB:    SizeInMB(int64(len(data))),
		ResolvedLabel: ResolveLabel(measured, target, w.cfg.Ratios),
		IsValid:       isValid,
		AcceptedAt:    w.now(),
		Width:         decoded.Width,
		Height:        decoded.Height,
		MeasuredRatio: measured,
		MediaType:     model.MediaTypeImage,
	}
	if !w.cfg.SkipPreview {
		if preview, err := PreviewDataURL(decoded.Image); err == nil {
			record.PreviewDataURL = preview
		} else {
			log.Printf("[Intake] 生成预览失败 (%s): %v", file.Name, err)
		}
		record.PrimaryColor = PrimaryColor(decoded.Image)
	}

	next, appended := w.AppendRecord(idle, record)
	appended[0].Data = data
	w.observe(model.PhaseIdle)
	return next, append(events, appended...), nil
}

// acceptVideo 视频无法在进程内测量比例：有目标槽位时按该槽位标签接受并视为合格，否则标记为不合格
func (w *Widget) acceptVideo(state model.IntakeState, file ChosenFile, info MediaInfo, target string) (model.IntakeState, []Event) {
	record := model.AcceptedImageRecord{
		ID:          w.newID(),
		DisplayName: file.Name,
		File: model.FileRef{
			Name:     file.Name,
			MimeType: info.MimeType,
			Size:     int64(len(file.Data)),
		},
		FileSizeMB:    SizeInMB(int64(len(file.Data))),
		ResolvedLabel: target,
		IsValid:       target != "",
		AcceptedAt:    w.now(),
		MediaType:     model.MediaTypeVideo,
	}
	next, events := w.AppendRecord(state, record)
	events[0].Data = file.Data
	return next, events
}

// AppendRecord 将记录追加到列表末尾，返回新状态和 appended 事件
func (w *Widget) AppendRecord(state model.IntakeState, record model.AcceptedImageRecord) (model.IntakeState, []Event) {
	images := append(state.CloneImages(), record)
	next := model.IntakeState{Images: images, OpenSlot: state.OpenSlot, Phase: state.Phase}
	if next.Phase == "" {
		next.Phase = model.PhaseIdle
	}
	rec := record
	return next, []Event{{Kind: EventAppended, Record: &rec, Images: next.CloneImages()}}
}

// RemoveImage 无条件移除指定记录；ID 不存在时列表保持不变且不产生事件
func (w *Widget) RemoveImage(state model.IntakeState, id string) (model.IntakeState, []Event) {
	idx := -1
	for i, img := range state.Images {
		if img.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return state, nil
	}

	removed := state.Images[idx]
	images := make([]model.AcceptedImageRecord, 0, len(state.Images)-1)
	images = append(images, state.Images[:idx]...)
	images = append(images, state.Images[idx+1:]...)
	next := model.IntakeState{Images: images, OpenSlot: state.OpenSlot, Phase: state.Phase}
	return next, []Event{{Kind: EventRemoved, Record: &removed, Images: next.CloneImages()}}
}

func (w *Widget) notify(level NoticeLevel, msg string) {
	if w.notifier != nil {
		w.notifier.Notify(Notice{Level: level, Message: msg})
	}
}

// toIdle 清除本次交互消耗的槽位并回到空闲
func toIdle(state model.IntakeState, consumed string) model.IntakeState {
	next := model.IntakeState{Images: state.CloneImages(), OpenSlot: state.OpenSlot, Phase: model.PhaseIdle}
	if next.OpenSlot == consumed {
		next.OpenSlot = ""
	}
	if next.OpenSlot != "" {
		next.Phase = model.PhaseFileSelected
	}
	return next
}

// SlotSatisfied 判断槽位是否已有合格图片
func (w *Widget) SlotSatisfied(state model.IntakeState, label string) bool {
	return isSatisfied(state, NormalizeLabel(label))
}

func isSatisfied(state model.IntakeState, label string) bool {
	for _, img := range state.Images {
		if img.IsValid && img.ResolvedLabel == label {
			return true
		}
	}
	return false
}

func noticeFor(err error, name string) string {
	var limit *LimitError
	switch {
	case errors.As(err, &limit):
		return limit.Message
	case errors.Is(err, constant.ErrUnsupportedMedia):
		return fmt.Sprintf("Invalid file type \"%s\".", name)
	default:
		return err.Error()
	}
}
