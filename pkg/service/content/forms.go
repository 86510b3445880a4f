/*
 * @Description: 内容表单定义：上游资源名、图片分组和必填字段
 * @Author: 安知鱼
 * @Date: 2026-10-18 16:58:12
 * @LastEditTime: 2026-10-19 09:41:27
 * @LastEditors: 安知鱼
 */
package content

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/strutil"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/intake"
)

// Kind 是表单类型
type Kind string

const (
	KindBroadcast    Kind = "broadcast"
	KindEvent        Kind = "event"
	KindNoticeboard  Kind = "noticeboard"
	KindPressRelease Kind = "press_release"
	KindTestimonial  Kind = "testimonial"
)

// Group 是表单中的一个图片分组，分组名同时是 multipart 字段前缀
type Group struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Multiple bool   `json:"multiple"`
	// FlattenAs 非空时所有图片以 <resource>[<FlattenAs>][] 提交，不区分比例
	FlattenAs    string `json:"flattenAs,omitempty"`
	AllowVideo   bool   `json:"allowVideo"`
	EmptyMessage string `json:"-"`
}

// Field 是一个文本字段
type Field struct {
	Name            string `json:"name"`
	Label           string `json:"label"`
	Required        bool   `json:"required"`
	RequiredMessage string `json:"-"`
	MaxLength       int    `json:"maxLength,omitempty"`
	MaxMessage      string `json:"-"`
	// FreeText 字段提交前按 UGC 策略清理
	FreeText bool `json:"freeText,omitempty"`
	// Derived 字段不直接提交，由表单的 derive 函数转换
	Derived bool `json:"-"`
}

// Form 是一种内容表单
type Form struct {
	Kind       Kind    `json:"kind"`
	Title      string  `json:"title"`
	Resource   string  `json:"resource"`
	Collection string  `json:"collection"`
	Editable   bool    `json:"editable"`
	Groups     []Group `json:"groups"`
	Fields     []Field `json:"fields"`
	// TitleField 和 BodyField 用于预览
	TitleField string `json:"-"`
	BodyField  string `json:"-"`

	derive func(f *Form, fields map[string]string, add func(key, value string))
}

// Endpoint 返回提交使用的方法和路径，recordID 非空时为编辑
func (f *Form) Endpoint(recordID string) (method, path string) {
	if recordID != "" {
		return "PUT", fmt.Sprintf("%s/%s.json", f.Collection, recordID)
	}
	return "POST", f.Collection + ".json"
}

// Group 按名称查找图片分组
func (f *Form) Group(name string) (Group, bool) {
	for _, g := range f.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// Field 按名称查找文本字段
func (f *Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldName 返回 <resource>[<name>]
func (f *Form) FieldName(name string) string {
	return fmt.Sprintf("%s[%s]", f.Resource, name)
}

// ListFieldName 返回 <resource>[<name>][]
func (f *Form) ListFieldName(name string) string {
	return f.FieldName(name) + "[]"
}

// Validate 按字段顺序校验，只返回第一个错误
func (f *Form) Validate(fields map[string]string) error {
	for _, field := range f.Fields {
		value := strings.TrimSpace(fields[field.Name])
		if field.Required && value == "" {
			return fmt.Errorf("%w: %s", constant.ErrValidation, field.RequiredMessage)
		}
		if field.MaxLength > 0 && strutil.RuneLen(value) > field.MaxLength {
			return fmt.Errorf("%w: %s", constant.ErrValidation, field.MaxMessage)
		}
	}
	return nil
}

// ValidateFieldName 限制字段名只包含小写字母、数字和下划线，防止拼出嵌套的 multipart 键
func ValidateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: 字段名不能为空", constant.ErrBadRequest)
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return fmt.Errorf("%w: 非法的字段名 '%s'", constant.ErrBadRequest, name)
		}
	}
	return nil
}

// textFields 生成文本字段：先按名称排序输出普通字段，再输出派生字段
func (f *Form) textFields(fields map[string]string, sanitize func(string) string) [][2]string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var out [][2]string
	add := func(name, value string) {
		out = append(out, [2]string{name, value})
	}
	for _, name := range names {
		def, known := f.Field(name)
		if known && def.Derived {
			continue
		}
		value := fields[name]
		if known && def.FreeText {
			value = sanitize(value)
		}
		add(f.FieldName(name), value)
	}
	if f.derive != nil {
		f.derive(f, fields, add)
	}
	return out
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// sharedAudience 把 "all" 转换为后端的共享值，其余取值表示指定用户或分组
func sharedAudience(allValue, restrictedValue string) func(string) string {
	return func(v string) string {
		if v == "all" {
			return allValue
		}
		return restrictedValue
	}
}

// Forms 返回全部内置表单定义
func Forms() []*Form {
	return []*Form{broadcastForm(), eventForm(), noticeboardForm(), pressReleaseForm(), testimonialForm()}
}

func broadcastForm() *Form {
	shared := sharedAudience("2", "1")
	return &Form{
		Kind:       KindBroadcast,
		Title:      "Broadcast",
		Resource:   "noticeboard",
		Collection: "noticeboards",
		Groups: []Group{
			{Name: "cover_image", Label: "Cover Image", EmptyMessage: "No valid cover image selected."},
			{Name: "broadcast_images", Label: "Attachments", Multiple: true, FlattenAs: "files_attached", EmptyMessage: "No valid broadcast image selected."},
		},
		Fields: []Field{
			{Name: "notice_heading", Label: "Title", Required: true, RequiredMessage: "Title is required."},
			{Name: "expire_date", Label: "End Date", Required: true, RequiredMessage: "End date is required.", Derived: true},
			{Name: "expire_time", Label: "End Time", Required: true, RequiredMessage: "End time is required.", Derived: true},
			{Name: "notice_text", Label: "Description", Required: true, RequiredMessage: "Description is required.",
				MaxLength: 255, MaxMessage: "Description cannot exceed 255 characters.", FreeText: true},
			{Name: "shared", Label: "Share With", Derived: true},
			{Name: "is_important", Label: "Mark as Important", Derived: true},
			{Name: "swusers", Label: "Users"},
			{Name: "group_id", Label: "Groups"},
		},
		TitleField: "notice_heading",
		BodyField:  "notice_text",
		derive: func(f *Form, fields map[string]string, add func(key, value string)) {
			add(f.FieldName("expire_time"), fields["expire_date"]+"T"+fields["expire_time"])
			add(f.FieldName("shared"), shared(fields["shared"]))
			important := "0"
			if truthy(fields["is_important"]) {
				important = "1"
			}
			add(f.FieldName("is_important"), important)
		},
	}
}

func eventForm() *Form {
	shared := sharedAudience("0", "1")
	return &Form{
		Kind:       KindEvent,
		Title:      "Event",
		Resource:   "event",
		Collection: "events",
		Editable:   true,
		Groups: []Group{
			{Name: "cover_image", Label: "Cover Image", EmptyMessage: "No valid cover image selected."},
			{Name: "event_images", Label: "Event Images", Multiple: true, AllowVideo: true, EmptyMessage: "No valid event images selected."},
		},
		Fields: []Field{
			{Name: "event_name", Label: "Event Name", Required: true, RequiredMessage: "Event Name is required."},
			{Name: "event_at", Label: "Event Date", Required: true, RequiredMessage: "Event Date is required."},
			{Name: "description", Label: "Description", FreeText: true},
			{Name: "shared", Label: "Share With", Derived: true},
			{Name: "group_id", Label: "Groups", Derived: true},
		},
		TitleField: "event_name",
		BodyField:  "description",
		derive: func(f *Form, fields map[string]string, add func(key, value string)) {
			add(f.FieldName("shared"), shared(fields["shared"]))
			for _, id := range splitList(fields["group_id"]) {
				add(f.ListFieldName("group_id"), id)
			}
		},
	}
}

func noticeboardForm() *Form {
	shared := sharedAudience("0", "1")
	return &Form{
		Kind:       KindNoticeboard,
		Title:      "Noticeboard",
		Resource:   "noticeboard",
		Collection: "noticeboards",
		Editable:   true,
		Groups: []Group{
			{Name: "cover_image", Label: "Cover Image", EmptyMessage: "No valid cover image selected."},
			{Name: "noticeboard_images", Label: "Notice Images", Multiple: true, EmptyMessage: "No valid noticeboard images selected."},
		},
		Fields: []Field{
			{Name: "notice_heading", Label: "Title", Required: true, RequiredMessage: "Title is required."},
			{Name: "notice_text", Label: "Description", Required: true, RequiredMessage: "Description is required.", FreeText: true},
			{Name: "shared", Label: "Share With", Derived: true},
		},
		TitleField: "notice_heading",
		BodyField:  "notice_text",
		derive: func(f *Form, fields map[string]string, add func(key, value string)) {
			add(f.FieldName("shared"), shared(fields["shared"]))
		},
	}
}

func pressReleaseForm() *Form {
	return &Form{
		Kind:       KindPressRelease,
		Title:      "Press Release",
		Resource:   "press_release",
		Collection: "press_releases",
		Editable:   true,
		Groups: []Group{
			{Name: "image", Label: "Image", EmptyMessage: "No valid image selected."},
		},
		Fields: []Field{
			{Name: "title", Label: "Title", Required: true, RequiredMessage: "Title is required."},
			{Name: "release_date", Label: "Release Date", Required: true, RequiredMessage: "Release Date is required."},
			{Name: "description", Label: "Description", FreeText: true},
		},
		TitleField: "title",
		BodyField:  "description",
	}
}

func testimonialForm() *Form {
	return &Form{
		Kind:       KindTestimonial,
		Title:      "Testimonial",
		Resource:   "testimonial",
		Collection: "testimonials",
		Editable:   true,
		Groups: []Group{
			{Name: "preview_image", Label: "Preview Image", AllowVideo: true, EmptyMessage: "No valid preview image selected."},
		},
		Fields: []Field{
			{Name: "user_name", Label: "User Name", Required: true, RequiredMessage: "User Name is required."},
			{Name: "content", Label: "Content", Required: true, RequiredMessage: "Content is required.", FreeText: true},
		},
		TitleField: "user_name",
		BodyField:  "content",
	}
}

// DefaultPresets 返回每个表单分组的默认比例，与页面的上传配置一致
func DefaultPresets() intake.Presets {
	var labels []string
	for _, r := range intake.DefaultRatios() {
		labels = append(labels, r.Label)
	}
	presets := intake.Presets{}
	for _, f := range Forms() {
		groups := map[string][]string{}
		for _, g := range f.Groups {
			groups[g.Name] = append([]string(nil), labels...)
		}
		presets[string(f.Kind)] = groups
	}
	return presets
}

// Limits 是视频变体的大小限制
type Limits struct {
	MaxImageBytes int64
	MaxVideoBytes int64
}

// GroupView 是对外展示的分组信息
type GroupView struct {
	Group
	Description string              `json:"description"`
	Ratios      []model.TargetRatio `json:"ratios"`
}

// FormView 是对外展示的表单信息
type FormView struct {
	Kind     Kind        `json:"kind"`
	Title    string      `json:"title"`
	Resource string      `json:"resource"`
	Editable bool        `json:"editable"`
	Groups   []GroupView `json:"groups"`
	Fields   []Field     `json:"fields"`
}

// Registry 持有表单定义和比例预设，实现草稿服务需要的 WidgetFactory
type Registry struct {
	forms   map[Kind]*Form
	order   []Kind
	presets *intake.PresetStore
	limits  Limits
}

// NewRegistry 创建表单注册表，presets 为 nil 时使用默认比例
func NewRegistry(presets *intake.PresetStore, limits Limits) *Registry {
	r := &Registry{forms: map[Kind]*Form{}, presets: presets, limits: limits}
	for _, f := range Forms() {
		r.forms[f.Kind] = f
		r.order = append(r.order, f.Kind)
	}
	return r
}

// Form 返回表单定义
func (r *Registry) Form(kind string) (*Form, error) {
	f, ok := r.forms[Kind(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: 未知的表单类型 '%s'", constant.ErrNotFound, kind)
	}
	return f, nil
}

// Groups 实现 WidgetFactory
func (r *Registry) Groups(kind string) ([]string, error) {
	f, err := r.Form(kind)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(f.Groups))
	for i, g := range f.Groups {
		names[i] = g.Name
	}
	return names, nil
}

// Ratios 返回分组当前生效的比例
func (r *Registry) Ratios(kind, group string) ([]model.TargetRatio, error) {
	if r.presets == nil {
		return intake.DefaultRatios(), nil
	}
	return r.presets.Ratios(kind, group)
}

// Widget 实现 WidgetFactory，按分组配置创建采集组件
func (r *Registry) Widget(kind, group string, opts ...intake.Option) (*intake.Widget, error) {
	f, err := r.Form(kind)
	if err != nil {
		return nil, err
	}
	g, ok := f.Group(group)
	if !ok {
		return nil, fmt.Errorf("%w: 表单 %s 没有图片分组 %s", constant.ErrNotFound, kind, group)
	}
	ratios, err := r.Ratios(kind, group)
	if err != nil {
		return nil, err
	}
	// 只有预设比例内的合格图片才能继续提交
	filter := make([]string, len(ratios))
	for i, r := range ratios {
		filter[i] = r.Label
	}
	cfg := intake.Config{
		Label:                g.Label,
		Description:          intake.SupportsDescription(ratios),
		Ratios:               ratios,
		RatioFilter:          filter,
		EnableCropping:       true,
		AllowVideo:           g.AllowVideo,
		MaxImageBytes:        r.limits.MaxImageBytes,
		MaxVideoBytes:        r.limits.MaxVideoBytes,
		EmptyContinueMessage: g.EmptyMessage,
	}
	return intake.NewWidget(cfg, opts...)
}

// Views 返回全部表单的展示信息
func (r *Registry) Views() ([]FormView, error) {
	views := make([]FormView, 0, len(r.order))
	for _, kind := range r.order {
		f := r.forms[kind]
		view := FormView{Kind: f.Kind, Title: f.Title, Resource: f.Resource, Editable: f.Editable, Fields: f.Fields}
		for _, g := range f.Groups {
			ratios, err := r.Ratios(string(kind), g.Name)
			if err != nil {
				return nil, err
			}
			view.Groups = append(view.Groups, GroupView{Group: g, Description: intake.SupportsDescription(ratios), Ratios: ratios})
		}
		views = append(views, view)
	}
	return views, nil
}
