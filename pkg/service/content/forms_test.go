package content

import (
	"strings"
	"testing"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForm_Validate(t *testing.T) {
	valid := map[string]string{
		"notice_heading": "Water shutdown",
		"expire_date":    "2026-11-01",
		"expire_time":    "18:00",
		"notice_text":    "Tower B",
	}
	with := func(k, v string) map[string]string {
		m := map[string]string{}
		for key, val := range valid {
			m[key] = val
		}
		m[k] = v
		return m
	}

	tests := []struct {
		name    string
		kind    Kind
		fields  map[string]string
		wantMsg string
	}{
		{"广播合法", KindBroadcast, valid, ""},
		{"缺少标题", KindBroadcast, with("notice_heading", " "), "Title is required."},
		{"缺少结束日期", KindBroadcast, with("expire_date", ""), "End date is required."},
		{"缺少结束时间", KindBroadcast, with("expire_time", ""), "End time is required."},
		{"缺少描述", KindBroadcast, with("notice_text", ""), "Description is required."},
		{"描述超长", KindBroadcast, with("notice_text", strings.Repeat("a", 256)), "Description cannot exceed 255 characters."},
		{"描述恰好255", KindBroadcast, with("notice_text", strings.Repeat("字", 255)), ""},
		{"只报告第一个错误", KindBroadcast, map[string]string{}, "Title is required."},
		{"活动缺少名称", KindEvent, map[string]string{"event_at": "2026-11-01"}, "Event Name is required."},
		{"活动缺少日期", KindEvent, map[string]string{"event_name": "Opening"}, "Event Date is required."},
		{"新闻稿缺少日期", KindPressRelease, map[string]string{"title": "Launch"}, "Release Date is required."},
		{"评价缺少内容", KindTestimonial, map[string]string{"user_name": "Asha"}, "Content is required."},
	}
	r := NewRegistry(nil, Limits{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := r.Form(string(tt.kind))
			require.NoError(t, err)
			err = f.Validate(tt.fields)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, constant.ErrValidation)
			assert.True(t, strings.HasSuffix(err.Error(), tt.wantMsg), err.Error())
		})
	}
}

func TestForm_Endpoint(t *testing.T) {
	tests := []struct {
		kind       Kind
		recordID   string
		wantMethod string
		wantPath   string
	}{
		{KindBroadcast, "", "POST", "noticeboards.json"},
		{KindEvent, "", "POST", "events.json"},
		{KindEvent, "12", "PUT", "events/12.json"},
		{KindNoticeboard, "3", "PUT", "noticeboards/3.json"},
		{KindPressRelease, "", "POST", "press_releases.json"},
		{KindTestimonial, "9", "PUT", "testimonials/9.json"},
	}
	r := NewRegistry(nil, Limits{})
	for _, tt := range tests {
		t.Run(string(tt.kind)+tt.recordID, func(t *testing.T) {
			f, err := r.Form(string(tt.kind))
			require.NoError(t, err)
			method, path := f.Endpoint(tt.recordID)
			assert.Equal(t, tt.wantMethod, method)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestForm_TextFields(t *testing.T) {
	r := NewRegistry(nil, Limits{})
	upper := func(s string) string { return strings.ToUpper(s) }

	t.Run("广播派生字段", func(t *testing.T) {
		f, _ := r.Form(string(KindBroadcast))
		got := f.textFields(map[string]string{
			"notice_heading": "Heading",
			"notice_text":    "text",
			"expire_date":    "2026-11-01",
			"expire_time":    "18:30",
			"shared":         "all",
			"is_important":   "true",
			"swusers":        "4,5",
			"of_phase":       "pms",
		}, upper)
		assert.Equal(t, [][2]string{
			{"noticeboard[notice_heading]", "Heading"},
			{"noticeboard[notice_text]", "TEXT"},
			{"noticeboard[of_phase]", "pms"},
			{"noticeboard[swusers]", "4,5"},
			{"noticeboard[expire_time]", "2026-11-01T18:30"},
			{"noticeboard[shared]", "2"},
			{"noticeboard[is_important]", "1"},
		}, got)
	})

	t.Run("广播指定用户", func(t *testing.T) {
		f, _ := r.Form(string(KindBroadcast))
		got := f.textFields(map[string]string{"shared": "individual"}, upper)
		assert.Contains(t, got, [2]string{"noticeboard[shared]", "1"})
		assert.Contains(t, got, [2]string{"noticeboard[is_important]", "0"})
	})

	t.Run("活动分组列表", func(t *testing.T) {
		f, _ := r.Form(string(KindEvent))
		got := f.textFields(map[string]string{"event_name": "E", "shared": "all", "group_id": "3, 4,"}, upper)
		assert.Equal(t, [][2]string{
			{"event[event_name]", "E"},
			{"event[shared]", "0"},
			{"event[group_id][]", "3"},
			{"event[group_id][]", "4"},
		}, got)
	})
}

func TestValidateFieldName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"notice_heading", false},
		{"of_atype_id", false},
		{"", true},
		{"a]b", true},
		{"Upper", true},
		{"files_attached][", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFieldName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, constant.ErrBadRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistry_Widget(t *testing.T) {
	r := NewRegistry(nil, Limits{MaxImageBytes: 3 << 20, MaxVideoBytes: 10 << 20})

	w, err := r.Widget(string(KindEvent), "event_images")
	require.NoError(t, err)
	cfg := w.Config()
	assert.Equal(t, "Supports 16:9, 9:16, 1:1, 3:2 aspect ratios", cfg.Description)
	assert.True(t, cfg.AllowVideo)
	assert.Equal(t, "No valid event images selected.", cfg.EmptyContinueMessage)
	assert.Equal(t, []string{"16:9", "9:16", "1:1", "3:2"}, cfg.RatioFilter)

	_, err = r.Widget(string(KindEvent), "nope")
	assert.ErrorIs(t, err, constant.ErrNotFound)
	_, err = r.Widget("nope", "cover_image")
	assert.ErrorIs(t, err, constant.ErrNotFound)

	groups, err := r.Groups(string(KindBroadcast))
	require.NoError(t, err)
	assert.Equal(t, []string{"cover_image", "broadcast_images"}, groups)
}

func TestRegistry_UsesPresets(t *testing.T) {
	defaults := DefaultPresets()
	store, err := intake.NewPresetStore("", defaults)
	require.NoError(t, err)
	assert.Len(t, defaults, 5)
	assert.Equal(t, []string{"16:9", "9:16", "1:1", "3:2"}, defaults["testimonial"]["preview_image"])

	r := NewRegistry(store, Limits{})
	views, err := r.Views()
	require.NoError(t, err)
	require.Len(t, views, 5)
	assert.Equal(t, KindBroadcast, views[0].Kind)
	assert.False(t, views[0].Editable)
	assert.Equal(t, "files_attached", views[0].Groups[1].FlattenAs)
	assert.Len(t, views[0].Groups[0].Ratios, 4)
}
