package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{"加粗", "**Pool closed**", []string{"<strong>Pool closed</strong>"}, nil},
		{"列表", "- a\n- b", []string{"<li>a</li>", "<li>b</li>"}, nil},
		{"脚本被移除", "hi <script>alert(1)</script>", []string{"hi"}, []string{"<script"}},
		{"事件属性被移除", `<a href="https://example.com" onclick="x()">link</a>`, []string{`href="https://example.com"`}, []string{"onclick"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarkdownToHTML(tt.input)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestSanitizeUGC(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"纯文本原样返回", `  Lift "B" under maintenance  `, `Lift "B" under maintenance`},
		{"移除脚本", `Water cut<script>alert(1)</script>`, "Water cut"},
		{"保留安全标签", `<b>Notice</b>`, "<b>Notice</b>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeUGC(tt.input))
		})
	}
}

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Tom & Jerry", StripHTML("<p>Tom &amp; Jerry</p>"))
}
