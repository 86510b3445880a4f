package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubBuildInfo(t *testing.T, info *debug.BuildInfo, ok bool) {
	t.Helper()
	orig := readBuildInfo
	origVersion, origCommit, origDate := Version, Commit, Date
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, ok }
	t.Cleanup(func() {
		readBuildInfo = orig
		Version, Commit, Date = origVersion, origCommit, origDate
	})
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		info    *debug.BuildInfo
		ok      bool
		want    string
	}{
		{
			name:    "ldflags 注入",
			version: "v1.2.0", commit: "abc1234", date: "2026-10-01",
			want: "v1.2.0, commit abc1234, built at 2026-10-01",
		},
		{
			name:    "读取 vcs 信息",
			version: "dev", commit: "unknown", date: "unknown",
			info: &debug.BuildInfo{
				Main: debug.Module{Version: "(devel)"},
				Settings: []debug.BuildSetting{
					{Key: "vcs.revision", Value: "0123456789abcdef"},
					{Key: "vcs.time", Value: "2026-10-02T08:30:00Z"},
				},
			},
			ok:   true,
			want: "dev, commit 0123456, built at 2026-10-02 08:30:00",
		},
		{
			name:    "没有构建信息",
			version: "dev", commit: "unknown", date: "unknown",
			want: "unknown (no build info)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubBuildInfo(t, tt.info, tt.ok)
			Version, Commit, Date = tt.version, tt.commit, tt.date
			assert.Equal(t, tt.want, GetVersionString())
		})
	}
}
