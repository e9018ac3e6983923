package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()

	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	// VCS fallback or the "unknown" default, never empty.
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.Date)
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "v1.2.3", Commit: "0123456789abcdef", Date: "2026-08-28"}
	assert.Equal(t, "geodex v1.2.3 (commit 0123456, built 2026-08-28)", info.String())

	short := Info{Version: "dev", Commit: "abc", Date: "unknown"}
	assert.Equal(t, "geodex dev (commit abc, built unknown)", short.String())
}
