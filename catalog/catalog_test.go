package catalog

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessRate(t *testing.T) {
	tests := []struct {
		name      string
		processed int
		expected  int
		want      float64
	}{
		{"all processed", 3, 3, 100.0},
		{"two of three", 2, 3, 66.67},
		{"none processed", 0, 5, 0.0},
		{"zero expected", 0, 0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := RunStats{TotalProcessed: tt.processed, TotalExpected: tt.expected}
			got := s.SuccessRate()
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestStatsCount(t *testing.T) {
	var s RunStats
	s.Count(CategoryContainer, 2)
	s.Count(CategoryRaster, 1)
	s.Count(CategoryUnknown, 5) // ignored

	assert.Equal(t, 2, s.ContainerLayers)
	assert.Equal(t, 1, s.Rasters)
	assert.Equal(t, 3, s.TotalProcessed)
}

func TestFailureLogLine(t *testing.T) {
	ts := time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)

	f := FailureRecord{UnitPath: "/data/roads.gdb", Timestamp: ts, Message: "cannot open"}
	assert.Equal(t, "2026-08-27T10:30:00 - cannot open - [/data/roads.gdb]", f.LogLine())

	f.LayerName = "centerlines"
	assert.Equal(t, "2026-08-27T10:30:00 - cannot open - [/data/roads.gdb | centerlines]", f.LogLine())
}

func TestRecordURIs(t *testing.T) {
	r := DatasetRecord{
		Kind:       KindPolygon,
		Geometry:   orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		SourcePath: "/srv/gis/dem.tif",
	}
	assert.Equal(t, "file:////srv/gis/dem.tif", r.PathURI())
	assert.Equal(t, "", r.LastModString())

	r.LastModified = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2025-01-02T03:04:05", r.LastModString())
}

func TestErrorLogWriteTo(t *testing.T) {
	var l ErrorLog
	l.Record(NewFailure("/data/bad.las", "no CRS"))
	l.Warnf("reprojection failed for EPSG:%d", 102100)
	require.Equal(t, 2, l.Len())

	dir := t.TempDir()
	uri, err := l.WriteTo(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file:///"))
	assert.Contains(t, uri, "geodex_")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(dir + "/" + entries[0].Name())
	require.NoError(t, err)
	assert.Contains(t, string(data), "no CRS")
	assert.Contains(t, string(data), "EPSG:102100")
}
