// Package catalog defines the entities an indexing run produces: dataset
// records, failure records, run statistics, and the plaintext error log.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/paulmach/orb"
)

// GeometryKind distinguishes the two footprint shapes the pipeline emits.
type GeometryKind string

const (
	KindPoint   GeometryKind = "Point"
	KindPolygon GeometryKind = "Polygon"
)

// ISO8601 is the timestamp layout used in output properties and log lines.
const ISO8601 = "2006-01-02T15:04:05"

// DatasetRecord is one indexed dataset footprint.
//
// Geometry is always expressed in WGS84 by the time a record leaves the
// dispatcher. NativeCRS preserves the original EPSG code for provenance and
// is never overwritten after normalization.
type DatasetRecord struct {
	Kind            GeometryKind `json:"geometry_kind"`
	Geometry        orb.Geometry `json:"-"`
	DataType        string       `json:"data_type"`
	FileName        string       `json:"fname"`
	SourcePath      string       `json:"path"`
	NativeCRS       int          `json:"native_crs"`
	LastModified    time.Time    `json:"lastmod"`
	ImagePreviewURI string       `json:"img_popup,omitempty"`
}

// PathURI renders the source path as a file URI, matching the output schema.
func (r DatasetRecord) PathURI() string {
	return FileURI(r.SourcePath)
}

// LastModString renders the modification timestamp for output properties.
func (r DatasetRecord) LastModString() string {
	if r.LastModified.IsZero() {
		return ""
	}
	return r.LastModified.Format(ISO8601)
}

// FailureRecord describes one non-fatal extraction failure. Layer-scoped
// container failures carry LayerName; whole-file failures leave it empty.
type FailureRecord struct {
	UnitPath  string    `json:"unit_path"`
	LayerName string    `json:"layer_name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// NewFailure builds a whole-file failure record stamped with the current time.
func NewFailure(path, message string) FailureRecord {
	return FailureRecord{UnitPath: path, Timestamp: time.Now(), Message: message}
}

// NewLayerFailure builds a layer-scoped failure record.
func NewLayerFailure(path, layer, message string) FailureRecord {
	return FailureRecord{UnitPath: path, LayerName: layer, Timestamp: time.Now(), Message: message}
}

// LogLine renders the failure as one line of the plaintext error log.
func (f FailureRecord) LogLine() string {
	if f.LayerName != "" {
		return fmt.Sprintf("%s - %s - [%s | %s]", f.Timestamp.Format(ISO8601), f.Message, f.UnitPath, f.LayerName)
	}
	return fmt.Sprintf("%s - %s - [%s]", f.Timestamp.Format(ISO8601), f.Message, f.UnitPath)
}

// FileURI renders an absolute path as a file:/// URI.
func FileURI(path string) string {
	return "file:///" + filepath.ToSlash(path)
}

// ModTime returns a file's modification time, zero when unreadable.
func ModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
