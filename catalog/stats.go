package catalog

import "math"

// Category identifies the broad format family of a candidate file.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryContainer
	CategoryImage
	CategoryPointCloud
	CategoryRaster
	CategoryShapefile
)

func (c Category) String() string {
	switch c {
	case CategoryContainer:
		return "container"
	case CategoryImage:
		return "image"
	case CategoryPointCloud:
		return "pointcloud"
	case CategoryRaster:
		return "raster"
	case CategoryShapefile:
		return "shapefile"
	default:
		return "unknown"
	}
}

// RunStats accumulates per-category success counters for one indexing run.
// Counters only ever increase; guard with the aggregator's lock when
// dispatch runs in parallel.
type RunStats struct {
	RunID string `json:"run_id"`

	ContainerLayers int `json:"container_layers"`
	WebImages       int `json:"web_images"`
	PointClouds     int `json:"point_clouds"`
	Rasters         int `json:"rasters"`
	Shapefiles      int `json:"shapefiles"`

	// TotalExpected is computed up front during the collecting phase and
	// includes per-container layer counts.
	TotalExpected  int `json:"total_datasets"`
	TotalProcessed int `json:"total_processed"`

	LogFileURI string `json:"logfile,omitempty"`
}

// Count adds n successful datasets to the category's counter. Unknown
// categories are ignored; the dispatcher never emits them.
func (s *RunStats) Count(c Category, n int) {
	switch c {
	case CategoryUnknown:
		return
	case CategoryContainer:
		s.ContainerLayers += n
	case CategoryImage:
		s.WebImages += n
	case CategoryPointCloud:
		s.PointClouds += n
	case CategoryRaster:
		s.Rasters += n
	case CategoryShapefile:
		s.Shapefiles += n
	}
	s.TotalProcessed += n
}

// SuccessRate returns processed/expected as a percentage rounded to two
// decimals. Callers must not ask before TotalExpected is known; a run with
// zero expected datasets aborts before statistics are computed.
func (s *RunStats) SuccessRate() float64 {
	if s.TotalExpected == 0 {
		return 0
	}
	rate := float64(s.TotalProcessed) / float64(s.TotalExpected) * 100.0
	return math.Round(rate*100) / 100
}
