// Package handlers extracts normalized spatial footprints from the supported
// format families: vector containers, rasters, point clouds, shapefiles, and
// geotagged images.
//
// Every handler implements the Extractor capability. Handlers never abort a
// run: anything that goes wrong with one file (or one container layer) is
// reported as a FailureRecord in the result.
package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/config"
	"github.com/teranos/geodex/crs"
)

// Options controls footprint extraction behavior.
type Options struct {
	// MinimumBoundingGeometry computes a convex hull instead of the bounding
	// envelope wherever the source exposes feature vertices. The hull falls
	// back to the envelope when it degenerates to a point or line.
	MinimumBoundingGeometry bool
}

// Result is the outcome of extracting one unit of work. Container files may
// produce multiple records and failures; every other handler produces at
// most one of each.
type Result struct {
	Records  []catalog.DatasetRecord
	Failures []catalog.FailureRecord
}

func (r *Result) merge(other Result) {
	r.Records = append(r.Records, other.Records...)
	r.Failures = append(r.Failures, other.Failures...)
}

func failure(path, message string) Result {
	return Result{Failures: []catalog.FailureRecord{catalog.NewFailure(path, message)}}
}

// Extractor is the common extraction capability of all format handlers.
type Extractor interface {
	Extract(ctx context.Context, path string, opts Options) Result
}

// Set bundles one handler per supported format family.
type Set struct {
	Container  *ContainerHandler
	Raster     *RasterHandler
	PointCloud *PointCloudHandler
	Shapefile  *ShapefileHandler
	Image      *ImageHandler
}

// NewSet wires the handlers against a shared normalizer and tool runner.
func NewSet(cfg *config.Config, norm *crs.Normalizer, log *zap.SugaredLogger) *Set {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	runner := newRunner(cfg.Tools, log)

	return &Set{
		Container:  &ContainerHandler{norm: norm, tools: runner, log: log.Named("handlers.container")},
		Raster:     &RasterHandler{norm: norm, tools: runner, log: log.Named("handlers.raster")},
		PointCloud: &PointCloudHandler{norm: norm, tools: runner, log: log.Named("handlers.pointcloud")},
		Shapefile:  &ShapefileHandler{norm: norm, log: log.Named("handlers.shapefile")},
		Image:      &ImageHandler{log: log.Named("handlers.image")},
	}
}
