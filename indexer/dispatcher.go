// Package indexer orchestrates one indexing run: crawl the input tree,
// dispatch every candidate to its format handler, and aggregate the
// resulting records, failures, and statistics.
package indexer

import (
	"context"
	"path/filepath"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/handlers"
	"github.com/teranos/geodex/logger"
)

// categoryByExt routes candidate extensions to their format family. The
// crawler's allow-list is derived from configuration, so an unknown
// extension here means the allow-list was widened without a handler.
var categoryByExt = map[string]catalog.Category{
	"gdb":     catalog.CategoryContainer,
	"gpkg":    catalog.CategoryContainer,
	"db":      catalog.CategoryContainer,
	"sqlite":  catalog.CategoryContainer,
	"kml":     catalog.CategoryContainer,
	"kmz":     catalog.CategoryContainer,
	"json":    catalog.CategoryContainer,
	"geojson": catalog.CategoryContainer,
	"jpg":     catalog.CategoryImage,
	"jpeg":    catalog.CategoryImage,
	"las":     catalog.CategoryPointCloud,
	"laz":     catalog.CategoryPointCloud,
	"tif":     catalog.CategoryRaster,
	"tiff":    catalog.CategoryRaster,
	"ntf":     catalog.CategoryRaster,
	"nitf":    catalog.CategoryRaster,
	"dt0":     catalog.CategoryRaster,
	"dt1":     catalog.CategoryRaster,
	"dt2":     catalog.CategoryRaster,
	"shp":     catalog.CategoryShapefile,
}

// CategoryOf returns the format family a path belongs to.
func CategoryOf(path string) catalog.Category {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return categoryByExt[ext]
}

// Dispatcher routes one candidate file to its handler. A panicking handler
// is converted into a failure record for that file; one corrupt input never
// takes the run down.
type Dispatcher struct {
	handlers *handlers.Set
	log      *zap.SugaredLogger
}

// NewDispatcher wires a dispatcher over a handler set.
func NewDispatcher(set *handlers.Set, log *zap.SugaredLogger) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{handlers: set, log: log.Named("dispatch")}
}

// Dispatch extracts one candidate and reports its category alongside the
// outcome. Unknown categories yield an empty result.
func (d *Dispatcher) Dispatch(ctx context.Context, path string, opts handlers.Options) (cat catalog.Category, res handlers.Result) {
	cat = CategoryOf(path)

	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("Handler panicked",
				logger.FieldPath, path,
				logger.FieldError, r,
			)
			d.log.Debugf("panic stack:\n%s", debug.Stack())
			res = handlers.Result{Failures: []catalog.FailureRecord{
				catalog.NewFailure(path, "internal extraction fault"),
			}}
		}
	}()

	switch cat {
	case catalog.CategoryContainer:
		res = d.handlers.Container.Extract(ctx, path, opts)
	case catalog.CategoryImage:
		res = d.handlers.Image.Extract(ctx, path, opts)
	case catalog.CategoryPointCloud:
		res = d.handlers.PointCloud.Extract(ctx, path, opts)
	case catalog.CategoryRaster:
		res = d.handlers.Raster.Extract(ctx, path, opts)
	case catalog.CategoryShapefile:
		res = d.handlers.Shapefile.Extract(ctx, path, opts)
	default:
		d.log.Debugw("No handler for candidate, skipping", logger.FieldPath, path)
	}
	return cat, res
}
