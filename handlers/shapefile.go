package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/crs"
	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/geometry"
	"github.com/teranos/geodex/logger"
)

// ShapefileHandler extracts footprints from Esri shapefiles. The .shp header
// carries the extent; the sidecar .prj carries the coordinate system. A
// shapefile without a resolvable .prj cannot be placed and fails whole.
type ShapefileHandler struct {
	norm *crs.Normalizer
	log  *zap.SugaredLogger
}

func (h *ShapefileHandler) Extract(_ context.Context, path string, opts Options) Result {
	epsg, err := shapefileEPSG(path)
	if err != nil {
		return failure(path, err.Error())
	}

	reader, err := shp.Open(path)
	if err != nil {
		return failure(path, errors.Wrapf(err, "open %s", path).Error())
	}
	defer reader.Close()

	var g orb.Geometry
	if opts.MinimumBoundingGeometry {
		points := readShapeVertices(reader)
		if len(points) == 0 {
			return failure(path, errors.Wrapf(errors.ErrNoGeometry, "%s", path).Error())
		}
		g = geometry.MinimumBounding(points)
		normalized, _ := h.norm.ToWGS84(epsg, g)
		g = normalized
	} else {
		box := reader.BBox()
		b := orb.Bound{
			Min: orb.Point{box.MinX, box.MinY},
			Max: orb.Point{box.MaxX, box.MaxY},
		}
		normalized, _ := h.norm.BoundToWGS84(epsg, b)
		g = geometry.BoundPolygon(normalized)
	}

	h.log.Debugw("Shapefile extracted",
		logger.FieldPath, path,
		logger.FieldEPSG, epsg,
	)
	return Result{Records: []catalog.DatasetRecord{{
		Kind:         catalog.KindPolygon,
		Geometry:     g,
		DataType:     "Shapefile",
		FileName:     filepath.Base(path),
		SourcePath:   path,
		NativeCRS:    epsg,
		LastModified: catalog.ModTime(path),
	}}}
}

// shapefileEPSG resolves the coordinate system from the sidecar .prj file.
func shapefileEPSG(path string) (int, error) {
	prj := strings.TrimSuffix(path, filepath.Ext(path)) + ".prj"
	data, err := os.ReadFile(prj)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrNoCRS, "missing projection sidecar %s", prj)
	}
	epsg, ok := epsgFromWKT(string(data))
	if !ok {
		return 0, errors.Wrapf(errors.ErrNoCRS, "projection sidecar %s names no EPSG code", prj)
	}
	return epsg, nil
}

// readShapeVertices walks every feature and collects its vertices.
func readShapeVertices(reader *shp.Reader) []orb.Point {
	var points []orb.Point
	for reader.Next() {
		_, shape := reader.Shape()
		points = append(points, shapeVertices(shape)...)
	}
	return points
}

func shapeVertices(shape shp.Shape) []orb.Point {
	switch v := shape.(type) {
	case *shp.Point:
		return []orb.Point{{v.X, v.Y}}
	case *shp.PointZ:
		return []orb.Point{{v.X, v.Y}}
	case *shp.PointM:
		return []orb.Point{{v.X, v.Y}}
	case *shp.MultiPoint:
		return shpPoints(v.Points)
	case *shp.MultiPointZ:
		return shpPoints(v.Points)
	case *shp.MultiPointM:
		return shpPoints(v.Points)
	case *shp.PolyLine:
		return shpPoints(v.Points)
	case *shp.PolyLineZ:
		return shpPoints(v.Points)
	case *shp.PolyLineM:
		return shpPoints(v.Points)
	case *shp.Polygon:
		return shpPoints(v.Points)
	case *shp.PolygonZ:
		return shpPoints(v.Points)
	case *shp.PolygonM:
		return shpPoints(v.Points)
	default:
		// Null shapes and exotic types contribute nothing.
		return nil
	}
}

func shpPoints(pts []shp.Point) []orb.Point {
	out := make([]orb.Point, len(pts))
	for i, p := range pts {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}
