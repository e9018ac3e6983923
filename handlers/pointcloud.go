package handlers

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/crs"
	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/geometry"
	"github.com/teranos/geodex/logger"
)

// PointCloudHandler extracts footprints from LAS/LAZ point clouds by
// interrogating pdal. A cloud without a spatial reference cannot be placed
// and is reported as a failure.
type PointCloudHandler struct {
	norm  *crs.Normalizer
	tools *runner
	log   *zap.SugaredLogger
}

type pdalReport struct {
	Metadata struct {
		MinX                 float64 `json:"minx"`
		MinY                 float64 `json:"miny"`
		MaxX                 float64 `json:"maxx"`
		MaxY                 float64 `json:"maxy"`
		CompSpatialReference string  `json:"comp_spatialreference"`
		SpatialReference     string  `json:"spatialreference"`
	} `json:"metadata"`
}

func (h *PointCloudHandler) Extract(ctx context.Context, path string, _ Options) Result {
	out, err := h.tools.run(ctx, h.tools.pdal, "info", "--metadata", path)
	if err != nil {
		return failure(path, err.Error())
	}

	var report pdalReport
	if err := json.Unmarshal(out, &report); err != nil {
		return failure(path, errors.Wrapf(err, "parse pdal output for %s", path).Error())
	}

	wkt := report.Metadata.CompSpatialReference
	if wkt == "" {
		wkt = report.Metadata.SpatialReference
	}
	epsg, ok := epsgFromWKT(wkt)
	if !ok {
		return failure(path, errors.Wrapf(errors.ErrNoCRS, "%s", path).Error())
	}

	b := orb.Bound{
		Min: orb.Point{report.Metadata.MinX, report.Metadata.MinY},
		Max: orb.Point{report.Metadata.MaxX, report.Metadata.MaxY},
	}
	normalized, _ := h.norm.BoundToWGS84(epsg, b)

	h.log.Debugw("Point cloud extracted",
		logger.FieldPath, path,
		logger.FieldEPSG, epsg,
	)
	return Result{Records: []catalog.DatasetRecord{{
		Kind:         catalog.KindPolygon,
		Geometry:     geometry.BoundPolygon(normalized),
		DataType:     "Lidar",
		FileName:     filepath.Base(path),
		SourcePath:   path,
		NativeCRS:    epsg,
		LastModified: catalog.ModTime(path),
	}}}
}
