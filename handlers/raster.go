package handlers

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/crs"
	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/geometry"
	"github.com/teranos/geodex/logger"
)

// RasterHandler extracts footprints from gridded imagery (GeoTIFF, NITF,
// DTED) by interrogating gdalinfo. Rasters without an embedded coordinate
// system fall back to the NITF IGEOLO corner block when present.
type RasterHandler struct {
	norm  *crs.Normalizer
	tools *runner
	log   *zap.SugaredLogger
}

type gdalReport struct {
	CoordinateSystem struct {
		WKT string `json:"wkt"`
	} `json:"coordinateSystem"`
	CornerCoordinates map[string][]float64         `json:"cornerCoordinates"`
	Metadata          map[string]map[string]string `json:"metadata"`
}

func (h *RasterHandler) Extract(ctx context.Context, path string, _ Options) Result {
	out, err := h.tools.run(ctx, h.tools.gdalinfo, "-json", path)
	if err != nil {
		return failure(path, err.Error())
	}

	var report gdalReport
	if err := json.Unmarshal(out, &report); err != nil {
		return failure(path, errors.Wrapf(err, "parse gdalinfo output for %s", path).Error())
	}

	dataType := rasterDataType(path)

	if epsg, ok := epsgFromWKT(report.CoordinateSystem.WKT); ok {
		b, ok := cornerBound(report.CornerCoordinates)
		if !ok {
			return failure(path, "raster reports no corner coordinates")
		}
		normalized, _ := h.norm.BoundToWGS84(epsg, b)
		h.log.Debugw("Raster extracted",
			logger.FieldPath, path,
			logger.FieldEPSG, epsg,
		)
		return Result{Records: []catalog.DatasetRecord{{
			Kind:         catalog.KindPolygon,
			Geometry:     geometry.BoundPolygon(normalized),
			DataType:     dataType,
			FileName:     filepath.Base(path),
			SourcePath:   path,
			NativeCRS:    epsg,
			LastModified: catalog.ModTime(path),
		}}}
	}

	// NITF imagery frequently omits the coordinate system but carries its
	// geographic corner fix in the IGEOLO header field.
	if igeolo, ok := report.Metadata[""]["NITF_IGEOLO"]; ok {
		ring, err := igeoloRing(igeolo)
		if err != nil {
			return failure(path, err.Error())
		}
		h.log.Debugw("Raster extracted from IGEOLO corners", logger.FieldPath, path)
		return Result{Records: []catalog.DatasetRecord{{
			Kind:         catalog.KindPolygon,
			Geometry:     orb.Polygon{ring},
			DataType:     dataType,
			FileName:     filepath.Base(path),
			SourcePath:   path,
			NativeCRS:    crs.TargetEPSG,
			LastModified: catalog.ModTime(path),
		}}}
	}

	return failure(path, errors.Wrapf(errors.ErrNoCRS, "%s", path).Error())
}

// cornerBound assembles the raster extent from gdalinfo's corner listing.
func cornerBound(corners map[string][]float64) (orb.Bound, bool) {
	required := []string{"upperLeft", "lowerLeft", "lowerRight", "upperRight"}
	points := make([]orb.Point, 0, len(required))
	for _, name := range required {
		c, ok := corners[name]
		if !ok || len(c) < 2 {
			return orb.Bound{}, false
		}
		points = append(points, orb.Point{c[0], c[1]})
	}
	return geometry.BoundOf(points), true
}

// igeoloRing decodes the 60-character IGEOLO block: four geographic corners
// of fifteen characters each (ddmmssXdddmmssY), upper-left first, clockwise.
func igeoloRing(igeolo string) (orb.Ring, error) {
	igeolo = strings.TrimSpace(igeolo)
	if len(igeolo) != 60 {
		return nil, errors.Newf("IGEOLO block has %d characters, want 60", len(igeolo))
	}
	ring := make(orb.Ring, 0, 5)
	for i := 0; i < 60; i += 15 {
		lat, lon, err := geometry.DMSToDD(igeolo[i : i+15])
		if err != nil {
			return nil, errors.Wrapf(err, "IGEOLO corner %d", i/15+1)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	ring = append(ring, ring[0])
	return ring, nil
}

func rasterDataType(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "dt0", "dt1", "dt2":
		return "DTED"
	case "ntf", "nitf":
		return "NITF"
	default:
		return "Raster"
	}
}
