package handlers

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3" // sqlite driver for GeoPackage reading
	"github.com/paulmach/orb"
	orbjson "github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/crs"
	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/geometry"
	"github.com/teranos/geodex/logger"
)

// ContainerHandler extracts footprints from multi-layer vector containers:
// GeoPackages, SQLite databases, Esri file geodatabases, KML/KMZ documents,
// and GeoJSON files. Database-backed containers yield one record per feature
// layer; document formats yield one record per file.
type ContainerHandler struct {
	norm  *crs.Normalizer
	tools *runner
	log   *zap.SugaredLogger
}

func (h *ContainerHandler) Extract(ctx context.Context, path string, opts Options) Result {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "gdb":
		return h.extractFGDB(ctx, path)
	case "gpkg":
		return h.extractDatabase(ctx, path, "GeoPackage Layer")
	case "db", "sqlite":
		return h.extractDatabase(ctx, path, "SQLite Database Layer")
	case "kml":
		return h.extractKML(path, opts)
	case "kmz":
		return h.extractKMZ(path, opts)
	case "json", "geojson":
		return h.extractGeoJSON(path, opts)
	default:
		return failure(path, errors.Wrapf(errors.ErrUnsupportedFormat, "%s", path).Error())
	}
}

// LayerNames lists the feature layers a container holds. Extraction walks
// the same listing, so the expected-total probe and the records it later
// produces always agree.
func (h *ContainerHandler) LayerNames(ctx context.Context, path string) ([]string, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "gdb":
		report, err := h.ogrReport(ctx, path)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(report.Layers))
		for _, l := range report.Layers {
			names = append(names, l.Name)
		}
		return names, nil
	case "gpkg", "db", "sqlite":
		return h.databaseLayerNames(ctx, path)
	default:
		// Document containers are a single dataset.
		return []string{filepath.Base(path)}, nil
	}
}

// LayerCount reports how many datasets a container contributes to the
// expected total. Containers that cannot be listed still count as one unit
// of work; the failure itself surfaces during extraction.
func (h *ContainerHandler) LayerCount(ctx context.Context, path string) int {
	names, err := h.LayerNames(ctx, path)
	if err != nil {
		h.log.Debugw("Layer probe failed, counting container as one dataset",
			logger.FieldPath, path,
			logger.FieldError, err,
		)
		return 1
	}
	if len(names) == 0 {
		return 1
	}
	return len(names)
}

// ---- GeoPackage / SQLite ----

const gpkgLayerSQL = `
SELECT c.table_name, c.min_x, c.min_y, c.max_x, c.max_y, s.organization_coordsys_id
FROM gpkg_contents c
JOIN gpkg_spatial_ref_sys s ON s.srs_id = c.srs_id
WHERE c.data_type = 'features'
ORDER BY c.table_name`

const gpkgNamesSQL = `
SELECT table_name FROM gpkg_contents WHERE data_type = 'features' ORDER BY table_name`

func openReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+filepath.ToSlash(path)+"?mode=ro")
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return db, nil
}

func (h *ContainerHandler) databaseLayerNames(ctx context.Context, path string) ([]string, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, gpkgNamesSQL)
	if err != nil {
		return nil, errors.Wrapf(err, "list layers of %s", path)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.WithStack(err)
		}
		names = append(names, name)
	}
	return names, errors.WithStack(rows.Err())
}

func (h *ContainerHandler) extractDatabase(ctx context.Context, path, dataType string) Result {
	db, err := openReadOnly(path)
	if err != nil {
		return failure(path, err.Error())
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, gpkgLayerSQL)
	if err != nil {
		return failure(path, errors.Wrapf(err, "read layer registry of %s", path).Error())
	}
	defer rows.Close()

	var res Result
	for rows.Next() {
		var (
			name                   string
			minX, minY, maxX, maxY sql.NullFloat64
			orgCode                sql.NullInt64
		)
		if err := rows.Scan(&name, &minX, &minY, &maxX, &maxY, &orgCode); err != nil {
			return failure(path, errors.Wrapf(err, "scan layer registry of %s", path).Error())
		}
		if !minX.Valid || !minY.Valid || !maxX.Valid || !maxY.Valid {
			res.Failures = append(res.Failures, catalog.NewLayerFailure(path, name, "layer registry carries no extent"))
			continue
		}
		if !orgCode.Valid || orgCode.Int64 <= 0 {
			res.Failures = append(res.Failures, catalog.NewLayerFailure(path, name,
				errors.Wrapf(errors.ErrNoCRS, "layer %s", name).Error()))
			continue
		}

		b := orb.Bound{
			Min: orb.Point{minX.Float64, minY.Float64},
			Max: orb.Point{maxX.Float64, maxY.Float64},
		}
		res.Records = append(res.Records, h.layerRecord(path, name, dataType, int(orgCode.Int64), b))
	}
	if err := rows.Err(); err != nil {
		return failure(path, errors.Wrapf(err, "read layer registry of %s", path).Error())
	}

	h.log.Debugw("Container extracted",
		logger.FieldPath, path,
		logger.FieldLayers, len(res.Records),
	)
	return res
}

// ---- Esri file geodatabase ----

type ogrLayerReport struct {
	Layers []struct {
		Name           string `json:"name"`
		GeometryFields []struct {
			Extent           []float64 `json:"extent"`
			CoordinateSystem struct {
				WKT string `json:"wkt"`
			} `json:"coordinateSystem"`
		} `json:"geometryFields"`
	} `json:"layers"`
}

func (h *ContainerHandler) ogrReport(ctx context.Context, path string) (*ogrLayerReport, error) {
	out, err := h.tools.run(ctx, h.tools.ogrinfo, "-json", "-so", path)
	if err != nil {
		return nil, err
	}
	var report ogrLayerReport
	if err := json.Unmarshal(out, &report); err != nil {
		return nil, errors.Wrapf(err, "parse ogrinfo output for %s", path)
	}
	return &report, nil
}

func (h *ContainerHandler) extractFGDB(ctx context.Context, path string) Result {
	report, err := h.ogrReport(ctx, path)
	if err != nil {
		return failure(path, err.Error())
	}

	var res Result
	for _, layer := range report.Layers {
		if len(layer.GeometryFields) == 0 || len(layer.GeometryFields[0].Extent) < 4 {
			res.Failures = append(res.Failures, catalog.NewLayerFailure(path, layer.Name, "layer has no spatial extent"))
			continue
		}
		field := layer.GeometryFields[0]
		epsg, ok := epsgFromWKT(field.CoordinateSystem.WKT)
		if !ok {
			res.Failures = append(res.Failures, catalog.NewLayerFailure(path, layer.Name,
				errors.Wrapf(errors.ErrNoCRS, "layer %s", layer.Name).Error()))
			continue
		}

		b := orb.Bound{
			Min: orb.Point{field.Extent[0], field.Extent[1]},
			Max: orb.Point{field.Extent[2], field.Extent[3]},
		}
		res.Records = append(res.Records, h.layerRecord(path, layer.Name, "Esri FGDB Feature Class", epsg, b))
	}

	h.log.Debugw("Geodatabase extracted",
		logger.FieldPath, path,
		logger.FieldLayers, len(res.Records),
	)
	return res
}

// ---- KML / KMZ ----

var kmlCoordinatesRe = regexp.MustCompile(`(?s)<coordinates[^>]*>(.*?)</coordinates>`)

func (h *ContainerHandler) extractKML(path string, opts Options) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return failure(path, errors.Wrapf(err, "read %s", path).Error())
	}
	return h.kmlResult(path, data, opts)
}

func (h *ContainerHandler) extractKMZ(path string, opts Options) Result {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return failure(path, errors.Wrapf(err, "open %s", path).Error())
	}
	defer archive.Close()

	for _, f := range archive.File {
		if !strings.EqualFold(filepath.Ext(f.Name), ".kml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return failure(path, errors.Wrapf(err, "read %s within %s", f.Name, path).Error())
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return failure(path, errors.Wrapf(err, "read %s within %s", f.Name, path).Error())
		}
		return h.kmlResult(path, data, opts)
	}
	return failure(path, "archive contains no KML document")
}

func (h *ContainerHandler) kmlResult(path string, data []byte, opts Options) Result {
	points := parseKMLCoordinates(data)
	if len(points) == 0 {
		return failure(path, errors.Wrapf(errors.ErrNoGeometry, "%s", path).Error())
	}
	return Result{Records: []catalog.DatasetRecord{h.documentRecord(path, "KML", points, opts)}}
}

// parseKMLCoordinates collects every vertex in the document's coordinates
// blocks. KML stores lon,lat[,alt] tuples separated by whitespace, always
// in WGS84.
func parseKMLCoordinates(data []byte) []orb.Point {
	var points []orb.Point
	for _, m := range kmlCoordinatesRe.FindAllSubmatch(data, -1) {
		for _, tuple := range strings.Fields(string(m[1])) {
			parts := strings.Split(tuple, ",")
			if len(parts) < 2 {
				continue
			}
			lon, errLon := strconv.ParseFloat(parts[0], 64)
			lat, errLat := strconv.ParseFloat(parts[1], 64)
			if errLon != nil || errLat != nil {
				continue
			}
			points = append(points, orb.Point{lon, lat})
		}
	}
	return points
}

// ---- GeoJSON ----

func (h *ContainerHandler) extractGeoJSON(path string, opts Options) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return failure(path, errors.Wrapf(err, "read %s", path).Error())
	}

	var points []orb.Point
	if fc, err := orbjson.UnmarshalFeatureCollection(data); err == nil {
		for _, f := range fc.Features {
			if f.Geometry != nil {
				points = append(points, geometry.Vertices(f.Geometry)...)
			}
		}
	} else if f, err := orbjson.UnmarshalFeature(data); err == nil {
		if f.Geometry != nil {
			points = geometry.Vertices(f.Geometry)
		}
	} else if g, err := orbjson.UnmarshalGeometry(data); err == nil {
		points = geometry.Vertices(g.Geometry())
	} else {
		return failure(path, errors.Wrapf(err, "parse %s", path).Error())
	}

	if len(points) == 0 {
		return failure(path, errors.Wrapf(errors.ErrNoGeometry, "%s", path).Error())
	}
	return Result{Records: []catalog.DatasetRecord{h.documentRecord(path, "GeoJSON", points, opts)}}
}

// ---- record construction ----

// layerRecord normalizes a layer's native-CRS extent and builds its
// polygon record. The layer name stands in as the dataset file name.
func (h *ContainerHandler) layerRecord(path, layerName, dataType string, epsg int, b orb.Bound) catalog.DatasetRecord {
	normalized, _ := h.norm.BoundToWGS84(epsg, b)
	return catalog.DatasetRecord{
		Kind:         catalog.KindPolygon,
		Geometry:     geometry.BoundPolygon(normalized),
		DataType:     dataType,
		FileName:     layerName,
		SourcePath:   path,
		NativeCRS:    epsg,
		LastModified: catalog.ModTime(path),
	}
}

// documentRecord builds the single record of a KML or GeoJSON document.
// Both formats carry WGS84 coordinates already.
func (h *ContainerHandler) documentRecord(path, dataType string, points []orb.Point, opts Options) catalog.DatasetRecord {
	var g orb.Geometry
	if opts.MinimumBoundingGeometry {
		g = geometry.MinimumBounding(points)
	} else {
		g = geometry.BoundPolygon(geometry.BoundOf(points))
	}
	return catalog.DatasetRecord{
		Kind:         catalog.KindPolygon,
		Geometry:     g,
		DataType:     dataType,
		FileName:     filepath.Base(path),
		SourcePath:   path,
		NativeCRS:    crs.TargetEPSG,
		LastModified: catalog.ModTime(path),
	}
}
