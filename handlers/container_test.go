package handlers

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teranos/geodex/crs"
	gtest "github.com/teranos/geodex/internal/testing"
)

func testContainerHandler(t *testing.T) *ContainerHandler {
	t.Helper()
	return &ContainerHandler{
		norm:  crs.New(nil),
		tools: testRunner(t),
		log:   zap.NewNop().Sugar(),
	}
}

// writeGeoPackage creates a minimal GeoPackage registry with one healthy
// feature layer, one tile layer, one layer without an extent, and one layer
// without a usable CRS.
func writeGeoPackage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.gpkg")
	gtest.CreateGeoPackage(t, path,
		gtest.FeatureLayer("roads"),
		gtest.LayerRow{Name: "basemap", DataType: "tiles", SRSID: 4326},
		gtest.LayerRow{Name: "empty_layer", DataType: "features", NoExtent: true, SRSID: 4326},
		gtest.LayerRow{Name: "unplaced", DataType: "features", SRSID: -1},
	)
	return path
}

func TestContainerDatabaseExtract(t *testing.T) {
	h := testContainerHandler(t)
	path := writeGeoPackage(t)

	res := h.Extract(context.Background(), path, Options{})

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "roads", rec.FileName)
	assert.Equal(t, "GeoPackage Layer", rec.DataType)
	assert.Equal(t, 4326, rec.NativeCRS)
	assert.Equal(t, path, rec.SourcePath)

	poly, ok := rec.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, orb.Point{5.9, 45.8}, poly.Bound().Min)
	assert.Equal(t, orb.Point{10.5, 47.8}, poly.Bound().Max)

	// The extent-less layer and the CRS-less layer each fail individually.
	require.Len(t, res.Failures, 2)
	assert.Equal(t, "empty_layer", res.Failures[0].LayerName)
	assert.Equal(t, "unplaced", res.Failures[1].LayerName)
	for _, f := range res.Failures {
		assert.Equal(t, path, f.UnitPath)
	}
}

func TestContainerDatabaseDataTypeByExtension(t *testing.T) {
	h := testContainerHandler(t)
	gpkg := writeGeoPackage(t)

	sqlitePath := filepath.Join(t.TempDir(), "fixtures.sqlite")
	data, err := os.ReadFile(gpkg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(sqlitePath, data, 0o644))

	res := h.Extract(context.Background(), sqlitePath, Options{})
	require.Len(t, res.Records, 1)
	assert.Equal(t, "SQLite Database Layer", res.Records[0].DataType)
}

func TestContainerLayerNamesAndCount(t *testing.T) {
	h := testContainerHandler(t)
	path := writeGeoPackage(t)

	names, err := h.LayerNames(context.Background(), path)
	require.NoError(t, err)
	// Every feature layer counts toward the expected total, including the
	// two that later fail extraction.
	assert.Equal(t, []string{"empty_layer", "roads", "unplaced"}, names)
	assert.Equal(t, 3, h.LayerCount(context.Background(), path))
}

func TestContainerLayerCountUnreadable(t *testing.T) {
	h := testContainerHandler(t)
	path := filepath.Join(t.TempDir(), "broken.gpkg")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	// An unlistable container still occupies one unit of expected work.
	assert.Equal(t, 1, h.LayerCount(context.Background(), path))
}

func TestContainerCorruptDatabase(t *testing.T) {
	h := testContainerHandler(t)
	path := filepath.Join(t.TempDir(), "broken.gpkg")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	res := h.Extract(context.Background(), path, Options{})
	assert.Empty(t, res.Records)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, path, res.Failures[0].UnitPath)
}

const kmlFixture = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <Point><coordinates>8.55,47.37,408</coordinates></Point>
    </Placemark>
    <Placemark>
      <LineString>
        <coordinates>
          8.54,47.36,0 8.56,47.38,0
          8.57,47.35,0
        </coordinates>
      </LineString>
    </Placemark>
  </Document>
</kml>`

func TestParseKMLCoordinates(t *testing.T) {
	points := parseKMLCoordinates([]byte(kmlFixture))
	require.Len(t, points, 4)
	assert.Equal(t, orb.Point{8.55, 47.37}, points[0])
	assert.Equal(t, orb.Point{8.57, 47.35}, points[3])
}

func TestContainerKML(t *testing.T) {
	h := testContainerHandler(t)
	path := filepath.Join(t.TempDir(), "sites.kml")
	require.NoError(t, os.WriteFile(path, []byte(kmlFixture), 0o644))

	res := h.Extract(context.Background(), path, Options{})
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "KML", rec.DataType)
	assert.Equal(t, "sites.kml", rec.FileName)
	assert.Equal(t, crs.TargetEPSG, rec.NativeCRS)

	b := rec.Geometry.Bound()
	assert.InDelta(t, 8.54, b.Min[0], 1e-9)
	assert.InDelta(t, 47.38, b.Max[1], 1e-9)
}

func TestContainerKMLNoCoordinates(t *testing.T) {
	h := testContainerHandler(t)
	path := filepath.Join(t.TempDir(), "empty.kml")
	require.NoError(t, os.WriteFile(path, []byte(`<kml><Document/></kml>`), 0o644))

	res := h.Extract(context.Background(), path, Options{})
	assert.Empty(t, res.Records)
	require.Len(t, res.Failures, 1)
}

func TestContainerKMZ(t *testing.T) {
	h := testContainerHandler(t)
	path := filepath.Join(t.TempDir(), "sites.kmz")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("doc.kml")
	require.NoError(t, err)
	_, err = w.Write([]byte(kmlFixture))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	res := h.Extract(context.Background(), path, Options{})
	require.Len(t, res.Records, 1)
	assert.Equal(t, "KML", res.Records[0].DataType)
	assert.Equal(t, "sites.kmz", res.Records[0].FileName)
}

func TestContainerGeoJSON(t *testing.T) {
	h := testContainerHandler(t)
	path := filepath.Join(t.TempDir(), "areas.geojson")
	fixture := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {},
			 "geometry": {"type": "Polygon", "coordinates": [[[7,46],[9,46],[9,48],[7,48],[7,46]]]}},
			{"type": "Feature", "properties": {},
			 "geometry": {"type": "Point", "coordinates": [10, 45]}}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	res := h.Extract(context.Background(), path, Options{})
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "GeoJSON", rec.DataType)

	b := rec.Geometry.Bound()
	assert.Equal(t, orb.Point{7, 45}, b.Min)
	assert.Equal(t, orb.Point{10, 48}, b.Max)
}

func TestContainerGeoJSONMinimumBounding(t *testing.T) {
	h := testContainerHandler(t)
	path := filepath.Join(t.TempDir(), "areas.geojson")
	fixture := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {},
			 "geometry": {"type": "MultiPoint", "coordinates": [[0,0],[4,0],[2,3],[2,1]]}}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	res := h.Extract(context.Background(), path, Options{MinimumBoundingGeometry: true})
	require.Len(t, res.Records, 1)

	poly, ok := res.Records[0].Geometry.(orb.Polygon)
	require.True(t, ok)
	// The interior point is dropped by the hull: three corners plus closure.
	assert.Len(t, poly[0], 4)
}

func TestContainerGeoJSONInvalid(t *testing.T) {
	h := testContainerHandler(t)
	path := filepath.Join(t.TempDir(), "broken.geojson")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "Telemetry"}`), 0o644))

	res := h.Extract(context.Background(), path, Options{})
	assert.Empty(t, res.Records)
	require.Len(t, res.Failures, 1)
}

func TestContainerFGDB(t *testing.T) {
	output := `{
		"layers": [
			{
				"name": "parcels",
				"geometryFields": [{
					"extent": [2600000.0, 1199000.0, 2610000.0, 1210000.0],
					"coordinateSystem": {"wkt": "PROJCRS[\"CH1903+ / LV95\", ID[\"EPSG\",2056]]"}
				}]
			},
			{
				"name": "attributes_only",
				"geometryFields": []
			}
		]
	}`

	h := testContainerHandler(t)
	h.tools.ogrinfo = fakeTool(t, output)
	path := filepath.Join(t.TempDir(), "survey.gdb")

	res := h.Extract(context.Background(), path, Options{})
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "Esri FGDB Feature Class", rec.DataType)
	assert.Equal(t, "parcels", rec.FileName)
	assert.Equal(t, 2056, rec.NativeCRS)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "attributes_only", res.Failures[0].LayerName)

	names, err := h.LayerNames(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"parcels", "attributes_only"}, names)
}

func TestContainerUnsupportedExtension(t *testing.T) {
	h := testContainerHandler(t)
	res := h.Extract(context.Background(), "/data/archive.tar", Options{})
	assert.Empty(t, res.Records)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Message, "unsupported format")
}
