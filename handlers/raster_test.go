package handlers

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teranos/geodex/crs"
)

func testRasterHandler(t *testing.T, toolOutput string) *RasterHandler {
	t.Helper()
	r := testRunner(t)
	r.gdalinfo = fakeTool(t, toolOutput)
	return &RasterHandler{norm: crs.New(nil), tools: r, log: zap.NewNop().Sugar()}
}

func TestRasterExtractProjected(t *testing.T) {
	output := `{
		"coordinateSystem": {"wkt": "PROJCS[\"WGS 84 / Pseudo-Mercator\", AUTHORITY[\"EPSG\",\"3857\"]]"},
		"cornerCoordinates": {
			"upperLeft":  [950000.0, 6000000.0],
			"lowerLeft":  [950000.0, 5980000.0],
			"lowerRight": [960000.0, 5980000.0],
			"upperRight": [960000.0, 6000000.0]
		}
	}`

	h := testRasterHandler(t, output)
	res := h.Extract(context.Background(), "/data/ortho.tif", Options{})

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "Raster", rec.DataType)
	assert.Equal(t, "ortho.tif", rec.FileName)
	assert.Equal(t, 3857, rec.NativeCRS)

	// Web-Mercator corners land near Zurich once normalized.
	b := rec.Geometry.Bound()
	assert.InDelta(t, 8.53, b.Min[0], 0.1)
	assert.InDelta(t, 47.3, b.Min[1], 0.2)
}

func TestRasterExtractIGEOLOFallback(t *testing.T) {
	output := `{
		"coordinateSystem": {"wkt": ""},
		"metadata": {"": {"NITF_IGEOLO": "330000N1170000W330000N1160000W320000N1160000W320000N1170000W"}}
	}`

	h := testRasterHandler(t, output)
	res := h.Extract(context.Background(), "/data/frame.ntf", Options{})

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, "NITF", rec.DataType)
	assert.Equal(t, crs.TargetEPSG, rec.NativeCRS)

	poly, ok := rec.Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly[0], 5)
	assert.Equal(t, orb.Point{-117, 33}, poly[0][0])
	assert.Equal(t, orb.Point{-116, 32}, poly[0][2])
}

func TestRasterExtractNoCRS(t *testing.T) {
	h := testRasterHandler(t, `{"coordinateSystem": {"wkt": ""}}`)
	res := h.Extract(context.Background(), "/data/scan.tif", Options{})

	assert.Empty(t, res.Records)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Message, "no coordinate reference system")
}

func TestRasterExtractToolFailure(t *testing.T) {
	r := testRunner(t)
	r.gdalinfo = failingTool(t, "ERROR 4: not recognized as a supported file format")
	h := &RasterHandler{norm: crs.New(nil), tools: r, log: zap.NewNop().Sugar()}

	res := h.Extract(context.Background(), "/data/scan.tif", Options{})
	assert.Empty(t, res.Records)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Message, "ERROR 4")
}

func TestIGEOLORingMalformed(t *testing.T) {
	_, err := igeoloRing("too short")
	assert.Error(t, err)

	_, err = igeoloRing("33XX00N1170000W330000N1160000W320000N1160000W320000N1170000W")
	assert.Error(t, err)
}

func TestRasterDataType(t *testing.T) {
	assert.Equal(t, "DTED", rasterDataType("/data/n33.dt2"))
	assert.Equal(t, "NITF", rasterDataType("/data/frame.NITF"))
	assert.Equal(t, "Raster", rasterDataType("/data/ortho.tif"))
}
