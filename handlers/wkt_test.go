package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEPSGFromWKT1(t *testing.T) {
	// Nested AUTHORITY nodes belong to the datum and spheroid; the final
	// one identifies the coordinate system itself.
	wkt := `PROJCS["WGS 84 / UTM zone 33N",
		GEOGCS["WGS 84",
			DATUM["WGS_1984",
				SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],
				AUTHORITY["EPSG","6326"]],
			AUTHORITY["EPSG","4326"]],
		AUTHORITY["EPSG","32633"]]`

	code, ok := epsgFromWKT(wkt)
	assert.True(t, ok)
	assert.Equal(t, 32633, code)
}

func TestEPSGFromWKT2(t *testing.T) {
	wkt := `PROJCRS["NZGD2000 / New Zealand Transverse Mercator 2000",
		BASEGEOGCRS["NZGD2000", ID["EPSG",4167]],
		ID["EPSG",2193]]`

	code, ok := epsgFromWKT(wkt)
	assert.True(t, ok)
	assert.Equal(t, 2193, code)
}

func TestEPSGFromWKTAbsent(t *testing.T) {
	_, ok := epsgFromWKT(`LOCAL_CS["arbitrary"]`)
	assert.False(t, ok)

	_, ok = epsgFromWKT("")
	assert.False(t, ok)
}
