// Package testing provides shared fixtures for geodex tests.
package testing

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// LayerRow describes one gpkg_contents entry of a fixture GeoPackage.
type LayerRow struct {
	Name     string
	DataType string // "features" or "tiles"
	// NoExtent leaves the min/max columns NULL.
	NoExtent bool
	// SRSID selects the spatial reference: 4326 or -1 (undefined).
	SRSID int
}

// FeatureLayer is a healthy WGS84 feature layer row.
func FeatureLayer(name string) LayerRow {
	return LayerRow{Name: name, DataType: "features", SRSID: 4326}
}

// CreateGeoPackage writes a minimal GeoPackage registry at path holding the
// given layers. Healthy layers carry a fixed alpine extent.
func CreateGeoPackage(t *testing.T, path string, layers ...LayerRow) {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Failed to create fixture geopackage: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE gpkg_spatial_ref_sys (
			srs_name TEXT, srs_id INTEGER PRIMARY KEY,
			organization TEXT, organization_coordsys_id INTEGER,
			definition TEXT, description TEXT)`,
		`INSERT INTO gpkg_spatial_ref_sys VALUES
			('WGS 84', 4326, 'EPSG', 4326, 'GEOGCS[...]', NULL),
			('Undefined', -1, 'NONE', -1, 'undefined', NULL)`,
		`CREATE TABLE gpkg_contents (
			table_name TEXT PRIMARY KEY, data_type TEXT,
			identifier TEXT, description TEXT, last_change TEXT,
			min_x REAL, min_y REAL, max_x REAL, max_y REAL, srs_id INTEGER)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to prepare fixture geopackage: %v", err)
		}
	}

	insert := `INSERT INTO gpkg_contents VALUES (?, ?, ?, '', '2025-01-01', ?, ?, ?, ?, ?)`
	for _, l := range layers {
		var minX, minY, maxX, maxY interface{}
		if !l.NoExtent {
			minX, minY, maxX, maxY = 5.9, 45.8, 10.5, 47.8
		}
		if _, err := db.Exec(insert, l.Name, l.DataType, l.Name, minX, minY, maxX, maxY, l.SRSID); err != nil {
			t.Fatalf("Failed to insert fixture layer %s: %v", l.Name, err)
		}
	}
}
