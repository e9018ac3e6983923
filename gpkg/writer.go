// Package gpkg persists indexed footprints as layers of a GeoPackage, and
// optionally as a flat GeoJSON document.
//
// GeoPackages are plain SQLite databases with a small registry (OGC 12-128r19),
// so writing goes straight through the sqlite driver instead of shelling out
// to a conversion tool.
package gpkg

import (
	"bytes"
	"database/sql"
	"encoding/binary"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/crs"
	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/logger"
)

const geomColumn = "geom"

// Writer appends feature layers to one GeoPackage file, creating it and its
// registry tables on first use.
type Writer struct {
	db   *sql.DB
	path string
	log  *zap.SugaredLogger
}

// Create opens (or creates) the GeoPackage at path and ensures the registry
// tables exist.
func Create(path string, log *zap.SugaredLogger) (*Writer, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open geopackage %s", path)
	}

	w := &Writer{db: db, path: path, log: log.Named("gpkg")}
	if err := w.ensureRegistry(); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying database handle.
func (w *Writer) Close() error {
	return errors.WithStack(w.db.Close())
}

func (w *Writer) ensureRegistry() error {
	stmts := []string{
		// "GPKG" as a big-endian uint32, then spec version 1.3.0. The
		// PRAGMAs identify the file as a GeoPackage to other readers.
		"PRAGMA application_id = 1196444487",
		"PRAGMA user_version = 10300",
		`CREATE TABLE IF NOT EXISTS gpkg_spatial_ref_sys (
			srs_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL PRIMARY KEY,
			organization TEXT NOT NULL,
			organization_coordsys_id INTEGER NOT NULL,
			definition TEXT NOT NULL,
			description TEXT)`,
		`INSERT OR IGNORE INTO gpkg_spatial_ref_sys VALUES
			('Undefined Cartesian SRS', -1, 'NONE', -1, 'undefined', 'undefined cartesian coordinate reference system'),
			('Undefined Geographic SRS', 0, 'NONE', 0, 'undefined', 'undefined geographic coordinate reference system'),
			('WGS 84 geodetic', 4326, 'EPSG', 4326,
			 'GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]',
			 'longitude/latitude coordinates in decimal degrees on the WGS 84 spheroid')`,
		`CREATE TABLE IF NOT EXISTS gpkg_contents (
			table_name TEXT NOT NULL PRIMARY KEY,
			data_type TEXT NOT NULL,
			identifier TEXT UNIQUE,
			description TEXT DEFAULT '',
			last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
			srs_id INTEGER,
			CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id))`,
		`CREATE TABLE IF NOT EXISTS gpkg_geometry_columns (
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			geometry_type_name TEXT NOT NULL,
			srs_id INTEGER NOT NULL,
			z TINYINT NOT NULL,
			m TINYINT NOT NULL,
			CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name),
			CONSTRAINT fk_gc_tn FOREIGN KEY (table_name) REFERENCES gpkg_contents(table_name),
			CONSTRAINT fk_gc_srs FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id))`,
	}
	for _, stmt := range stmts {
		if _, err := w.db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "prepare geopackage registry in %s", w.path)
		}
	}
	return nil
}

// WriteLayer creates one feature table named layer and fills it with records.
// All records of a layer share one geometry kind; empty layers are skipped.
func (w *Writer) WriteLayer(layer string, records []catalog.DatasetRecord) error {
	if len(records) == 0 {
		return nil
	}
	kind := records[0].Kind

	tx, err := w.db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin layer %s", layer)
	}
	defer tx.Rollback()

	if err := createFeatureTable(tx, layer, kind); err != nil {
		return err
	}

	var stmt *sql.Stmt
	switch kind {
	case catalog.KindPoint:
		stmt, err = tx.Prepare(`INSERT INTO "` + layer + `"
			(geom, dataType, fname, path, img_popup, native_crs, lastmod)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
	default:
		stmt, err = tx.Prepare(`INSERT INTO "` + layer + `"
			(geom, path, lastmod, fname, dataType, native_crs)
			VALUES (?, ?, ?, ?, ?, ?)`)
	}
	if err != nil {
		return errors.Wrapf(err, "prepare insert for layer %s", layer)
	}
	defer stmt.Close()

	bound := records[0].Geometry.Bound()
	for _, rec := range records {
		blob, err := geometryBlob(rec.Geometry, crs.TargetEPSG)
		if err != nil {
			return errors.Wrapf(err, "encode geometry of %s", rec.SourcePath)
		}
		bound = bound.Union(rec.Geometry.Bound())

		switch kind {
		case catalog.KindPoint:
			_, err = stmt.Exec(blob, rec.DataType, rec.FileName, rec.PathURI(),
				rec.ImagePreviewURI, rec.NativeCRS, rec.LastModString())
		default:
			_, err = stmt.Exec(blob, rec.PathURI(), rec.LastModString(),
				rec.FileName, rec.DataType, rec.NativeCRS)
		}
		if err != nil {
			return errors.Wrapf(err, "insert into layer %s", layer)
		}
	}

	if err := registerLayer(tx, layer, kind, bound); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit layer %s", layer)
	}

	w.log.Debugw("Layer written",
		logger.FieldLayer, layer,
		logger.FieldRecords, len(records),
	)
	return nil
}

func createFeatureTable(tx *sql.Tx, layer string, kind catalog.GeometryKind) error {
	var ddl string
	if kind == catalog.KindPoint {
		ddl = `CREATE TABLE "` + layer + `" (
			fid INTEGER PRIMARY KEY AUTOINCREMENT,
			geom BLOB,
			dataType TEXT, fname TEXT, path TEXT,
			img_popup TEXT, native_crs INTEGER, lastmod TEXT)`
	} else {
		ddl = `CREATE TABLE "` + layer + `" (
			fid INTEGER PRIMARY KEY AUTOINCREMENT,
			geom BLOB,
			path TEXT, lastmod TEXT, fname TEXT,
			dataType TEXT, native_crs INTEGER)`
	}
	if _, err := tx.Exec(ddl); err != nil {
		return errors.Wrapf(err, "create layer table %s", layer)
	}
	return nil
}

func registerLayer(tx *sql.Tx, layer string, kind catalog.GeometryKind, b orb.Bound) error {
	geomType := "POLYGON"
	if kind == catalog.KindPoint {
		geomType = "POINT"
	}

	_, err := tx.Exec(`INSERT INTO gpkg_contents
		(table_name, data_type, identifier, min_x, min_y, max_x, max_y, srs_id)
		VALUES (?, 'features', ?, ?, ?, ?, ?, ?)`,
		layer, layer, b.Min[0], b.Min[1], b.Max[0], b.Max[1], crs.TargetEPSG)
	if err != nil {
		return errors.Wrapf(err, "register layer %s in gpkg_contents", layer)
	}

	_, err = tx.Exec(`INSERT INTO gpkg_geometry_columns
		(table_name, column_name, geometry_type_name, srs_id, z, m)
		VALUES (?, ?, ?, ?, 0, 0)`,
		layer, geomColumn, geomType, crs.TargetEPSG)
	return errors.Wrapf(err, "register layer %s in gpkg_geometry_columns", layer)
}

// geometryBlob renders the GeoPackage geometry binary: "GP" magic, version,
// flags, SRS id, envelope, then little-endian WKB. Points skip the envelope.
func geometryBlob(g orb.Geometry, srsID int) ([]byte, error) {
	if g == nil {
		return nil, errors.WithStack(errors.ErrNoGeometry)
	}

	var buf bytes.Buffer
	buf.WriteByte(0x47) // 'G'
	buf.WriteByte(0x50) // 'P'
	buf.WriteByte(0x00) // version 1

	_, isPoint := g.(orb.Point)
	if isPoint {
		buf.WriteByte(0x01) // little-endian, no envelope
	} else {
		buf.WriteByte(0x03) // little-endian, [minx maxx miny maxy] envelope
	}

	if err := binary.Write(&buf, binary.LittleEndian, int32(srsID)); err != nil {
		return nil, errors.WithStack(err)
	}
	if !isPoint {
		b := g.Bound()
		for _, v := range []float64{b.Min[0], b.Max[0], b.Min[1], b.Max[1]} {
			if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
				return nil, errors.WithStack(err)
			}
		}
	}

	body, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	buf.Write(body)
	return buf.Bytes(), nil
}
