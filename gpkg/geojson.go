package gpkg

import (
	"encoding/json"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/errors"
)

// FeatureCollection renders records as a GeoJSON feature collection with the
// same properties the GeoPackage layers carry.
func FeatureCollection(records []catalog.DatasetRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, rec := range records {
		f := geojson.NewFeature(rec.Geometry)
		if rec.Kind == catalog.KindPoint {
			f.Properties = geojson.Properties{
				"dataType":   rec.DataType,
				"fname":      rec.FileName,
				"path":       rec.PathURI(),
				"img_popup":  rec.ImagePreviewURI,
				"native_crs": rec.NativeCRS,
				"lastmod":    rec.LastModString(),
			}
		} else {
			f.Properties = geojson.Properties{
				"path":       rec.PathURI(),
				"lastmod":    rec.LastModString(),
				"fname":      rec.FileName,
				"dataType":   rec.DataType,
				"native_crs": rec.NativeCRS,
			}
		}
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON persists records as one indented GeoJSON document.
func WriteGeoJSON(records []catalog.DatasetRecord, outputPath string) error {
	data, err := json.MarshalIndent(FeatureCollection(records), "", "  ")
	if err != nil {
		return errors.Wrapf(err, "marshal feature collection")
	}
	return errors.Wrapf(os.WriteFile(outputPath, data, 0o644), "write %s", outputPath)
}
