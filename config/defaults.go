package config

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/viper"
)

// DefaultTypes is the extension allow-list used when none is configured.
// Covers every format family the handlers understand.
var DefaultTypes = []string{
	// vector containers
	"gdb", "gpkg", "db", "sqlite", "kml", "kmz", "json", "geojson",
	// geotagged images
	"jpg", "jpeg",
	// point clouds
	"las", "laz",
	// rasters
	"tif", "tiff", "ntf", "nitf", "dt0", "dt1", "dt2",
	// shapefiles
	"shp",
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("crawler.workers", defaultWorkers())

	v.SetDefault("tools.pdal_path", "pdal")
	v.SetDefault("tools.gdalinfo_path", "gdalinfo")
	v.SetDefault("tools.ogrinfo_path", "ogrinfo")
	v.SetDefault("tools.timeout_seconds", 120)

	v.SetDefault("index.types", DefaultTypes)
	v.SetDefault("index.log_dir", "")

	v.SetDefault("logging.theme", "gruvbox")
}

// defaultWorkers returns the host logical core count, falling back to
// runtime.NumCPU when gopsutil cannot read the topology.
func defaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
