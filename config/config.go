// Package config manages geodex configuration via Viper.
//
// Configuration is merged from defaults, an optional geodex.toml discovered by
// walking up the directory tree, and GEODEX_* environment variables.
package config

import "strings"

// Config represents the geodex configuration
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Index   IndexConfig   `mapstructure:"index"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig configures the filesystem crawler and parallel extraction
type CrawlerConfig struct {
	Workers int `mapstructure:"workers"` // concurrent crawl/extract workers (default: host logical cores)
}

// ToolsConfig configures the external metadata extraction tools
type ToolsConfig struct {
	PDALPath    string `mapstructure:"pdal_path"`    // pdal binary (point-cloud metadata)
	GDALInfo    string `mapstructure:"gdalinfo_path"` // gdalinfo binary (raster metadata)
	OGRInfo     string `mapstructure:"ogrinfo_path"`  // ogrinfo binary (FGDB layer listing)
	TimeoutSecs int    `mapstructure:"timeout_seconds"`
}

// IndexConfig configures indexing defaults
type IndexConfig struct {
	Types  []string `mapstructure:"types"`   // extension allow-list, no leading dot
	LogDir string   `mapstructure:"log_dir"` // directory for the plaintext error log ("" = none)
}

// LoggingConfig configures console log rendering
type LoggingConfig struct {
	Theme string `mapstructure:"theme"` // gruvbox or plain
}

// ExtensionSet returns the configured allow-list as a lowercase lookup set.
func (c IndexConfig) ExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Types))
	for _, t := range c.Types {
		t = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(t)), ".")
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}
