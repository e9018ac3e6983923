package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/config"
	"github.com/teranos/geodex/display"
	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/gpkg"
	"github.com/teranos/geodex/indexer"
	"github.com/teranos/geodex/logger"
)

// IndexCmd crawls a holdings tree and writes the coverage index.
var IndexCmd = &cobra.Command{
	Use:   "index <input_dir> <output_gpkg>",
	Short: "Index a directory of geospatial data into a GeoPackage",
	Long: `Crawl a directory tree for geospatial datasets and write their WGS84
footprints to a GeoPackage.

Supported formats:
  containers   - GeoPackage, SQLite, Esri FGDB, KML/KMZ, GeoJSON
  rasters      - GeoTIFF, NITF, DTED (via gdalinfo)
  point clouds - LAS, LAZ (via pdal)
  shapefiles   - SHP with .prj sidecar
  images       - geotagged JPEG

Per-file problems never abort a run; they are recorded and reported in the
final statistics. The only fatal condition is a crawl that finds nothing.

Examples:
  geodex index /srv/gis ./coverage.gpkg
  geodex index /srv/gis ./coverage.gpkg --scaled --mbg
  geodex index /srv/gis ./coverage.gpkg --types tif,laz --log-dir ./logs
  geodex index /srv/gis ./coverage.gpkg --geojson ./coverage.geojson`,
	Args: cobra.ExactArgs(2),
	RunE: runIndex,
}

func init() {
	IndexCmd.Flags().Bool("mbg", false, "Tighten footprints to convex hulls where the format exposes vertices")
	IndexCmd.Flags().Bool("debug", false, "Shortcut for -vv debug logging")
	IndexCmd.Flags().Bool("scaled", false, "Partition output into area-scaled tier layers instead of one flat layer")
	IndexCmd.Flags().Bool("no-recursive", false, "Index only the top level of the input directory")
	IndexCmd.Flags().StringSlice("types", nil, "Override the extension allow-list (e.g. --types tif,laz,shp)")
	IndexCmd.Flags().String("log-dir", "", "Directory for the plaintext error log")
	IndexCmd.Flags().String("geojson", "", "Also export every record to this GeoJSON file")
}

// indexReport is the machine-readable shape of a finished run.
type indexReport struct {
	Stats       catalog.RunStats        `json:"stats"`
	SuccessRate float64                 `json:"success_rate"`
	Output      string                  `json:"output"`
	Failures    []catalog.FailureRecord `json:"failures,omitempty"`
}

func runIndex(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if types, _ := cmd.Flags().GetStringSlice("types"); len(types) > 0 {
		cfg.Index.Types = types
	}
	if logDir, _ := cmd.Flags().GetString("log-dir"); logDir != "" {
		cfg.Index.LogDir = logDir
	}

	mbg, _ := cmd.Flags().GetBool("mbg")
	scaled, _ := cmd.Flags().GetBool("scaled")
	noRecursive, _ := cmd.Flags().GetBool("no-recursive")
	geojsonPath, _ := cmd.Flags().GetString("geojson")
	jsonOutput := display.ShouldOutputJSON(cmd)

	var spinner *pterm.SpinnerPrinter
	if !jsonOutput {
		pterm.DefaultHeader.WithFullWidth().Printf("geodex - indexing %s", input)
		pterm.Println()
		spinner, _ = pterm.DefaultSpinner.Start("Crawling and extracting footprints...")
	}

	start := time.Now()
	agg := indexer.New(cfg, logger.Logger)
	res, err := agg.Run(cmd.Context(), indexer.RunOptions{
		Input:                   input,
		Recursive:               !noRecursive,
		MinimumBoundingGeometry: mbg,
	})
	if err != nil {
		if spinner != nil {
			spinner.Fail("Indexing failed")
		}
		if errors.IsNoCandidates(err) && !jsonOutput {
			pterm.Error.Printf("No candidate files found under %s", input)
			pterm.Println()
		}
		return err
	}

	if spinner != nil {
		spinner.UpdateText("Writing output...")
	}
	if err := gpkg.NewTierWriter(logger.Logger).Write(res.Records, output, scaled); err != nil {
		if spinner != nil {
			spinner.Fail("Output writing failed")
		}
		return err
	}
	if geojsonPath != "" {
		if err := gpkg.WriteGeoJSON(res.Records, geojsonPath); err != nil {
			if spinner != nil {
				spinner.Fail("GeoJSON export failed")
			}
			return err
		}
	}
	if spinner != nil {
		spinner.Success("Indexing completed")
	}

	if jsonOutput {
		return display.OutputJSON(indexReport{
			Stats:       res.Stats,
			SuccessRate: res.Stats.SuccessRate(),
			Output:      output,
			Failures:    res.Failures,
		})
	}

	pterm.Println()
	pterm.Success.Printf("Indexed %s", input)
	pterm.Println()
	pterm.Info.Printf("Statistics:")
	pterm.Println()
	pterm.Printf("  Container layers:  %d\n", res.Stats.ContainerLayers)
	pterm.Printf("  Geotagged images:  %d\n", res.Stats.WebImages)
	pterm.Printf("  Point clouds:      %d\n", res.Stats.PointClouds)
	pterm.Printf("  Rasters:           %d\n", res.Stats.Rasters)
	pterm.Printf("  Shapefiles:        %d\n", res.Stats.Shapefiles)
	pterm.Printf("  Processed:         %d of %d expected (%.2f%%)\n",
		res.Stats.TotalProcessed, res.Stats.TotalExpected, res.Stats.SuccessRate())
	pterm.Printf("  Elapsed:           %s\n", time.Since(start).Round(time.Millisecond))
	pterm.Printf("  Output:            %s\n", output)
	if geojsonPath != "" {
		pterm.Printf("  GeoJSON:           %s\n", geojsonPath)
	}
	if res.Stats.LogFileURI != "" {
		pterm.Printf("  Error log:         %s\n", res.Stats.LogFileURI)
	}
	if n := res.Errors.Len(); n > 0 {
		pterm.Println()
		pterm.Warning.Printf("%d dataset(s) could not be indexed; rerun with -v for details", n)
		pterm.Println()
	}
	return nil
}
