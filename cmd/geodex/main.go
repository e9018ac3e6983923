package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/geodex/cmd/geodex/commands"
	"github.com/teranos/geodex/logger"
)

var rootCmd = &cobra.Command{
	Use:   "geodex",
	Short: "geodex - Geospatial holdings indexer",
	Long: `geodex - Index geospatial data holdings into a GeoPackage.

geodex crawls a directory tree for geospatial datasets (vector containers,
rasters, point clouds, shapefiles, geotagged images), normalizes every
footprint to WGS84, and writes the combined coverage index to a GeoPackage.

Available commands:
  index   - Crawl a directory and write the coverage index
  version - Show version information

Examples:
  geodex index /srv/gis ./coverage.gpkg          # Index a holdings tree
  geodex index /srv/gis ./coverage.gpkg --scaled # Partition by map scale
  geodex index /srv/gis ./coverage.gpkg --mbg    # Tighten footprints to hulls`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Root().PersistentFlags().GetCount("verbose")
		jsonOutput, _ := cmd.Root().PersistentFlags().GetBool("json")

		// --debug on a subcommand is a shortcut for -vv.
		if debug, err := cmd.Flags().GetBool("debug"); err == nil && debug && verbosity < logger.VerbosityDebug {
			verbosity = logger.VerbosityDebug
		}

		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output machine-readable JSON instead of human-readable text")

	rootCmd.AddCommand(commands.IndexCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
