package gpkg

import (
	"math"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"go.uber.org/zap"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/logger"
)

// PointTier is the layer holding every point record in scaled output.
const PointTier = "level_points"

// areaTiers maps descending geodesic-area thresholds (km²) to tier names.
// Comparison is inclusive: an area exactly on a threshold belongs to that
// threshold's tier. Anything below the smallest threshold lands in the
// lowest tier.
var areaTiers = []struct {
	minKm2 float64
	name   string
}{
	{175_000_000, "level_00"},
	{35_000_000, "level_01"},
	{5_000_000, "level_02"},
	{1_000_000, "level_03"},
	{500_000, "level_04"},
	{100_000, "level_05"},
	{50_000, "level_06"},
}

// TierForArea returns the tier a polygon of the given geodesic area (km²)
// belongs to.
func TierForArea(km2 float64) string {
	for _, t := range areaTiers {
		if km2 >= t.minKm2 {
			return t.name
		}
	}
	return areaTiers[len(areaTiers)-1].name
}

// AreaKm2 computes the geodesic area of a geometry in km².
func AreaKm2(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	return math.Abs(geo.Area(g)) / 1e6
}

// TierWriter partitions final records into layers of one GeoPackage.
type TierWriter struct {
	log *zap.SugaredLogger

	// now is swappable so layer names are stable under test.
	now func() time.Time
}

// NewTierWriter creates a TierWriter.
func NewTierWriter(log *zap.SugaredLogger) *TierWriter {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &TierWriter{log: log.Named("gpkg.tiers"), now: time.Now}
}

// Write persists records to the GeoPackage at outputPath.
//
// Unscaled output produces one layer per geometry kind, stamped with the run
// time. Scaled output bins every polygon record into an area tier and keeps
// points in their own tier. Layers are written one at a time; the first
// creates the file and the rest append, so a partial failure leaves the
// completed layers readable.
func (t *TierWriter) Write(records []catalog.DatasetRecord, outputPath string, scaled bool) error {
	layers := make(map[string][]catalog.DatasetRecord)
	stamp := t.now().Format("20060102T150405")

	for _, rec := range records {
		var layer string
		switch {
		case rec.Kind == catalog.KindPoint && scaled:
			layer = PointTier
		case rec.Kind == catalog.KindPoint:
			layer = "coverages_" + stamp + "_points"
		case scaled:
			layer = TierForArea(AreaKm2(rec.Geometry))
		default:
			layer = "coverages_" + stamp
		}
		layers[layer] = append(layers[layer], rec)
	}

	w, err := Create(outputPath, t.log)
	if err != nil {
		return err
	}
	defer w.Close()

	names := make([]string, 0, len(layers))
	for name := range layers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := w.WriteLayer(name, layers[name]); err != nil {
			return err
		}
	}

	t.log.Infow("Output written",
		logger.FieldPath, outputPath,
		logger.FieldLayers, len(names),
		logger.FieldRecords, len(records),
	)
	return nil
}
