package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-cli/internal/export"
	"github.com/sells-group/parcel-cli/internal/parcel"
	"github.com/sells-group/parcel-cli/internal/store"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Load parcels around a point of interest",
	Long:  "Prunes county partitions against the query rectangle, reads the surviving partitions in parallel, filters records through the attribute pipeline, and writes the combined result.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()

		q, err := buildQuery(flags)
		if err != nil {
			return err
		}
		spec := buildFilterSpec(flags)

		loader, err := parcel.NewLoader(cfg.Dataset.Root, cfg.Dataset.SchemaFilename, cfg.Dataset.Workers)
		if err != nil {
			return err
		}

		result, err := loader.Load(ctx, q, spec)
		if err != nil {
			return err
		}

		if centroids, _ := flags.GetBool("centroids"); centroids {
			result.Records.Centroids()
		}

		runID := recordRun(ctx, q, spec, result)

		if toPostgres, _ := flags.GetBool("to-postgres"); toPostgres {
			if err := copyToPostgres(ctx, runID, result.Records); err != nil {
				return err
			}
		}

		outPath, _ := flags.GetString("out")
		if xlsxPath, _ := flags.GetString("xlsx"); xlsxPath != "" {
			if err := export.WriteXLSX(xlsxPath, result.Records); err != nil {
				return err
			}
		}

		var out io.Writer = os.Stdout
		if outPath != "" && outPath != "-" {
			f, err := os.Create(outPath)
			if err != nil {
				return eris.Wrap(err, "query: create output file")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return export.WriteGeoJSON(out, result.Records)
	},
}

// buildQuery assembles the region of interest from command-line flags.
func buildQuery(flags *pflag.FlagSet) (parcel.Query, error) {
	lat, _ := flags.GetFloat64("lat")
	lon, _ := flags.GetFloat64("lon")
	if !flags.Changed("lat") || !flags.Changed("lon") {
		return parcel.Query{}, eris.New("query: --lat and --lon are required")
	}

	q := parcel.Query{Center: &parcel.Coordinate{Lat: lat, Lon: lon}}
	q.RadiusMeters, _ = flags.GetFloat64("radius")
	q.WidthMeters, _ = flags.GetFloat64("width")
	q.HeightMeters, _ = flags.GetFloat64("height")
	return q, nil
}

// buildFilterSpec assembles the attribute filter from command-line flags.
// Numeric bounds become pointers only when their flag was set, so an
// explicit zero still filters.
func buildFilterSpec(flags *pflag.FlagSet) parcel.FilterSpec {
	var spec parcel.FilterSpec

	spec.AlreadySingleFamily, _ = flags.GetBool("already-single-family")
	spec.RequireConnectedWater, _ = flags.GetBool("require-water")
	spec.RequireConnectedSewer, _ = flags.GetBool("require-sewer")

	bound := func(name string) *float64 {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetFloat64(name)
		return parcel.Bound(v)
	}
	spec.MinYearBuilt = bound("min-year-built")
	spec.MaxYearBuilt = bound("max-year-built")
	spec.MinSqft = bound("min-sqft")
	spec.MaxSqft = bound("max-sqft")
	spec.MinAcres = bound("min-acres")
	spec.MaxAcres = bound("max-acres")
	spec.MinBeds = bound("min-beds")
	spec.MinBaths = bound("min-baths")

	spec.County, _ = flags.GetString("county")
	spec.SchoolDistrict, _ = flags.GetString("school-district")
	spec.City, _ = flags.GetString("city")
	spec.Municipality, _ = flags.GetString("municipality")
	spec.ZipCode, _ = flags.GetString("zip")

	return spec
}

// recordRun logs the query to the run store. Store failures are warned,
// not fatal: the loaded records still reach the caller.
func recordRun(ctx context.Context, q parcel.Query, spec parcel.FilterSpec, result *parcel.Result) string {
	st, err := initStore(ctx)
	if err != nil {
		zap.L().Warn("run store unavailable", zap.Error(err))
		return ""
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run store migrate failed", zap.Error(err))
		return ""
	}

	run := &store.Run{
		Region:     q,
		Filter:     spec,
		Partitions: result.Partitions,
		Records:    len(result.Records),
		CreatedAt:  time.Now().UTC(),
	}
	if err := st.RecordRun(ctx, run); err != nil {
		zap.L().Warn("run store write failed", zap.Error(err))
		return ""
	}
	return run.ID
}

// copyToPostgres bulk-loads the result into the shared PostGIS table.
func copyToPostgres(ctx context.Context, runID string, rs parcel.RecordSet) error {
	if cfg.Store.DatabaseURL == "" {
		return eris.New("query: --to-postgres requires PARCEL_STORE_DATABASE_URL")
	}
	st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	pool := st.Pool()
	if err := export.EnsureParcelsTable(ctx, pool); err != nil {
		return err
	}
	n, err := export.CopyParcels(ctx, pool, runID, rs, 0)
	if err != nil {
		return err
	}
	zap.L().Info("parcels copied to postgres", zap.Int64("rows", n), zap.String("run_id", runID))
	return nil
}

func init() {
	f := queryCmd.Flags()

	f.Float64("lat", 0, "center latitude in degrees (required)")
	f.Float64("lon", 0, "center longitude in degrees (required)")
	f.Float64("radius", 0, "circular region radius in meters (widened to its enclosing square)")
	f.Float64("width", 0, "rectangular region width in meters")
	f.Float64("height", 0, "rectangular region height in meters (defaults to width)")

	f.Bool("already-single-family", false, "dataset is pre-restricted to single family homes; skip the property type stage")
	f.Bool("require-water", false, "keep only parcels with a public water connection")
	f.Bool("require-sewer", false, "keep only parcels with a public sewer connection")
	f.Float64("min-year-built", 0, "minimum construction year")
	f.Float64("max-year-built", 0, "maximum construction year")
	f.Float64("min-sqft", 0, "minimum building square footage")
	f.Float64("max-sqft", 0, "maximum building square footage")
	f.Float64("min-acres", 0, "minimum lot acreage")
	f.Float64("max-acres", 0, "maximum lot acreage")
	f.Float64("min-beds", 0, "minimum bedroom count")
	f.Float64("min-baths", 0, "minimum bathroom count")
	f.String("county", "", "restrict the load to a single county partition")
	f.String("school-district", "", "keep only parcels in this school district")
	f.String("city", "", "keep only parcels in this city")
	f.String("municipality", "", "keep only parcels in this municipality")
	f.String("zip", "", "keep only parcels in this ZIP code")

	f.Bool("centroids", false, "replace parcel polygons with their centroids")
	f.String("out", "-", "GeoJSON output path (- for stdout)")
	f.String("xlsx", "", "also write an XLSX workbook to this path")
	f.Bool("to-postgres", false, "also COPY the result into the shared PostGIS parcels table")

	rootCmd.AddCommand(queryCmd)
}
