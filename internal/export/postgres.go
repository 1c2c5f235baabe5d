package export

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-cli/internal/db"
	"github.com/sells-group/parcel-cli/internal/parcel"
)

const defaultCopyBatchSize = 5000

const parcelsTableDDL = `
CREATE TABLE IF NOT EXISTS parcels (
	id              BIGSERIAL PRIMARY KEY,
	run_id          TEXT NOT NULL,
	property_type   TEXT,
	year_built      DOUBLE PRECISION,
	sqft            DOUBLE PRECISION,
	acres           DOUBLE PRECISION,
	bedrooms        DOUBLE PRECISION,
	bathrooms       DOUBLE PRECISION,
	school_district TEXT,
	water_type      TEXT,
	sewer_type      TEXT,
	city            TEXT,
	municipality    TEXT,
	zip_code        TEXT,
	county          TEXT,
	geom            geometry(Geometry, 3857)
);

CREATE INDEX IF NOT EXISTS idx_parcels_run_id ON parcels(run_id);
CREATE INDEX IF NOT EXISTS idx_parcels_geom ON parcels USING GIST(geom);
`

// EnsureParcelsTable creates the parcels table and its spatial index if
// they do not exist. Requires the postgis extension.
func EnsureParcelsTable(ctx context.Context, pool db.Pool) error {
	if _, err := pool.Exec(ctx, parcelsTableDDL); err != nil {
		return eris.Wrap(err, "export: create parcels table")
	}
	return nil
}

// CopyParcels bulk-loads a record set into the parcels table using the
// COPY protocol, tagged with runID. Geometries are encoded as EWKB.
// Batches in chunks of batchSize rows (0 = default 5,000).
func CopyParcels(ctx context.Context, pool db.Pool, runID string, rs parcel.RecordSet, batchSize int) (int64, error) {
	if len(rs) == 0 {
		return 0, nil
	}

	if batchSize <= 0 {
		batchSize = defaultCopyBatchSize
	}

	columns := append([]string{"run_id"}, parcel.CanonicalColumns...)
	columns = append(columns, "geom")

	rows := make([][]any, 0, len(rs))
	for _, rec := range rs {
		row := make([]any, 0, len(columns))
		row = append(row, runID)
		for _, col := range parcel.CanonicalColumns {
			row = append(row, rec.Props[col])
		}

		var geomBytes []byte
		if rec.Geom != nil {
			data, err := ewkb.Marshal(rec.Geom, ewkb.NDR)
			if err != nil {
				return 0, eris.Wrap(err, "export: encode EWKB")
			}
			geomBytes = data
		}
		row = append(row, geomBytes)

		rows = append(rows, row)
	}

	log := zap.L().With(
		zap.String("component", "export.postgres"),
		zap.String("run_id", runID),
		zap.Int("total_rows", len(rows)),
	)

	var total int64
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[i:end]

		n, err := db.CopyFrom(ctx, pool, "parcels", columns, batch)
		if err != nil {
			return total, eris.Wrapf(err, "export: parcels batch %d-%d", i, end)
		}
		total += n

		log.Debug("batch loaded",
			zap.Int("batch_start", i),
			zap.Int("batch_end", end),
			zap.Int64("batch_rows", n),
		)
	}

	return total, nil
}
