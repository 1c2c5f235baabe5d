// Package export writes filtered parcel records to downstream formats:
// GeoJSON for mapping tools, XLSX for analysts, and PostGIS for the
// shared warehouse.
package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/parcel-cli/internal/parcel"
)

// WriteGeoJSON writes a record set as a GeoJSON FeatureCollection.
// Geometries are emitted in the projected coordinate system as-is.
func WriteGeoJSON(w io.Writer, rs parcel.RecordSet) error {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(rs))}
	for _, rec := range rs {
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   rec.Geom,
			Properties: rec.Props,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&fc); err != nil {
		return eris.Wrap(err, "export: encode feature collection")
	}
	return nil
}
