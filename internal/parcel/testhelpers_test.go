package parcel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testSchemaMap is the dataset-wide default used across fixtures.
func testSchemaMap() *SchemaMap {
	return &SchemaMap{
		Keys: map[string]string{
			"property_type":   "PROP_TYPE",
			"year_built":      "YR_BLT",
			"sqft":            "SQFT",
			"acres":           "ACRES",
			"bedrooms":        "BEDS",
			"bathrooms":       "BATHS",
			"school_district": "SCH_DIST",
			"water_type":      "WATER",
			"sewer_type":      "SEWER",
			"city":            "CITY",
			"municipality":    "MUNI",
			"zip_code":        "ZIP",
			"county":          "CNTY",
		},
		Values: map[string]string{
			ValueSingleFamilyHome: "SFH",
			ValueConnectedWater:   "Public",
			ValueConnectedSewer:   "Public",
		},
	}
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// writeBboxFile writes a partition's stored bbox as a one-feature
// FeatureCollection with a closed rectangle ring.
func writeBboxFile(t *testing.T, path string, b Bounds) {
	t.Helper()
	ring := [][]float64{
		{b.MinX, b.MinY}, {b.MaxX, b.MinY}, {b.MaxX, b.MaxY}, {b.MinX, b.MaxY}, {b.MinX, b.MinY},
	}
	fc := map[string]any{
		"type": "FeatureCollection",
		"features": []any{
			map[string]any{
				"type":       "Feature",
				"properties": map[string]any{},
				"geometry": map[string]any{
					"type":        "Polygon",
					"coordinates": []any{ring},
				},
			},
		},
	}
	writeJSON(t, path, fc)
}

// pointFeature builds a GeoJSON point feature in planar coordinates.
func pointFeature(x, y float64, props map[string]any) map[string]any {
	return map[string]any{
		"type":       "Feature",
		"properties": props,
		"geometry": map[string]any{
			"type":        "Point",
			"coordinates": []float64{x, y},
		},
	}
}

func writeRecordsFile(t *testing.T, path string, features ...map[string]any) {
	t.Helper()
	fc := map[string]any{"type": "FeatureCollection", "features": features}
	writeJSON(t, path, fc)
}

// sfhProps builds a full specific-name property map for one parcel using
// the default schema map's column names.
func sfhProps(yearBuilt, sqft, acres, beds, baths float64) map[string]any {
	return map[string]any{
		"PROP_TYPE": "SFH",
		"YR_BLT":    yearBuilt,
		"SQFT":      sqft,
		"ACRES":     acres,
		"BEDS":      beds,
		"BATHS":     baths,
		"SCH_DIST":  "Lamar CISD",
		"WATER":     "Public",
		"SEWER":     "Public",
		"CITY":      "Richmond",
		"MUNI":      "Richmond",
		"ZIP":       "77406",
		"CNTY":      "Fort Bend",
	}
}

// writePartition lays out one county partition on disk: bbox file,
// records file, and an optional schema override.
func writePartition(t *testing.T, root, county string, b Bounds, override *SchemaMap, features ...map[string]any) string {
	t.Helper()
	dir := filepath.Join(root, county+"County")
	writeBboxFile(t, filepath.Join(dir, county+"Bbox.geojson"), b)
	writeRecordsFile(t, filepath.Join(dir, fmt.Sprintf("%sTaxParcelCentroids.geojson", county)), features...)
	if override != nil {
		writeJSON(t, filepath.Join(dir, DefaultSchemaFilename), override)
	}
	return dir
}

func removeRecordsFile(dir, county string) error {
	return os.Remove(filepath.Join(dir, county+"TaxParcelCentroids.geojson"))
}

// writeDataset writes the dataset root with its default schema map.
func writeDataset(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeJSON(t, filepath.Join(root, DefaultSchemaFilename), testSchemaMap())
	return root
}
