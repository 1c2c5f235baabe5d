package parcel

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecords_GeoJSONBboxRestricted(t *testing.T) {
	root := writeDataset(t)
	writePartition(t, root, "Travis", Bounds{MinX: -500, MinY: -500, MaxX: 5000, MaxY: 5000}, nil,
		pointFeature(100, 100, sfhProps(1980, 1500, 0.2, 3, 2)),
		pointFeature(900, 900, sfhProps(1990, 1900, 0.3, 3, 2)),
		pointFeature(4000, 4000, sfhProps(2005, 2600, 0.4, 4, 3)),
	)

	idx, err := NewIndex(root)
	require.NoError(t, err)
	p := idx.Partitions()[0]

	rs, err := p.ReadRecords(Bounds{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000})
	require.NoError(t, err)
	// The out-of-region feature is never materialized.
	assert.Len(t, rs, 2)
	for _, r := range rs {
		assert.Equal(t, WebMercatorSRID, r.Geom.SRID())
	}
}

func TestReadRecords_MissingRecordsFile(t *testing.T) {
	root := writeDataset(t)
	dir := writePartition(t, root, "Travis", Bounds{MaxX: 1000, MaxY: 1000}, nil)
	require.NoError(t, removeRecordsFile(dir, "Travis"))

	idx, err := NewIndex(root)
	require.NoError(t, err)

	_, err = idx.Partitions()[0].ReadRecords(Bounds{MaxX: 500, MaxY: 500})
	require.Error(t, err)
	var missing *MissingPartitionFileError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "TravisCounty", missing.Partition)
}

func TestReadRecords_Shapefile(t *testing.T) {
	root := writeDataset(t)
	dir := writePartition(t, root, "Hays", Bounds{MaxX: 1000, MaxY: 1000}, nil)
	require.NoError(t, removeRecordsFile(dir, "Hays"))

	shpPath := filepath.Join(dir, "HaysTaxParcelCentroids.shp")
	writer, err := shp.Create(shpPath, shp.POINT)
	require.NoError(t, err)
	writer.SetFields([]shp.Field{
		shp.StringField("PROP_TYPE", 10),
		shp.NumberField("YR_BLT", 8),
	})
	writer.Write(&shp.Point{X: 100, Y: 100})
	writer.WriteAttribute(0, 0, "SFH")
	writer.WriteAttribute(0, 1, 1975)
	writer.Write(&shp.Point{X: 9000, Y: 9000})
	writer.WriteAttribute(1, 0, "SFH")
	writer.WriteAttribute(1, 1, 2001)
	writer.Close()

	idx, err := NewIndex(root)
	require.NoError(t, err)

	rs, err := idx.Partitions()[0].ReadRecords(Bounds{MaxX: 1000, MaxY: 1000})
	require.NoError(t, err)
	require.Len(t, rs, 1)

	// dbf attributes come back through numeric coercion.
	yr, ok := numericValue(rs[0].Props["YR_BLT"])
	require.True(t, ok)
	assert.Equal(t, float64(1975), yr)
	assert.Equal(t, WebMercatorSRID, rs[0].Geom.SRID())
}

func TestCentroids(t *testing.T) {
	poly := Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 20}.Polygon()
	rs := RecordSet{{Geom: poly, Props: map[string]any{}}}

	rs.Centroids()
	pt := rs[0].Geom.FlatCoords()
	assert.InDelta(t, 5, pt[0], 1e-9)
	assert.InDelta(t, 10, pt[1], 1e-9)
}

func TestRound(t *testing.T) {
	rs := RecordSet{{Props: map[string]any{
		"acres": 0.256789,
		"sqft":  1800.004,
		"city":  "Richmond",
	}}}
	rs.Round(2)
	assert.Equal(t, 0.26, rs[0].Props["acres"])
	assert.Equal(t, 1800.0, rs[0].Props["sqft"])
	assert.Equal(t, "Richmond", rs[0].Props["city"])
}
