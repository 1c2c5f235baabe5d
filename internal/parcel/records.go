package parcel

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// ReadRecords loads the partition's records that intersect query. The
// intersection test happens at the storage boundary so a county file
// orders of magnitude larger than the query region is never fully
// materialized into the result.
func (p Partition) ReadRecords(query Bounds) (RecordSet, error) {
	path, err := p.recordsPath()
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".shp") {
		return readShapefileRecords(path, query)
	}
	return readGeoJSONRecords(path, query)
}

func readGeoJSONRecords(path string, query Bounds) (RecordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "records: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "records: parse %s", path)
	}

	var rs RecordSet
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if !BoundsOf(f.Geometry).Intersects(query) {
			continue
		}
		setSRID(f.Geometry, WebMercatorSRID)
		props := f.Properties
		if props == nil {
			props = map[string]any{}
		}
		rs = append(rs, Record{Geom: f.Geometry, Props: props})
	}
	return rs, nil
}

func readShapefileRecords(path string, query Bounds) (RecordSet, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "records: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var rs RecordSet
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			skipped++
			continue
		}

		box := shape.BBox()
		shapeBounds := Bounds{MinX: box.MinX, MinY: box.MinY, MaxX: box.MaxX, MaxY: box.MaxY}
		if !shapeBounds.Intersects(query) {
			continue
		}

		g := shapeToGeom(shape)
		if g == nil {
			skipped++
			continue
		}

		props := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			if f, perr := strconv.ParseFloat(val, 64); perr == nil {
				props[name] = f
			} else {
				props[name] = val
			}
		}

		rs = append(rs, Record{Geom: g, Props: props})
	}

	if skipped > 0 {
		zap.L().Debug("records: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return rs, nil
}

// shapeToGeom converts a go-shp geometry to a go-geom geometry in the
// target planar CRS. Unsupported shape types yield nil.
func shapeToGeom(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(WebMercatorSRID)
	case *shp.Polygon:
		return shpPolygonToMultiPolygon(s)
	default:
		return nil
	}
}

func shpPolygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(WebMercatorSRID)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		poly := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("records: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// readBounds loads a partition's stored bounding-box file: one polygon
// feature in the planar CRS, stored either bare, as a Feature, or as a
// one-feature FeatureCollection.
func readBounds(path string) (Bounds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bounds{}, eris.Wrapf(err, "partition: read bbox %s", path)
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Bounds{}, eris.Wrapf(err, "partition: parse bbox %s", path)
	}

	var g geom.T
	switch probe.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return Bounds{}, eris.Wrapf(err, "partition: parse bbox %s", path)
		}
		if len(fc.Features) == 0 || fc.Features[0].Geometry == nil {
			return Bounds{}, eris.Errorf("partition: bbox %s has no features", path)
		}
		g = fc.Features[0].Geometry
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return Bounds{}, eris.Wrapf(err, "partition: parse bbox %s", path)
		}
		if f.Geometry == nil {
			return Bounds{}, eris.Errorf("partition: bbox %s has no geometry", path)
		}
		g = f.Geometry
	default:
		if err := geojson.Unmarshal(data, &g); err != nil {
			return Bounds{}, eris.Wrapf(err, "partition: parse bbox %s", path)
		}
	}

	return BoundsOf(g), nil
}
