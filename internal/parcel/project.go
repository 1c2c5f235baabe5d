// Package parcel locates and loads tax-parcel records falling inside a
// caller-specified region, drawn from a dataset partitioned into one
// directory per county.
package parcel

import (
	"math"

	"github.com/twpayne/go-geom"
)

const (
	// WebMercatorSRID is the planar CRS all partition data is stored in
	// and every load result is returned in (meters).
	WebMercatorSRID = 3857

	// GeographicSRID marks lat/lon geometries that still need projection.
	GeographicSRID = 4326

	earthRadiusMeters = 6378137.0

	// maxMercatorLat is the latitude bound of the web-mercator projection
	// domain; beyond it y diverges.
	maxMercatorLat = 85.0511287798
)

// Project converts a geographic coordinate to planar web-mercator meters.
func Project(lat, lon float64) (x, y float64, err error) {
	if math.IsNaN(lat) || math.IsNaN(lon) ||
		lat < -maxMercatorLat || lat > maxMercatorLat ||
		lon < -180 || lon > 180 {
		return 0, 0, &InvalidCoordinateError{Lat: lat, Lon: lon}
	}
	latRad := lat * math.Pi / 180
	lonRad := lon * math.Pi / 180
	x = earthRadiusMeters * lonRad
	y = earthRadiusMeters * math.Log(math.Tan(math.Pi/4+latRad/2))
	return x, y, nil
}

// Bounds is an axis-aligned bounding box in planar coordinates.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// BBoxAround builds the bounds of a width×height rectangle centered on a
// planar point.
func BBoxAround(x, y, width, height float64) Bounds {
	return Bounds{
		MinX: x - width/2,
		MinY: y - height/2,
		MaxX: x + width/2,
		MaxY: y + height/2,
	}
}

// Intersects reports whether two bounds share any area or edge.
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX &&
		b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// Contains reports whether the planar point (x, y) lies inside the bounds.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Polygon returns the bounds as a closed ring polygon in the target CRS.
func (b Bounds) Polygon() *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		b.MinX, b.MinY,
		b.MaxX, b.MinY,
		b.MaxX, b.MaxY,
		b.MinX, b.MaxY,
		b.MinX, b.MinY,
	}, []int{10}).SetSRID(WebMercatorSRID)
}

// BoundsOf computes the bounds of any geometry.
func BoundsOf(g geom.T) Bounds {
	gb := g.Bounds()
	return Bounds{
		MinX: gb.Min(0),
		MinY: gb.Min(1),
		MaxX: gb.Max(0),
		MaxY: gb.Max(1),
	}
}

// Reproject converts every geometry in rs to the dataset's planar CRS.
// Geometries tagged with the geographic SRID are projected coordinate by
// coordinate; anything else is assumed planar already and only stamped
// with the target SRID, so reprojection is idempotent.
func Reproject(rs RecordSet) (RecordSet, error) {
	for i, r := range rs {
		if r.Geom == nil {
			continue
		}
		if r.Geom.SRID() == GeographicSRID {
			g, err := projectGeom(r.Geom)
			if err != nil {
				return nil, err
			}
			rs[i].Geom = g
			continue
		}
		setSRID(r.Geom, WebMercatorSRID)
	}
	return rs, nil
}

// projectGeom projects a geographic geometry's coordinates to web mercator.
func projectGeom(g geom.T) (geom.T, error) {
	flat := g.FlatCoords()
	out := make([]float64, len(flat))
	stride := g.Stride()
	for i := 0; i+1 < len(flat); i += stride {
		// GeoJSON order is lon, lat.
		x, y, err := Project(flat[i+1], flat[i])
		if err != nil {
			return nil, err
		}
		out[i] = x
		out[i+1] = y
		for j := 2; j < stride; j++ {
			out[i+j] = flat[i+j]
		}
	}

	switch t := g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(t.Layout(), out).SetSRID(WebMercatorSRID), nil
	case *geom.MultiPoint:
		return geom.NewMultiPointFlat(t.Layout(), out).SetSRID(WebMercatorSRID), nil
	case *geom.LineString:
		return geom.NewLineStringFlat(t.Layout(), out).SetSRID(WebMercatorSRID), nil
	case *geom.Polygon:
		return geom.NewPolygonFlat(t.Layout(), out, t.Ends()).SetSRID(WebMercatorSRID), nil
	case *geom.MultiPolygon:
		return geom.NewMultiPolygonFlat(t.Layout(), out, t.Endss()).SetSRID(WebMercatorSRID), nil
	default:
		return g, nil
	}
}

func setSRID(g geom.T, srid int) {
	switch t := g.(type) {
	case *geom.Point:
		t.SetSRID(srid)
	case *geom.MultiPoint:
		t.SetSRID(srid)
	case *geom.LineString:
		t.SetSRID(srid)
	case *geom.Polygon:
		t.SetSRID(srid)
	case *geom.MultiPolygon:
		t.SetSRID(srid)
	}
}
