package parcel

import (
	"math"

	"github.com/twpayne/go-geom"
)

// CanonicalColumns is the fixed, dataset-independent attribute vocabulary.
// Every load result carries exactly these columns plus geometry, no matter
// which partitions contributed.
var CanonicalColumns = []string{
	"property_type",
	"year_built",
	"sqft",
	"acres",
	"bedrooms",
	"bathrooms",
	"school_district",
	"water_type",
	"sewer_type",
	"city",
	"municipality",
	"zip_code",
	"county",
}

// Record is one parcel: a planar geometry plus named attributes.
type Record struct {
	Geom  geom.T
	Props map[string]any
}

// RecordSet is an ordered collection of parcel records.
type RecordSet []Record

// Round rounds every float attribute to the given number of decimal places
// so output is stable across partitions and file formats.
func (rs RecordSet) Round(places int) {
	pow := math.Pow(10, float64(places))
	for _, r := range rs {
		for k, v := range r.Props {
			if f, ok := v.(float64); ok {
				r.Props[k] = math.Round(f*pow) / pow
			}
		}
	}
}

// Centroids replaces each polygonal geometry with its centroid point.
// Point records pass through unchanged.
func (rs RecordSet) Centroids() {
	for i, r := range rs {
		switch g := r.Geom.(type) {
		case *geom.Polygon:
			rs[i].Geom = ringCentroid(g.LinearRing(0).FlatCoords(), g.Stride(), g.SRID())
		case *geom.MultiPolygon:
			if g.NumPolygons() > 0 {
				p := g.Polygon(0)
				rs[i].Geom = ringCentroid(p.LinearRing(0).FlatCoords(), p.Stride(), g.SRID())
			}
		}
	}
}

// ringCentroid computes the area centroid of a closed ring via the
// shoelace formula, falling back to the vertex mean for degenerate rings.
func ringCentroid(flat []float64, stride, srid int) *geom.Point {
	var area, cx, cy float64
	n := len(flat) / stride
	for i := 0; i < n-1; i++ {
		x0, y0 := flat[i*stride], flat[i*stride+1]
		x1, y1 := flat[(i+1)*stride], flat[(i+1)*stride+1]
		cross := x0*y1 - x1*y0
		area += cross
		cx += (x0 + x1) * cross
		cy += (y0 + y1) * cross
	}
	if area == 0 {
		var sx, sy float64
		for i := 0; i < n; i++ {
			sx += flat[i*stride]
			sy += flat[i*stride+1]
		}
		return geom.NewPointFlat(geom.XY, []float64{sx / float64(n), sy / float64(n)}).SetSRID(srid)
	}
	area /= 2
	return geom.NewPointFlat(geom.XY, []float64{cx / (6 * area), cy / (6 * area)}).SetSRID(srid)
}
