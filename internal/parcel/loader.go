package parcel

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultSchemaFilename is the conventional name of the keys/values
// document at the dataset root and inside override partitions.
const DefaultSchemaFilename = "keys_and_values.json"

// Coordinate is a geographic point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Query describes the caller's region of interest: a center plus either a
// radius (circle, widened to its enclosing square) or an explicit
// width/height rectangle, mutually exclusive.
type Query struct {
	Center       *Coordinate `json:"center,omitempty"`
	RadiusMeters float64     `json:"radius_meters,omitempty"`
	WidthMeters  float64     `json:"width_meters,omitempty"`
	HeightMeters float64     `json:"height_meters,omitempty"`
}

// extent validates the region and returns the rectangle dimensions.
func (q Query) extent() (width, height float64, err error) {
	if q.RadiusMeters < 0 || q.WidthMeters < 0 || q.HeightMeters < 0 {
		return 0, 0, &InvalidRegionError{Reason: "extents must be positive"}
	}
	if q.Center == nil {
		return 0, 0, &InvalidRegionError{Reason: "a center lat/lon is required to restrict to a circle or rectangle"}
	}
	if q.RadiusMeters > 0 && (q.WidthMeters > 0 || q.HeightMeters > 0) {
		return 0, 0, &InvalidRegionError{Reason: "cannot specify both a circular and a rectangular region"}
	}
	if q.RadiusMeters == 0 && q.WidthMeters == 0 {
		return 0, 0, &InvalidRegionError{Reason: "must specify a radius or a width with the center"}
	}

	if q.RadiusMeters > 0 {
		// The circle is converted to its enclosing square.
		return 2 * q.RadiusMeters, 2 * q.RadiusMeters, nil
	}
	width = q.WidthMeters
	height = q.HeightMeters
	if height == 0 {
		height = width
	}
	return width, height, nil
}

// ProjectedBounds validates the region, projects its center, and returns
// the query rectangle in projected meters.
func (q Query) ProjectedBounds() (Bounds, error) {
	width, height, err := q.extent()
	if err != nil {
		return Bounds{}, err
	}
	x, y, err := Project(q.Center.Lat, q.Center.Lon)
	if err != nil {
		return Bounds{}, err
	}
	return BBoxAround(x, y, width, height), nil
}

// PartitionCount records how many parcels one partition contributed.
type PartitionCount struct {
	Partition string `json:"partition"`
	Records   int    `json:"records"`
}

// Result is one load's combined, canonically-schemad output.
type Result struct {
	Records    RecordSet
	Partitions []PartitionCount
}

// Loader orchestrates partition pruning, bbox-restricted record reads,
// schema resolution and attribute filtering into one bounded result.
type Loader struct {
	root           string
	schemaFilename string
	defaults       *SchemaMap
	workers        int
}

// NewLoader builds a loader over the dataset rooted at root and loads the
// dataset-wide default schema map. Most partitions will use it; a
// partition carrying its own document overrides it wholesale.
func NewLoader(root, schemaFilename string, workers int) (*Loader, error) {
	if schemaFilename == "" {
		schemaFilename = DefaultSchemaFilename
	}
	defaults, err := LoadSchemaMap(filepath.Join(root, schemaFilename))
	if err != nil {
		return nil, eris.Wrap(err, "loader: dataset schema map")
	}
	if workers <= 0 {
		workers = 4
	}
	return &Loader{
		root:           root,
		schemaFilename: schemaFilename,
		defaults:       defaults,
		workers:        workers,
	}, nil
}

// Load finds every parcel inside the query region passing the filter
// spec. Partitions are processed in parallel, each worker producing its
// own slice; the combined result always carries exactly the canonical
// columns, and is empty but valid when nothing matches.
func (l *Loader) Load(ctx context.Context, q Query, spec FilterSpec) (*Result, error) {
	queryBounds, err := q.ProjectedBounds()
	if err != nil {
		return nil, err
	}

	idx, err := NewIndex(l.root)
	if err != nil {
		return nil, err
	}
	candidates := idx.Prune(queryBounds, spec.County)

	log := zap.L().With(zap.String("component", "parcel.loader"))
	log.Debug("partitions pruned",
		zap.Int("indexed", len(idx.Partitions())),
		zap.Int("candidates", len(candidates)),
	)

	// Each worker fills its own slot; concatenation order follows the
	// candidate (enumeration) order regardless of completion order.
	sets := make([]RecordSet, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, p := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rs, err := l.loadPartition(p, queryBounds, spec)
			if err != nil {
				return err
			}
			sets[i] = rs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Records: RecordSet{}}
	for i, rs := range sets {
		res.Records = append(res.Records, rs...)
		res.Partitions = append(res.Partitions, PartitionCount{
			Partition: candidates[i].Name,
			Records:   len(rs),
		})
		log.Info("partition loaded",
			zap.String("partition", candidates[i].Name),
			zap.Int("records", len(rs)),
		)
	}

	records, err := Reproject(res.Records)
	if err != nil {
		return nil, err
	}
	res.Records = records
	return res, nil
}

// loadPartition runs the per-partition pipeline: bbox-restricted read,
// schema resolve, filter with the partition's specific names, canonical
// rename, fixed-precision rounding.
func (l *Loader) loadPartition(p Partition, query Bounds, spec FilterSpec) (RecordSet, error) {
	rs, err := p.ReadRecords(query)
	if err != nil {
		return nil, err
	}

	m, err := ResolveSchemaMap(p.Dir, l.schemaFilename, l.defaults)
	if err != nil {
		return nil, err
	}

	rs, err = spec.Apply(p.Name, rs, m)
	if err != nil {
		return nil, err
	}

	rs, err = m.TranslateKeys(p.Name, rs)
	if err != nil {
		return nil, err
	}

	rs.Round(2)
	return rs, nil
}
