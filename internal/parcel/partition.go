package parcel

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// partitionSuffix is the region-type marker a partition directory
	// name ends in.
	partitionSuffix = "County"

	bboxSuffix    = "Bbox.geojson"
	recordsMarker = "TaxParcelCentroids"
)

// Partition is one county's on-disk slice of the dataset.
type Partition struct {
	Name   string // directory name, e.g. "TravisCounty"
	County string // name with the region-type marker stripped
	Dir    string
	Bounds Bounds
}

// Index holds the explicit partition→bounds association, loaded once when
// the index is built so pruning never re-derives file paths per query.
type Index struct {
	partitions []Partition
}

// NewIndex enumerates partitions under root and loads each stored bbox.
// A candidate directory without its bbox file fails the whole build: a
// partition the index cannot evaluate must not be silently dropped.
func NewIndex(root string) (*Index, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, eris.Wrapf(err, "partition: read dataset root %s", root)
	}

	var partitions []Partition
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), partitionSuffix) {
			continue
		}
		name := entry.Name()
		county := strings.TrimSuffix(name, partitionSuffix)
		dir := filepath.Join(root, name)

		bboxPath := filepath.Join(dir, county+bboxSuffix)
		if _, statErr := os.Stat(bboxPath); statErr != nil {
			if os.IsNotExist(statErr) {
				return nil, &MissingBboxFileError{Partition: name, Path: bboxPath}
			}
			return nil, eris.Wrapf(statErr, "partition: stat %s", bboxPath)
		}

		bounds, err := readBounds(bboxPath)
		if err != nil {
			return nil, err
		}

		partitions = append(partitions, Partition{
			Name:   name,
			County: county,
			Dir:    dir,
			Bounds: bounds,
		})
	}

	sort.Slice(partitions, func(i, j int) bool { return partitions[i].Name < partitions[j].Name })

	zap.L().Debug("partition index built",
		zap.String("root", root),
		zap.Int("partitions", len(partitions)),
	)
	return &Index{partitions: partitions}, nil
}

// Partitions returns every indexed partition in name order.
func (idx *Index) Partitions() []Partition {
	return idx.partitions
}

// Prune returns the partitions whose stored bounds intersect query. A
// non-empty county name instead restricts to the single matching
// partition, skipping the bbox test; zero or multiple matches yield the
// empty set. Name comparison is case/punctuation/accent normalized.
func (idx *Index) Prune(query Bounds, countyName string) []Partition {
	if countyName != "" {
		want := StandardizeName(countyName)
		var matches []Partition
		for _, p := range idx.partitions {
			if StandardizeName(p.County) == want {
				matches = append(matches, p)
			}
		}
		if len(matches) == 1 {
			return matches
		}
		return nil
	}

	var kept []Partition
	for _, p := range idx.partitions {
		if p.Bounds.Intersects(query) {
			kept = append(kept, p)
		}
	}
	return kept
}

// recordsPath locates the partition's records file, preferring GeoJSON
// over shapefile.
func (p Partition) recordsPath() (string, error) {
	base := filepath.Join(p.Dir, p.County+recordsMarker)
	for _, ext := range []string{".geojson", ".json", ".shp"} {
		path := base + ext
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", &MissingPartitionFileError{Partition: p.Name, Path: base + ".geojson"}
}
