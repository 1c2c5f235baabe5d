package parcel

import "fmt"

// InvalidCoordinateError reports a latitude/longitude pair outside the
// valid geographic range.
type InvalidCoordinateError struct {
	Lat float64
	Lon float64
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate: lat=%g lon=%g", e.Lat, e.Lon)
}

// InvalidRegionError reports a conflicting or incomplete query region
// specification.
type InvalidRegionError struct {
	Reason string
}

func (e *InvalidRegionError) Error() string {
	return "invalid region: " + e.Reason
}

// MissingBboxFileError reports a partition directory without its stored
// bounding-box file. A partition the index cannot evaluate is never
// silently dropped.
type MissingBboxFileError struct {
	Partition string
	Path      string
}

func (e *MissingBboxFileError) Error() string {
	return fmt.Sprintf("partition %s: missing bbox file %s", e.Partition, e.Path)
}

// MissingPartitionFileError reports a records file absent from a partition
// that survived pruning.
type MissingPartitionFileError struct {
	Partition string
	Path      string
}

func (e *MissingPartitionFileError) Error() string {
	return fmt.Sprintf("partition %s: missing records file %s", e.Partition, e.Path)
}

// MissingKeyError reports a canonical attribute name not covered by a
// partition's schema map.
type MissingKeyError struct {
	Partition string
	Key       string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("partition %s: schema map does not cover key %q", e.Partition, e.Key)
}
