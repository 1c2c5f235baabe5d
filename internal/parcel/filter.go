package parcel

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterSpec holds the attribute predicate parameters. Numeric bounds are
// pointer-typed so an explicit zero is distinguishable from unset; a nil
// bound never excludes a record. Empty strings mean no constraint.
type FilterSpec struct {
	// AlreadySingleFamily declares the dataset pre-restricted to the
	// target property type, disabling the property-type stage.
	AlreadySingleFamily   bool `json:"already_single_family,omitempty"`
	RequireConnectedWater bool `json:"require_connected_water,omitempty"`
	RequireConnectedSewer bool `json:"require_connected_sewer,omitempty"`

	MinYearBuilt *float64 `json:"min_year_built,omitempty"`
	MaxYearBuilt *float64 `json:"max_year_built,omitempty"`
	MinSqft      *float64 `json:"min_sqft,omitempty"`
	MaxSqft      *float64 `json:"max_sqft,omitempty"`
	MinAcres     *float64 `json:"min_acres,omitempty"`
	MaxAcres     *float64 `json:"max_acres,omitempty"`
	MinBeds      *float64 `json:"min_beds,omitempty"`
	MinBaths     *float64 `json:"min_baths,omitempty"`

	// County restricts the load to a single partition; it is consumed by
	// partition pruning, not by a per-record stage.
	County         string `json:"county,omitempty"`
	SchoolDistrict string `json:"school_district,omitempty"`
	City           string `json:"city,omitempty"`
	Municipality   string `json:"municipality,omitempty"`
	ZipCode        string `json:"zip_code,omitempty"`
}

// Bound returns a pointer to v, for building specs literally.
func Bound(v float64) *float64 { return &v }

// stage is one predicate in the fixed filter order. Disabled stages are
// skipped without touching the schema map.
type stage struct {
	name    string
	enabled bool
	key     string // canonical attribute the stage compares on
	keep    func(v any) bool
}

// Apply runs the ordered predicate stages against rs using the resolved
// schema map's column and value names. Each stage narrows the set
// monotonically. An enabled stage whose comparison key is absent from the
// map fails with MissingKey even when the set is already empty.
func (s *FilterSpec) Apply(partition string, rs RecordSet, m *SchemaMap) (RecordSet, error) {
	for _, st := range s.stages(m) {
		if !st.enabled {
			continue
		}
		specific, err := m.Key(partition, st.key)
		if err != nil {
			return nil, err
		}
		kept := make(RecordSet, 0, len(rs))
		for _, r := range rs {
			v, ok := r.Props[specific]
			if !ok || v == nil {
				continue
			}
			if st.keep(v) {
				kept = append(kept, r)
			}
		}
		rs = kept
	}
	return rs, nil
}

// stages builds the predicate pipeline in its fixed order: the property
// type gate first, then numeric ranges and thresholds, then the
// connection flags, then the location equalities.
func (s *FilterSpec) stages(m *SchemaMap) []stage {
	return []stage{
		{
			name:    "property_type",
			enabled: !s.AlreadySingleFamily,
			key:     "property_type",
			keep:    equalsFold(m.Value(ValueSingleFamilyHome)),
		},
		rangeStage("year_built", s.MinYearBuilt, s.MaxYearBuilt),
		rangeStage("sqft", s.MinSqft, s.MaxSqft),
		rangeStage("acres", s.MinAcres, s.MaxAcres),
		thresholdStage("bedrooms", s.MinBeds),
		thresholdStage("bathrooms", s.MinBaths),
		{
			name:    "water_type",
			enabled: s.RequireConnectedWater,
			key:     "water_type",
			keep:    equalsFold(m.Value(ValueConnectedWater)),
		},
		{
			name:    "sewer_type",
			enabled: s.RequireConnectedSewer,
			key:     "sewer_type",
			keep:    equalsFold(m.Value(ValueConnectedSewer)),
		},
		equalityStage("city", s.City),
		equalityStage("municipality", s.Municipality),
		equalityStage("zip_code", s.ZipCode),
		equalityStage("school_district", s.SchoolDistrict),
	}
}

func rangeStage(key string, min, max *float64) stage {
	return stage{
		name:    key,
		enabled: min != nil || max != nil,
		key:     key,
		keep: func(v any) bool {
			f, ok := numericValue(v)
			if !ok {
				return false
			}
			if min != nil && f < *min {
				return false
			}
			if max != nil && f > *max {
				return false
			}
			return true
		},
	}
}

func thresholdStage(key string, min *float64) stage {
	return stage{
		name:    key,
		enabled: min != nil,
		key:     key,
		keep: func(v any) bool {
			f, ok := numericValue(v)
			return ok && f >= *min
		},
	}
}

func equalityStage(key, want string) stage {
	return stage{
		name:    key,
		enabled: want != "",
		key:     key,
		keep: func(v any) bool {
			return strings.EqualFold(strings.TrimSpace(stringValue(v)), strings.TrimSpace(want))
		},
	}
}

func equalsFold(want string) func(v any) bool {
	return func(v any) bool {
		return strings.EqualFold(strings.TrimSpace(stringValue(v)), strings.TrimSpace(want))
	}
}

// numericValue coerces attribute values to float64. Shapefile attributes
// arrive as strings; GeoJSON numbers arrive as float64.
func numericValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
