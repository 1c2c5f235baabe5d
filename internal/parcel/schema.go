package parcel

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Canonical categorical value names a SchemaMap's values section covers.
const (
	ValueSingleFamilyHome = "single_family_home"
	ValueConnectedWater   = "connected_water"
	ValueConnectedSewer   = "connected_sewer"
)

// SchemaMap translates the canonical attribute vocabulary into one
// partition's dataset-specific column names and categorical values. A
// dataset has one default map; a partition may carry its own, which fully
// replaces the default for that partition.
type SchemaMap struct {
	Keys   map[string]string `json:"keys" yaml:"keys"`
	Values map[string]string `json:"values" yaml:"values"`
}

// LoadSchemaMap reads a schema map document. JSON and YAML are accepted,
// chosen by file extension.
func LoadSchemaMap(path string) (*SchemaMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "schema: read %s", path)
	}

	var m SchemaMap
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, eris.Wrapf(err, "schema: parse %s", path)
		}
	default:
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, eris.Wrapf(err, "schema: parse %s", path)
		}
	}

	if len(m.Keys) == 0 {
		return nil, eris.Errorf("schema: %s has no keys section", path)
	}

	// Keys must be a bijection within one partition; a duplicate specific
	// name would make the canonical rename ambiguous.
	seen := make(map[string]string, len(m.Keys))
	for canonical, specific := range m.Keys {
		if prev, dup := seen[specific]; dup {
			return nil, eris.Errorf("schema: %s maps both %q and %q to column %q", path, prev, canonical, specific)
		}
		seen[specific] = canonical
	}

	return &m, nil
}

// ResolveSchemaMap returns the partition-local schema map stored at
// filename inside dir when present, else the dataset-wide fallback. There
// is no per-key merging.
func ResolveSchemaMap(dir, filename string, fallback *SchemaMap) (*SchemaMap, error) {
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fallback, nil
		}
		return nil, eris.Wrapf(err, "schema: stat %s", path)
	}
	return LoadSchemaMap(path)
}

// Key returns the dataset-specific column name for a canonical attribute.
func (m *SchemaMap) Key(partition, name string) (string, error) {
	specific, ok := m.Keys[name]
	if !ok || specific == "" {
		return "", &MissingKeyError{Partition: partition, Key: name}
	}
	return specific, nil
}

// Value returns the dataset-specific categorical value for a canonical
// value name, or the empty string when not mapped.
func (m *SchemaMap) Value(name string) string {
	if m.Values == nil {
		return ""
	}
	return m.Values[name]
}

// TranslateKeys renames a record set's columns to canonical names and
// drops every attribute the map does not list. The keys section is the
// authoritative allow-list for output columns: each canonical column must
// be covered or the translation fails.
func (m *SchemaMap) TranslateKeys(partition string, rs RecordSet) (RecordSet, error) {
	for _, canonical := range CanonicalColumns {
		if _, err := m.Key(partition, canonical); err != nil {
			return nil, err
		}
	}

	out := make(RecordSet, 0, len(rs))
	for _, r := range rs {
		props := make(map[string]any, len(m.Keys))
		for canonical, specific := range m.Keys {
			if v, ok := r.Props[specific]; ok {
				props[canonical] = v
			}
		}
		out = append(out, Record{Geom: r.Geom, Props: props})
	}
	return out, nil
}
