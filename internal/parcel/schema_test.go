package parcel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSchemaMap_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys_and_values.json")
	writeJSON(t, path, testSchemaMap())

	m, err := LoadSchemaMap(path)
	require.NoError(t, err)
	assert.Equal(t, "YR_BLT", m.Keys["year_built"])
	assert.Equal(t, "SFH", m.Value(ValueSingleFamilyHome))
}

func TestLoadSchemaMap_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys_and_values.yaml")
	doc := `keys:
  year_built: YR_BLT
  sqft: SQFT
values:
  single_family_home: "101"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	m, err := LoadSchemaMap(path)
	require.NoError(t, err)
	assert.Equal(t, "YR_BLT", m.Keys["year_built"])
	assert.Equal(t, "101", m.Value(ValueSingleFamilyHome))
}

func TestLoadSchemaMap_DuplicateSpecificName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys_and_values.json")
	writeJSON(t, path, &SchemaMap{Keys: map[string]string{
		"sqft":  "AREA",
		"acres": "AREA",
	}})

	_, err := LoadSchemaMap(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AREA")
}

func TestLoadSchemaMap_Missing(t *testing.T) {
	_, err := LoadSchemaMap(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestResolveSchemaMap_Fallback(t *testing.T) {
	fallback := testSchemaMap()
	m, err := ResolveSchemaMap(t.TempDir(), DefaultSchemaFilename, fallback)
	require.NoError(t, err)
	assert.Same(t, fallback, m)
}

func TestResolveSchemaMap_Override(t *testing.T) {
	dir := t.TempDir()
	override := testSchemaMap()
	override.Keys["year_built"] = "YEAR_CONSTRUCTED"
	writeJSON(t, filepath.Join(dir, DefaultSchemaFilename), override)

	fallback := testSchemaMap()
	m, err := ResolveSchemaMap(dir, DefaultSchemaFilename, fallback)
	require.NoError(t, err)
	assert.NotSame(t, fallback, m)
	assert.Equal(t, "YEAR_CONSTRUCTED", m.Keys["year_built"])
	// The override fully replaces the default, no per-key merging.
	assert.Equal(t, len(fallback.Keys), len(m.Keys))
}

func TestSchemaMap_Key(t *testing.T) {
	m := testSchemaMap()

	specific, err := m.Key("TravisCounty", "sqft")
	require.NoError(t, err)
	assert.Equal(t, "SQFT", specific)

	_, err = m.Key("TravisCounty", "lot_number")
	require.Error(t, err)
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "TravisCounty", missing.Partition)
	assert.Equal(t, "lot_number", missing.Key)
}

func TestTranslateKeys_RoundTrip(t *testing.T) {
	m := testSchemaMap()
	rs := RecordSet{{Props: sfhProps(1975, 1800, 0.25, 3, 2)}}

	canonical, err := m.TranslateKeys("FortBendCounty", rs)
	require.NoError(t, err)
	require.Len(t, canonical, 1)

	// Exactly the canonical columns survive.
	assert.Len(t, canonical[0].Props, len(CanonicalColumns))
	for _, col := range CanonicalColumns {
		assert.Contains(t, canonical[0].Props, col)
	}
	assert.Equal(t, float64(1975), canonical[0].Props["year_built"])

	// Keys are a bijection: renaming back recovers the original shape.
	back := make(map[string]any, len(canonical[0].Props))
	for canonicalName, v := range canonical[0].Props {
		back[m.Keys[canonicalName]] = v
	}
	assert.Equal(t, rs[0].Props, back)
}

func TestTranslateKeys_DropsUnlistedColumns(t *testing.T) {
	m := testSchemaMap()
	props := sfhProps(1990, 2200, 0.3, 4, 2.5)
	props["OWNER_NAME"] = "someone"
	props["TAX_ID"] = "123-456"

	out, err := m.TranslateKeys("TravisCounty", RecordSet{{Props: props}})
	require.NoError(t, err)
	assert.NotContains(t, out[0].Props, "OWNER_NAME")
	assert.NotContains(t, out[0].Props, "TAX_ID")
}

func TestTranslateKeys_MissingCanonicalKey(t *testing.T) {
	m := testSchemaMap()
	delete(m.Keys, "sewer_type")

	_, err := m.TranslateKeys("TravisCounty", RecordSet{{Props: sfhProps(1980, 1500, 0.2, 3, 2)}})
	require.Error(t, err)
	var missing *MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "sewer_type", missing.Key)
}
