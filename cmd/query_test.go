package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilterSpec_UnsetBoundsAreNil(t *testing.T) {
	spec := buildFilterSpec(queryCmd.Flags())

	assert.Nil(t, spec.MinYearBuilt)
	assert.Nil(t, spec.MaxYearBuilt)
	assert.Nil(t, spec.MinSqft)
	assert.Nil(t, spec.MinBeds)
	assert.False(t, spec.RequireConnectedWater)
	assert.Empty(t, spec.County)
}

func TestBuildFilterSpec_ExplicitZeroIsABound(t *testing.T) {
	flags := queryCmd.Flags()
	require.NoError(t, flags.Set("min-beds", "0"))
	require.NoError(t, flags.Set("min-year-built", "1980"))
	require.NoError(t, flags.Set("require-water", "true"))
	require.NoError(t, flags.Set("county", "Travis"))
	t.Cleanup(func() {
		require.NoError(t, flags.Set("require-water", "false"))
		require.NoError(t, flags.Set("county", ""))
	})

	spec := buildFilterSpec(flags)

	require.NotNil(t, spec.MinBeds)
	assert.Equal(t, 0.0, *spec.MinBeds)
	require.NotNil(t, spec.MinYearBuilt)
	assert.Equal(t, 1980.0, *spec.MinYearBuilt)
	assert.True(t, spec.RequireConnectedWater)
	assert.Equal(t, "Travis", spec.County)
	assert.Nil(t, spec.MaxYearBuilt)
}

func TestBuildQuery_RequiresCenter(t *testing.T) {
	_, err := buildQuery(queryCmd.Flags())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--lat and --lon are required")
}
