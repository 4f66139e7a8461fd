package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultExposure_CoversEveryOctant(t *testing.T) {
	for _, shore := range []Shore{NorthShore, SouthShore} {
		t.Run(string(shore), func(t *testing.T) {
			table := DefaultExposure(shore)
			require.NoError(t, table.Validate())

			p := SpotProfile{Exposure: table}
			for _, o := range Octants() {
				e, ok := p.ExposureFor(o)
				assert.True(t, ok, o.String())
				assert.True(t, e.Valid(), o.String())
			}
		})
	}
}

func TestDefaultExposure_Shores(t *testing.T) {
	north := SpotProfile{Exposure: DefaultExposure(NorthShore)}.ExposureMap()
	assert.Equal(t, map[string]Exposure{
		"N": ExposureOffshore, "NE": ExposureCrossShore, "E": ExposureOnshore, "SE": ExposureOnshore,
		"S": ExposureOnshore, "SW": ExposureCrossShore, "W": ExposureOffshore, "NW": ExposureOffshore,
	}, north)

	south := SpotProfile{Exposure: DefaultExposure(SouthShore)}.ExposureMap()
	assert.Equal(t, map[string]Exposure{
		"N": ExposureOnshore, "NE": ExposureOnshore, "E": ExposureCrossShore, "SE": ExposureOffshore,
		"S": ExposureOffshore, "SW": ExposureOffshore, "W": ExposureCrossShore, "NW": ExposureOnshore,
	}, south)
}

func TestExposureTable_With(t *testing.T) {
	base := DefaultExposure(NorthShore)
	got := base.With(map[Octant]Exposure{NE: ExposureOnshore, OctantUnknown: ExposureOffshore})

	assert.Equal(t, ExposureOnshore, got[NE.index()])
	assert.Equal(t, ExposureCrossShore, base[NE.index()], "receiver is a copy")
	assert.NoError(t, got.Validate())
}

func TestExposureTable_ValidateGaps(t *testing.T) {
	var table ExposureTable
	table[0] = ExposureOffshore

	err := table.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "octant NE has no valid exposure")
	assert.NotContains(t, err.Error(), "octant N has")
}

func TestSpotProfile_ExposureForUnknown(t *testing.T) {
	_, ok := northProfile().ExposureFor(OctantUnknown)
	assert.False(t, ok)
}

func TestProfileStore(t *testing.T) {
	store, err := NewProfileStore([]SpotProfile{southProfile(), northProfile()})
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())
	profiles := store.Profiles()
	require.Len(t, profiles, 2)
	assert.Equal(t, "picnic-rocks", profiles[0].SpotID)
	assert.Equal(t, testSpot, profiles[1].SpotID)

	p, ok := store.Lookup(testSpot)
	require.True(t, ok)
	assert.Equal(t, NorthShore, p.Shore)

	_, ok = store.Lookup("brighton-beach")
	assert.False(t, ok)
}

func TestProfileStore_ResolveFallsBackToDefault(t *testing.T) {
	store, err := NewProfileStore(nil)
	require.NoError(t, err)

	p := store.Resolve("brighton-beach")
	assert.Equal(t, "brighton-beach", p.SpotID)
	assert.Equal(t, NorthShore, p.Shore)
	assert.Equal(t, DefaultProfileNote, p.Thresholds.Notes)
	assert.Equal(t, DefaultExposure(NorthShore), p.Exposure)

	var nilStore *ProfileStore
	assert.Equal(t, p, nilStore.Resolve("brighton-beach"))
	assert.Zero(t, nilStore.Len())
}

func TestNewProfileStore_Rejects(t *testing.T) {
	t.Run("duplicate spot", func(t *testing.T) {
		_, err := NewProfileStore([]SpotProfile{northProfile(), northProfile()})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate spot_id")
	})

	t.Run("missing exposure", func(t *testing.T) {
		p := northProfile()
		p.Exposure = ExposureTable{}
		_, err := NewProfileStore([]SpotProfile{p})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `spot "stoney-point"`)
	})

	t.Run("unknown shore", func(t *testing.T) {
		p := northProfile()
		p.Shore = "east"
		_, err := NewProfileStore([]SpotProfile{p})
		assert.ErrorContains(t, err, `unknown shore "east"`)
	})

	t.Run("bad thresholds", func(t *testing.T) {
		p := northProfile()
		p.Thresholds.FiringMin = 1
		_, err := NewProfileStore([]SpotProfile{p})
		assert.ErrorContains(t, err, "good_min 1.5 exceeds firing_min 1")
	})
}
