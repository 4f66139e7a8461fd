package spots

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultCatalogue(t *testing.T) {
	store, err := Load("")
	require.NoError(t, err)

	ids := make([]string, 0, store.Len())
	for _, p := range store.Profiles() {
		ids = append(ids, p.SpotID)
		assert.NoError(t, p.Validate())
	}
	assert.Equal(t, []string{"black-rocks", "lester-river", "park-point", "picnic-rocks", "stoney-point"}, ids)
}

func TestLoad_MergesOverridesOntoDefaults(t *testing.T) {
	store, err := Load("")
	require.NoError(t, err)

	p, ok := store.Lookup("stoney-point")
	require.True(t, ok)

	want := domain.DefaultThresholds()
	want.GoodMin = 2
	want.FiringMin = 3.5
	want.Confidence = domain.ThresholdLocal
	want.Notes = "Boulder reef break; needs a long-period NE swell to wrap in."
	assert.Equal(t, want, p.Thresholds)
	assert.Equal(t, domain.DefaultExposure(domain.NorthShore), p.Exposure)

	park, ok := store.Lookup("park-point")
	require.True(t, ok)
	exposure, _ := park.ExposureFor(domain.NE)
	assert.Equal(t, domain.ExposureOnshore, exposure)
	exposure, _ = park.ExposureFor(domain.NW)
	assert.Equal(t, domain.ExposureOffshore, exposure, "octants without an override keep the shore default")
	assert.Equal(t, domain.ThresholdEstimated, park.Thresholds.Confidence)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{
			name:   "unknown field",
			doc:    "spots:\n  - id: a\n    shore: north\n    thresholds:\n      good_minimum: 2\n",
			errMsg: "good_minimum",
		},
		{
			name:   "bad octant",
			doc:    "spots:\n  - id: a\n    shore: north\n    exposure:\n      NORTHISH: onshore\n",
			errMsg: `unknown compass direction "NORTHISH"`,
		},
		{
			name:   "variable is not an octant",
			doc:    "spots:\n  - id: a\n    shore: north\n    exposure:\n      VRB: onshore\n",
			errMsg: "needs a compass octant",
		},
		{
			name:   "bad exposure class",
			doc:    "spots:\n  - id: a\n    shore: north\n    exposure:\n      N: sideways\n",
			errMsg: "octant N has no valid exposure",
		},
		{
			name:   "unknown shore",
			doc:    "spots:\n  - id: a\n    shore: west\n",
			errMsg: `unknown shore "west"`,
		},
		{
			name:   "duplicate id",
			doc:    "spots:\n  - id: a\n    shore: north\n  - id: a\n    shore: south\n",
			errMsg: "duplicate spot_id",
		},
		{
			name:   "threshold ordering",
			doc:    "spots:\n  - id: a\n    shore: north\n    thresholds:\n      good_min: 4\n",
			errMsg: "good_min 4 exceeds firing_min 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSpot_ProfileNameDefaultsToID(t *testing.T) {
	p, err := Spot{ID: "brighton-beach", Shore: domain.NorthShore}.Profile()
	require.NoError(t, err)
	assert.Equal(t, "brighton-beach", p.Name)
}

func TestRegistry_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spots.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spots:\n  - id: a\n    shore: north\n"), 0o600))

	r, err := NewRegistry(path, slog.Default())
	require.NoError(t, err)
	before := r.Resolve("a")
	assert.Equal(t, domain.NorthShore, before.Shore)

	require.NoError(t, os.WriteFile(path, []byte("spots:\n  - id: a\n    shore: south\n  - id: b\n    shore: north\n"), 0o600))
	require.NoError(t, r.Reload())

	assert.Equal(t, domain.SouthShore, r.Resolve("a").Shore)
	assert.Len(t, r.Profiles(), 2)
	assert.Equal(t, domain.NorthShore, before.Shore, "profiles handed out earlier are not mutated")
}

func TestRegistry_ReloadFailureKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spots.yaml")
	require.NoError(t, os.WriteFile(path, []byte("spots:\n  - id: a\n    shore: north\n"), 0o600))

	r, err := NewRegistry(path, slog.Default())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("spots: [\n"), 0o600))
	require.Error(t, r.Reload())

	_, ok := r.Lookup("a")
	assert.True(t, ok)
}

func TestRegistry_UnknownSpotUsesDefault(t *testing.T) {
	r, err := NewRegistry("", slog.Default())
	require.NoError(t, err)

	p := r.Resolve("brighton-beach")
	assert.Equal(t, domain.DefaultProfileNote, p.Thresholds.Notes)
	assert.NoError(t, r.Reload(), "embedded catalogue reload is a no-op")
}

func TestNewRegistry_MissingFile(t *testing.T) {
	_, err := NewRegistry(filepath.Join(t.TempDir(), "missing.yaml"), slog.Default())
	assert.ErrorContains(t, err, "read spot catalogue")
}
