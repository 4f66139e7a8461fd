package domain

import (
	"errors"
	"fmt"
	"sort"
)

// Shore is the side of Lake Superior a spot sits on.
type Shore string

const (
	NorthShore Shore = "north"
	SouthShore Shore = "south"
)

// Valid reports whether s is a known shore.
func (s Shore) Valid() bool { return s == NorthShore || s == SouthShore }

// Exposure classifies wind from an octant relative to a spot's coastline.
type Exposure string

const (
	ExposureOnshore    Exposure = "onshore"
	ExposureOffshore   Exposure = "offshore"
	ExposureCrossShore Exposure = "cross-shore"
)

// Valid reports whether e is one of the three exposure classes.
func (e Exposure) Valid() bool {
	switch e {
	case ExposureOnshore, ExposureOffshore, ExposureCrossShore:
		return true
	default:
		return false
	}
}

// ExposureTable maps every octant (N..NW, in Octants order) to an exposure.
type ExposureTable [NumOctants]Exposure

// DefaultExposure returns the shore-wide exposure table.
//
//	North Shore (faces SE): NW, N, W offshore; SE, E, S onshore; NE, SW cross-shore.
//	South Shore (faces N):  N, NW, NE onshore; S, SE, SW offshore; E, W cross-shore.
func DefaultExposure(shore Shore) ExposureTable {
	if shore == SouthShore {
		return ExposureTable{
			ExposureOnshore,    // N
			ExposureOnshore,    // NE
			ExposureCrossShore, // E
			ExposureOffshore,   // SE
			ExposureOffshore,   // S
			ExposureOffshore,   // SW
			ExposureCrossShore, // W
			ExposureOnshore,    // NW
		}
	}
	return ExposureTable{
		ExposureOffshore,   // N
		ExposureCrossShore, // NE
		ExposureOnshore,    // E
		ExposureOnshore,    // SE
		ExposureOnshore,    // S
		ExposureCrossShore, // SW
		ExposureOffshore,   // W
		ExposureOffshore,   // NW
	}
}

// With returns a copy of the table with the given octants overridden.
func (t ExposureTable) With(overrides map[Octant]Exposure) ExposureTable {
	for o, e := range overrides {
		if o.Known() {
			t[o.index()] = e
		}
	}
	return t
}

// Validate checks that every octant resolves to exactly one exposure class.
func (t ExposureTable) Validate() error {
	var errs []error
	for _, o := range Octants() {
		if e := t[o.index()]; !e.Valid() {
			errs = append(errs, fmt.Errorf("octant %s has no valid exposure (got %q)", o, e))
		}
	}
	return errors.Join(errs...)
}

// SpotProfile is the static configuration of one surf break.
type SpotProfile struct {
	SpotID     string             `json:"spot_id"`
	Name       string             `json:"name"`
	Shore      Shore              `json:"shore"`
	Thresholds SpotSurfThresholds `json:"thresholds"`
	Exposure   ExposureTable      `json:"-"`
}

// ExposureFor returns the exposure of wind from o. The second result is false
// for OctantUnknown.
func (p SpotProfile) ExposureFor(o Octant) (Exposure, bool) {
	if !o.Known() {
		return "", false
	}
	return p.Exposure[o.index()], true
}

// ExposureMap renders the exposure table keyed by compass abbreviation.
func (p SpotProfile) ExposureMap() map[string]Exposure {
	out := make(map[string]Exposure, NumOctants)
	for _, o := range Octants() {
		out[o.String()] = p.Exposure[o.index()]
	}
	return out
}

// Validate checks identity, shore, exposure coverage and threshold ordering.
func (p SpotProfile) Validate() error {
	var errs []error
	if p.SpotID == "" {
		errs = append(errs, errors.New("spot_id is required"))
	}
	if !p.Shore.Valid() {
		errs = append(errs, fmt.Errorf("unknown shore %q", p.Shore))
	}
	if err := p.Exposure.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := p.Thresholds.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("spot %q: %w", p.SpotID, err)
	}
	return nil
}

// DefaultProfileNote is attached to spots without a configured profile.
const DefaultProfileNote = "No spot-specific profile; using Lake Superior default thresholds."

// DefaultProfile is the fallback for spots missing from the configuration:
// North Shore exposure and the default thresholds.
func DefaultProfile(spotID string) SpotProfile {
	t := DefaultThresholds()
	t.Notes = DefaultProfileNote
	return SpotProfile{
		SpotID:     spotID,
		Name:       spotID,
		Shore:      NorthShore,
		Thresholds: t,
		Exposure:   DefaultExposure(NorthShore),
	}
}

// ProfileStore is an immutable table of spot profiles. Reconfiguration builds
// a new store and swaps it in whole.
type ProfileStore struct {
	profiles map[string]SpotProfile
	ids      []string
}

// NewProfileStore validates the profiles and builds a store. Duplicate spot IDs
// are rejected.
func NewProfileStore(profiles []SpotProfile) (*ProfileStore, error) {
	s := &ProfileStore{profiles: make(map[string]SpotProfile, len(profiles))}
	var errs []error
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := s.profiles[p.SpotID]; dup {
			errs = append(errs, fmt.Errorf("spot %q: duplicate spot_id", p.SpotID))
			continue
		}
		s.profiles[p.SpotID] = p
		s.ids = append(s.ids, p.SpotID)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	sort.Strings(s.ids)
	return s, nil
}

// Lookup returns the configured profile for spotID.
func (s *ProfileStore) Lookup(spotID string) (SpotProfile, bool) {
	if s == nil {
		return SpotProfile{}, false
	}
	p, ok := s.profiles[spotID]
	return p, ok
}

// Resolve returns the configured profile or DefaultProfile(spotID).
func (s *ProfileStore) Resolve(spotID string) SpotProfile {
	if p, ok := s.Lookup(spotID); ok {
		return p
	}
	return DefaultProfile(spotID)
}

// Profiles returns all profiles sorted by spot ID.
func (s *ProfileStore) Profiles() []SpotProfile {
	if s == nil {
		return nil
	}
	out := make([]SpotProfile, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.profiles[id])
	}
	return out
}

// Len returns the number of configured spots.
func (s *ProfileStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}
