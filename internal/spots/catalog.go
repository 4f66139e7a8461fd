// Package spots loads the surf spot catalogue and keeps the active profile
// table for the pipeline and HTTP handlers.
package spots

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed spots.yaml
var defaultCatalogue []byte

// File is the YAML document layout.
type File struct {
	Spots []Spot `yaml:"spots"`
}

// Spot is one catalogue entry. Thresholds and exposure are overrides on top of
// the lake-wide defaults for the spot's shore.
type Spot struct {
	ID         string                     `yaml:"id"`
	Name       string                     `yaml:"name"`
	Shore      domain.Shore               `yaml:"shore"`
	Exposure   map[string]domain.Exposure `yaml:"exposure,omitempty"`
	Thresholds domain.ThresholdOverrides  `yaml:"thresholds,omitempty"`
}

// Profile resolves the entry into a full profile.
func (s Spot) Profile() (domain.SpotProfile, error) {
	overrides := make(map[domain.Octant]domain.Exposure, len(s.Exposure))
	var errs []error
	for name, exposure := range s.Exposure {
		o, err := domain.ParseOctant(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !o.Known() {
			errs = append(errs, fmt.Errorf("exposure override needs a compass octant, got %q", name))
			continue
		}
		overrides[o] = exposure
	}
	if err := errors.Join(errs...); err != nil {
		return domain.SpotProfile{}, fmt.Errorf("spot %q: %w", s.ID, err)
	}

	name := s.Name
	if name == "" {
		name = s.ID
	}
	p := domain.SpotProfile{
		SpotID:     s.ID,
		Name:       name,
		Shore:      s.Shore,
		Thresholds: domain.MergeThresholds(domain.DefaultThresholds(), s.Thresholds),
		Exposure:   domain.DefaultExposure(s.Shore).With(overrides),
	}
	return p, p.Validate()
}

// Parse decodes a catalogue document and builds a validated profile store.
// Unknown YAML keys are rejected so typos in threshold names surface early.
func Parse(data []byte) (*domain.ProfileStore, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode spot catalogue: %w", err)
	}

	profiles := make([]domain.SpotProfile, 0, len(f.Spots))
	var errs []error
	for _, s := range f.Spots {
		p, err := s.Profile()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		profiles = append(profiles, p)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return domain.NewProfileStore(profiles)
}

// Load reads the catalogue at path, or the embedded default when path is empty.
func Load(path string) (*domain.ProfileStore, error) {
	if path == "" {
		return Parse(defaultCatalogue)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spot catalogue: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded catalogue.
func Default() []byte {
	return append([]byte(nil), defaultCatalogue...)
}
