package spots

import (
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/surf-conditions-etl/internal/domain"
)

// Registry holds the active profile store. Readers always see a complete
// table: Reload builds a new store and swaps the pointer, so a profile in use
// by an aggregation is never mutated underneath it.
type Registry struct {
	path    string
	logger  *slog.Logger
	current atomic.Pointer[domain.ProfileStore]
}

// NewRegistry loads the catalogue at path (embedded default when empty).
func NewRegistry(path string, logger *slog.Logger) (*Registry, error) {
	store, err := Load(path)
	if err != nil {
		return nil, err
	}
	r := &Registry{path: path, logger: logger}
	r.current.Store(store)
	logger.Info("spot catalogue loaded", "path", sourceName(path), "spots", store.Len())
	return r, nil
}

// NewStaticRegistry wraps an already-built store. Reload keeps it unchanged.
func NewStaticRegistry(store *domain.ProfileStore, logger *slog.Logger) *Registry {
	r := &Registry{logger: logger}
	r.current.Store(store)
	return r
}

// Reload re-reads the catalogue. On error the previous table stays active.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	store, err := Load(r.path)
	if err != nil {
		r.logger.Error("spot catalogue reload failed, keeping previous", "path", r.path, "error", err)
		return err
	}
	r.current.Store(store)
	r.logger.Info("spot catalogue reloaded", "path", r.path, "spots", store.Len())
	return nil
}

// Store returns the active table.
func (r *Registry) Store() *domain.ProfileStore { return r.current.Load() }

// Resolve returns the configured profile or the lake-wide default.
func (r *Registry) Resolve(spotID string) domain.SpotProfile {
	return r.current.Load().Resolve(spotID)
}

// Lookup returns the configured profile for spotID.
func (r *Registry) Lookup(spotID string) (domain.SpotProfile, bool) {
	return r.current.Load().Lookup(spotID)
}

// Profiles lists the configured spots sorted by ID.
func (r *Registry) Profiles() []domain.SpotProfile {
	return r.current.Load().Profiles()
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
