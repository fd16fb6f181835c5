package preferences

import (
	"context"
	"fmt"
	"sync"

	"github.com/lehigh-university-libraries/imagemeta/internal/languages"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
)

// DefaultUser owns preferences when a caller does not identify itself
const DefaultUser = "default"

// Store persists the interface and metadata language of each user
type Store interface {
	Get(ctx context.Context, user string) (models.Languages, error)
	Set(ctx context.Context, user string, langs models.Languages) error
}

// Defaults returns the languages used before a user saves anything
func Defaults() models.Languages {
	return models.Languages{Interface: languages.Default, Metadata: languages.Default}
}

// Validate rejects unsupported language codes
func Validate(langs models.Languages) error {
	if err := languages.Validate(langs.Interface); err != nil {
		return fmt.Errorf("interface language: %w", err)
	}
	if err := languages.Validate(langs.Metadata); err != nil {
		return fmt.Errorf("metadata language: %w", err)
	}
	return nil
}

type MemoryStore struct {
	defaults models.Languages
	prefs    map[string]models.Languages
	mu       sync.RWMutex
}

func NewMemoryStore(defaults models.Languages) *MemoryStore {
	return &MemoryStore{
		defaults: withDefaults(defaults, Defaults()),
		prefs:    make(map[string]models.Languages),
	}
}

func (s *MemoryStore) Get(ctx context.Context, user string) (models.Languages, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if langs, ok := s.prefs[user]; ok {
		return langs, nil
	}
	return s.defaults, nil
}

func (s *MemoryStore) Set(ctx context.Context, user string, langs models.Languages) error {
	if err := Validate(langs); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[user] = langs
	return nil
}

func withDefaults(langs, defaults models.Languages) models.Languages {
	if !languages.IsSupported(langs.Interface) {
		langs.Interface = defaults.Interface
	}
	if !languages.IsSupported(langs.Metadata) {
		langs.Metadata = defaults.Metadata
	}
	return langs
}
