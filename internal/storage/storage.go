package storage

import (
	"log/slog"
	"sort"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
	"github.com/patrickmn/go-cache"
)

const DefaultTTL = 2 * time.Hour

// SessionStore holds batches in memory. A session expires once it has not been
// read or written for the configured TTL.
type SessionStore struct {
	sessions *cache.Cache
}

func New(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(id string, _ interface{}) {
		slog.Info("Session expired", "session_id", id)
	})
	return &SessionStore{sessions: c}
}

// Get returns the session and extends its lifetime
func (s *SessionStore) Get(sessionID string) (*pipeline.Batch, bool) {
	v, found := s.sessions.Get(sessionID)
	if !found {
		return nil, false
	}
	batch, ok := v.(*pipeline.Batch)
	if !ok {
		return nil, false
	}
	s.sessions.Set(sessionID, batch, cache.DefaultExpiration)
	return batch, true
}

func (s *SessionStore) Set(sessionID string, batch *pipeline.Batch) {
	s.sessions.Set(sessionID, batch, cache.DefaultExpiration)
}

// GetAll returns every live session, oldest first
func (s *SessionStore) GetAll() []*pipeline.Batch {
	items := s.sessions.Items()
	result := make([]*pipeline.Batch, 0, len(items))
	for _, item := range items {
		if batch, ok := item.Object.(*pipeline.Batch); ok {
			result = append(result, batch)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (s *SessionStore) Delete(sessionID string) {
	s.sessions.Delete(sessionID)
}
