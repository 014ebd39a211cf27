package store

import (
	"context"
	"sort"
	"sync"

	"github.com/example/otakudb/services/otakudb/internal/domain"
	"github.com/example/otakudb/services/otakudb/internal/query"
)

// InMemoryAnimeStore is a development-only in-memory implementation.
type InMemoryAnimeStore struct {
	mu     sync.RWMutex
	nextID int64
	animes map[int64]domain.Anime
}

func NewInMemoryAnimeStore() *InMemoryAnimeStore {
	return &InMemoryAnimeStore{animes: make(map[int64]domain.Anime)}
}

func (s *InMemoryAnimeStore) Lookup(_ context.Context, l query.Lookup) ([]domain.Anime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Anime{}
	for _, a := range s.animes {
		if l.Matches(a) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryAnimeStore) Create(_ context.Context, a domain.Anime) (domain.Anime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a.ID = s.nextID
	if a.Genre == nil {
		a.Genre = []string{}
	}
	s.animes[a.ID] = clone(a)
	return a, nil
}

func (s *InMemoryAnimeStore) Update(_ context.Context, id int64, assignments []domain.Field) error {
	if len(assignments) == 0 {
		return query.ErrNoFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.animes[id]
	if !ok {
		return ErrNotFound
	}
	for _, f := range assignments {
		if domain.Immutable(f.Name) {
			continue
		}
		a.Apply(f)
	}
	s.animes[id] = a
	return nil
}

func (s *InMemoryAnimeStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.animes[id]; !ok {
		return ErrNotFound
	}
	delete(s.animes, id)
	return nil
}

func (s *InMemoryAnimeStore) Ping(context.Context) error { return nil }

// clone copies the genre slice so callers cannot alias stored records.
func clone(a domain.Anime) domain.Anime {
	a.Genre = append([]string{}, a.Genre...)
	return a
}
