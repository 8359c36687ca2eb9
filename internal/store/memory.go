package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/eagle-eye/internal/forecast"
	"github.com/i474232898/eagle-eye/internal/pipeline"
)

var (
	// ErrNotFound is returned when no run, area or date matches.
	ErrNotFound = errors.New("no forecast data")
)

// Snapshot is the document of one persisted run.
type Snapshot struct {
	Run      pipeline.RunStats
	Document forecast.Document
	SavedAt  time.Time
}

// MemoryStore is a concurrency-safe holder of the latest run. Saving
// replaces the previous run.
type MemoryStore struct {
	mu     sync.RWMutex
	latest *Snapshot

	// maxAge hides a snapshot older than this; <= 0 disables it.
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{maxAge: maxAge, now: time.Now}
}

// Save replaces the stored run.
func (s *MemoryStore) Save(run pipeline.RunStats, doc forecast.Document) {
	snap := &Snapshot{Run: run, Document: doc, SavedAt: s.now()}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = snap
}

// Latest returns the current snapshot.
func (s *MemoryStore) Latest() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current()
}

func (s *MemoryStore) current() (Snapshot, error) {
	if s.latest == nil {
		return Snapshot{}, ErrNotFound
	}
	if s.maxAge > 0 && s.now().Sub(s.latest.SavedAt) > s.maxAge {
		return Snapshot{}, ErrNotFound
	}
	return *s.latest, nil
}

// Areas returns the area keys of the latest run, sorted.
func (s *MemoryStore) Areas() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(snap.Document))
	for k := range snap.Document {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// GetArea returns at most limit days of an area; limit <= 0 returns all.
func (s *MemoryStore) GetArea(key string, limit int) ([]forecast.ForecastDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	days, ok := snap.Document[key]
	if !ok {
		return nil, ErrNotFound
	}
	if limit > 0 && limit < len(days) {
		days = days[:limit]
	}
	out := make([]forecast.ForecastDay, len(days))
	copy(out, days)
	return out, nil
}

// GetDay returns the day of an area whose ISO date is date.
func (s *MemoryStore) GetDay(key, date string) (forecast.ForecastDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, err := s.current()
	if err != nil {
		return forecast.ForecastDay{}, err
	}
	for _, d := range snap.Document[key] {
		if d.ISODate == date {
			return d, nil
		}
	}
	return forecast.ForecastDay{}, ErrNotFound
}
