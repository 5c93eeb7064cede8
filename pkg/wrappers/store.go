package wrappers

import (
	"sync"
	"time"

	"github.com/user/netaudit/pkg/engine"
)

// ResultStore holds the results of the most recent audit run
type ResultStore struct {
	mu        sync.RWMutex
	results   []engine.AuditResult
	generated time.Time
	path      string
}

// NewResultStore creates an empty store
func NewResultStore() *ResultStore {
	return &ResultStore{}
}

// Set replaces the stored run
func (s *ResultStore) Set(results []engine.AuditResult, generated time.Time, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append([]engine.AuditResult(nil), results...)
	s.generated = generated
	s.path = path
}

// Latest returns the stored run. ok is false before the first audit.
func (s *ResultStore) Latest() (results []engine.AuditResult, generated time.Time, path string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.generated.IsZero() {
		return nil, time.Time{}, "", false
	}
	return append([]engine.AuditResult(nil), s.results...), s.generated, s.path, true
}
