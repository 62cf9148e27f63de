// Package inmem keeps tokens for the lifetime of the process.
package inmem

import (
	"context"
	"sync"

	"github.com/trezcool/campus/core/session"
)

type Store struct {
	mu     sync.RWMutex
	tokens map[string]string
}

var _ session.TokenStore = (*Store)(nil)

func New() *Store {
	return &Store{tokens: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[name], nil
}

func (s *Store) Set(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[name] = value
	return nil
}

func (s *Store) Remove(_ context.Context, names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		delete(s.tokens, n)
	}
	return nil
}
