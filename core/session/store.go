package session

import "sync"

// Listener is called synchronously after every session transition.
type Listener func(Session)

// Store holds the current Session.
// Only the Controller may change it; everyone else reads snapshots or subscribes.
type Store struct {
	mu        sync.RWMutex
	state     Session
	listeners []subscription
	nextID    int
}

type subscription struct {
	id int
	fn Listener
}

// NewStore returns a Store in StatusUnknown.
func NewStore() *Store {
	return &Store{state: Session{Status: StatusUnknown}}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Subscribe registers fn and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// dispatch applies a and notifies listeners, outside the lock, in subscription order.
func (s *Store) dispatch(a action) Session {
	s.mu.Lock()
	s.state = reduce(s.state, a)
	next := s.state.clone()
	listeners := make([]subscription, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, sub := range listeners {
		sub.fn(next.clone())
	}
	return next
}
