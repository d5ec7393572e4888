package dashboard

import "sync"

// Sessions holds one controller per session key, built on first use.
type Sessions struct {
	build func(key int64) *Controller

	mu          sync.Mutex
	controllers map[int64]*Controller
}

func NewSessions(build func(key int64) *Controller) *Sessions {
	return &Sessions{
		build:       build,
		controllers: make(map[int64]*Controller),
	}
}

func (s *Sessions) Get(key int64) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.controllers[key]; ok {
		return c
	}

	c := s.build(key)
	s.controllers[key] = c

	return c
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.controllers)
}
