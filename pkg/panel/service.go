package panel

import "sync"

// Service is the explicit panel registry: at most one panel is open at
// a time, and the shell learns about closes through the callback it
// registered. There is no package-level singleton; the shell owns the
// service instance.
type Service struct {
	mu       sync.Mutex
	current  *Controller
	onClosed func()
}

// NewService creates a registry. onClosed fires every time an open
// panel closes, whatever triggered the close; nil is allowed.
func NewService(onClosed func()) *Service {
	return &Service{onClosed: onClosed}
}

// Open creates a controller bound to tokenID and makes it the current
// panel. An already open panel is closed first; its close notification
// fires before the new panel exists.
func (s *Service) Open(deps Deps, tokenID string) *Controller {
	s.mu.Lock()
	old := s.current
	s.current = nil
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}

	c := NewController(deps, tokenID)
	c.onClosed = s.notifyClosed

	s.mu.Lock()
	s.current = c
	s.mu.Unlock()
	return c
}

// Close closes the current panel, if any.
func (s *Service) Close() {
	s.mu.Lock()
	c := s.current
	s.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

// IsOpen reports whether a panel is currently open.
func (s *Service) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && !s.current.Closed()
}

// Current returns the open controller, or nil.
func (s *Service) Current() *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.Closed() {
		return nil
	}
	return s.current
}

func (s *Service) notifyClosed() {
	s.mu.Lock()
	s.current = nil
	cb := s.onClosed
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}
