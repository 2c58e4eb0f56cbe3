package state

import "sync"

// Selector tracks the active execution and whether its scan is still running.
type Selector struct {
	mu       sync.Mutex
	current  string
	scanning bool
	nextID   int
	subs     map[int]func(prev, next string)
}

// Select makes id current. Subscribers are notified synchronously, outside
// the selector lock, when the value changes. Reports whether it changed.
func (s *Selector) Select(id string) bool {
	s.mu.Lock()
	if id == s.current {
		s.mu.Unlock()
		return false
	}
	prev := s.current
	s.current = id
	s.scanning = false
	subs := make([]func(prev, next string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(prev, id)
	}
	return true
}

// Current returns the active execution id.
func (s *Selector) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetScanning records the scan flag from the latest successful summary.
func (s *Selector) SetScanning(scanning bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scanning = scanning
}

// IsScanning reports whether any resource was still scanning in the latest
// successful summary.
func (s *Selector) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Selector) Subscribe(fn func(prev, next string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(prev, next string))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
