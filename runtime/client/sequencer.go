package client

import "sync"

// Token identifies one request issued for a key.
type Token uint64

// Sequencer hands out increasing tokens per key so that a response can
// be discarded when a newer request for the same key has been issued.
type Sequencer struct {
	mu     sync.Mutex
	last   uint64
	latest map[string]uint64
}

// NewSequencer creates an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{latest: make(map[string]uint64)}
}

// Next issues a token for key, superseding any earlier token.
func (s *Sequencer) Next(key string) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	s.latest[key] = s.last
	return Token(s.last)
}

// Accept reports whether t is still the latest token for key.
func (s *Sequencer) Accept(key string, t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[key] == uint64(t)
}

// Forget drops key, so any outstanding token for it is rejected.
func (s *Sequencer) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.latest, key)
}
