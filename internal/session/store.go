// Package session holds per-conversation state keyed by a session key.
package session

import (
	"sync"

	"chainsight/internal/conversation"
)

// State is the per-key aggregate: append-only history plus a small scratchpad
// (selected triangle, last produced artifacts). History never contains a
// turn's intermediate chatter, only the user message and the arbitrated
// assistant message.
type State struct {
	Key        string
	History    []conversation.Message
	Scratchpad map[string]any
}

// Store is keyed state that lives for the process (memory) or across restarts
// (sqlite). Load on an unseen key returns an empty State, never an error
// caused by absence. Clear resets a key to empty rather than removing it.
//
// Lock serializes turns on one key: two concurrent turns against the same
// session must queue, not interleave, or history updates are lost. Different
// keys proceed fully in parallel.
type Store interface {
	Load(key string) (State, error)
	Save(key string, st State) error
	Clear(key string) error
	Lock(key string) (unlock func())
	Close() error
}

func emptyState(key string) State {
	return State{Key: key, Scratchpad: make(map[string]any)}
}

// copyState deep-copies so a caller can never mutate stored state in place.
func copyState(st State) State {
	out := State{Key: st.Key}
	out.History = make([]conversation.Message, len(st.History))
	copy(out.History, st.History)
	out.Scratchpad = make(map[string]any, len(st.Scratchpad))
	for k, v := range st.Scratchpad {
		out.Scratchpad[k] = v
	}
	return out
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
	locks  map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]State),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) Load(key string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[key]
	if !ok {
		return emptyState(key), nil
	}
	return copyState(st), nil
}

func (s *MemoryStore) Save(key string, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Key = key
	s.states[key] = copyState(st)
	return nil
}

func (s *MemoryStore) Clear(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[key] = emptyState(key)
	return nil
}

func (s *MemoryStore) Lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *MemoryStore) Close() error { return nil }
