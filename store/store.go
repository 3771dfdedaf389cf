package store

import "sync"

// Keys used by the attribution layer.
const (
	KeyVisitorID          = "visitor_id"
	KeyAffiliateCode      = "affiliate_code"
	KeyAffiliateTimestamp = "affiliate_timestamp"
)

// LocalStore abstracts the client-local persistent storage (browser
// localStorage in the web app). Implementations must survive page reloads but
// are scoped to a single client profile, so no cross-client coordination is
// required.
type LocalStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemoryStore is a mutex-guarded in-memory LocalStore, used in tests and by
// hosts that bridge to their own storage asynchronously.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ LocalStore = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}
