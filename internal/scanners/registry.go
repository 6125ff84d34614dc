// Package scanners holds the source adapter registry. Each adapter polls one
// upstream source and emits candidate records for normalization; dispatch is
// a fixed key lookup resolved at startup.
package scanners

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

// Registry maps scanner keys to implementations.
type Registry struct {
	mu       sync.RWMutex
	scanners map[string]contracts.Scanner
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: make(map[string]contracts.Scanner)}
}

// Register adds a scanner under its key. Registering the same key twice is a
// wiring bug and returns an error.
func (r *Registry) Register(s contracts.Scanner) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := s.Key()
	if _, exists := r.scanners[key]; exists {
		return fmt.Errorf("scanner %q already registered", key)
	}
	r.scanners[key] = s
	return nil
}

// Get returns the scanner for key, nil when unknown.
func (r *Registry) Get(key string) contracts.Scanner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scanners[key]
}

// Keys lists registered scanner keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.scanners))
	for k := range r.scanners {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns the registered scanners in key order.
func (r *Registry) All() []contracts.Scanner {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.scanners))
	for k := range r.scanners {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]contracts.Scanner, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.scanners[k])
	}
	return out
}
