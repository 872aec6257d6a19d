package storage

import (
	"sort"
	"sync"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Health is the last known state of one storage engine.
type Health struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
}

// HealthManager manages storage health status in memory
type HealthManager struct {
	mu     sync.RWMutex
	health map[string]Health
}

// NewHealthManager creates a new health manager
func NewHealthManager() *HealthManager {
	return &HealthManager{
		health: make(map[string]Health),
	}
}

// UpdateHealth updates the health status for a storage backend
func (hm *HealthManager) UpdateHealth(name string, health *Health) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.health[name] = *health
}

// GetHealth retrieves the health status for a specific storage backend
func (hm *HealthManager) GetHealth(name string) (Health, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	h, ok := hm.health[name]
	return h, ok
}

// Names lists the engines with a recorded status, sorted.
func (hm *HealthManager) Names() []string {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	names := make([]string, 0, len(hm.health))
	for name := range hm.health {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Healthy reports whether every recorded engine is healthy.
func (hm *HealthManager) Healthy() bool {
	hm.mu.RLock()
	defer hm.mu.RUnlock()
	for _, h := range hm.health {
		if h.Status != StatusHealthy {
			return false
		}
	}
	return true
}
