package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is an in-memory service registry.
// It is safe for concurrent use. Data is lost on service restart - for
// persistence, use a database-backed store.
type Store struct {
	mu       sync.RWMutex
	services map[string]*Service
	order    []string // registration order of service IDs
}

// NewStore creates a new in-memory registry store.
func NewStore() *Store {
	return &Store{
		services: make(map[string]*Service),
	}
}

// Register saves a new service. An empty ID is assigned a fresh UUID;
// an empty status defaults to Draft. Returns a copy of the stored entry.
func (s *Store) Register(svc Service) (*Service, error) {
	if svc.Name == "" {
		return nil, fmt.Errorf("service name is required")
	}

	if svc.ID == "" {
		svc.ID = uuid.New().String()
	}
	if svc.Status == "" {
		svc.Status = StatusDraft
	}

	now := time.Now().UTC()
	svc.RegisteredAt = now
	svc.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.services[svc.ID]; exists {
		return nil, fmt.Errorf("service already registered: %s", svc.ID)
	}

	// Store a copy to avoid external modifications
	stored := svc
	s.services[svc.ID] = &stored
	s.order = append(s.order, svc.ID)

	result := stored
	return &result, nil
}

// Get retrieves a service by ID.
func (s *Store) Get(id string) (*Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, exists := s.services[id]
	if !exists {
		return nil, fmt.Errorf("service not found: %s", id)
	}

	// Return a copy to avoid external modifications
	result := *svc
	return &result, nil
}

// List retrieves services in registration order with optional filtering.
func (s *Store) List(filter ListFilter) []*Service {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Service, 0, len(s.order))
	for _, id := range s.order {
		svc := s.services[id]

		if filter.Status != "" && svc.Status != filter.Status {
			continue
		}

		copied := *svc
		result = append(result, &copied)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*Service{}
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result
}

// SetNotionPageID records the Notion page backing a service. The
// association between registry entries and Notion pages is owned here,
// not by the sync connector.
func (s *Store) SetNotionPageID(id, pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, exists := s.services[id]
	if !exists {
		return fmt.Errorf("service not found: %s", id)
	}

	svc.NotionPageID = pageID
	svc.UpdatedAt = time.Now().UTC()

	return nil
}

// UpdateStatus changes the lifecycle state of a service.
func (s *Store) UpdateStatus(id string, status ServiceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, exists := s.services[id]
	if !exists {
		return fmt.Errorf("service not found: %s", id)
	}

	svc.Status = status
	svc.UpdatedAt = time.Now().UTC()

	return nil
}
