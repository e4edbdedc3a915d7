package registry

import (
	"time"

	"github.com/avolkov/mcp-registry/internal/notionsync"
)

// ServiceStatus represents the lifecycle state of a registered service.
type ServiceStatus string

const (
	// StatusDraft indicates the service is registered but not yet serving.
	StatusDraft ServiceStatus = "Draft"
	// StatusActive indicates the service is serving.
	StatusActive ServiceStatus = "Active"
	// StatusDeprecated indicates the service is scheduled for removal.
	StatusDeprecated ServiceStatus = "Deprecated"
)

// Service is one entry in the MCP service registry.
type Service struct {
	// ID is the unique identifier assigned at registration.
	ID string `json:"id"`
	// Name is the human-readable service name.
	Name string `json:"name"`
	// Description explains what the service does.
	Description string `json:"description"`
	// Status is the lifecycle state.
	Status ServiceStatus `json:"status"`
	// Tags classify the service.
	Tags []string `json:"tags"`
	// NotionPageID back-references the Notion page for this service,
	// empty until the service has been pushed.
	NotionPageID string `json:"notion_page_id,omitempty"`
	// RegisteredAt is when the service was first registered.
	RegisteredAt time.Time `json:"registered_at"`
	// UpdatedAt is when the service was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// ListFilter narrows List results.
type ListFilter struct {
	Status ServiceStatus
	Limit  int
	Offset int
}

// ToLocalRecord bridges a registry entry to the sync connector's record shape.
func (s *Service) ToLocalRecord() notionsync.LocalRecord {
	return notionsync.LocalRecord{
		NotionPageID: s.NotionPageID,
		Name:         s.Name,
		Description:  s.Description,
		Status:       string(s.Status),
		Tags:         append([]string(nil), s.Tags...),
	}
}
