package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/avolkov/mcp-registry/internal/api/middleware"
	"github.com/avolkov/mcp-registry/internal/notionsync"
	"github.com/avolkov/mcp-registry/internal/registry"
	"github.com/rs/zerolog"
)

// RegistryHandler handles service registry endpoints.
type RegistryHandler struct {
	store *registry.Store
	log   zerolog.Logger
}

// NewRegistryHandler creates a new registry handler.
func NewRegistryHandler(store *registry.Store, log zerolog.Logger) *RegistryHandler {
	return &RegistryHandler{
		store: store,
		log:   log,
	}
}

// ListServices handles GET /api/services
func (h *RegistryHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	filter := registry.ListFilter{
		Status: registry.ServiceStatus(r.URL.Query().Get("status")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	services := h.store.List(filter)

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"services": services,
		"count":    len(services),
	})
}

// RegisterService handles POST /api/services
func (h *RegistryHandler) RegisterService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Status      string   `json:"status"`
		Tags        []string `json:"tags"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Service name is required")
		return
	}

	svc, err := h.store.Register(registry.Service{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      registry.ServiceStatus(req.Status),
		Tags:        req.Tags,
	})
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to register service")
		middleware.WriteError(w, http.StatusConflict, err.Error())
		return
	}

	h.log.Info().
		Str("service_id", svc.ID).
		Str("name", svc.Name).
		Msg("Registered service")

	middleware.WriteJSON(w, http.StatusCreated, svc)
}

// GetService handles GET /api/services/{id}
func (h *RegistryHandler) GetService(w http.ResponseWriter, r *http.Request, serviceID string) {
	svc, err := h.store.Get(serviceID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Service not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, svc)
}

// SyncHandler handles Notion synchronization endpoints.
type SyncHandler struct {
	store     *registry.Store
	connector *notionsync.Connector
	log       zerolog.Logger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(store *registry.Store, connector *notionsync.Connector, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		store:     store,
		connector: connector,
		log:       log,
	}
}

type syncErrorResponse struct {
	Record string `json:"record"`
	Error  string `json:"error"`
}

// TriggerSync handles POST /api/sync
// Builds records from the registry store and runs one sync pass.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DatabaseID string `json:"database_id"`
		Direction  string `json:"direction"`
	}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	services := h.store.List(registry.ListFilter{})
	records := make([]notionsync.LocalRecord, 0, len(services))
	for _, svc := range services {
		records = append(records, svc.ToLocalRecord())
	}

	result, err := h.connector.SyncRecords(r.Context(), notionsync.SyncOptions{
		DatabaseID: req.DatabaseID,
		Direction:  notionsync.Direction(req.Direction),
		Records:    records,
	})
	if err != nil {
		h.log.Error().Err(err).Str("direction", req.Direction).Msg("Sync failed")
		switch {
		case errors.Is(err, notionsync.ErrMissingCredential):
			middleware.WriteError(w, http.StatusServiceUnavailable, "Notion API key is not configured")
		case errors.Is(err, notionsync.ErrUnknownDirection):
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		default:
			middleware.WriteError(w, http.StatusBadGateway, "Sync failed: "+err.Error())
		}
		return
	}

	syncErrors := make([]syncErrorResponse, 0, len(result.Errors))
	for _, pe := range result.Errors {
		syncErrors = append(syncErrors, syncErrorResponse{
			Record: pe.Record.Name,
			Error:  pe.Message,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"pulled": len(result.Pulled),
		"pushed": len(result.Pushed),
		"errors": syncErrors,
	})
}
