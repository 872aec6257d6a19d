package restserver

import (
	"net/http"

	"github.com/darrenwiens/env-canada/internal/sources"
	"github.com/darrenwiens/env-canada/internal/storage"
	"github.com/darrenwiens/env-canada/pkg/responseformat"
	"github.com/gorilla/mux"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// HealthResponse is returned by /api/health.
type HealthResponse struct {
	Status  string                    `json:"status"`
	Sources int                       `json:"sources"`
	Failing []string                  `json:"failing,omitempty"`
	Storage map[string]storage.Health `json:"storage,omitempty"`
}

// ListSources returns the status of every configured source
func (h *Handlers) ListSources(w http.ResponseWriter, req *http.Request) {
	statuses := h.controller.registry.Statuses()
	if statuses == nil {
		statuses = []sources.Status{}
	}
	if err := h.formatter.WriteResponse(w, req, http.StatusOK, statuses); err != nil {
		h.controller.logger.Errorf("error encoding source list: %v", err)
	}
}

// GetSource returns the current snapshot of one source
func (h *Handlers) GetSource(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["name"]

	snapshot, ok := h.controller.registry.Snapshot(name)
	if !ok {
		h.formatter.WriteError(w, req, http.StatusNotFound, "source not found: "+name)
		return
	}
	if err := h.formatter.WriteResponse(w, req, http.StatusOK, snapshot); err != nil {
		h.controller.logger.Errorf("error encoding snapshot for %s: %v", name, err)
	}
}

// GetHealth reports degraded when any source's last refresh failed or any
// storage engine is unhealthy.
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	statuses := h.controller.registry.Statuses()
	resp := HealthResponse{
		Status:  "ok",
		Sources: len(statuses),
	}

	for _, s := range statuses {
		if s.LastError != "" {
			resp.Failing = append(resp.Failing, s.Name)
		}
	}

	if hm := h.controller.health; hm != nil {
		for _, name := range hm.Names() {
			if resp.Storage == nil {
				resp.Storage = make(map[string]storage.Health)
			}
			resp.Storage[name], _ = hm.GetHealth(name)
		}
		if !hm.Healthy() {
			resp.Status = "degraded"
		}
	}
	if len(resp.Failing) > 0 {
		resp.Status = "degraded"
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	if err := h.formatter.WriteResponse(w, req, code, resp); err != nil {
		h.controller.logger.Errorf("error encoding health: %v", err)
	}
}
