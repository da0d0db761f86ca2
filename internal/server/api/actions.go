package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ayusman/posetris/internal/plugin"
	"github.com/ayusman/posetris/internal/store"
)

// ActionHandler serves the bindings from game events to plugin actions.
type ActionHandler struct {
	store   *store.Store
	plugins plugin.Lookup
}

// NewActionHandler creates a new ActionHandler. When plugins is not nil, bindings must
// name a discovered plugin and one of its declared actions.
func NewActionHandler(s *store.Store, plugins plugin.Lookup) *ActionHandler {
	return &ActionHandler{store: s, plugins: plugins}
}

// Routes mounts the action endpoints on r.
func (h *ActionHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
	})
}

type createActionRequest struct {
	Event      string          `json:"event" validate:"required,oneof=block_chosen piece_locked lines_cleared game_over"`
	PluginName string          `json:"plugin_name" validate:"required"`
	ActionName string          `json:"action_name" validate:"required"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type updateActionRequest struct {
	Event      string          `json:"event" validate:"omitempty,oneof=block_chosen piece_locked lines_cleared game_over"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type actionResponse struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listActionsResponse struct {
	Actions []actionResponse `json:"actions"`
}

func toActionResponse(a *store.Action) actionResponse {
	config := a.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	return actionResponse{
		ID:         a.ID,
		Event:      a.Event,
		PluginName: a.PluginName,
		ActionName: a.ActionName,
		Config:     config,
		Enabled:    a.Enabled,
		CreatedAt:  formatTime(a.CreatedAt),
	}
}

// checkPlugin writes a 400 response when the binding names an unknown plugin or action.
func (h *ActionHandler) checkPlugin(w http.ResponseWriter, pluginName, actionName string) bool {
	if h.plugins == nil {
		return true
	}
	p, err := h.plugins.Get(pluginName)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Plugin not found")
		return false
	}
	if !p.Supports(actionName) {
		writeError(w, http.StatusBadRequest, "Plugin does not support this action")
		return false
	}
	return true
}

// list handles GET /api/actions, optionally filtered by ?event=.
func (h *ActionHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		actions []*store.Action
		err     error
	)
	if event := r.URL.Query().Get("event"); event != "" {
		actions, err = h.store.Actions().ListByEvent(event)
	} else {
		actions, err = h.store.Actions().List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list actions")
		return
	}

	response := listActionsResponse{
		Actions: make([]actionResponse, 0, len(actions)),
	}
	for _, a := range actions {
		response.Actions = append(response.Actions, toActionResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/actions/{id}.
func (h *ActionHandler) get(w http.ResponseWriter, r *http.Request) {
	action, err := h.store.Actions().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(action))
}

// create handles POST /api/actions.
func (h *ActionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createActionRequest
	if !decode(w, r, &req) {
		return
	}
	if !h.checkPlugin(w, req.PluginName, req.ActionName) {
		return
	}

	config := req.Config
	if config == nil {
		config = json.RawMessage("{}")
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	action := &store.Action{
		ID:         uuid.New().String(),
		Event:      req.Event,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     config,
		Enabled:    enabled,
	}

	if err := h.store.Actions().Create(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create action")
		return
	}

	writeJSON(w, http.StatusCreated, toActionResponse(action))
}

// update handles PUT /api/actions/{id}. Only provided fields change.
func (h *ActionHandler) update(w http.ResponseWriter, r *http.Request) {
	action, err := h.store.Actions().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get action")
		return
	}

	var req updateActionRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Event != "" {
		action.Event = req.Event
	}
	if req.PluginName != "" {
		action.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		action.ActionName = req.ActionName
	}
	if req.Config != nil {
		action.Config = req.Config
	}
	if req.Enabled != nil {
		action.Enabled = *req.Enabled
	}
	if (req.PluginName != "" || req.ActionName != "") && !h.checkPlugin(w, action.PluginName, action.ActionName) {
		return
	}

	if err := h.store.Actions().Update(action); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update action")
		return
	}

	writeJSON(w, http.StatusOK, toActionResponse(action))
}

// delete handles DELETE /api/actions/{id}.
func (h *ActionHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Actions().Delete(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Action not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete action")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
