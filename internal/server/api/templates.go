package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ayusman/posetris/internal/pose"
	"github.com/ayusman/posetris/internal/store"
	"github.com/ayusman/posetris/internal/tetris"
)

// TemplateHandler serves stored pose templates and their samples.
type TemplateHandler struct {
	store   *store.Store
	samples *SamplesHandler
}

// NewTemplateHandler creates a new TemplateHandler with the given store.
func NewTemplateHandler(s *store.Store) *TemplateHandler {
	return &TemplateHandler{store: s, samples: NewSamplesHandler(s)}
}

// Routes mounts the template endpoints on r.
func (h *TemplateHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		h.samples.Routes(r)
	})
}

type createTemplateRequest struct {
	Name   string             `json:"name" validate:"required,max=128"`
	Shape  [][]int            `json:"shape" validate:"required,min=1,max=4,dive,min=1,max=4,dive,oneof=0 1"`
	Angles map[string]float64 `json:"angles" validate:"omitempty,dive,keys,limb,endkeys,gte=0,lt=360"`
	Color  string             `json:"color" validate:"omitempty,palettecolor"`
}

type updateTemplateRequest struct {
	Name   string             `json:"name" validate:"max=128"`
	Shape  [][]int            `json:"shape" validate:"omitempty,max=4,dive,min=1,max=4,dive,oneof=0 1"`
	Angles map[string]float64 `json:"angles" validate:"omitempty,dive,keys,limb,endkeys,gte=0,lt=360"`
	Color  *string            `json:"color" validate:"omitempty,palettecolor"`
}

type templateResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Shape     [][]int            `json:"shape"`
	Angles    map[string]float64 `json:"angles"`
	Color     string             `json:"color,omitempty"`
	Samples   int                `json:"samples"`
	Trained   bool               `json:"trained"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
}

type listTemplatesResponse struct {
	Templates []templateResponse `json:"templates"`
}

func toTemplateResponse(t *store.Template) templateResponse {
	angles := t.Angles
	if angles == nil {
		angles = map[string]float64{}
	}
	return templateResponse{
		ID:        t.ID,
		Name:      t.Name,
		Shape:     t.Shape,
		Angles:    angles,
		Color:     t.Color,
		Samples:   t.Samples,
		Trained:   len(t.Angles) > 0,
		CreatedAt: formatTime(t.CreatedAt),
		UpdatedAt: formatTime(t.UpdatedAt),
	}
}

// completeAngles reports whether every limb has a target angle.
func completeAngles(angles map[string]float64) bool {
	for _, limb := range pose.Limbs {
		if _, ok := angles[string(limb)]; !ok {
			return false
		}
	}
	return true
}

// templateFromPath loads the template named by the {id} URL parameter, writing a 404 or
// 500 response when it cannot.
func (h *TemplateHandler) templateFromPath(w http.ResponseWriter, r *http.Request) (*store.Template, bool) {
	t, err := h.store.Templates().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return nil, false
	}
	return t, true
}

// list handles GET /api/templates.
func (h *TemplateHandler) list(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.Templates().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list templates")
		return
	}

	response := listTemplatesResponse{
		Templates: make([]templateResponse, 0, len(templates)),
	}
	for _, t := range templates {
		response.Templates = append(response.Templates, toTemplateResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/templates/{id}.
func (h *TemplateHandler) get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.templateFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTemplateResponse(t))
}

// create handles POST /api/templates. Angles may be left out and trained from samples later.
func (h *TemplateHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if !decode(w, r, &req) {
		return
	}

	if !tetris.ParseShape(req.Shape).Valid() {
		writeError(w, http.StatusBadRequest, "shape must be rectangular with an occupied cell")
		return
	}
	if len(req.Angles) > 0 && !completeAngles(req.Angles) {
		writeError(w, http.StatusBadRequest, "angles must cover every limb")
		return
	}

	if _, err := h.store.Templates().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "A template with this name already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check template name")
		return
	}

	t := &store.Template{
		ID:     uuid.New().String(),
		Name:   req.Name,
		Shape:  req.Shape,
		Angles: req.Angles,
		Color:  req.Color,
	}

	if err := h.store.Templates().Create(t); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create template")
		return
	}

	writeJSON(w, http.StatusCreated, toTemplateResponse(t))
}

// update handles PUT /api/templates/{id}. Only provided fields change.
func (h *TemplateHandler) update(w http.ResponseWriter, r *http.Request) {
	t, ok := h.templateFromPath(w, r)
	if !ok {
		return
	}

	var req updateTemplateRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Name != "" && req.Name != t.Name {
		if _, err := h.store.Templates().GetByName(req.Name); err == nil {
			writeError(w, http.StatusConflict, "A template with this name already exists")
			return
		}
		t.Name = req.Name
	}
	if req.Shape != nil {
		if !tetris.ParseShape(req.Shape).Valid() {
			writeError(w, http.StatusBadRequest, "shape must be rectangular with an occupied cell")
			return
		}
		t.Shape = req.Shape
	}
	if req.Angles != nil {
		if !completeAngles(req.Angles) {
			writeError(w, http.StatusBadRequest, "angles must cover every limb")
			return
		}
		t.Angles = req.Angles
	}
	if req.Color != nil {
		t.Color = *req.Color
	}

	if err := h.store.Templates().Update(t); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update template")
		return
	}

	writeJSON(w, http.StatusOK, toTemplateResponse(t))
}

// delete handles DELETE /api/templates/{id}.
func (h *TemplateHandler) delete(w http.ResponseWriter, r *http.Request) {
	err := h.store.Templates().Delete(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete template")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
