package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/posetris/internal/pose"
	"github.com/ayusman/posetris/internal/store"
)

// SamplesHandler records angle samples for a template and trains its target angles.
type SamplesHandler struct {
	store   *store.Store
	trainer *pose.Trainer
}

// NewSamplesHandler creates a new SamplesHandler with the given store.
func NewSamplesHandler(s *store.Store) *SamplesHandler {
	return &SamplesHandler{store: s, trainer: pose.NewTrainer()}
}

// Routes mounts the sample endpoints below /templates/{id}.
func (h *SamplesHandler) Routes(r chi.Router) {
	r.Get("/samples", h.list)
	r.Post("/samples", h.create)
	r.Post("/train", h.train)
}

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples" validate:"required,min=1,max=500"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	TemplateID  string          `json:"template_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

// list handles GET /api/templates/{id}/samples.
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request) {
	samples, err := h.store.Samples().GetByTemplateID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			TemplateID:  s.TemplateID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   formatTime(s.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/templates/{id}/samples. It replaces any earlier samples.
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSamplesRequest
	if !decode(w, r, &req) {
		return
	}

	// Reject samples that could never train.
	for i, raw := range req.Samples {
		if _, err := h.trainer.Train([]json.RawMessage{raw}); err != nil {
			writeError(w, http.StatusBadRequest, "sample "+strconv.Itoa(i)+": "+err.Error())
			return
		}
	}

	id := chi.URLParam(r, "id")
	if err := h.store.Samples().Create(id, req.Samples); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{"samples": len(req.Samples)})
}

// train handles POST /api/templates/{id}/train: the stored samples are averaged into the
// template's target angles.
func (h *SamplesHandler) train(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.store.Templates().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	samples, err := h.store.Samples().GetByTemplateID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load samples")
		return
	}
	if len(samples) == 0 {
		writeError(w, http.StatusConflict, "Template has no samples")
		return
	}

	raw := make([]json.RawMessage, len(samples))
	for i, s := range samples {
		raw[i] = s.Data
	}

	angles, err := h.trainer.Train(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	t.Angles = make(map[string]float64, len(angles))
	for limb, deg := range angles {
		t.Angles[string(limb)] = deg
	}
	if err := h.store.Templates().Update(t); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save trained angles")
		return
	}

	log.Info().Str("template", t.Name).Int("samples", len(samples)).Msg("template trained")
	writeJSON(w, http.StatusOK, toTemplateResponse(t))
}
