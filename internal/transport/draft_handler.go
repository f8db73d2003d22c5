package transport

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"stockdesk/internal/domain"
	"stockdesk/internal/middleware"
	"stockdesk/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DraftResponse is a draft together with its live validation map.
type DraftResponse struct {
	Draft  *domain.Draft     `json:"draft"`
	Errors map[string]string `json:"errors"`
}

// ValidationResponse is the result of validating a draft without submitting it.
type ValidationResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// DraftHandler serves the add and edit inventory forms.
type DraftHandler struct {
	drafts service.DraftService
	logger *zap.Logger
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(drafts service.DraftService, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{drafts: drafts, logger: logger}
}

// RegisterRoutes mounts /api/drafts. canWrite guards submit.
func (h *DraftHandler) RegisterRoutes(r chi.Router, canWrite func(http.Handler) http.Handler) {
	r.Route("/api/drafts", func(r chi.Router) {
		r.Post("/", h.Open)
		r.Post("/items/{itemID}", h.OpenFromItem)
		r.Route("/{draftID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Delete("/", h.Discard)
			r.Post("/actions", h.Apply)
			r.Get("/validation", h.Validate)
			r.With(canWrite).Post("/submit", h.Submit)
		})
	})
}

// Open starts an empty add-item draft
func (h *DraftHandler) Open(w http.ResponseWriter, r *http.Request) {
	d, err := h.drafts.Open(r.Context())
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to open draft")
		return
	}
	h.respondWithDraft(w, http.StatusCreated, d)
}

// OpenFromItem starts an edit draft for a stored item
func (h *DraftHandler) OpenFromItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}
	d, err := h.drafts.OpenFromItem(r.Context(), itemID)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to open draft")
		return
	}
	h.respondWithDraft(w, http.StatusCreated, d)
}

// Get returns the current draft
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "draftID")
	if !ok {
		return
	}
	d, err := h.drafts.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to load draft")
		return
	}
	h.respondWithDraft(w, http.StatusOK, d)
}

// Apply reduces one form action into the draft. An If-Match header pins the expected version.
func (h *DraftHandler) Apply(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "draftID")
	if !ok {
		return
	}
	expected, err := parseIfMatch(r.Header.Get("If-Match"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid If-Match header")
		return
	}

	var action domain.Action
	if err := middleware.DecodeAndValidate(w, r, &action); err != nil {
		h.logger.Debug("Draft action rejected", zap.String("draft_id", id.String()), zap.Error(err))
		respondWithBodyError(w, err)
		return
	}

	d, err := h.drafts.Apply(r.Context(), id, expected, action)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to apply action")
		return
	}
	h.respondWithDraft(w, http.StatusOK, d)
}

// Validate reports the draft's field errors without changing it
func (h *DraftHandler) Validate(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "draftID")
	if !ok {
		return
	}
	errs, err := h.drafts.Validate(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to validate draft")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, ValidationResponse{Valid: len(errs) == 0, Errors: errs})
}

// Submit creates or updates the inventory item and discards the draft
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "draftID")
	if !ok {
		return
	}

	res, err := h.drafts.Submit(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Failed to save item. Please try again.")
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	middleware.RespondWithJSON(w, status, res.Item)
}

// Discard drops the draft
func (h *DraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "draftID")
	if !ok {
		return
	}
	if err := h.drafts.Discard(r.Context(), id); err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to discard draft")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DraftHandler) respondWithDraft(w http.ResponseWriter, status int, d *domain.Draft) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(d.Version, 10)))
	middleware.RespondWithJSON(w, status, DraftResponse{Draft: d, Errors: service.FieldErrors(d)})
}

// parseIfMatch reads a draft version from an If-Match header. An absent header or "*" means no check.
func parseIfMatch(header string) (int64, error) {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return 0, nil
	}
	header = strings.TrimPrefix(header, "W/")
	v, err := strconv.ParseInt(strings.Trim(header, `"`), 10, 64)
	if err != nil || v < 1 {
		return 0, errors.New("invalid draft version")
	}
	return v, nil
}
