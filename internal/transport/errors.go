package transport

import (
	"errors"
	"net/http"

	"stockdesk/internal/domain"
	"stockdesk/internal/middleware"
	"stockdesk/internal/notify"
	"stockdesk/internal/repository"
	"stockdesk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondWithServiceError maps service and domain errors onto the error envelope.
// Anything unrecognised is logged and reported as a 500 with fallback as the message.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.RespondWithFieldErrors(w, http.StatusBadRequest, "draft is invalid", verr.Fields)

	case errors.Is(err, repository.ErrDraftNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "draft not found or expired")
	case errors.Is(err, repository.ErrItemNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "inventory item not found")

	case errors.Is(err, repository.ErrDraftConflict):
		middleware.RespondWithError(w, http.StatusConflict, "draft was changed by another request; reload and retry")
	case errors.Is(err, domain.ErrSizeModeDiscardsData):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())

	case errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrUnknownAttribute),
		errors.Is(err, notify.ErrUnknownOrderStatus),
		errors.Is(err, service.ErrImageEmpty):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrImageTooLarge):
		middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrImageTypeNotAllowed):
		middleware.RespondWithError(w, http.StatusUnsupportedMediaType, err.Error())

	default:
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

// respondWithBodyError reports a DecodeAndValidate failure.
func respondWithBodyError(w http.ResponseWriter, err error) {
	if fieldErrs := middleware.FormatValidationErrors(err); len(fieldErrs) > 0 {
		middleware.RespondWithValidationErrors(w, fieldErrs)
		return
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
