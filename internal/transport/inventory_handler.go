package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stockdesk/internal/domain"
	"stockdesk/internal/middleware"
	"stockdesk/internal/repository"
	"stockdesk/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipartOverhead is headroom above the image limit for form boundaries and headers.
const multipartOverhead = 64 << 10

// UploadResponse is returned by the image upload endpoint.
type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

// InventoryHandler serves stored items and image uploads.
type InventoryHandler struct {
	inventory      service.InventoryService
	images         service.ImageService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventory service.InventoryService, images service.ImageService, maxUploadBytes int64, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, images: images, maxUploadBytes: maxUploadBytes, logger: logger}
}

// RegisterRoutes mounts /api/inventory. canDelete guards item deletion.
func (h *InventoryHandler) RegisterRoutes(r chi.Router, canDelete func(http.Handler) http.Handler) {
	r.Route("/api/inventory", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/export", h.Export)
		r.Post("/upload-image", h.UploadImage)
		r.Get("/{itemID}", h.Get)
		r.With(canDelete).Delete("/{itemID}", h.Delete)
	})
}

// List returns one page of items
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseItemFilter(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.inventory.List(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to list items")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Get returns one item with its variants
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}
	item, err := h.inventory.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to load item")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Delete removes an item and its variants
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}
	if err := h.inventory.Delete(r.Context(), id); err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export streams the filtered inventory as an xlsx workbook
func (h *InventoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := parseItemFilter(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := h.inventory.ExportXLSX(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "failed to export inventory")
		return
	}

	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("Failed to write export", zap.Error(err))
	}
}

// UploadImage stores the multipart "image" file and returns its public URL
func (h *InventoryHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			middleware.RespondWithError(w, http.StatusRequestEntityTooLarge, service.ErrImageTooLarge.Error())
		case errors.Is(err, http.ErrMissingFile):
			middleware.RespondWithError(w, http.StatusBadRequest, "image file is required")
		default:
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart form")
		}
		return
	}
	defer file.Close()

	url, err := h.images.Upload(r.Context(), header.Filename, file)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err, "Failed to upload image")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, UploadResponse{ImageURL: url})
}

func parseItemFilter(r *http.Request) (repository.ItemFilter, error) {
	q := r.URL.Query()
	filter := repository.ItemFilter{
		Category: domain.Category(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
		SortBy:   q.Get("sortBy"),
	}

	if filter.Category != "" {
		if _, ok := domain.SchemaFor(filter.Category); !ok {
			return filter, fmt.Errorf("unknown category %q", filter.Category)
		}
	}
	if v := q.Get("lowStock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errors.New("lowStock must be true or false")
		}
		filter.LowStock = b
	}
	for name, dst := range map[string]*int{"page": &filter.Page, "pageSize": &filter.PageSize} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return filter, fmt.Errorf("%s must be a number", name)
			}
			*dst = n
		}
	}
	switch strings.ToUpper(q.Get("sortOrder")) {
	case "":
	case string(repository.SortOrderAsc):
		filter.SortOrder = repository.SortOrderAsc
	case string(repository.SortOrderDesc):
		filter.SortOrder = repository.SortOrderDesc
	default:
		return filter, errors.New("sortOrder must be asc or desc")
	}
	return filter, nil
}
