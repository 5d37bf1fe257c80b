package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-service/internal/catalog"
	"catalog-service/internal/domain"
)

const (
	userIDHeader = "X-User-Id"
	// defaultMaxUploadBytes bounds a whole multipart photo batch.
	defaultMaxUploadBytes = 100 << 20
	// multipartMemory is how much of a multipart form is kept in memory before spilling to disk.
	multipartMemory = 32 << 20
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	categories     *catalog.CategoryService
	listings       *catalog.ListingService
	geo            *catalog.GeoService
	validate       *validator.Validate
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
// maxUploadBytes <= 0 selects the default batch limit.
func NewHTTPHandler(categories *catalog.CategoryService, listings *catalog.ListingService, geo *catalog.GeoService, maxUploadBytes int64, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &HTTPHandler{
		categories:     categories,
		listings:       listings,
		geo:            geo,
		validate:       validator.New(),
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.GetCategoryTree)
			r.Get("/{categoryId}/attributes", h.GetCategoryAttributes)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Post("/", h.CreateCategory)
				r.Route("/{categoryId}", func(r chi.Router) {
					r.Put("/", h.UpdateCategory)
					r.Delete("/", h.DisableCategory)
					r.Post("/attributes", h.CreateAttribute)
				})
			})
			r.Post("/attributes/{attributeId}/options", h.CreateOption)
			r.Put("/options/{optionId}/active", h.SetOptionActive)
		})

		r.Route("/geo", func(r chi.Router) {
			r.Get("/regions", h.ListRegions)
			r.Get("/cities/search", h.SearchCities)
			r.Get("/cities", h.ListCities)
		})

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", h.ListListings)
			r.Post("/", h.CreateListing)
			r.Route("/{listingId}", func(r chi.Router) {
				r.Get("/", h.GetListing)
				r.Put("/", h.UpdateListing)
				r.Put("/attributes", h.SetListingAttributes)
				r.Route("/photos", func(r chi.Router) {
					r.Post("/", h.UploadPhotos)
					r.Put("/{photoId}/main", h.SetMainPhoto)
					r.Delete("/{photoId}", h.DeletePhoto)
				})
			})
		})
	})
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (h *HTTPHandler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, ErrorResponse{Error: message})
}

func (h *HTTPHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			h.logger.Error("Failed to encode JSON response", zap.Error(err))
		}
	}
}

// respondWithServiceError maps a classified error onto its HTTP status.
// Unclassified errors are logged and reported as 500 without details.
func (h *HTTPHandler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.respondWithError(w, status, "Internal server error")
		return
	}

	resp := ErrorResponse{Error: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) {
		resp.Field = de.Entity
	}
	if status == http.StatusBadGateway {
		h.logger.Warn("Upstream dependency failed", zap.String("path", r.URL.Path), zap.Error(err))
		resp.Error = "Upstream service unavailable"
	}
	h.respondWithJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrDependency):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeAndValidate reads a JSON body into dst and runs the validator on it.
// Numbers are kept as json.Number so attribute values keep their precision.
func (h *HTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// uuidParam parses a chi URL parameter, answering 400 when it is not a UUID.
func (h *HTTPHandler) uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return uuid.Nil, false
	}
	return id, true
}

// callerID reads the authenticated user id that the gateway puts in X-User-Id.
func (h *HTTPHandler) callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		h.respondWithError(w, http.StatusBadRequest, "Missing "+userIDHeader+" header")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, userIDHeader+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUIDQuery parses an optional UUID query parameter.
func (h *HTTPHandler) optionalUUIDQuery(w http.ResponseWriter, r *http.Request, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s format", name))
		return nil, false
	}
	return &id, true
}
