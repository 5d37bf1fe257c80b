package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"catalog-service/internal/catalog"
)

// --- Listing Handlers ---

// ListingInput defines the expected input for creating or updating a listing.
// Attributes maps attribute codes to values; select values name an option code.
type ListingInput struct {
	CategoryID  uuid.UUID        `json:"category_id" validate:"required"`
	CityID      *uuid.UUID       `json:"city_id"`
	Title       string           `json:"title" validate:"required,max=200"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	IsPublished *bool            `json:"is_published"`
	Attributes  map[string]any   `json:"attributes"`
}

func (in ListingInput) toService() catalog.ListingInput {
	return catalog.ListingInput{
		CategoryID:  in.CategoryID,
		CityID:      in.CityID,
		Title:       in.Title,
		Price:       *in.Price,
		Description: in.Description,
		IsPublished: in.IsPublished,
		Attributes:  in.Attributes,
	}
}

// AttributeValuesInput replaces every attribute value of a listing.
type AttributeValuesInput struct {
	Attributes map[string]any `json:"attributes" validate:"required"`
}

// PhotoUploadResponse reports each file of a batch.
type PhotoUploadResponse struct {
	Results []catalog.PhotoResult `json:"results"`
}

func (h *HTTPHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	categoryID, ok := h.optionalUUIDQuery(w, r, "categoryId")
	if !ok {
		return
	}
	var take *int
	if raw := q.Get("take"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.respondWithError(w, http.StatusBadRequest, "take must be an integer")
			return
		}
		take = &n
	}
	cards, err := h.listings.ListListings(r.Context(), catalog.ListingsQuery{
		Lang:       q.Get("lang"),
		Take:       take,
		CategoryID: categoryID,
	})
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, cards)
}

func (h *HTTPHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	listingID, ok := h.uuidParam(w, r, "listingId")
	if !ok {
		return
	}
	view, err := h.listings.GetListing(r.Context(), listingID, r.URL.Query().Get("lang"))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	var input ListingInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	created, err := h.listings.CreateListing(r.Context(), ownerID, input.toService())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	listingID, ok := h.uuidParam(w, r, "listingId")
	if !ok {
		return
	}
	var input ListingInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	updated, err := h.listings.UpdateListing(r.Context(), ownerID, listingID, input.toService())
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) SetListingAttributes(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	listingID, ok := h.uuidParam(w, r, "listingId")
	if !ok {
		return
	}
	var input AttributeValuesInput
	if !h.decodeAndValidate(w, r, &input) {
		return
	}
	if err := h.listings.SetAttributeValues(r.Context(), ownerID, listingID, input.Attributes); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadPhotos accepts multipart "files" (or a single "file"). With isMain=true
// the first file becomes the main photo. Files succeed or fail independently;
// the response is 201 when at least one was stored.
func (h *HTTPHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	listingID, ok := h.uuidParam(w, r, "listingId")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondWithError(w, http.StatusRequestEntityTooLarge, "Upload exceeds the request size limit")
			return
		}
		h.respondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		h.respondWithError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	mainIndex := -1
	if isMain, _ := strconv.ParseBool(r.FormValue("isMain")); isMain {
		mainIndex = 0
	}

	uploads := make([]catalog.Upload, 0, len(headers))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("Failed to open uploaded file", zap.String("file", fh.Filename), zap.Error(err))
			h.respondWithError(w, http.StatusBadRequest, "Failed to read uploaded file "+fh.Filename)
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, catalog.Upload{Name: fh.Filename, Size: fh.Size, Reader: f})
	}

	results, err := h.listings.UploadPhotos(r.Context(), ownerID, listingID, uploads, mainIndex)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	status := http.StatusCreated
	var firstErr error
	stored := 0
	for _, res := range results {
		if res.Err == nil {
			stored++
		} else if firstErr == nil {
			firstErr = res.Err
		}
	}
	if stored == 0 && firstErr != nil {
		status = statusFor(firstErr)
	}
	h.respondWithJSON(w, status, PhotoUploadResponse{Results: results})
}

func (h *HTTPHandler) SetMainPhoto(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	listingID, ok := h.uuidParam(w, r, "listingId")
	if !ok {
		return
	}
	photoID, ok := h.uuidParam(w, r, "photoId")
	if !ok {
		return
	}
	if err := h.listings.SetMainPhoto(r.Context(), ownerID, listingID, photoID); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	listingID, ok := h.uuidParam(w, r, "listingId")
	if !ok {
		return
	}
	photoID, ok := h.uuidParam(w, r, "photoId")
	if !ok {
		return
	}
	if err := h.listings.DeletePhoto(r.Context(), ownerID, listingID, photoID); err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
