package api

import (
	"net/http"

	"catalog-service/internal/catalog"
)

// --- Geo Handlers ---

func (h *HTTPHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.geo.ListRegions(r.Context(), r.URL.Query().Get("lang"))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, regions)
}

func (h *HTTPHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cities, err := h.geo.ListCities(r.Context(), catalog.CityQuery{
		Region: q.Get("region"),
		Lang:   q.Get("lang"),
		Query:  q.Get("query"),
	})
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, cities)
}

func (h *HTTPHandler) SearchCities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.geo.SearchCities(r.Context(), q.Get("lang"), q.Get("q"))
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, items)
}
