package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"catalog-service/internal/blob"
	"catalog-service/internal/catalog"
	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
	"catalog-service/internal/store/mocks"
)

// testStores bundles the mocks behind a test server.
type testStores struct {
	categories *mocks.CategoryStorer
	attributes *mocks.AttributeStorer
	listings   *mocks.ListingStorer
	photos     *mocks.PhotoStorer
	geo        *mocks.GeoStorer
	blobs      *mocks.BlobStore
	profiles   *mocks.ProfileClient
}

func newTestStores() *testStores {
	return &testStores{
		categories: new(mocks.CategoryStorer),
		attributes: new(mocks.AttributeStorer),
		listings:   new(mocks.ListingStorer),
		photos:     new(mocks.PhotoStorer),
		geo:        new(mocks.GeoStorer),
		blobs:      new(mocks.BlobStore),
		profiles:   new(mocks.ProfileClient),
	}
}

func (s *testStores) services() (*catalog.CategoryService, *catalog.ListingService, *catalog.GeoService) {
	logger := zap.NewNop()
	categories := catalog.NewCategoryService(s.categories, s.attributes, logger)
	listings := catalog.NewListingService(catalog.ListingDeps{
		Listings:    s.listings,
		Photos:      s.photos,
		Categories:  s.categories,
		Attributes:  s.attributes,
		Geo:         s.geo,
		Blobs:       s.blobs,
		Profiles:    s.profiles,
		PhotoPolicy: blob.ListingPhotoPolicy,
		Logger:      logger,
	})
	return categories, listings, catalog.NewGeoService(s.geo, logger)
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T, s *testStores) *httptest.Server {
	t.Helper()
	categories, listings, geo := s.services()
	handler := NewHTTPHandler(categories, listings, geo, 0, zap.NewNop())
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

// Helper function to get a pointer (useful for optional fields in request structs)
func PtrTo[T any](v T) *T {
	return &v
}

func doJSON(t *testing.T, method, url string, payload any, headers map[string]string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestHTTPHandler_GetCategoryTree(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)

	root := domain.Category{ID: uuid.New(), Slug: "electronics", IsEnabled: true, Names: i18n.Translations{"ru": "Электроника", "en": "Electronics"}}
	child := domain.Category{ID: uuid.New(), Slug: "phones", ParentID: &root.ID, IsEnabled: true, Names: i18n.Translations{"ru": "Телефоны"}}
	s.categories.On("ListEnabledCategories", mock.Anything).Return([]domain.Category{root, child}, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/categories?lang=en")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var tree []domain.CategoryNode
	require.NoError(t, json.NewDecoder(res.Body).Decode(&tree))
	require.Len(t, tree, 1)
	assert.Equal(t, "Electronics", tree[0].Title)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Телефоны", tree[0].Children[0].Title)
	s.categories.AssertExpectations(t)
}

func TestHTTPHandler_CreateCategory_Success(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)

	now := time.Now().Truncate(time.Millisecond)
	s.categories.On("SlugExists", mock.Anything, "auto-parts", (*uuid.UUID)(nil)).Return(false, nil).Once()
	s.categories.On("CreateCategory", mock.Anything, mock.MatchedBy(func(c *domain.Category) bool {
		return c.Slug == "auto-parts" && c.Names["ru"] == "Автозапчасти" && c.Names["en"] == "Auto parts"
	})).Return(func(_ context.Context, c *domain.Category) *domain.Category {
		c.CreatedAt, c.UpdatedAt = now, now
		return c
	}, nil).Once()

	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/admin/categories", CategoryInput{
		Name:         "Автозапчасти",
		Slug:         PtrTo(" Auto  Parts! "),
		Translations: map[string]string{"en": "Auto parts"},
	}, nil)

	require.Equal(t, http.StatusCreated, res.StatusCode)
	var created domain.Category
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.Equal(t, "auto-parts", created.Slug)
	assert.True(t, created.IsEnabled)
	assert.WithinDuration(t, now, created.CreatedAt, 5*time.Second)
	s.categories.AssertExpectations(t)
}

func TestHTTPHandler_CreateCategory_InvalidPayload_Validation(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)

	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/admin/categories", CategoryInput{Name: ""}, nil)

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Contains(t, errResp.Error, "Validation failed")
	s.categories.AssertNotCalled(t, "CreateCategory", mock.Anything, mock.Anything)
}

func TestHTTPHandler_CreateCategory_SlugExists(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)
	s.categories.On("SlugExists", mock.Anything, "electronics", (*uuid.UUID)(nil)).Return(true, nil).Once()

	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/admin/categories", CategoryInput{Name: "Electronics"}, nil)

	assert.Equal(t, http.StatusConflict, res.StatusCode)
	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&errResp))
	assert.Equal(t, "slug", errResp.Field)
	assert.Contains(t, errResp.Error, "already exists")
}

func TestHTTPHandler_ListCategories_Success(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)
	s.categories.On("ListCategories", mock.Anything).Return([]domain.Category{
		{ID: uuid.New(), Slug: "a", Names: i18n.Translations{"ru": "Категория A"}, IsEnabled: true},
		{ID: uuid.New(), Slug: "b"},
	}, nil).Once()

	res, err := http.Get(server.URL + "/api/v1/admin/categories")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var items []domain.CategoryListItem
	require.NoError(t, json.NewDecoder(res.Body).Decode(&items))
	require.Len(t, items, 2)
	assert.Equal(t, "Категория A", items[0].Name)
	assert.Equal(t, "b", items[1].Name)
}

func TestHTTPHandler_UpdateCategory_NotFound(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)
	id := uuid.New()
	s.categories.On("GetCategoryByID", mock.Anything, id).Return(nil, domain.NotFound("category", id)).Once()

	res := doJSON(t, http.MethodPut, server.URL+"/api/v1/admin/categories/"+id.String(), CategoryInput{Name: "Whatever"}, nil)

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	s.categories.AssertNotCalled(t, "UpdateCategory", mock.Anything, mock.Anything)
}

func TestHTTPHandler_UpdateCategory_InvalidID(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)

	res := doJSON(t, http.MethodPut, server.URL+"/api/v1/admin/categories/42", CategoryInput{Name: "Whatever"}, nil)

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHTTPHandler_DisableCategory(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)
	id, missing := uuid.New(), uuid.New()
	s.categories.On("DisableCategory", mock.Anything, id).Return(nil).Once()
	s.categories.On("DisableCategory", mock.Anything, missing).Return(domain.NotFound("category", missing)).Once()

	res := doJSON(t, http.MethodDelete, server.URL+"/api/v1/admin/categories/"+id.String(), nil, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = doJSON(t, http.MethodDelete, server.URL+"/api/v1/admin/categories/"+missing.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	s.categories.AssertExpectations(t)
}

func TestHTTPHandler_GetCategoryAttributes(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)
	catID := uuid.New()
	s.categories.On("GetCategoryByID", mock.Anything, catID).Return(&domain.Category{ID: catID, IsEnabled: true}, nil).Once()
	s.attributes.On("ListAttributes", mock.Anything, catID).Return([]domain.CategoryAttribute{
		{ID: uuid.New(), Code: "mileage", Type: domain.AttributeNumber, IsRequired: true, Unit: PtrTo("km"), Labels: i18n.Translations{"ru": "Пробег"}},
	}, nil).Once()

	res, err := http.Get(server.URL + fmt.Sprintf("/api/v1/categories/%s/attributes?lang=hy", catID))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	var attrs []domain.AttributeView
	require.NoError(t, json.NewDecoder(res.Body).Decode(&attrs))
	require.Len(t, attrs, 1)
	assert.Equal(t, "Пробег", attrs[0].Title)
	assert.Equal(t, domain.AttributeNumber, attrs[0].Type)
}

func TestHTTPHandler_CreateAttribute_UnknownType(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)
	catID := uuid.New()

	res := doJSON(t, http.MethodPost, server.URL+"/api/v1/admin/categories/"+catID.String()+"/attributes",
		AttributeInput{Code: "born", Type: "date"}, nil)

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	s.attributes.AssertNotCalled(t, "CreateAttribute", mock.Anything, mock.Anything)
}

func TestHTTPHandler_SetOptionActive(t *testing.T) {
	s := newTestStores()
	server := setupTestChiServer(t, s)
	id := uuid.New()
	s.attributes.On("SetOptionActive", mock.Anything, id, false).Return(nil).Once()

	res := doJSON(t, http.MethodPut, server.URL+"/api/v1/admin/options/"+id.String()+"/active", OptionActiveInput{IsActive: PtrTo(false)}, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res = doJSON(t, http.MethodPut, server.URL+"/api/v1/admin/options/"+id.String()+"/active", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode, "is_active is required")
	s.attributes.AssertExpectations(t)
}
