package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalog-service/internal/domain"
)

// Smallest valid PNG: signature plus IHDR, IDAT and IEND chunks.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

func gifBytes() []byte {
	return append([]byte("GIF89a"), make([]byte, 32)...)
}

func TestPolicyInspect_AcceptsImage(t *testing.T) {
	got, err := ListingPhotoPolicy.Inspect(bytes.NewReader(pngBytes), int64(len(pngBytes)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, ".png", got.Extension)

	body, err := io.ReadAll(got.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, body, "sniffed header must be replayed")
}

func TestPolicyInspect_RejectsNonImage(t *testing.T) {
	text := []byte("definitely not an image, just some text")
	_, err := ListingPhotoPolicy.Inspect(bytes.NewReader(text), int64(len(text)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestListingPhotoPolicy_RejectsSVG(t *testing.T) {
	svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	_, err := ListingPhotoPolicy.Inspect(bytes.NewReader(svg), int64(len(svg)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestPolicyInspect_RejectsDeclaredOversize(t *testing.T) {
	_, err := ListingPhotoPolicy.Inspect(bytes.NewReader(pngBytes), 21<<20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "20 MB")
}

func TestPolicyInspect_RejectsEmpty(t *testing.T) {
	_, err := ListingPhotoPolicy.Inspect(bytes.NewReader(nil), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestPolicyInspect_BodyEnforcesLimit(t *testing.T) {
	p := Policy{MaxBytes: 4000, AllowedTypes: []string{"image/png"}}
	payload := append(append([]byte{}, pngBytes...), make([]byte, 5000)...)

	got, err := p.Inspect(bytes.NewReader(payload), 10)
	require.NoError(t, err, "declared size is under the limit")
	_, err = io.ReadAll(got.Body)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestProfilePhotoPolicy_ExactTypes(t *testing.T) {
	_, err := ProfilePhotoPolicy.Inspect(bytes.NewReader(pngBytes), int64(len(pngBytes)))
	assert.NoError(t, err)

	gif := gifBytes()
	_, err = ProfilePhotoPolicy.Inspect(bytes.NewReader(gif), int64(len(gif)))
	assert.Error(t, err, "gif is an image but not accepted for profiles")

	_, err = ListingPhotoPolicy.Inspect(bytes.NewReader(gif), int64(len(gif)))
	assert.NoError(t, err)
}

func TestLocalStore_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/uploads/")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "listings/abc/photo.png", bytes.NewReader(pngBytes), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/listings/abc/photo.png", url)

	stored, err := os.ReadFile(filepath.Join(dir, "listings", "abc", "photo.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)

	require.NoError(t, s.Delete(context.Background(), url))
	_, err = os.Stat(filepath.Join(dir, "listings", "abc", "photo.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(context.Background(), url), "deleting twice is fine")
}

func TestLocalStore_KeysStayInsideDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(filepath.Join(dir, "root"), "/uploads")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "../../escape.png", strings.NewReader("x"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.png", url)
	_, err = os.Stat(filepath.Join(dir, "root", "escape.png"))
	assert.NoError(t, err)

	assert.Error(t, s.Delete(context.Background(), "https://elsewhere/x.png"))
}

func TestLocalStore_PutHonorsCancel(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Put(ctx, "a.png", bytes.NewReader(pngBytes), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}

type mockUploadAPI struct {
	mock.Mock
}

func (m *mockUploadAPI) Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	args := m.Called(ctx, file, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uploader.UploadResult), args.Error(1)
}

func (m *mockUploadAPI) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uploader.DestroyResult), args.Error(1)
}

func TestCloudinaryStore_Put(t *testing.T) {
	m := new(mockUploadAPI)
	s := &CloudinaryStore{api: m, folder: "catalog"}

	m.On("Upload", mock.Anything, mock.Anything, mock.MatchedBy(func(p uploader.UploadParams) bool {
		return p.PublicID == "listings/abc/photo" && p.Folder == "catalog"
	})).Return(&uploader.UploadResult{SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/catalog/listings/abc/photo.png"}, nil)

	url, err := s.Put(context.Background(), "listings/abc/photo.png", bytes.NewReader(pngBytes), "image/png")
	require.NoError(t, err)
	assert.Contains(t, url, "catalog/listings/abc/photo")
	m.AssertExpectations(t)
}

func TestCloudinaryStore_PutReportsAPIError(t *testing.T) {
	m := new(mockUploadAPI)
	s := &CloudinaryStore{api: m, folder: "catalog"}
	m.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return(&uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}, nil)

	_, err := s.Put(context.Background(), "x.png", bytes.NewReader(pngBytes), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid image file")
}

func TestCloudinaryStore_Delete(t *testing.T) {
	m := new(mockUploadAPI)
	s := &CloudinaryStore{api: m, folder: "catalog"}
	m.On("Destroy", mock.Anything, uploader.DestroyParams{PublicID: "catalog/listings/abc/photo"}).
		Return(&uploader.DestroyResult{Result: "ok"}, nil)

	err := s.Delete(context.Background(), "https://res.cloudinary.com/demo/image/upload/v1712345/catalog/listings/abc/photo.png")
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestPublicIDFromURL(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1712345/catalog/a/b.jpg": "catalog/a/b",
		"https://res.cloudinary.com/demo/image/upload/catalog/a/b.webp":         "catalog/a/b",
		"https://res.cloudinary.com/demo/image/upload/v2/flat":                  "flat",
	}
	for in, want := range cases {
		got, err := publicIDFromURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := publicIDFromURL("https://example.com/static/a.jpg")
	assert.ErrorIs(t, err, errNotCloudinaryURL)
}
