package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// uploadAPI is the part of cloudinary's uploader.API the store calls.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// CloudinaryStore keeps blobs in a Cloudinary folder.
type CloudinaryStore struct {
	api    uploadAPI
	folder string
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("blob: init cloudinary: %w", err)
	}
	return &CloudinaryStore{api: &cld.Upload, folder: strings.Trim(folder, "/")}, nil
}

// Put uploads r under key (extension dropped, Cloudinary appends its own) and
// returns the secure URL.
func (s *CloudinaryStore) Put(ctx context.Context, key string, r io.Reader, _ string) (string, error) {
	publicID := strings.TrimSuffix(key, path.Ext(key))
	overwrite := false
	res, err := s.api.Upload(ctx, r, uploader.UploadParams{
		PublicID:  publicID,
		Folder:    s.folder,
		Overwrite: &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("blob: cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("blob: cloudinary upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, rawURL string) error {
	publicID, err := publicIDFromURL(rawURL)
	if err != nil {
		return err
	}
	res, err := s.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("blob: cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("blob: cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}

var errNotCloudinaryURL = errors.New("blob: not a cloudinary delivery url")

// publicIDFromURL extracts "folder/name" from
// https://res.cloudinary.com/<cloud>/image/upload/v123/folder/name.jpg.
func publicIDFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("blob: parse url: %w", err)
	}
	_, rest, ok := strings.Cut(u.Path, "/upload/")
	if !ok || rest == "" {
		return "", errNotCloudinaryURL
	}
	segments := strings.Split(rest, "/")
	if first := segments[0]; len(first) > 1 && first[0] == 'v' && isDigits(first[1:]) {
		segments = segments[1:]
	}
	id := strings.Join(segments, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	if id == "" {
		return "", errNotCloudinaryURL
	}
	return id, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
