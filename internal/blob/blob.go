// Package blob stores uploaded image bytes and hands back retrievable URLs.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"catalog-service/internal/domain"
)

// Store is the blob collaborator. Put returns a stable URL for the stored
// object; Delete removes the object behind a URL previously returned by Put.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// sniffLen covers the signatures mimetype needs for common image formats.
const sniffLen = 3072

// Policy describes which uploads a Store accepts for one use.
type Policy struct {
	MaxBytes int64
	// AllowedTypes lists the accepted sniffed MIME types.
	AllowedTypes []string
}

var (
	// ListingPhotoPolicy accepts raster images only; SVG is rejected.
	ListingPhotoPolicy = Policy{MaxBytes: 20 << 20, AllowedTypes: []string{
		"image/jpeg", "image/png", "image/gif", "image/webp", "image/avif", "image/heic",
	}}
	// ProfilePhotoPolicy is the contract of the user-profile service's avatar
	// uploads; this service does not accept profile photos itself.
	ProfilePhotoPolicy = Policy{MaxBytes: 5 << 20, AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"}}
)

// Inspected is an upload that passed a Policy.
type Inspected struct {
	ContentType string
	Extension   string
	// Body yields the complete upload, including the sniffed header bytes.
	Body io.Reader
}

// Inspect checks the declared size and the sniffed content type of r.
// The client supplied content type is never trusted.
func (p Policy) Inspect(r io.Reader, size int64) (*Inspected, error) {
	if size > p.MaxBytes {
		return nil, domain.Validationf("file", "file exceeds the %d MB limit", p.MaxBytes>>20)
	}

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("blob: read upload header: %w", err)
	}
	if n == 0 {
		return nil, domain.Validationf("file", "file is empty")
	}
	header = header[:n]
	if int64(n) > p.MaxBytes {
		return nil, ErrTooLarge
	}

	mt := mimetype.Detect(header)
	contentType, _, _ := strings.Cut(mt.String(), ";")
	if !p.allows(contentType) {
		return nil, domain.Validationf("file", "content type %s is not accepted", contentType)
	}

	return &Inspected{
		ContentType: contentType,
		Extension:   mt.Extension(),
		Body:        io.MultiReader(bytes.NewReader(header), &limitedReader{r: r, left: p.MaxBytes - int64(n)}),
	}, nil
}

func (p Policy) allows(contentType string) bool {
	for _, t := range p.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// ErrTooLarge is returned by an inspected Body that outgrows its policy.
var ErrTooLarge = domain.Validationf("file", "file exceeds the size limit")

// limitedReader returns ErrTooLarge once the source yields more than left bytes.
type limitedReader struct {
	r    io.Reader
	left int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.left <= 0 {
		var one [1]byte
		if n, _ := l.r.Read(one[:]); n > 0 {
			return 0, ErrTooLarge
		}
		return 0, io.EOF
	}
	if int64(len(p)) > l.left {
		p = p[:l.left]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	return n, err
}
