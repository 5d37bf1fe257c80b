// Package profile looks up public seller profiles in the user-profile service.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"catalog-service/internal/domain"
)

// ErrNotFound is returned when the profile service has no such user.
var ErrNotFound = errors.New("profile: seller not found")

// Client fetches the public profile of a listing owner.
type Client interface {
	GetSeller(ctx context.Context, id uuid.UUID) (*domain.Seller, error)
}

// HTTPClient calls GET {base}/api/users/{id}/public.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *HTTPClient) GetSeller(ctx context.Context, id uuid.UUID) (*domain.Seller, error) {
	endpoint := c.baseURL + "/api/users/" + url.PathEscape(id.String()) + "/public"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("profile: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.Dependency("profile service", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, domain.Dependency("profile service", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var seller domain.Seller
	if err := json.NewDecoder(resp.Body).Decode(&seller); err != nil {
		return nil, domain.Dependency("profile service", fmt.Errorf("decode response: %w", err))
	}
	if seller.ID == uuid.Nil {
		seller.ID = id
	}
	c.logger.Debug("Seller profile fetched", zap.String("user_id", id.String()))
	return &seller, nil
}
