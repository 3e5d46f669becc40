package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNetwork is returned when the token list cannot be fetched or decoded.
var ErrNetwork = errors.New("token source unavailable")

// maxBodyBytes bounds the response body read from the endpoint.
const maxBodyBytes = 1 << 20

// Source supplies the ordered token sequence file names are built from
type Source interface {
	// Fetch returns the current tokens in endpoint order
	Fetch(ctx context.Context) ([]string, error)
}

// document is the JSON shape served by the token endpoint. Data is a pointer
// so that a missing or null field is told apart from an empty list.
type document struct {
	Data *[]string `json:"data"`
}

// HTTPSource implements Source with a single GET against a JSON endpoint
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a token source for url. A zero timeout leaves the
// request bounded only by the context.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs the GET request and decodes the data field
func (s *HTTPSource) Fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s returned %s", ErrNetwork, s.url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode body: %w", ErrNetwork, err)
	}
	if doc.Data == nil {
		return nil, fmt.Errorf("%w: response has no data field", ErrNetwork)
	}

	return *doc.Data, nil
}
