package cartstate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

const (
	// DefaultCSRFHeader carries the anti-forgery token on mutating calls
	DefaultCSRFHeader = "X-CSRF-Token"

	defaultRemoteTimeout = 15 * time.Second
	maxResponseSize      = 1 << 20
)

// RemoteError is a non-2xx answer from the cart API
type RemoteError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("cart api: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// HTTPRemote talks to the storefront cart API. The anonymous cart session
// lives in a cookie, so the client must keep a cookie jar.
type HTTPRemote struct {
	baseURL     string
	httpClient  *http.Client
	csrfHeader  string
	accessToken string
}

// RemoteOption configures an HTTPRemote
type RemoteOption func(*HTTPRemote)

// WithHTTPClient replaces the default client
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *HTTPRemote) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// WithCSRFHeader overrides the anti-forgery header name
func WithCSRFHeader(name string) RemoteOption {
	return func(r *HTTPRemote) {
		if name != "" {
			r.csrfHeader = name
		}
	}
}

// WithAccessToken authenticates calls as a signed-in user
func WithAccessToken(token string) RemoteOption {
	return func(r *HTTPRemote) {
		r.accessToken = token
	}
}

// NewHTTPRemote creates a remote for the API at baseURL, e.g.
// "https://shop.example.com/api/v1"
func NewHTTPRemote(baseURL string, opts ...RemoteOption) *HTTPRemote {
	jar, _ := cookiejar.New(nil)
	r := &HTTPRemote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultRemoteTimeout, Jar: jar},
		csrfHeader: DefaultCSRFHeader,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

// Generate fetches a fresh anti-forgery token from the API. The token is
// bound to the session cookie or access token this remote sends.
func (r *HTTPRemote) Generate(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := r.do(ctx, http.MethodGet, "/csrf-token", "", nil, &out)
	if err != nil {
		var remoteErr *RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Code == dto.ErrCodeCSRFUnavailable {
			return "", fmt.Errorf("%w: %s", ErrMisconfigured, remoteErr.Message)
		}
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("cart api: empty anti-forgery token")
	}
	return out.Token, nil
}

// Fetch loads the cart
func (r *HTTPRemote) Fetch(ctx context.Context) (*CartSnapshot, error) {
	return r.snapshot(ctx, http.MethodGet, "/cart", "", nil)
}

// AddItem adds a line
func (r *HTTPRemote) AddItem(ctx context.Context, token string, input AddItemInput) (*CartSnapshot, error) {
	return r.snapshot(ctx, http.MethodPost, "/cart/items", token, input)
}

// UpdateItem sets a line quantity
func (r *HTTPRemote) UpdateItem(ctx context.Context, token string, itemID uuid.UUID, quantity int) (*CartSnapshot, error) {
	return r.snapshot(ctx, http.MethodPatch, "/cart/items/"+itemID.String(), token, map[string]int{"quantity": quantity})
}

// RemoveItem drops a line
func (r *HTTPRemote) RemoveItem(ctx context.Context, token string, itemID uuid.UUID) (*CartSnapshot, error) {
	return r.snapshot(ctx, http.MethodDelete, "/cart/items/"+itemID.String(), token, nil)
}

// Clear empties the cart
func (r *HTTPRemote) Clear(ctx context.Context, token string) error {
	return r.do(ctx, http.MethodDelete, "/cart", token, nil, nil)
}

// ApplyDiscount applies a discount code
func (r *HTTPRemote) ApplyDiscount(ctx context.Context, token, code string) (*CartSnapshot, error) {
	return r.snapshot(ctx, http.MethodPost, "/cart/discount", token, map[string]string{"code": code})
}

// RemoveDiscount removes the discount code
func (r *HTTPRemote) RemoveDiscount(ctx context.Context, token string) (*CartSnapshot, error) {
	return r.snapshot(ctx, http.MethodDelete, "/cart/discount", token, nil)
}

func (r *HTTPRemote) snapshot(ctx context.Context, method, path, token string, body any) (*CartSnapshot, error) {
	var cart CartSnapshot
	if err := r.do(ctx, method, path, token, body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// do sends one request and decodes the response envelope's data into out
func (r *HTTPRemote) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("cart api: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("cart api: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(r.csrfHeader, token)
	}
	if r.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.accessToken)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cart api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("cart api: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < http.StatusBadRequest {
			return fmt.Errorf("cart api: malformed response: %w", err)
		}
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		remoteErr := &RemoteError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if env.Error != nil {
			remoteErr.Code = env.Error.Code
			remoteErr.Message = env.Error.Message
		}
		return remoteErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("cart api: malformed response data: %w", err)
		}
	}
	return nil
}
