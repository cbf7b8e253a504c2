package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
)

// defaultTimeout is used when no timeout option is provided.
const defaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// Verify HTTPProvider satisfies Fetcher at compile time.
var _ Fetcher = (*HTTPProvider)(nil)

// HTTPProvider asks the profile service for a handle with
// POST {baseURL}/profile.
type HTTPProvider struct {
	name    string
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// Option configures an HTTPProvider.
type Option func(*HTTPProvider)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *HTTPProvider) { p.timeout = d }
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *HTTPProvider) { p.client = c }
}

// NewHTTPProvider creates an HTTPProvider for the service at baseURL.
func NewHTTPProvider(baseURL string, opts ...Option) *HTTPProvider {
	p := &HTTPProvider{
		name:    "http",
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{}
	}
	return p
}

// Name returns the provider name.
func (p *HTTPProvider) Name() string { return p.name }

type profileRequest struct {
	Username string `json:"username"`
}

// envelope is the service's response wrapper. Data is absent when the
// service answers with a bare attributes object.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Fetch requests handle's attributes. Failures are returned as
// *profile.Error classified by the response status.
func (p *HTTPProvider) Fetch(ctx context.Context, handle string) (Attributes, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	body, err := json.Marshal(profileRequest{Username: handle})
	if err != nil {
		return Attributes{}, p.unavailable(handle, "", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/profile", bytes.NewReader(body))
	if err != nil {
		return Attributes{}, p.unavailable(handle, "", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Attributes{}, &profile.Error{
				Kind:   profile.ProviderUnavailable,
				Handle: handle,
				Msg:    "profile service timed out",
				Err:    &TimeoutError{Provider: p.name, Duration: p.timeout},
			}
		}
		return Attributes{}, p.unavailable(handle, "Network error occurred", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Attributes{}, p.unavailable(handle, "", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Attributes{}, p.statusError(handle, resp, env.Message)
	}
	if decodeErr != nil {
		return Attributes{}, p.unavailable(handle, "", fmt.Errorf("decode response: %w", decodeErr))
	}
	// A bare attributes object carries the presence in "status", so the
	// envelope status is only checked when data is present.
	data := raw
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if env.Status != "" && !strings.EqualFold(env.Status, "success") {
			return Attributes{}, p.unavailable(handle, env.Message, fmt.Errorf("response status %q", env.Status))
		}
		data = env.Data
	} else if strings.EqualFold(env.Status, "error") {
		return Attributes{}, p.unavailable(handle, env.Message, errors.New("response status \"error\""))
	}
	var attrs Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return Attributes{}, p.unavailable(handle, "", fmt.Errorf("decode profile: %w", err))
	}
	return attrs, nil
}

func (p *HTTPProvider) statusError(handle string, resp *http.Response, message string) error {
	cause := &ProviderError{Provider: p.name, Err: fmt.Errorf("status %d", resp.StatusCode)}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return &profile.Error{Kind: profile.NotFound, Handle: handle, Err: cause}
	case http.StatusTooManyRequests:
		msg := ""
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			msg = fmt.Sprintf("too many requests to the profile service; try again in %ds", secs)
		}
		return &profile.Error{Kind: profile.RateLimited, Handle: handle, Msg: msg, Err: cause}
	default:
		if message == "" {
			message = "Failed to fetch profile data"
		}
		return &profile.Error{Kind: profile.ProviderUnavailable, Handle: handle, Msg: message, Err: cause}
	}
}

func (p *HTTPProvider) unavailable(handle, msg string, err error) error {
	return &profile.Error{
		Kind:   profile.ProviderUnavailable,
		Handle: handle,
		Msg:    msg,
		Err:    &ProviderError{Provider: p.name, Err: err},
	}
}
