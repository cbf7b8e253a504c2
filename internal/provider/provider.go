// Package provider fetches profile attributes from a remote profile service
// behind a common interface.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
)

// Activity is the provider's raw activity payload.
type Activity struct {
	Type string `json:"type" yaml:"type"`
	Name string `json:"name" yaml:"name"`
}

// Attributes is what a provider reports for one handle.
type Attributes struct {
	Username    string    `json:"username" yaml:"username"`
	DisplayName string    `json:"displayName" yaml:"display_name"`
	AvatarURL   *string   `json:"avatarUrl" yaml:"avatar_url"`
	Status      string    `json:"status" yaml:"status"`
	Activity    *Activity `json:"activity" yaml:"activity"`
}

// Profile converts the attributes into a profile for handle. The requested
// handle is kept so callers see the form they typed. FetchedAt is left zero
// for the cache to stamp.
func (a Attributes) Profile(handle string) profile.Profile {
	p := profile.Profile{
		Handle:      handle,
		DisplayName: a.DisplayName,
		Presence:    profile.ParsePresence(a.Status),
	}
	if a.AvatarURL != nil {
		p.AvatarURL = *a.AvatarURL
	}
	if a.Activity != nil && a.Activity.Name != "" {
		p.Activity = &profile.Activity{Kind: profile.ParseActivityKind(a.Activity.Type), Label: a.Activity.Name}
	}
	return p
}

// Verify MockProvider satisfies Fetcher at compile time.
var _ Fetcher = (*MockProvider)(nil)

// MockProvider is a test double that satisfies any Fetcher-shaped interface.
type MockProvider struct {
	NameVal   string
	FetchFunc func(ctx context.Context, handle string) (Attributes, error)
}

// Name returns the configured provider name.
func (m *MockProvider) Name() string { return m.NameVal }

// Fetch delegates to FetchFunc, returning zero Attributes if FetchFunc is nil.
func (m *MockProvider) Fetch(ctx context.Context, handle string) (Attributes, error) {
	if m.FetchFunc == nil {
		return Attributes{}, nil
	}
	return m.FetchFunc(ctx, handle)
}

// ProviderError wraps an error from a specific provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider: %s: %s", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates a provider request exceeded its time limit.
type TimeoutError struct {
	Provider string
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider: %s: timed out after %s", e.Provider, e.Duration)
}

// Unwrap lets errors.Is(err, context.DeadlineExceeded) match timeouts.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}
