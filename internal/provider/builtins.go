package provider

import (
	"errors"
	"io/fs"
	"time"
)

// Settings parameterizes the built-in providers.
type Settings struct {
	BaseURL  string        // profile service root for "http"
	Timeout  time.Duration // per-request timeout for "http"
	Fixtures fs.FS         // holds FixtureFile for "fixture"
}

// NewBuiltinRegistry returns a Registry holding the "http" and "fixture"
// providers.
func NewBuiltinRegistry() *Registry {
	reg := NewRegistry()
	// Names are fixed and distinct, so registration cannot fail.
	_ = reg.Register("http", newHTTPFromSettings)
	_ = reg.Register("fixture", newFixtureFromSettings)
	return reg
}

func newHTTPFromSettings(s Settings) (Fetcher, error) {
	if s.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	var opts []Option
	if s.Timeout > 0 {
		opts = append(opts, WithTimeout(s.Timeout))
	}
	return NewHTTPProvider(s.BaseURL, opts...), nil
}

func newFixtureFromSettings(s Settings) (Fetcher, error) {
	if s.Fixtures == nil {
		return nil, errors.New("fixtures filesystem is required")
	}
	p, err := LoadFixtures(s.Fixtures)
	if err != nil {
		return nil, err
	}
	return p, nil
}
