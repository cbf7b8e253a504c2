package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
)

// FixtureFile is the name of the fixture document inside a fixtures FS.
const FixtureFile = "profiles.yaml"

// Verify FixtureProvider satisfies Fetcher at compile time.
var _ Fetcher = (*FixtureProvider)(nil)

// fixture is one canned profile. Fail simulates a service error
// ("not_found", "rate_limited" or "unavailable") instead of returning the
// attributes. Delay holds the response back to make loading states visible.
type fixture struct {
	Attributes `yaml:",inline"`
	Fail       string        `yaml:"fail"`
	Delay      time.Duration `yaml:"delay"`
}

type fixtureDoc struct {
	Profiles []fixture `yaml:"profiles"`
}

// FixtureProvider serves canned profiles for offline use. Handles match
// case-insensitively; unknown handles are NotFound.
type FixtureProvider struct {
	profiles map[string]fixture
}

// ParseFixtures decodes a fixture document.
func ParseFixtures(data []byte) (*FixtureProvider, error) {
	var doc fixtureDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("provider: parsing fixtures: %w", err)
	}

	p := &FixtureProvider{profiles: make(map[string]fixture, len(doc.Profiles))}
	for i, f := range doc.Profiles {
		if f.Username == "" {
			return nil, fmt.Errorf("provider: fixture %d has no username", i)
		}
		switch f.Fail {
		case "", "not_found", "rate_limited", "unavailable":
		default:
			return nil, fmt.Errorf("provider: fixture %q: unknown fail mode %q", f.Username, f.Fail)
		}
		p.profiles[profile.Normalize(f.Username)] = f
	}
	return p, nil
}

// LoadFixtures reads FixtureFile from fsys.
func LoadFixtures(fsys fs.FS) (*FixtureProvider, error) {
	data, err := fs.ReadFile(fsys, FixtureFile)
	if err != nil {
		return nil, fmt.Errorf("provider: reading fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// Name returns the provider name.
func (p *FixtureProvider) Name() string { return "fixture" }

// Handles returns the number of canned profiles.
func (p *FixtureProvider) Handles() int { return len(p.profiles) }

// Fetch returns the canned attributes for handle.
func (p *FixtureProvider) Fetch(ctx context.Context, handle string) (Attributes, error) {
	f, ok := p.profiles[profile.Normalize(handle)]
	if !ok {
		return Attributes{}, &profile.Error{Kind: profile.NotFound, Handle: handle}
	}

	if f.Delay > 0 {
		t := time.NewTimer(f.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Attributes{}, profile.Classify(ctx.Err(), handle)
		case <-t.C:
		}
	}

	switch f.Fail {
	case "not_found":
		return Attributes{}, &profile.Error{Kind: profile.NotFound, Handle: handle}
	case "rate_limited":
		return Attributes{}, &profile.Error{Kind: profile.RateLimited, Handle: handle}
	case "unavailable":
		return Attributes{}, &profile.Error{Kind: profile.ProviderUnavailable, Handle: handle}
	}
	return f.Attributes, nil
}
