// Package cache stores timestamped profile snapshots in a key-value store and
// owns the expiration and staleness policy.
//
// Two thresholds decouple "good enough to show" from "show, then silently
// improve": an entry past StaleThreshold is still served but flagged by
// IsStale; an entry past Expiration is deleted on read and treated as absent.
// The cache never refreshes anything itself.
package cache

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
)

// KeyPrefix namespaces profile entries in the shared store.
const KeyPrefix = "discord_profile_"

const (
	DefaultExpiration     = 30 * time.Minute
	DefaultStaleThreshold = 10 * time.Minute
)

// Store is the key-value surface the cache needs.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	KeysWithPrefix(prefix string) ([]string, error)
}

// Layer reads and writes profile entries.
type Layer struct {
	store          Store
	expiration     time.Duration
	staleThreshold time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

// Option configures a Layer.
type Option func(*Layer)

// WithExpiration sets how old an entry may be before it is discarded.
func WithExpiration(d time.Duration) Option {
	return func(l *Layer) { l.expiration = d }
}

// WithStaleThreshold sets how old an entry may be before a hit warrants a background refresh.
func WithStaleThreshold(d time.Duration) Option {
	return func(l *Layer) { l.staleThreshold = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Layer) { l.now = now }
}

// WithLogger sets the logger for swallowed store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Layer) { l.logger = logger }
}

// New creates a Layer over store.
func New(store Store, opts ...Option) *Layer {
	l := &Layer{
		store:          store,
		expiration:     DefaultExpiration,
		staleThreshold: DefaultStaleThreshold,
		now:            time.Now,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the store key for handle.
func Key(handle string) string {
	return KeyPrefix + profile.Normalize(handle)
}

// entry is the persisted form of a profile.
type entry struct {
	Username    string         `json:"username"`
	DisplayName string         `json:"displayName"`
	AvatarURL   *string        `json:"avatarUrl"`
	Status      string         `json:"status"`
	Activity    *entryActivity `json:"activity"`
	FetchedAt   int64          `json:"fetchedAt"`
}

type entryActivity struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func toEntry(p profile.Profile) entry {
	e := entry{
		Username:    p.Handle,
		DisplayName: p.DisplayName,
		Status:      string(p.Presence),
		FetchedAt:   p.FetchedAt.UnixMilli(),
	}
	if p.AvatarURL != "" {
		avatar := p.AvatarURL
		e.AvatarURL = &avatar
	}
	if p.Activity != nil {
		e.Activity = &entryActivity{Type: string(p.Activity.Kind), Name: p.Activity.Label}
	}
	return e
}

func (e entry) toProfile() profile.Profile {
	p := profile.Profile{
		Handle:      e.Username,
		DisplayName: e.DisplayName,
		Presence:    profile.ParsePresence(e.Status),
		FetchedAt:   time.UnixMilli(e.FetchedAt),
	}
	if e.AvatarURL != nil {
		p.AvatarURL = *e.AvatarURL
	}
	if e.Activity != nil {
		p.Activity = &profile.Activity{Kind: profile.ParseActivityKind(e.Activity.Type), Label: e.Activity.Name}
	}
	return p
}

// Read returns the cached profile for handle.
// Missing, malformed and expired entries are absent; malformed and expired
// entries are also deleted.
func (l *Layer) Read(handle string) (profile.Profile, bool) {
	key := Key(handle)
	raw, found, err := l.store.Get(key)
	if err != nil {
		l.logger.Warn("cache read failed", "key", key, "error", err)
		return profile.Profile{}, false
	}
	if !found {
		return profile.Profile{}, false
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		l.logger.Warn("discarding malformed cache entry", "key", key,
			"error", &profile.Error{Kind: profile.Malformed, Handle: handle, Err: err})
		l.remove(key)
		return profile.Profile{}, false
	}

	p := e.toProfile()
	if l.now().Sub(p.FetchedAt) > l.expiration {
		l.logger.Debug("cache entry expired", "key", key, "fetched_at", p.FetchedAt)
		l.remove(key)
		return profile.Profile{}, false
	}
	return p, true
}

// Write stores p under handle's key with FetchedAt set to now, replacing any
// prior entry, and returns the stamped profile. Store failures are logged,
// never returned.
func (l *Layer) Write(handle string, p profile.Profile) profile.Profile {
	p.FetchedAt = time.UnixMilli(l.now().UnixMilli())

	key := Key(handle)
	data, err := json.Marshal(toEntry(p))
	if err != nil {
		l.logger.Warn("cache encode failed", "key", key, "error", err)
		return p
	}
	if err := l.store.Set(key, string(data)); err != nil {
		l.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return p
}

// IsStale reports whether p is old enough to warrant a background refresh.
func (l *Layer) IsStale(p profile.Profile) bool {
	return l.now().Sub(p.FetchedAt) > l.staleThreshold
}

// ClearAll removes every profile entry and returns how many were removed.
// History is untouched.
func (l *Layer) ClearAll() int {
	keys, err := l.store.KeysWithPrefix(KeyPrefix)
	if err != nil {
		l.logger.Warn("cache clear failed", "error", err)
		return 0
	}
	removed := 0
	for _, k := range keys {
		if err := l.store.Remove(k); err != nil {
			l.logger.Warn("cache clear failed", "key", k, "error", err)
			continue
		}
		removed++
	}
	return removed
}

func (l *Layer) remove(key string) {
	if err := l.store.Remove(key); err != nil {
		l.logger.Warn("cache delete failed", "key", key, "error", err)
	}
}
