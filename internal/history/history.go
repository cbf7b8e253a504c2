// Package history keeps the bounded, deduplicated, most-recent-first list of
// successful lookups.
package history

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
)

// Key is the store key holding the serialized list.
const Key = "discordSearchHistory"

// DefaultCapacity is the maximum number of entries kept.
const DefaultCapacity = 10

// Store is the key-value surface the ledger needs.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Ledger records and lists lookup history.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	capacity int
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithCapacity sets the maximum number of entries. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.capacity = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger for swallowed store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New creates a Ledger over store.
func New(store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		capacity: DefaultCapacity,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type record struct {
	Handle      string  `json:"handle"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	RecordedAt  int64   `json:"recordedAt"`
}

func toRecord(e profile.HistoryEntry) record {
	r := record{
		Handle:      e.Handle,
		DisplayName: e.DisplayName,
		RecordedAt:  e.RecordedAt.UnixMilli(),
	}
	if e.AvatarURL != "" {
		avatar := e.AvatarURL
		r.AvatarURL = &avatar
	}
	return r
}

func (r record) toEntry() profile.HistoryEntry {
	e := profile.HistoryEntry{
		Handle:      r.Handle,
		DisplayName: r.DisplayName,
		RecordedAt:  time.UnixMilli(r.RecordedAt),
	}
	if r.AvatarURL != nil {
		e.AvatarURL = *r.AvatarURL
	}
	return e
}

// Record moves handle to the front of the list, replacing any entry whose
// handle matches case-insensitively, and truncates to capacity. An empty
// displayName falls back to handle. Store failures are logged, never returned.
func (l *Ledger) Record(handle, displayName, avatarURL string) {
	if displayName == "" {
		displayName = handle
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.load()
	next := make([]profile.HistoryEntry, 0, len(current)+1)
	next = append(next, profile.HistoryEntry{
		Handle:      handle,
		DisplayName: displayName,
		AvatarURL:   avatarURL,
		RecordedAt:  time.UnixMilli(l.now().UnixMilli()),
	})
	for _, e := range current {
		if profile.SameHandle(e.Handle, handle) {
			continue
		}
		next = append(next, e)
	}
	if len(next) > l.capacity {
		next = next[:l.capacity]
	}
	l.save(next)
}

// List returns the entries, most recent first. A missing list is empty; an
// unreadable one is removed and reported empty.
func (l *Ledger) List() []profile.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Latest returns the most recent entry.
func (l *Ledger) Latest() (profile.HistoryEntry, bool) {
	entries := l.List()
	if len(entries) == 0 {
		return profile.HistoryEntry{}, false
	}
	return entries[0], true
}

// Clear removes the list. Cache entries are untouched.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Remove(Key); err != nil {
		l.logger.Warn("history clear failed", "error", err)
	}
}

func (l *Ledger) load() []profile.HistoryEntry {
	raw, found, err := l.store.Get(Key)
	if err != nil {
		l.logger.Warn("history read failed", "error", err)
		return []profile.HistoryEntry{}
	}
	if !found {
		return []profile.HistoryEntry{}
	}

	var records []record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		l.logger.Warn("discarding malformed history",
			"error", &profile.Error{Kind: profile.Malformed, Err: err})
		if err := l.store.Remove(Key); err != nil {
			l.logger.Warn("history reset failed", "error", err)
		}
		return []profile.HistoryEntry{}
	}
	entries := make([]profile.HistoryEntry, 0, len(records))
	for _, r := range records {
		if r.Handle == "" {
			continue
		}
		entries = append(entries, r.toEntry())
	}
	return entries
}

func (l *Ledger) save(entries []profile.HistoryEntry) {
	records := make([]record, len(entries))
	for i, e := range entries {
		records[i] = toRecord(e)
	}
	data, err := json.Marshal(records)
	if err != nil {
		l.logger.Warn("history encode failed", "error", err)
		return
	}
	if err := l.store.Set(Key, string(data)); err != nil {
		l.logger.Warn("history write failed", "error", err)
	}
}
