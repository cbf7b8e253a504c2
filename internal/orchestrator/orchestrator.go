// Package orchestrator coordinates profile lookups between the presentation
// layer, the cache, the history ledger and the remote provider, and owns the
// observable lookup state.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/provider"
)

// Provider fetches profile attributes from the remote service.
// Defined here (the consumer) per Go convention: accept interfaces, return structs.
type Provider interface {
	// Name returns the provider identifier (e.g. "http").
	Name() string
	// Fetch requests the attributes for handle as typed by the user.
	Fetch(ctx context.Context, handle string) (provider.Attributes, error)
}

// Cache stores timestamped profiles.
type Cache interface {
	Read(handle string) (profile.Profile, bool)
	Write(handle string, p profile.Profile) profile.Profile
	IsStale(p profile.Profile) bool
}

// History records successful lookups.
type History interface {
	Record(handle, displayName, avatarURL string)
	Latest() (profile.HistoryEntry, bool)
}

// Orchestrator runs lookups and publishes State snapshots.
// All methods are safe for concurrent use.
type Orchestrator struct {
	provider Provider
	cache    Cache
	history  History
	observer Observer
	logger   *slog.Logger

	mu    sync.Mutex
	state State
	seq   uint64 // latest foreground request

	// notifyMu serializes state changes with their observer calls.
	notifyMu sync.Mutex

	background sync.WaitGroup
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver sets the function called with a snapshot after every
// published state change. It is called outside the state lock but must not
// call Lookup, Refresh or Retry synchronously.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// WithLogger sets the logger for swallowed background failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an Orchestrator over the given collaborators.
func New(p Provider, c Cache, h History, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: p,
		cache:    c,
		history:  h,
		observer: func(State) {},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns a snapshot of the current lookup state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.snapshot()
}

// Wait blocks until every background refresh started so far has finished.
func (o *Orchestrator) Wait() {
	o.background.Wait()
}

// Lookup shows the profile for handle, serving it from the cache when
// possible. A stale cache hit is shown immediately and revalidated in the
// background. The returned error is this request's failure, also published
// as State.Err when the request is still the latest. Whitespace only decides
// emptiness; any other handle reaches the provider exactly as given.
func (o *Orchestrator) Lookup(ctx context.Context, handle string) error {
	if strings.TrimSpace(handle) == "" {
		err := &profile.Error{Kind: profile.EmptyInput}
		o.update(func(s *State) { s.Err = err })
		return err
	}

	seq := o.begin(func(s *State) {
		s.Loading = true
		s.Err = nil
		s.LastFetchFailed = false
		s.CurrentHandle = handle
	})

	if cached, ok := o.cache.Read(handle); ok {
		o.complete(seq, func(s *State) {
			s.Profile = &cached
			s.Loading = false
		})
		if o.cache.IsStale(cached) {
			o.revalidate(ctx, handle)
		}
		return nil
	}

	return o.fetch(ctx, seq, handle)
}

// Refresh fetches the current handle again, bypassing the cache.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	var handle string
	refused := &profile.Error{Kind: profile.NoProfileToRefresh}
	seq, ok := o.beginIf(func(s *State) bool {
		if s.CurrentHandle == "" {
			s.Err = refused
			return false
		}
		handle = s.CurrentHandle
		s.Loading = true
		s.Err = nil
		return true
	})
	if !ok {
		return refused
	}
	return o.fetch(ctx, seq, handle)
}

// Retry repeats the last attempt: it refreshes the current handle when one
// is set, otherwise looks up the most recent history entry.
func (o *Orchestrator) Retry(ctx context.Context) error {
	if o.State().CurrentHandle != "" {
		return o.Refresh(ctx)
	}
	if latest, ok := o.history.Latest(); ok {
		return o.Lookup(ctx, latest.Handle)
	}
	err := &profile.Error{Kind: profile.NoProfileToRefresh}
	o.update(func(s *State) { s.Err = err })
	return err
}

// fetch performs a foreground provider call for request seq. Cache and
// history are written even when the request was superseded; only the
// latest request publishes.
func (o *Orchestrator) fetch(ctx context.Context, seq uint64, handle string) error {
	attrs, err := o.provider.Fetch(ctx, handle)
	if err != nil {
		perr := profile.Classify(err, handle)
		o.logger.Debug("profile fetch failed", "handle", handle, "provider", o.provider.Name(), "error", err)
		o.complete(seq, func(s *State) {
			s.Err = perr
			s.LastFetchFailed = true
			s.Loading = false
		})
		return perr
	}

	stored := o.cache.Write(handle, attrs.Profile(handle))
	o.history.Record(handle, stored.DisplayName, stored.AvatarURL)
	o.complete(seq, func(s *State) {
		s.Profile = &stored
		s.Loading = false
		s.LastFetchFailed = false
	})
	return nil
}

// revalidate refreshes handle in the background. It never touches Loading,
// Err or LastFetchFailed, and publishes only if handle is still current.
func (o *Orchestrator) revalidate(ctx context.Context, handle string) {
	ctx = context.WithoutCancel(ctx)
	o.background.Add(1)
	go func() {
		defer o.background.Done()

		attrs, err := o.provider.Fetch(ctx, handle)
		if err != nil {
			o.logger.Warn("background refresh failed", "handle", handle, "provider", o.provider.Name(), "error", err)
			return
		}
		stored := o.cache.Write(handle, attrs.Profile(handle))
		o.updateIf(func(s *State) bool {
			if !profile.SameHandle(s.CurrentHandle, handle) {
				return false
			}
			s.Profile = &stored
			return true
		})
	}()
}

// begin applies fn as a new foreground request and returns its sequence number.
func (o *Orchestrator) begin(fn func(*State)) uint64 {
	seq, _ := o.beginIf(func(s *State) bool {
		fn(s)
		return true
	})
	return seq
}

// beginIf starts a foreground request if fn returns true. Changes made by fn
// are published either way.
func (o *Orchestrator) beginIf(fn func(*State) bool) (uint64, bool) {
	var seq uint64
	var started bool
	o.updateIf(func(s *State) bool {
		started = fn(s)
		if started {
			o.seq++
			seq = o.seq
		}
		return true
	})
	return seq, started
}

// complete applies fn only if seq is still the latest foreground request.
func (o *Orchestrator) complete(seq uint64, fn func(*State)) {
	o.updateIf(func(s *State) bool {
		if seq != o.seq {
			return false
		}
		fn(s)
		return true
	})
}

func (o *Orchestrator) update(fn func(*State)) {
	o.updateIf(func(s *State) bool {
		fn(s)
		return true
	})
}

// updateIf applies fn under the state lock and, if it reports a change,
// notifies the observer with the resulting snapshot. notifyMu is taken first
// so observers see changes in the order they were made while State stays
// readable from inside an observer.
func (o *Orchestrator) updateIf(fn func(*State) bool) {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	changed := fn(&o.state)
	snap := o.state.snapshot()
	o.mu.Unlock()

	if changed {
		o.observer(snap)
	}
}
