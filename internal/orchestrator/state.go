package orchestrator

import "github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"

// Status is the foreground lookup phase derived from a State.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// State is what the presentation layer renders.
type State struct {
	CurrentHandle   string           // Handle of the latest request, as typed.
	Profile         *profile.Profile // Displayed profile, nil before the first success.
	Loading         bool             // A foreground request is in flight.
	Err             *profile.Error   // Failure of the latest action, if any.
	LastFetchFailed bool             // The latest foreground fetch failed.
}

// Observer receives a snapshot after every published state change.
type Observer func(State)

// Status derives the foreground phase. A failure outranks a profile still
// on display.
func (s State) Status() Status {
	switch {
	case s.Loading:
		return StatusLoading
	case s.Err != nil:
		return StatusFailed
	case s.Profile != nil:
		return StatusSuccess
	default:
		return StatusIdle
	}
}

// snapshot returns a copy that shares nothing mutable with s.
func (s State) snapshot() State {
	if s.Profile != nil {
		p := *s.Profile
		s.Profile = &p
	}
	return s
}
