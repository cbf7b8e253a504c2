// Package tui implements the interactive profile lookup screen and the plain
// text renderers used when stdout is not a terminal.
package tui

import (
	"context"
	"time"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/orchestrator"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
)

// Focus represents which pane has keyboard focus.
type Focus int

const (
	FocusInput   Focus = iota // Handle input has focus.
	FocusHistory              // Search history list has focus.
)

// --- Consumer-side interfaces ---

// Service runs lookups and exposes the resulting state.
type Service interface {
	Lookup(ctx context.Context, handle string) error
	Refresh(ctx context.Context) error
	Retry(ctx context.Context) error
	State() orchestrator.State
}

// HistoryStore lists and clears recent lookups.
type HistoryStore interface {
	List() []profile.HistoryEntry
	Clear()
}

// --- tea.Msg types ---

// StateMsg carries an orchestrator state snapshot.
type StateMsg struct {
	State orchestrator.State
}

// HistoryMsg carries the current history list, most recent first.
type HistoryMsg struct {
	Entries []profile.HistoryEntry
}

// actionDoneMsg signals that a Lookup, Refresh or Retry call returned.
type actionDoneMsg struct{}

// clockMsg re-renders relative timestamps.
type clockMsg time.Time
