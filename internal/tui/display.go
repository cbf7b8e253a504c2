package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/orchestrator"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
)

// IsTerminal reports whether w is connected to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Bridge forwards orchestrator state changes into a running program.
// Its Observe method is an orchestrator.Observer.
type Bridge struct {
	ch   chan StateMsg
	done chan struct{}
	once sync.Once
}

// NewBridge creates a Bridge with a buffered state channel.
func NewBridge() *Bridge {
	return &Bridge{
		ch:   make(chan StateMsg, 16),
		done: make(chan struct{}),
	}
}

// Observe queues a state snapshot for the program. It blocks while the
// buffer is full and returns immediately once the Bridge is closed.
func (b *Bridge) Observe(s orchestrator.State) {
	select {
	case b.ch <- StateMsg{State: s}:
	case <-b.done:
	}
}

// Close stops forwarding. Later Observe calls are dropped.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

// forward delivers queued snapshots to p until the Bridge is closed.
func (b *Bridge) forward(p *tea.Program) {
	for {
		select {
		case msg := <-b.ch:
			p.Send(msg)
		case <-b.done:
			return
		}
	}
}

// Run shows the lookup screen on w until the user quits. Lookups still in
// flight at exit see their context cancelled. The bridge is closed on return.
func Run(ctx context.Context, svc Service, hist HistoryStore, bridge *Bridge, w io.Writer, opts ...ModelOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append(opts, WithContext(ctx), WithCancelFunc(cancel))
	p := tea.NewProgram(NewModel(svc, hist, opts...), tea.WithOutput(w), tea.WithAltScreen())

	if bridge != nil {
		defer bridge.Close()
		go bridge.forward(p)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// activityLine renders an activity as e.g. "Playing Chess". A nil activity
// renders as the empty string.
func activityLine(a *profile.Activity) string {
	if a == nil {
		return ""
	}
	switch a.Kind {
	case profile.ActivityPlaying:
		return "Playing " + a.Label
	case profile.ActivityStreaming:
		return "Streaming " + a.Label
	case profile.ActivityListening:
		return "Listening to " + a.Label
	case profile.ActivityWatching:
		return "Watching " + a.Label
	case profile.ActivityCompeting:
		return "Competing in " + a.Label
	default:
		return a.Label
	}
}

// WriteProfile renders p as plain text lines.
func WriteProfile(w io.Writer, p profile.Profile, now time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (@%s)\n", p.Name(), p.Handle)
	fmt.Fprintf(&b, "  status:   %s\n", p.Presence.Label())
	if line := activityLine(p.Activity); line != "" {
		fmt.Fprintf(&b, "  activity: %s\n", line)
	}
	if p.AvatarURL != "" {
		fmt.Fprintf(&b, "  avatar:   %s\n", p.AvatarURL)
	}
	fmt.Fprintf(&b, "  Last updated: %s\n", profile.FormatRelative(now, p.FetchedAt))
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteHistory renders history entries one per line, most recent first.
func WriteHistory(w io.Writer, entries []profile.HistoryEntry, now time.Time) error {
	if len(entries) == 0 {
		_, err := io.WriteString(w, "No recent searches\n")
		return err
	}
	var b strings.Builder
	for i, e := range entries {
		name := e.DisplayName
		if name == "" {
			name = e.Handle
		}
		fmt.Fprintf(&b, "%2d. %-20s @%-20s %s\n", i+1, name, e.Handle, profile.FormatRelative(now, e.RecordedAt))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
