package tui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/cache"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/history"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/kvstore"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/orchestrator"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
	"github.com/Pan-Thu-dev/soinfo-client-side/internal/provider"
)

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// testProvider serves a fixed set of profiles; other handles are not found.
func testProvider() *provider.MockProvider {
	known := map[string]provider.Attributes{
		"ada":   {DisplayName: "Ada Lovelace", Status: "online", Activity: &provider.Activity{Type: "playing", Name: "Chess"}},
		"grace": {DisplayName: "Grace Hopper", Status: "idle"},
	}
	return &provider.MockProvider{
		NameVal: "mock",
		FetchFunc: func(_ context.Context, handle string) (provider.Attributes, error) {
			if a, ok := known[profile.Normalize(handle)]; ok {
				return a, nil
			}
			return provider.Attributes{}, &profile.Error{Kind: profile.NotFound, Handle: handle}
		},
	}
}

// harness is a model wired to a real orchestrator over an in-memory store.
type harness struct {
	svc  *orchestrator.Orchestrator
	hist *history.Ledger
}

func newHarness(opts ...orchestrator.Option) *harness {
	store := kvstore.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := cache.New(store, cache.WithClock(fixedClock), cache.WithLogger(logger))
	h := history.New(store, history.WithClock(fixedClock), history.WithLogger(logger))
	opts = append([]orchestrator.Option{orchestrator.WithLogger(logger)}, opts...)
	return &harness{
		svc:  orchestrator.New(testProvider(), c, h, opts...),
		hist: h,
	}
}

func (h *harness) model() Model {
	return NewModel(h.svc, h.hist, WithClock(fixedClock))
}

// send applies msg and runs the resulting command chain to completion,
// feeding each produced message back into the model. Blink and spinner
// ticks are not followed.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for _, out := range run(t, cmd) {
		m = send(t, m, out)
	}
	return m
}

// run executes cmd, flattening batches, and returns the messages worth
// feeding back. It must not be given Init's batch, whose clock tick sleeps.
func run(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, run(t, c)...)
		}
		return msgs
	}
	switch msg.(type) {
	case actionDoneMsg, HistoryMsg, StateMsg:
		return []tea.Msg{msg}
	default:
		return nil
	}
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	return send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func press(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}
