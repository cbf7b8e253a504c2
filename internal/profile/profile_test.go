package profile

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNormalize_Idempotent(t *testing.T) {
	handles := []string{"", "ada", "Ada", "ADA.Lovelace_99", "ÄBC", "mixed.Case_1"}
	for _, h := range handles {
		once := Normalize(h)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", h, twice, once)
		}
	}
}

func TestNormalize_LowerCasesOnly(t *testing.T) {
	// Given a handle with surrounding space
	// When normalized
	got := Normalize(" Ada ")

	// Then only the case changes
	if got != " ada " {
		t.Errorf("Normalize(%q) = %q, want %q", " Ada ", got, " ada ")
	}
}

func TestSameHandle(t *testing.T) {
	if !SameHandle("Ada", "ADA") {
		t.Error("SameHandle(Ada, ADA) = false, want true")
	}
	if SameHandle("ada", "bob") {
		t.Error("SameHandle(ada, bob) = true, want false")
	}
}

func TestParsePresence(t *testing.T) {
	tests := []struct {
		in   string
		want Presence
	}{
		{"online", PresenceOnline},
		{"ONLINE", PresenceOnline},
		{"idle", PresenceIdle},
		{"dnd", PresenceDND},
		{"doNotDisturb", PresenceDND},
		{"offline", PresenceOffline},
		{"", PresenceUnknown},
		{"busy", PresenceUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParsePresence(tt.in); got != tt.want {
				t.Errorf("ParsePresence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseActivityKind(t *testing.T) {
	if got := ParseActivityKind("Playing"); got != ActivityPlaying {
		t.Errorf("ParseActivityKind(Playing) = %q, want %q", got, ActivityPlaying)
	}
	if got := ParseActivityKind("dancing"); got != ActivityUnknown {
		t.Errorf("ParseActivityKind(dancing) = %q, want %q", got, ActivityUnknown)
	}
}

func TestProfile_NameFallsBackToHandle(t *testing.T) {
	p := Profile{Handle: "newuser"}
	if got := p.Name(); got != "newuser" {
		t.Errorf("Name() = %q, want %q", got, "newuser")
	}
	p.DisplayName = "New User"
	if got := p.Name(); got != "New User" {
		t.Errorf("Name() = %q, want %q", got, "New User")
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	// Given a classified NotFound error wrapped by a caller
	err := fmt.Errorf("lookup: %w", &Error{Kind: NotFound, Handle: "ghost"})

	// Then it matches the NotFound sentinel and no other
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = false, want true")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("errors.Is(err, ErrRateLimited) = true, want false")
	}
	if got := KindOf(err); got != NotFound {
		t.Errorf("KindOf() = %v, want %v", got, NotFound)
	}
}

func TestError_Messages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: EmptyInput}, "Please enter a Discord username"},
		{&Error{Kind: NoProfileToRefresh}, "No profile to refresh"},
		{&Error{Kind: NotFound, Handle: "ghost"}, `profile "ghost" not found`},
		{&Error{Kind: ProviderUnavailable, Err: errors.New("dial tcp: refused")}, "profile service unavailable: dial tcp: refused"},
		{&Error{Kind: RateLimited, Msg: "slow down"}, "slow down"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Kind: ProviderUnavailable, Err: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got := err.Message(); got != "profile service unavailable" {
		t.Errorf("Message() = %q, want cause omitted", got)
	}
	if got := err.Error(); got != "profile service unavailable: connection reset" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindOf_Unclassified(t *testing.T) {
	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("KindOf(nil) = %v, want %v", got, KindUnknown)
	}
	if got := KindOf(errors.New("boom")); got != ProviderUnavailable {
		t.Errorf("KindOf(boom) = %v, want %v", got, ProviderUnavailable)
	}
}

func TestClassify(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if got := Classify(nil, "ada"); got != nil {
			t.Errorf("Classify(nil) = %v, want nil", got)
		}
	})
	t.Run("already classified", func(t *testing.T) {
		orig := &Error{Kind: RateLimited}
		if got := Classify(fmt.Errorf("wrap: %w", orig), "ada"); got != orig {
			t.Errorf("Classify() = %v, want original error", got)
		}
	})
	t.Run("deadline", func(t *testing.T) {
		got := Classify(context.DeadlineExceeded, "ada")
		if got.Kind != ProviderUnavailable {
			t.Errorf("Kind = %v, want %v", got.Kind, ProviderUnavailable)
		}
		if !errors.Is(got, context.DeadlineExceeded) {
			t.Error("classified error should unwrap to context.DeadlineExceeded")
		}
	})
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "just now"},
		{59 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{23 * time.Hour, "23 hours ago"},
		{48 * time.Hour, "2 days ago"},
		{31 * 24 * time.Hour, "1 month ago"},
		{400 * 24 * time.Hour, "1 year ago"},
		{-time.Hour, "just now"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatRelative(now, now.Add(-tt.ago)); got != tt.want {
				t.Errorf("FormatRelative(-%v) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}
}
