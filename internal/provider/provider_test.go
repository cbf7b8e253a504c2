package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Pan-Thu-dev/soinfo-client-side/internal/profile"
)

func strPtr(s string) *string { return &s }

func TestAttributes_Profile(t *testing.T) {
	tests := []struct {
		name  string
		attrs Attributes
		check func(t *testing.T, p profile.Profile)
	}{
		{
			name: "full attributes",
			attrs: Attributes{
				Username:    "ada",
				DisplayName: "Ada Lovelace",
				AvatarURL:   strPtr("https://cdn.example/ada.png"),
				Status:      "doNotDisturb",
				Activity:    &Activity{Type: "Playing", Name: "Analytical Engine"},
			},
			check: func(t *testing.T, p profile.Profile) {
				if p.Handle != "Ada" {
					t.Errorf("Handle = %q, want requested form %q", p.Handle, "Ada")
				}
				if p.Presence != profile.PresenceDND {
					t.Errorf("Presence = %q, want dnd", p.Presence)
				}
				if p.Activity == nil || p.Activity.Kind != profile.ActivityPlaying {
					t.Errorf("Activity = %+v, want playing", p.Activity)
				}
				if p.AvatarURL != "https://cdn.example/ada.png" {
					t.Errorf("AvatarURL = %q", p.AvatarURL)
				}
			},
		},
		{
			name:  "sparse attributes",
			attrs: Attributes{Status: "sleeping"},
			check: func(t *testing.T, p profile.Profile) {
				if p.Presence != profile.PresenceUnknown {
					t.Errorf("Presence = %q, want unknown", p.Presence)
				}
				if p.AvatarURL != "" || p.Activity != nil {
					t.Errorf("got avatar=%q activity=%v, want empty", p.AvatarURL, p.Activity)
				}
				if !p.FetchedAt.IsZero() {
					t.Errorf("FetchedAt = %v, want zero", p.FetchedAt)
				}
			},
		},
		{
			name:  "activity without a name is dropped",
			attrs: Attributes{Activity: &Activity{Type: "custom"}},
			check: func(t *testing.T, p profile.Profile) {
				if p.Activity != nil {
					t.Errorf("Activity = %+v, want nil", p.Activity)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, tt.attrs.Profile("Ada"))
		})
	}
}

func TestErrorTypes(t *testing.T) {
	t.Run("ProviderError", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := &ProviderError{Provider: "http", Err: cause}
		want := "provider: http: connection refused"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is failed to unwrap cause")
		}
	})

	t.Run("TimeoutError", func(t *testing.T) {
		err := &TimeoutError{Provider: "http", Duration: 30 * time.Second}
		want := "provider: http: timed out after 30s"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Error("TimeoutError should match context.DeadlineExceeded")
		}
	})
}

func TestMockProvider(t *testing.T) {
	t.Run("returns configured attributes", func(t *testing.T) {
		var captured string
		mock := &MockProvider{
			NameVal: "mock",
			FetchFunc: func(ctx context.Context, handle string) (Attributes, error) {
				captured = handle
				return Attributes{DisplayName: "Ada"}, nil
			},
		}

		attrs, err := mock.Fetch(context.Background(), "Ada")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attrs.DisplayName != "Ada" || captured != "Ada" {
			t.Errorf("attrs = %+v, captured = %q", attrs, captured)
		}
	})

	t.Run("nil FetchFunc returns zero attributes", func(t *testing.T) {
		attrs, err := (&MockProvider{NameVal: "mock"}).Fetch(context.Background(), "x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attrs != (Attributes{}) {
			t.Errorf("attrs = %+v, want zero", attrs)
		}
	})
}
