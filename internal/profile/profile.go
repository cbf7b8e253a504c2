// Package profile defines the value types shared by the cache, history and
// orchestrator packages: profiles, history entries, handle normalization and
// the lookup error taxonomy.
package profile

import (
	"strings"
	"time"
)

// Presence is the online state reported for a profile.
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceIdle    Presence = "idle"
	PresenceDND     Presence = "dnd"
	PresenceOffline Presence = "offline"
	PresenceUnknown Presence = "unknown"
)

// ParsePresence maps a provider status string to a Presence.
// Matching is case-insensitive; unrecognized values map to PresenceUnknown.
func ParsePresence(s string) Presence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "online":
		return PresenceOnline
	case "idle":
		return PresenceIdle
	case "dnd", "donotdisturb", "do_not_disturb":
		return PresenceDND
	case "offline", "invisible":
		return PresenceOffline
	default:
		return PresenceUnknown
	}
}

// Label returns the capitalized form used by the profile card badge.
func (p Presence) Label() string {
	switch p {
	case PresenceOnline:
		return "Online"
	case PresenceIdle:
		return "Idle"
	case PresenceDND:
		return "Do Not Disturb"
	case PresenceOffline:
		return "Offline"
	default:
		return "Unknown"
	}
}

// ActivityKind classifies what a profile is currently doing.
type ActivityKind string

const (
	ActivityPlaying   ActivityKind = "playing"
	ActivityStreaming ActivityKind = "streaming"
	ActivityListening ActivityKind = "listening"
	ActivityWatching  ActivityKind = "watching"
	ActivityCustom    ActivityKind = "custom"
	ActivityCompeting ActivityKind = "competing"
	ActivityUnknown   ActivityKind = "unknown"
)

// ParseActivityKind maps a provider activity type to an ActivityKind.
func ParseActivityKind(s string) ActivityKind {
	switch k := ActivityKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ActivityPlaying, ActivityStreaming, ActivityListening,
		ActivityWatching, ActivityCustom, ActivityCompeting:
		return k
	default:
		return ActivityUnknown
	}
}

// Activity is the optional current activity of a profile.
type Activity struct {
	Kind  ActivityKind `json:"kind"`
	Label string       `json:"label"`
}

// Profile is a fetched profile snapshot.
// FetchedAt is stamped when the profile is written to the cache; values
// reported by a provider are never trusted.
type Profile struct {
	Handle      string    `json:"handle"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Presence    Presence  `json:"presence"`
	Activity    *Activity `json:"activity,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// Name returns the display name, falling back to the handle when empty.
func (p Profile) Name() string {
	if strings.TrimSpace(p.DisplayName) != "" {
		return p.DisplayName
	}
	return p.Handle
}

// HistoryEntry is one recently looked-up handle.
type HistoryEntry struct {
	Handle      string    `json:"handle"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// Normalize returns the identity key for a handle. Handles are
// case-insensitive, so the key is the lower-cased input. Display text is
// never normalized.
func Normalize(handle string) string {
	return strings.ToLower(handle)
}

// SameHandle reports whether two handles identify the same profile.
func SameHandle(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
