// Package timeline holds the canonical composition document: tracks, items,
// durations and the pure transformation functions over them. Every mutation
// returns a new Timeline value so callers can diff, observe and serialize
// consistent snapshots; nothing in this package mutates a document in place.
package timeline

import (
	"crypto/rand"
	"fmt"
)

// Kind discriminates tracks and items. The union is closed: video, audio and
// text are the only kinds, and consumers that branch on Kind treat anything
// else as inactive rather than failing.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindText  Kind = "text"
)

// Resolution is the composition's output frame size in pixels.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Transform positions a video item in the output frame.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
}

// AssetRef is a read-only pointer to externally resolved media. The asset
// collaborator owns the underlying record; the timeline only caches the
// duration used for default crop bounds.
type AssetRef struct {
	ID       string  `json:"id"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
}

// Item is a placed clip or overlay. It is a tagged union on Kind: the
// common fields are always set, the remaining groups apply to video/audio
// (source window, speed, volume), video only (opacity, transform), audio
// only (fades) and text only (content, styling, percent position).
// All times are seconds on the composition axis except SourceStart and
// SourceEnd, which are seconds within the referenced asset.
type Item struct {
	ID      string  `json:"id"`
	TrackID string  `json:"trackId"`
	Kind    Kind    `json:"kind"`
	Start   float64 `json:"startTime"`
	End     float64 `json:"endTime"`

	// video and audio
	Asset       *AssetRef `json:"asset,omitempty"`
	SourceStart float64   `json:"sourceStartTime,omitempty"`
	SourceEnd   float64   `json:"sourceEndTime,omitempty"`
	Speed       float64   `json:"speed,omitempty"`
	Volume      float64   `json:"volume,omitempty"`

	// video only
	Opacity   float64    `json:"opacity,omitempty"`
	Transform *Transform `json:"transform,omitempty"`

	// audio only
	FadeIn  float64 `json:"fadeIn,omitempty"`
	FadeOut float64 `json:"fadeOut,omitempty"`

	// text only; X and Y are percentages (0-100) of the viewport
	Content    string  `json:"content,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	Color      string  `json:"color,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`

	// Provisional marks an item created locally but not yet confirmed by
	// the backend. Never serialized.
	Provisional bool `json:"-"`
}

// WindowDuration returns the item's length on the composition axis.
func (it Item) WindowDuration() float64 {
	return it.End - it.Start
}

// Contains reports whether t falls inside the item's half-open window
// [Start, End).
func (it Item) Contains(t float64) bool {
	return t >= it.Start && t < it.End
}

// playable reports whether the item is well formed enough to act on.
// Malformed items are treated as currently inactive, never as errors.
func (it Item) playable() bool {
	if it.End <= it.Start {
		return false
	}
	if (it.Kind == KindVideo || it.Kind == KindAudio) && it.Asset == nil {
		return false
	}
	return true
}

// Track is an ordered lane of one kind. Items may overlap in time; overlaps
// are resolved by track order at playback time.
type Track struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Order  int    `json:"order"`
	Locked bool   `json:"locked"`
	Muted  bool   `json:"muted"`
	Items  []Item `json:"items"`
}

// Timeline is the full composition document.
// Invariant: Duration > 0 and every item window lies within [0, Duration].
type Timeline struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"projectId"`
	Resolution Resolution `json:"resolution"`
	Duration   float64    `json:"duration"`
	FPS        float64    `json:"fps"`
	Tracks     []Track    `json:"tracks"`
}

// Validate checks the document-level invariants. The engine never produces
// an invalid document; this guards foreign writers at the service boundary.
func (t Timeline) Validate() error {
	if t.Duration <= 0 {
		return fmt.Errorf("timeline duration must be positive, got %v", t.Duration)
	}
	for _, tr := range t.Tracks {
		for _, it := range tr.Items {
			if it.Start >= it.End {
				return fmt.Errorf("item %s: startTime %v must precede endTime %v", it.ID, it.Start, it.End)
			}
			if it.Start < 0 || it.End > t.Duration {
				return fmt.Errorf("item %s: window [%v, %v] outside [0, %v]", it.ID, it.Start, it.End, t.Duration)
			}
		}
	}
	return nil
}

// NewID generates a random unique identifier.
func NewID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:])
}
