package editor

import (
	"context"
	"fmt"

	"github.com/framecut/framecut/internal/timeline"
)

// Defaults for a freshly placed text item.
const (
	DefaultTextDuration = 3.0
	DefaultFontFamily   = "Arial"
	DefaultFontSize     = 24.0
	DefaultTextColor    = "#ffffff"
)

const provisionalPrefix = "tmp-"

// AddTextAt places a new text item where the user clicked on the text
// track. The click's pixel offset maps to composition time through the
// track's rendered width.
//
// The creation is a two-phase commit: a provisional item appears locally at
// once, the backend create runs, and on success the provisional item is
// replaced by the server-confirmed one. On failure the provisional item is
// discarded so no partial state survives.
func (s *Session) AddTextAt(ctx context.Context, trackID string, clickX, trackWidthPx float64) (timeline.Item, error) {
	if s.closed {
		return timeline.Item{}, ErrClosed
	}
	if trackWidthPx <= 0 {
		return timeline.Item{}, fmt.Errorf("track width must be positive, got %v", trackWidthPx)
	}

	clickTime := (clickX / trackWidthPx) * s.doc.Duration
	start := clamp(clickTime, 0, s.doc.Duration-MinItemDuration)
	end := start + DefaultTextDuration
	if end > s.doc.Duration {
		end = s.doc.Duration
	}

	provisional := timeline.Item{
		ID:          provisionalPrefix + timeline.NewID(),
		TrackID:     trackID,
		Kind:        timeline.KindText,
		Start:       start,
		End:         end,
		Content:     "Text",
		FontFamily:  DefaultFontFamily,
		FontSize:    DefaultFontSize,
		Color:       DefaultTextColor,
		X:           50,
		Y:           50,
		Provisional: true,
	}

	doc, ok := timeline.AddItem(s.doc, trackID, provisional)
	if !ok {
		return timeline.Item{}, fmt.Errorf("track %s not found", trackID)
	}
	s.doc = doc

	confirmed, err := s.gw.CreateText(ctx, trackID, provisional)
	if err != nil {
		// Roll back: the provisional item must not survive a failed create.
		if doc, ok := timeline.RemoveItem(s.doc, provisional.ID); ok {
			s.doc = doc
		}
		s.notify("Adding the text failed.")
		return timeline.Item{}, fmt.Errorf("create text item on track %s: %w", trackID, err)
	}

	confirmed.Provisional = false
	if doc, ok := timeline.ReplaceItem(s.doc, provisional.ID, confirmed); ok {
		s.doc = doc
	}
	return confirmed, nil
}
