package editor

import (
	"errors"

	"github.com/framecut/framecut/internal/timeline"
)

// MinItemDuration is the floor a resize can shrink an item to, in seconds.
const MinItemDuration = 0.1

type DragMode int

const (
	DragMove DragMode = iota
	DragResizeLeft
	DragResizeRight
)

var (
	ErrGestureActive = errors.New("a drag gesture is already active")
	ErrItemNotFound  = errors.New("item not found")
	ErrTrackLocked   = errors.New("track is locked")
)

// anchor is the snapshot taken at gesture start. Every move recomputes the
// pending patch from this snapshot, never from intermediate state, so a
// drag cannot accumulate rounding and cannot be skewed by document changes
// underneath it.
type anchor struct {
	start           float64
	end             float64
	sourceStart     float64
	sourceEnd       float64
	pointerX        float64
	secondsPerPixel float64
}

type dragState struct {
	mode    DragMode
	itemID  string
	kind    timeline.Kind
	anchor  anchor
	pending timeline.ItemPatch
	has     bool
}

// BeginDrag starts a drag gesture on an item. Only one gesture can be
// active at a time (single pointer); starting another while one is active
// is an error, as is dragging a missing item or one on a locked track.
func (s *Session) BeginDrag(mode DragMode, itemID string, pointerX, secondsPerPixel float64) error {
	if s.closed {
		return ErrClosed
	}
	if s.drag != nil {
		return ErrGestureActive
	}
	it, tr, ok := timeline.FindItem(s.doc, itemID)
	if !ok {
		return ErrItemNotFound
	}
	if tr.Locked {
		return ErrTrackLocked
	}
	s.drag = &dragState{
		mode:   mode,
		itemID: itemID,
		kind:   it.Kind,
		anchor: anchor{
			start:           it.Start,
			end:             it.End,
			sourceStart:     it.SourceStart,
			sourceEnd:       it.SourceEnd,
			pointerX:        pointerX,
			secondsPerPixel: secondsPerPixel,
		},
	}
	return nil
}

// Dragging reports whether a gesture is active.
func (s *Session) Dragging() bool {
	return s.drag != nil
}

// DragTo recomputes the pending patch for the current pointer position and
// returns the previewed item. If the dragged item disappeared from the
// document (a concurrent delete landed mid-drag), the gesture ends silently
// and DragTo reports false.
func (s *Session) DragTo(pointerX float64) (timeline.Item, bool) {
	d := s.drag
	if d == nil {
		return timeline.Item{}, false
	}
	if _, _, ok := timeline.FindItem(s.doc, d.itemID); !ok {
		s.drag = nil
		return timeline.Item{}, false
	}

	deltaTime := (pointerX - d.anchor.pointerX) * d.anchor.secondsPerPixel
	d.pending = dragPatch(d.mode, d.kind, d.anchor, deltaTime, s.doc.Duration)
	d.has = true

	// Preview through the same pure op the commit will use.
	preview, _ := timeline.UpdateItem(s.doc, d.itemID, d.pending)
	it, _, _ := timeline.FindItem(preview, d.itemID)
	return it, true
}

// EndDrag terminates the gesture, committing the last computed patch. It is
// safe to call with no active gesture or after the item vanished: the
// commit falls through the document model's stale-id no-op. Pointer release
// anywhere, including outside the track area, must land here.
func (s *Session) EndDrag() {
	d := s.drag
	s.drag = nil
	if d == nil || !d.has {
		return
	}
	if doc, ok := timeline.UpdateItem(s.doc, d.itemID, d.pending); ok {
		s.doc = doc
	}
}

// dragPatch computes the patch for one pointer move. Clamping here is the
// invariant enforcement: a committed patch can never produce a window
// outside [0, duration] or shorter than MinItemDuration.
func dragPatch(mode DragMode, kind timeline.Kind, a anchor, deltaTime, duration float64) timeline.ItemPatch {
	switch mode {
	case DragMove:
		// Both edges shift together; duration is preserved exactly and
		// the window stays inside the composition.
		length := a.end - a.start
		newStart := clamp(a.start+deltaTime, 0, duration-length)
		return timeline.ItemPatch{
			Start: timeline.Float(newStart),
			End:   timeline.Float(newStart + length),
		}

	case DragResizeLeft:
		// Trim-in: the right edge stays put, the source window shifts by
		// the same delta so trimming reveals or hides source frames.
		newStart := clamp(a.start+deltaTime, 0, a.end-MinItemDuration)
		p := timeline.ItemPatch{Start: timeline.Float(newStart)}
		if kind == timeline.KindVideo || kind == timeline.KindAudio {
			newSourceStart := a.sourceStart + (newStart - a.start)
			if newSourceStart < 0 {
				newSourceStart = 0
			}
			p.SourceStart = timeline.Float(newSourceStart)
		}
		return p

	case DragResizeRight:
		// Trim-out: symmetric. The source end is deliberately not clamped
		// to the asset's native duration; playback tolerates a source that
		// runs out before the timeline window does.
		newEnd := clamp(a.end+deltaTime, a.start+MinItemDuration, duration)
		p := timeline.ItemPatch{End: timeline.Float(newEnd)}
		if kind == timeline.KindVideo || kind == timeline.KindAudio {
			p.SourceEnd = timeline.Float(a.sourceEnd + (newEnd - a.end))
		}
		return p
	}
	return timeline.ItemPatch{}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
