// Package overlay handles freeform 2D placement of text items. Positions
// are percentages of the rendering viewport, decoupled from the timeline's
// time axis, so resizing the viewport never touches time logic.
package overlay

import (
	"errors"

	"github.com/framecut/framecut/internal/timeline"
)

var ErrDragActive = errors.New("an overlay drag is already active")

// Viewport is the rendering surface's pixel dimensions, provided by the
// host layer.
type Viewport struct {
	Width  float64
	Height float64
}

// Committer applies a finished edit to the document. The editor session's
// UpdateItem satisfies it.
type Committer interface {
	UpdateItem(itemID string, patch timeline.ItemPatch) bool
}

// Position is a percent-space point.
type Position struct {
	X float64
	Y float64
}

type dragState struct {
	itemID   string
	anchor   Position
	pointerX float64
	pointerY float64
	live     Position
	moved    bool
}

// Engine tracks one overlay drag at a time. The live (uncommitted) position
// is held apart from the document so a sync arriving mid-drag cannot
// visually fight the pointer; the document only changes on gesture end.
type Engine struct {
	committer Committer
	viewport  Viewport
	drag      *dragState
}

func NewEngine(committer Committer, viewport Viewport) *Engine {
	return &Engine{committer: committer, viewport: viewport}
}

// SetViewport replaces the viewport dimensions (host resize).
func (e *Engine) SetViewport(v Viewport) {
	e.viewport = v
}

// Begin starts dragging a text overlay from its committed position.
func (e *Engine) Begin(item timeline.Item, pointerX, pointerY float64) error {
	if e.drag != nil {
		return ErrDragActive
	}
	e.drag = &dragState{
		itemID:   item.ID,
		anchor:   Position{X: item.X, Y: item.Y},
		pointerX: pointerX,
		pointerY: pointerY,
		live:     Position{X: item.X, Y: item.Y},
	}
	return nil
}

// MoveTo updates the live position from the pointer, converting pixel
// deltas to percent space through the viewport dimensions.
func (e *Engine) MoveTo(pointerX, pointerY float64) (Position, bool) {
	d := e.drag
	if d == nil {
		return Position{}, false
	}
	if e.viewport.Width <= 0 || e.viewport.Height <= 0 {
		return d.live, true
	}
	d.live = Position{
		X: clampPercent(d.anchor.X + (pointerX-d.pointerX)/e.viewport.Width*100),
		Y: clampPercent(d.anchor.Y + (pointerY-d.pointerY)/e.viewport.Height*100),
	}
	d.moved = true
	return d.live, true
}

// Live returns the uncommitted position for an item mid-drag. Renderers
// prefer it over the document position while it reports true.
func (e *Engine) Live(itemID string) (Position, bool) {
	if e.drag == nil || e.drag.itemID != itemID {
		return Position{}, false
	}
	return e.drag.live, true
}

// End terminates the drag, committing the final position exactly once.
// Safe to call with no drag active; a drag that never moved commits
// nothing.
func (e *Engine) End() {
	d := e.drag
	e.drag = nil
	if d == nil || !d.moved {
		return
	}
	e.committer.UpdateItem(d.itemID, timeline.ItemPatch{
		X: timeline.Float(d.live.X),
		Y: timeline.Float(d.live.Y),
	})
}

// StylePatch is a discrete styling choice for a text item.
type StylePatch struct {
	FontFamily *string
	FontSize   *float64
	Color      *string
	Content    *string
}

// SetStyle commits a style edit immediately. Style changes are discrete
// selections, not continuous drags, so there is nothing to debounce.
func (e *Engine) SetStyle(itemID string, style StylePatch) bool {
	return e.committer.UpdateItem(itemID, timeline.ItemPatch{
		FontFamily: style.FontFamily,
		FontSize:   style.FontSize,
		Color:      style.Color,
		Content:    style.Content,
	})
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
