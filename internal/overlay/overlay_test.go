package overlay

import (
	"testing"

	"github.com/framecut/framecut/internal/timeline"
)

type recordingCommitter struct {
	patches map[string][]timeline.ItemPatch
}

func newRecordingCommitter() *recordingCommitter {
	return &recordingCommitter{patches: make(map[string][]timeline.ItemPatch)}
}

func (c *recordingCommitter) UpdateItem(itemID string, patch timeline.ItemPatch) bool {
	c.patches[itemID] = append(c.patches[itemID], patch)
	return true
}

func textItem() timeline.Item {
	return timeline.Item{
		ID:      "text-1",
		Kind:    timeline.KindText,
		Start:   0,
		End:     3,
		Content: "Hello",
		X:       50,
		Y:       50,
	}
}

func TestDrag_PercentSpaceDeltas(t *testing.T) {
	c := newRecordingCommitter()
	e := NewEngine(c, Viewport{Width: 800, Height: 400})

	if err := e.Begin(textItem(), 100, 100); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	// +80px of 800 wide is +10%; +100px of 400 tall is +25%
	pos, ok := e.MoveTo(180, 200)
	if !ok {
		t.Fatal("MoveTo() = false")
	}
	if pos.X != 60 || pos.Y != 75 {
		t.Errorf("live position = (%v, %v), want (60, 75)", pos.X, pos.Y)
	}

	// nothing committed mid-drag
	if len(c.patches["text-1"]) != 0 {
		t.Error("document updated before gesture end")
	}

	e.End()
	got := c.patches["text-1"]
	if len(got) != 1 {
		t.Fatalf("committed %d patches, want exactly 1", len(got))
	}
	if *got[0].X != 60 || *got[0].Y != 75 {
		t.Errorf("committed (%v, %v), want (60, 75)", *got[0].X, *got[0].Y)
	}
}

func TestDrag_ClampsToViewport(t *testing.T) {
	c := newRecordingCommitter()
	e := NewEngine(c, Viewport{Width: 800, Height: 400})

	if err := e.Begin(textItem(), 0, 0); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	pos, _ := e.MoveTo(-10000, 10000)
	if pos.X != 0 || pos.Y != 100 {
		t.Errorf("live position = (%v, %v), want clamped (0, 100)", pos.X, pos.Y)
	}
}

func TestDrag_SingleGesture(t *testing.T) {
	c := newRecordingCommitter()
	e := NewEngine(c, Viewport{Width: 800, Height: 400})

	if err := e.Begin(textItem(), 0, 0); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := e.Begin(textItem(), 0, 0); err != ErrDragActive {
		t.Errorf("second Begin() error = %v, want ErrDragActive", err)
	}
}

func TestLive_OnlyDuringDrag(t *testing.T) {
	c := newRecordingCommitter()
	e := NewEngine(c, Viewport{Width: 800, Height: 400})

	if _, ok := e.Live("text-1"); ok {
		t.Error("Live() reported a position with no drag")
	}

	e.Begin(textItem(), 0, 0)
	e.MoveTo(80, 0)
	if pos, ok := e.Live("text-1"); !ok || pos.X != 60 {
		t.Errorf("Live() = (%v, %v), want X=60", pos, ok)
	}
	if _, ok := e.Live("other"); ok {
		t.Error("Live() reported a position for a different item")
	}

	e.End()
	if _, ok := e.Live("text-1"); ok {
		t.Error("Live() still reporting after gesture end")
	}
}

func TestEnd_WithoutMovement(t *testing.T) {
	c := newRecordingCommitter()
	e := NewEngine(c, Viewport{Width: 800, Height: 400})

	e.Begin(textItem(), 100, 100)
	e.End()
	if len(c.patches["text-1"]) != 0 {
		t.Error("a drag that never moved committed a patch")
	}

	// stray End with no gesture
	e.End()
}

func TestSetStyle_CommitsImmediately(t *testing.T) {
	c := newRecordingCommitter()
	e := NewEngine(c, Viewport{Width: 800, Height: 400})

	size := 36.0
	color := "#ff0000"
	if !e.SetStyle("text-1", StylePatch{FontSize: &size, Color: &color}) {
		t.Fatal("SetStyle() = false")
	}
	got := c.patches["text-1"]
	if len(got) != 1 {
		t.Fatalf("committed %d patches, want 1", len(got))
	}
	if *got[0].FontSize != 36 || *got[0].Color != "#ff0000" {
		t.Errorf("patch = size %v color %v", *got[0].FontSize, *got[0].Color)
	}
}

func TestSetViewport_AffectsScale(t *testing.T) {
	c := newRecordingCommitter()
	e := NewEngine(c, Viewport{Width: 800, Height: 400})
	e.SetViewport(Viewport{Width: 1600, Height: 800})

	e.Begin(textItem(), 0, 0)
	// +160px of 1600 wide is +10%
	pos, _ := e.MoveTo(160, 0)
	if pos.X != 60 {
		t.Errorf("X = %v, want 60 under the resized viewport", pos.X)
	}
}
