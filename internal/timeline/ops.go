package timeline

// ItemPatch is a partial update of an item's mutable fields. Nil fields are
// left untouched. A patch can never change an item's Kind or TrackID.
type ItemPatch struct {
	Start       *float64
	End         *float64
	SourceStart *float64
	SourceEnd   *float64
	Speed       *float64
	Volume      *float64
	Opacity     *float64
	FadeIn      *float64
	FadeOut     *float64
	Content     *string
	FontFamily  *string
	FontSize    *float64
	Color       *string
	X           *float64
	Y           *float64
	Provisional *bool
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v, for building patches.
func String(v string) *string { return &v }

// Bool returns a pointer to v, for building patches.
func Bool(v bool) *bool { return &v }

// AddItem returns a copy of the document with the item appended to the given
// track, its window clamped into [0, Duration]. The second return is false
// and the document is returned unchanged when the track does not exist.
func AddItem(t Timeline, trackID string, it Item) (Timeline, bool) {
	for i, tr := range t.Tracks {
		if tr.ID != trackID {
			continue
		}
		out := cloneTracks(t)
		it.TrackID = trackID
		it.Start, it.End = clampWindow(it.Start, it.End, t.Duration)
		out.Tracks[i].Items = append(out.Tracks[i].Items, it)
		return out, true
	}
	return t, false
}

// RemoveItem returns a copy of the document without the identified item.
// Unknown ids leave the document unchanged: editors must tolerate stale ids
// from async races, so a miss is reported, not an error.
func RemoveItem(t Timeline, itemID string) (Timeline, bool) {
	for i, tr := range t.Tracks {
		for j, it := range tr.Items {
			if it.ID != itemID {
				continue
			}
			out := cloneTracks(t)
			items := out.Tracks[i].Items
			out.Tracks[i].Items = append(items[:j:j], items[j+1:]...)
			return out, true
		}
	}
	return t, false
}

// UpdateItem returns a copy of the document with the patch applied to the
// identified item. The resulting window is clamped into [0, Duration].
// Unknown ids leave the document unchanged.
func UpdateItem(t Timeline, itemID string, p ItemPatch) (Timeline, bool) {
	for i, tr := range t.Tracks {
		for j, it := range tr.Items {
			if it.ID != itemID {
				continue
			}
			out := cloneTracks(t)
			patched := applyPatch(it, p)
			patched.Start, patched.End = clampWindow(patched.Start, patched.End, t.Duration)
			out.Tracks[i].Items[j] = patched
			return out, true
		}
	}
	return t, false
}

// ReplaceItem swaps the identified item for another, keeping its track.
// Used to resolve a provisional item into its server-confirmed form.
func ReplaceItem(t Timeline, itemID string, with Item) (Timeline, bool) {
	for i, tr := range t.Tracks {
		for j, it := range tr.Items {
			if it.ID != itemID {
				continue
			}
			out := cloneTracks(t)
			with.TrackID = tr.ID
			with.Start, with.End = clampWindow(with.Start, with.End, t.Duration)
			out.Tracks[i].Items[j] = with
			return out, true
		}
	}
	return t, false
}

// FindItem locates an item and its owning track.
func FindItem(t Timeline, itemID string) (Item, Track, bool) {
	for _, tr := range t.Tracks {
		for _, it := range tr.Items {
			if it.ID == itemID {
				return it, tr, true
			}
		}
	}
	return Item{}, Track{}, false
}

func applyPatch(it Item, p ItemPatch) Item {
	if p.Start != nil {
		it.Start = *p.Start
	}
	if p.End != nil {
		it.End = *p.End
	}
	if p.SourceStart != nil {
		it.SourceStart = *p.SourceStart
	}
	if p.SourceEnd != nil {
		it.SourceEnd = *p.SourceEnd
	}
	if p.Speed != nil {
		it.Speed = *p.Speed
	}
	if p.Volume != nil {
		it.Volume = *p.Volume
	}
	if p.Opacity != nil {
		it.Opacity = *p.Opacity
	}
	if p.FadeIn != nil {
		it.FadeIn = *p.FadeIn
	}
	if p.FadeOut != nil {
		it.FadeOut = *p.FadeOut
	}
	if p.Content != nil {
		it.Content = *p.Content
	}
	if p.FontFamily != nil {
		it.FontFamily = *p.FontFamily
	}
	if p.FontSize != nil {
		it.FontSize = *p.FontSize
	}
	if p.Color != nil {
		it.Color = *p.Color
	}
	if p.X != nil {
		it.X = *p.X
	}
	if p.Y != nil {
		it.Y = *p.Y
	}
	if p.Provisional != nil {
		it.Provisional = *p.Provisional
	}
	return it
}

func clampWindow(start, end, duration float64) (float64, float64) {
	if start < 0 {
		start = 0
	}
	if start > duration {
		start = duration
	}
	if end < 0 {
		end = 0
	}
	if end > duration {
		end = duration
	}
	return start, end
}

// cloneTracks copies the track and item slices so the returned document can
// diverge from the input. Asset refs and transforms are shared; they are
// read-only from the document's point of view.
func cloneTracks(t Timeline) Timeline {
	out := t
	out.Tracks = make([]Track, len(t.Tracks))
	for i, tr := range t.Tracks {
		out.Tracks[i] = tr
		out.Tracks[i].Items = make([]Item, len(tr.Items))
		copy(out.Tracks[i].Items, tr.Items)
	}
	return out
}
