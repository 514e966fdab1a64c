package timeline

// ActiveVideoItem returns the video item whose window contains the playhead.
// When items on different tracks overlap, the item on the highest-order
// track wins, so upper tracks cover lower ones at render time.
func ActiveVideoItem(t Timeline, at float64) (Item, bool) {
	var best Item
	bestOrder := 0
	found := false
	for _, tr := range t.Tracks {
		if tr.Kind != KindVideo {
			continue
		}
		for _, it := range tr.Items {
			if !it.playable() || !it.Contains(at) {
				continue
			}
			if !found || tr.Order > bestOrder {
				best = it
				bestOrder = tr.Order
				found = true
			}
		}
	}
	return best, found
}

// ActiveAudioItems returns every audio item whose window contains the
// playhead. Multiple simultaneous clips are expected; items on muted tracks
// are excluded.
func ActiveAudioItems(t Timeline, at float64) []Item {
	var active []Item
	for _, tr := range t.Tracks {
		if tr.Kind != KindAudio || tr.Muted {
			continue
		}
		for _, it := range tr.Items {
			if it.playable() && it.Contains(at) {
				active = append(active, it)
			}
		}
	}
	return active
}

// ActiveTextItems returns every text item whose window contains the playhead.
func ActiveTextItems(t Timeline, at float64) []Item {
	var active []Item
	for _, tr := range t.Tracks {
		if tr.Kind != KindText {
			continue
		}
		for _, it := range tr.Items {
			if it.playable() && it.Contains(at) {
				active = append(active, it)
			}
		}
	}
	return active
}

// SourceTimeAt maps a composition time inside the item's window to the
// corresponding position within the item's source media.
func SourceTimeAt(it Item, at float64) float64 {
	return it.SourceStart + (at - it.Start)
}
