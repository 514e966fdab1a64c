// Package export renders a composition as a CMX3600 edit decision list so
// a cut assembled here can be finished in a conventional NLE.
package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/framecut/framecut/internal/timeline"
)

// Generate renders the video program of a timeline as an EDL. Items from
// every video track are flattened into one event list ordered by their
// record (timeline) position; source in/out come from each item's source
// window.
func Generate(t timeline.Timeline, title string) string {
	fps := int(math.Round(t.FPS))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(t.FPS-29.97) < 0.01 || math.Abs(t.FPS-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", SanitizeName(title, 70))}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, clip := range programClips(t) {
		srcIn := toTimecode(clip.SourceStart, fps)
		srcOut := toTimecode(clip.SourceEnd, fps)
		recIn := toTimecode(clip.Start, fps)
		recOut := toTimecode(clip.End, fps)

		name := clip.ID
		path := ""
		if clip.Asset != nil {
			name = clip.Asset.ID
			path = clip.Asset.URL
		}

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", SanitizeName(name, 70)),
		)
		if path != "" {
			lines = append(lines, fmt.Sprintf("* MEDIA PATH:  %s", path))
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// programClips flattens the video tracks into record order.
func programClips(t timeline.Timeline) []timeline.Item {
	var clips []timeline.Item
	for _, tr := range t.Tracks {
		if tr.Kind != timeline.KindVideo {
			continue
		}
		clips = append(clips, tr.Items...)
	}
	sort.SliceStable(clips, func(a, b int) bool {
		return clips[a].Start < clips[b].Start
	})
	return clips
}

func toTimecode(seconds float64, fps int) string {
	totalFrames := int(math.Round(seconds * float64(fps)))
	if totalFrames < 0 {
		totalFrames = 0
	}
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}
