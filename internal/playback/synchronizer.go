package playback

import (
	"log/slog"
	"math"

	"github.com/framecut/framecut/internal/timeline"
)

// DriftTolerance is how far a sink's position may deviate from the playhead
// before it is corrected with an explicit seek. Forcing exact seeks every
// frame causes visible stutter.
const DriftTolerance = 0.1

// Frame is what one tick decided: the playhead position and the items that
// are active at it. Text items carry no sink; the host renders them as
// overlays.
type Frame struct {
	Time       float64
	Video      *timeline.Item
	SourceTime float64
	Audio      []timeline.Item
	Text       []timeline.Item
}

// Synchronizer advances a logical clock and reconciles media sinks against
// the timeline document on every tick. It is driven from the host's render
// loop on a single goroutine.
type Synchronizer struct {
	video   VideoSink
	factory AudioSinkFactory
	audio   map[string]AudioSink
	logger  *slog.Logger

	current float64
	playing bool
	master  float64
}

func NewSynchronizer(video VideoSink, factory AudioSinkFactory, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		video:   video,
		factory: factory,
		audio:   make(map[string]AudioSink),
		logger:  logger,
		master:  1,
	}
}

// Play starts advancing the clock on subsequent ticks. Toggling is
// independent of any in-flight load or seek.
func (s *Synchronizer) Play() {
	s.playing = true
}

// Pause stops the clock without releasing sinks.
func (s *Synchronizer) Pause() {
	s.playing = false
}

// Playing reports whether the clock is advancing.
func (s *Synchronizer) Playing() bool {
	return s.playing
}

// Current returns the playhead position in seconds.
func (s *Synchronizer) Current() float64 {
	return s.current
}

// Seek moves the playhead directly. No incremental sink state is trusted
// afterwards: the next tick re-derives every sink's target from scratch.
func (s *Synchronizer) Seek(t float64) {
	if t < 0 {
		t = 0
	}
	s.current = t
}

// SetMasterVolume scales every audio sink's effective volume.
func (s *Synchronizer) SetMasterVolume(v float64) {
	if v < 0 {
		v = 0
	}
	s.master = v
}

// MasterVolume returns the master volume scale.
func (s *Synchronizer) MasterVolume() float64 {
	return s.master
}

// Advance is one tick: move the clock by the real time elapsed since the
// previous frame, then reconcile all sinks. Reaching the end of the
// timeline is terminal: the playhead clamps to the duration and playback
// stops rather than looping.
func (s *Synchronizer) Advance(doc timeline.Timeline, dt float64) Frame {
	if s.playing {
		s.current += dt
	}
	if s.current >= doc.Duration {
		s.current = doc.Duration
		s.playing = false
	}

	s.reconcileVideo(doc)
	frame := Frame{Time: s.current}

	if it, ok := timeline.ActiveVideoItem(doc, s.current); ok {
		frame.Video = &it
		frame.SourceTime = timeline.SourceTimeAt(it, s.current)
	}
	frame.Audio = timeline.ActiveAudioItems(doc, s.current)
	s.reconcileAudio(frame.Audio)
	frame.Text = timeline.ActiveTextItems(doc, s.current)
	return frame
}

func (s *Synchronizer) reconcileVideo(doc timeline.Timeline) {
	if s.video == nil {
		return
	}

	it, ok := timeline.ActiveVideoItem(doc, s.current)
	if !ok {
		// Blank frame, not paused-on-last-frame.
		s.video.Pause()
		if s.video.Source() != "" {
			s.video.Unload()
		}
		return
	}

	// Switch the source only when the asset actually changed; redundant
	// reloads flash the frame.
	if s.video.Source() != it.Asset.URL {
		s.video.Load(it.Asset.URL)
	}

	// The source ran out before the timeline window did. Jump the playhead
	// to the clip's boundary so it cannot stall inside the clip.
	if s.playing && s.video.Ended() {
		s.current = it.End
		if s.current >= doc.Duration {
			s.current = doc.Duration
			s.playing = false
		}
		s.reconcileVideo(doc)
		return
	}

	src := timeline.SourceTimeAt(it, s.current)
	if math.Abs(s.video.Position()-src) > DriftTolerance {
		s.video.Seek(src)
	}
	if s.playing {
		s.video.Play()
	} else {
		s.video.Pause()
	}
}

func (s *Synchronizer) reconcileAudio(active []timeline.Item) {
	seen := make(map[string]bool, len(active))

	for _, it := range active {
		sink, ok := s.audio[it.ID]
		if !ok {
			if s.factory == nil {
				continue
			}
			sink = s.factory.NewAudioSink(it.Asset.URL)
			if sink == nil {
				// Source failed to open: silence for this tick.
				continue
			}
			s.audio[it.ID] = sink
		}
		seen[it.ID] = true

		sink.SetVolume(it.Volume * s.master)
		src := timeline.SourceTimeAt(it, s.current)
		if math.Abs(sink.Position()-src) > DriftTolerance {
			sink.Seek(src)
		}
		if s.playing {
			sink.Play()
		} else {
			sink.Pause()
		}
	}

	// Release sinks whose items are no longer active or no longer exist.
	for id, sink := range s.audio {
		if !seen[id] {
			sink.Pause()
			sink.Close()
			delete(s.audio, id)
		}
	}
}

// Close stops and releases every sink. Must be called on teardown so no
// dangling tick runs against freed sinks.
func (s *Synchronizer) Close() {
	s.playing = false
	if s.video != nil {
		s.video.Pause()
		s.video.Unload()
	}
	for id, sink := range s.audio {
		sink.Pause()
		sink.Close()
		delete(s.audio, id)
	}
}
