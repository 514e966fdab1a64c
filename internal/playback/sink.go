// Package playback keeps media sinks phase-locked to a single logical
// playhead. The synchronizer owns one video sink and a set of concurrently
// running audio sinks; each tick it decides what every sink should be doing
// right now from the timeline document alone.
package playback

// VideoSink is the single video output the synchronizer drives. The host
// rendering layer provides the implementation; position and source switches
// are best-effort and may lag the requested state by up to a frame.
type VideoSink interface {
	// Load switches the sink to a new media source.
	Load(url string)
	// Unload detaches the current source, leaving a blank frame.
	Unload()
	// Source returns the currently loaded media URL, or "" when detached.
	Source() string
	Play()
	Pause()
	// Position is the sink's current position within its source, seconds.
	Position() float64
	Seek(pos float64)
	// Ended reports that the source signalled end-of-stream.
	Ended() bool
}

// AudioSink is one independently addressable audio output. Sinks are created
// per active item and must be closed when the item stops being active;
// a leaked sink keeps playing over everything else.
type AudioSink interface {
	Play()
	Pause()
	Position() float64
	Seek(pos float64)
	SetVolume(v float64)
	Close()
}

// AudioSinkFactory lazily creates an audio sink for a media source.
// A nil sink means the source failed to open; the synchronizer treats that
// item as silent for the tick rather than halting playback.
type AudioSinkFactory interface {
	NewAudioSink(url string) AudioSink
}
