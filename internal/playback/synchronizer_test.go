package playback

import (
	"testing"

	"github.com/framecut/framecut/internal/timeline"
)

type fakeVideoSink struct {
	source   string
	position float64
	playing  bool
	ended    bool

	loads  []string
	seeks  []float64
	unload int
}

func (f *fakeVideoSink) Load(url string) {
	f.source = url
	f.position = 0
	f.ended = false
	f.loads = append(f.loads, url)
}
func (f *fakeVideoSink) Unload()           { f.source = ""; f.playing = false; f.unload++ }
func (f *fakeVideoSink) Source() string    { return f.source }
func (f *fakeVideoSink) Play()             { f.playing = true }
func (f *fakeVideoSink) Pause()            { f.playing = false }
func (f *fakeVideoSink) Position() float64 { return f.position }
func (f *fakeVideoSink) Seek(pos float64)  { f.position = pos; f.seeks = append(f.seeks, pos) }
func (f *fakeVideoSink) Ended() bool       { return f.ended }

type fakeAudioSink struct {
	url      string
	position float64
	volume   float64
	playing  bool
	closed   bool
}

func (f *fakeAudioSink) Play()               { f.playing = true }
func (f *fakeAudioSink) Pause()              { f.playing = false }
func (f *fakeAudioSink) Position() float64   { return f.position }
func (f *fakeAudioSink) Seek(pos float64)    { f.position = pos }
func (f *fakeAudioSink) SetVolume(v float64) { f.volume = v }
func (f *fakeAudioSink) Close()              { f.closed = true }

type fakeAudioFactory struct {
	created []*fakeAudioSink
	fail    bool
}

func (f *fakeAudioFactory) NewAudioSink(url string) AudioSink {
	if f.fail {
		return nil
	}
	sink := &fakeAudioSink{url: url}
	f.created = append(f.created, sink)
	return sink
}

func playbackDoc() timeline.Timeline {
	assetA := &timeline.AssetRef{ID: "a", URL: "/media/a", Duration: 60}
	assetB := &timeline.AssetRef{ID: "b", URL: "/media/b", Duration: 60}
	return timeline.Timeline{
		ID:       "tl",
		Duration: 20,
		FPS:      30,
		Tracks: []timeline.Track{
			{
				ID: "v1", Kind: timeline.KindVideo, Order: 1,
				Items: []timeline.Item{
					{ID: "lower", Kind: timeline.KindVideo, Start: 0, End: 10, Asset: assetA, SourceStart: 0, SourceEnd: 10, Volume: 1},
					{ID: "tail", Kind: timeline.KindVideo, Start: 10, End: 16, Asset: assetB, SourceStart: 2, SourceEnd: 8, Volume: 1},
				},
			},
			{
				ID: "v2", Kind: timeline.KindVideo, Order: 2,
				Items: []timeline.Item{
					{ID: "upper", Kind: timeline.KindVideo, Start: 4, End: 8, Asset: assetB, SourceStart: 0, SourceEnd: 4, Volume: 1},
				},
			},
			{
				ID: "a1", Kind: timeline.KindAudio, Order: 1,
				Items: []timeline.Item{
					{ID: "music", Kind: timeline.KindAudio, Start: 0, End: 20, Asset: assetA, Volume: 0.5},
					{ID: "voice", Kind: timeline.KindAudio, Start: 3, End: 9, Asset: assetB, Volume: 1},
				},
			},
			{
				ID: "t1", Kind: timeline.KindText, Order: 3,
				Items: []timeline.Item{
					{ID: "title", Kind: timeline.KindText, Start: 1, End: 6, Content: "Intro"},
				},
			},
		},
	}
}

func newTestSync() (*Synchronizer, *fakeVideoSink, *fakeAudioFactory) {
	video := &fakeVideoSink{}
	factory := &fakeAudioFactory{}
	return NewSynchronizer(video, factory, nil), video, factory
}

func TestAdvance_ActiveItemDeterminism(t *testing.T) {
	s, video, _ := newTestSync()
	doc := playbackDoc()

	// both "lower" (order 1) and "upper" (order 2) cover t=5
	s.Seek(5)
	frame := s.Advance(doc, 0)
	if frame.Video == nil || frame.Video.ID != "upper" {
		t.Fatalf("active video = %v, want upper", frame.Video)
	}
	if video.Source() != "/media/b" {
		t.Errorf("sink source = %s, want /media/b", video.Source())
	}
}

func TestAdvance_SourceTimeMapping(t *testing.T) {
	s, video, _ := newTestSync()
	doc := playbackDoc()

	// item "tail": start=10, sourceStart=2; at t=12 source time is 4
	s.Seek(12)
	frame := s.Advance(doc, 0)
	if frame.Video == nil || frame.Video.ID != "tail" {
		t.Fatalf("active video = %v, want tail", frame.Video)
	}
	if frame.SourceTime != 4 {
		t.Errorf("SourceTime = %v, want 4", frame.SourceTime)
	}
	if video.Position() != 4 {
		t.Errorf("sink position = %v, want 4", video.Position())
	}
}

func TestAdvance_NoRedundantReload(t *testing.T) {
	s, video, _ := newTestSync()
	doc := playbackDoc()

	s.Play()
	for i := 0; i < 30; i++ {
		s.Advance(doc, 1.0/30)
	}
	if len(video.loads) != 1 {
		t.Errorf("video loaded %d times over one clip, want 1", len(video.loads))
	}
}

func TestAdvance_DriftTolerance(t *testing.T) {
	s, video, _ := newTestSync()
	doc := playbackDoc()

	s.Seek(5)
	s.Advance(doc, 0) // loads and seeks to 1 (upper: sourceStart 0, start 4)
	seeks := len(video.seeks)

	// within tolerance: the sink is left alone
	video.position = 1.05
	s.Advance(doc, 0)
	if len(video.seeks) != seeks {
		t.Errorf("seek issued for %.2fs drift within tolerance", 0.05)
	}

	// beyond tolerance: corrected
	video.position = 1.5
	s.Advance(doc, 0)
	if len(video.seeks) != seeks+1 {
		t.Error("no seek issued for drift beyond tolerance")
	}
}

func TestAdvance_EndOfTimelineTerminates(t *testing.T) {
	s, _, _ := newTestSync()
	doc := playbackDoc()

	s.Seek(19.9)
	s.Play()
	frame := s.Advance(doc, 0.5)

	if s.Playing() {
		t.Error("still playing past the end of the timeline")
	}
	if s.Current() != doc.Duration {
		t.Errorf("Current() = %v, want clamped to %v", s.Current(), doc.Duration)
	}
	if frame.Time != doc.Duration {
		t.Errorf("frame.Time = %v, want %v", frame.Time, doc.Duration)
	}

	// further ticks never exceed the duration
	for i := 0; i < 5; i++ {
		s.Advance(doc, 1)
	}
	if s.Current() != doc.Duration {
		t.Errorf("Current() = %v after extra ticks, want %v", s.Current(), doc.Duration)
	}
}

func TestAdvance_GapDetachesVideo(t *testing.T) {
	s, video, _ := newTestSync()
	doc := playbackDoc()

	s.Seek(5)
	s.Advance(doc, 0)
	if video.Source() == "" {
		t.Fatal("no source loaded inside a clip")
	}

	// t=18 is after the last video item but inside the timeline
	s.Seek(18)
	s.Advance(doc, 0)
	if video.Source() != "" {
		t.Error("sink still attached in a gap; want blank frame")
	}
	if video.playing {
		t.Error("sink still playing in a gap")
	}
}

func TestAdvance_EndOfStreamAdvancesPlayhead(t *testing.T) {
	s, video, _ := newTestSync()
	doc := playbackDoc()

	s.Seek(5)
	s.Play()
	s.Advance(doc, 0)

	// the source runs out before the clip's timeline boundary
	video.ended = true
	s.Advance(doc, 1.0/30)

	// playhead jumps to the item's end (upper ends at 8) instead of
	// stalling; the next reconcile picks up whatever follows
	if s.Current() != 8 {
		t.Errorf("Current() = %v, want 8", s.Current())
	}
	if !s.Playing() {
		t.Error("playback stopped mid-timeline on end-of-stream")
	}
}

func TestAdvance_ConcurrentAudioSinks(t *testing.T) {
	s, _, factory := newTestSync()
	doc := playbackDoc()

	s.Seek(5)
	s.SetMasterVolume(0.8)
	frame := s.Advance(doc, 0)

	if len(frame.Audio) != 2 {
		t.Fatalf("active audio = %d items, want 2", len(frame.Audio))
	}
	if len(factory.created) != 2 {
		t.Fatalf("created %d sinks, want 2", len(factory.created))
	}

	// effective volume is item volume times master volume
	byURL := map[string]*fakeAudioSink{}
	for _, sink := range factory.created {
		byURL[sink.url] = sink
	}
	if music := byURL["/media/a"]; music == nil || music.volume != 0.5*0.8 {
		t.Errorf("music volume = %v, want %v", music.volume, 0.5*0.8)
	}
	if voice := byURL["/media/b"]; voice == nil || voice.volume != 1*0.8 {
		t.Errorf("voice volume = %v, want %v", voice.volume, 1*0.8)
	}
}

func TestAdvance_ReleasesInactiveAudioSinks(t *testing.T) {
	s, _, factory := newTestSync()
	doc := playbackDoc()

	s.Seek(5)
	s.Advance(doc, 0)
	if len(s.audio) != 2 {
		t.Fatalf("audio sinks = %d, want 2", len(s.audio))
	}

	// voice ends at 9; only music remains
	s.Seek(12)
	s.Advance(doc, 0)
	if len(s.audio) != 1 {
		t.Errorf("audio sinks = %d after voice ended, want 1", len(s.audio))
	}

	var voice *fakeAudioSink
	for _, sink := range factory.created {
		if sink.url == "/media/b" {
			voice = sink
		}
	}
	if voice == nil || !voice.closed {
		t.Error("inactive audio sink not closed")
	}
}

func TestAdvance_AudioSinksReleasedWhenItemDeleted(t *testing.T) {
	s, _, _ := newTestSync()
	doc := playbackDoc()

	s.Seek(5)
	s.Advance(doc, 0)

	// the voice item is deleted from the document between ticks
	doc, ok := timeline.RemoveItem(doc, "voice")
	if !ok {
		t.Fatal("RemoveItem(voice) failed")
	}
	s.Advance(doc, 0)
	if len(s.audio) != 1 {
		t.Errorf("audio sinks = %d after item deletion, want 1", len(s.audio))
	}
}

func TestAdvance_SinkCreationFailureIsSilence(t *testing.T) {
	s, _, factory := newTestSync()
	factory.fail = true
	doc := playbackDoc()

	s.Seek(5)
	// must not panic or halt; the items just stay silent this tick
	frame := s.Advance(doc, 0)
	if len(frame.Audio) != 2 {
		t.Errorf("active audio = %d, want 2 even with failed sinks", len(frame.Audio))
	}
	if len(s.audio) != 0 {
		t.Errorf("failed sinks retained: %d", len(s.audio))
	}
}

func TestAdvance_TextOverlays(t *testing.T) {
	s, _, _ := newTestSync()
	doc := playbackDoc()

	s.Seek(3)
	frame := s.Advance(doc, 0)
	if len(frame.Text) != 1 || frame.Text[0].ID != "title" {
		t.Errorf("frame.Text = %v, want title", frame.Text)
	}
}

func TestSeek_RederivesFromScratch(t *testing.T) {
	s, video, _ := newTestSync()
	doc := playbackDoc()

	s.Play()
	s.Advance(doc, 0) // inside "lower", loads /media/a

	s.Seek(11) // inside "tail", different asset
	s.Advance(doc, 0)
	if video.Source() != "/media/b" {
		t.Errorf("source after seek = %s, want /media/b", video.Source())
	}
	if video.Position() != timeline.SourceTimeAt(doc.Tracks[0].Items[1], 11) {
		t.Errorf("position after seek = %v", video.Position())
	}
}

func TestSeek_NegativeClampsToZero(t *testing.T) {
	s, _, _ := newTestSync()
	s.Seek(-5)
	if s.Current() != 0 {
		t.Errorf("Current() = %v, want 0", s.Current())
	}
}

func TestPauseLeavesSinksAttached(t *testing.T) {
	s, video, _ := newTestSync()
	doc := playbackDoc()

	s.Seek(5)
	s.Play()
	s.Advance(doc, 0)
	s.Pause()
	s.Advance(doc, 0)

	if video.playing {
		t.Error("video sink playing while paused")
	}
	if video.Source() == "" {
		t.Error("pause detached the video sink")
	}
	if s.Current() != 5 {
		t.Errorf("clock advanced while paused: %v", s.Current())
	}
}

func TestClose_ReleasesEverything(t *testing.T) {
	s, video, factory := newTestSync()
	doc := playbackDoc()

	s.Seek(5)
	s.Play()
	s.Advance(doc, 0)
	s.Close()

	if s.Playing() {
		t.Error("still playing after Close")
	}
	if video.Source() != "" {
		t.Error("video sink still attached after Close")
	}
	for _, sink := range factory.created {
		if !sink.closed {
			t.Error("audio sink leaked through Close")
		}
	}
	if len(s.audio) != 0 {
		t.Errorf("%d audio sinks retained after Close", len(s.audio))
	}
}

func TestAdvance_NilVideoSink(t *testing.T) {
	s := NewSynchronizer(nil, nil, nil)
	doc := playbackDoc()

	s.Seek(5)
	// a missing sink is absence, not a crash
	frame := s.Advance(doc, 0)
	if frame.Video == nil {
		t.Error("frame.Video = nil; active item should still be reported")
	}
}
