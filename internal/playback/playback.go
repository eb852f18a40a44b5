// Package playback defines the snapshot rendered by playback sinks and the
// observer interface sinks use to report language picks.
package playback

import (
	"encoding/json"
	"io"
	"sync"

	"cinestream/internal/media"
)

// Phase is the resolution phase of the current title.
type Phase string

const (
	Pending  Phase = "pending"
	Resolved Phase = "resolved"
	Error    Phase = "error"
)

// Snapshot is an immutable view of everything a sink may render.
// StreamURL, Subtitles and Languages always come from the same resolution.
type Snapshot struct {
	Ref        media.Ref             `json:"-"`
	Title      string                `json:"title"`
	Phase      Phase                 `json:"phase"`
	StreamURL  string                `json:"stream_url,omitempty"`
	Subtitles  []media.SubtitleTrack `json:"subtitles,omitempty"`
	Languages  []media.LanguageTag   `json:"languages,omitempty"`
	Selection  media.Selection       `json:"selection"`
	InFlight   bool                  `json:"in_flight"`
	Generation uint64                `json:"generation"`
	Err        string                `json:"error,omitempty"`
}

// Settled reports whether no resolution is pending or outstanding.
func (s Snapshot) Settled() bool {
	return s.Phase != Pending && !s.InFlight
}

// Sink renders snapshots. Render is called from the controller goroutine
// and must not block.
type Sink interface {
	Render(Snapshot)
}

// LanguageObserver receives languages chosen through a sink.
type LanguageObserver interface {
	OnLanguageSelected(media.LanguageTag)
}

// ObserverFunc adapts a function to LanguageObserver.
type ObserverFunc func(media.LanguageTag)

// OnLanguageSelected calls f(tag).
func (f ObserverFunc) OnLanguageSelected(tag media.LanguageTag) { f(tag) }

// SinkFunc adapts a function to Sink.
type SinkFunc func(Snapshot)

// Render calls f(s).
func (f SinkFunc) Render(s Snapshot) { f(s) }

// JSONSink writes one JSON object per snapshot, newline separated.
type JSONSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONSink creates a JSONSink writing to w.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

// Render encodes s. Write errors are dropped; the sink is best effort.
func (j *JSONSink) Render(s Snapshot) {
	j.mu.Lock()
	defer j.mu.Unlock()
	_ = j.enc.Encode(s)
}
