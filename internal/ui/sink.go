// Package ui renders playback snapshots in a terminal UI and turns key
// presses into language picks and player launches.
package ui

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cinestream/internal/media"
	"cinestream/internal/playback"
	"cinestream/internal/player"
)

// Options configures the terminal UI.
type Options struct {
	// Observer receives languages picked with enter. Required.
	Observer playback.LanguageObserver
	// Player launches streams on p. Required.
	Player player.Player
	// SubtitleLanguage is the fallback subtitle preference.
	SubtitleLanguage media.LanguageTag
	// StartPos resumes the first launch at this position, in seconds.
	StartPos float64
	// PlayEvery is the minimum interval between launches. Defaults to 2s.
	PlayEvery time.Duration
	// OnPlayed is called after the player exits. Optional.
	OnPlayed func(ref media.Ref, streamURL string, position float64)
}

// Sink is a playback.Sink backed by a bubbletea program.
type Sink struct {
	mu      sync.Mutex
	updates chan playback.Snapshot
	model   *Model
}

// New creates a terminal sink. Nothing is drawn until Run.
func New(opts Options) *Sink {
	updates := make(chan playback.Snapshot, 1)
	return &Sink{
		updates: updates,
		model:   newModel(opts, updates),
	}
}

// Render queues snap for display, replacing any snapshot not yet drawn.
// It never blocks.
func (s *Sink) Render(snap playback.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}

// Run shows the UI until the user quits or ctx is done. A running player is
// killed on exit.
func (s *Sink) Run(ctx context.Context) error {
	s.model.ctx = ctx
	prog := tea.NewProgram(s.model, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := prog.Run()
	s.model.stopPlayer()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
