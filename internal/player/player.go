// Package player provides a secure interface for launching media players.
// All player invocations use exec.CommandContext with explicit argument
// slices; no shell is involved.
package player

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Request describes what to play.
type Request struct {
	URL         string
	Title       string
	StartPos    float64 // Seconds; 0 starts from the beginning
	SubtitleURL string  // Optional VTT track
}

// Player is the interface for media player implementations.
type Player interface {
	// Play runs the player until it exits or ctx is cancelled and returns the
	// last playback position. Cancelling ctx kills the player; that is not an error.
	Play(ctx context.Context, req Request) (float64, error)

	// Args returns the argv (without the binary) used for req.
	Args(req Request) []string

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name.
func New(name string) Player {
	switch strings.ToLower(name) {
	case "mpv":
		return &MPV{}
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &Generic{name: strings.ToLower(name)}
	default:
		return &MPV{} // Default to mpv
	}
}

func available(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

// run starts cmd and waits for it.
func run(ctx context.Context, cmd *exec.Cmd) error {
	return exitError(ctx, cmd.Run())
}

// exitError filters a player's exit error. Non-zero exits are how most players
// report a user quit, so they are not errors; neither is a cancelled ctx.
func exitError(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
