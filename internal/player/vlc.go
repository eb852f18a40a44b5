package player

import (
	"context"
	"fmt"
	"os/exec"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool { return available("vlc") }

// Args builds VLC's argv.
func (v *VLC) Args(req Request) []string {
	args := []string{
		req.URL,
		"--meta-title", req.Title,
		"--play-and-exit",
	}

	if req.StartPos > 0 {
		args = append(args, fmt.Sprintf("--start-time=%.0f", req.StartPos))
	}

	if req.SubtitleURL != "" {
		args = append(args, "--input-slave", req.SubtitleURL)
	}

	return args
}

// Play launches VLC. VLC doesn't have IPC position tracking like mpv,
// so we return 0 for position.
func (v *VLC) Play(ctx context.Context, req Request) (float64, error) {
	cmd := exec.CommandContext(ctx, "vlc", v.Args(req)...)
	if err := run(ctx, cmd); err != nil {
		return 0, fmt.Errorf("running vlc: %w", err)
	}
	return 0, nil
}
