package player

import (
	"context"
	"fmt"
	"os/exec"
)

// Generic implements the Player interface for players like iina and celluloid
// that accept mpv-compatible arguments.
type Generic struct {
	name string
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool { return available(g.name) }

// Args builds an mpv-style argv.
func (g *Generic) Args(req Request) []string {
	args := []string{req.URL, "--force-media-title=" + req.Title}

	if req.StartPos > 0 {
		args = append(args, fmt.Sprintf("--start=+%.0f", req.StartPos))
	}

	if req.SubtitleURL != "" {
		args = append(args, "--sub-file="+req.SubtitleURL)
	}

	return args
}

// Play launches the generic player. Position tracking is not supported.
func (g *Generic) Play(ctx context.Context, req Request) (float64, error) {
	cmd := exec.CommandContext(ctx, g.name, g.Args(req)...)
	if err := run(ctx, cmd); err != nil {
		return 0, fmt.Errorf("running %s: %w", g.name, err)
	}
	return 0, nil
}
