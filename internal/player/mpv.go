package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// MPV implements the Player interface for mpv.
// Uses explicit args (no shell interpretation) and IPC via a Unix socket
// at a randomized temp path.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool { return available("mpv") }

// Args builds mpv's argv without the IPC socket flag.
func (m *MPV) Args(req Request) []string {
	args := []string{
		req.URL,
		"--force-media-title=" + req.Title,
		"--really-quiet",
	}

	if req.StartPos > 0 {
		args = append(args, fmt.Sprintf("--start=+%.0f", req.StartPos))
	}

	if req.SubtitleURL != "" {
		args = append(args, "--sub-file="+req.SubtitleURL)
	}

	return args
}

// Play launches mpv with the given stream and returns the final playback position.
func (m *MPV) Play(ctx context.Context, req Request) (float64, error) {
	// Randomized socket dir prevents symlink attacks
	socketDir, err := os.MkdirTemp("", "cinestream-mpv-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir for mpv socket: %w", err)
	}
	defer os.RemoveAll(socketDir)

	socketPath := filepath.Join(socketDir, "socket")
	args := append(m.Args(req), "--input-ipc-server="+socketPath)

	cmd := exec.CommandContext(ctx, "mpv", args...)
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting mpv: %w", err)
	}

	trackCtx, stopTracking := context.WithCancel(ctx)
	defer stopTracking()
	positions := make(chan float64, 1)
	go func() {
		positions <- trackPosition(trackCtx, socketPath)
	}()

	waitErr := cmd.Wait()

	// The socket closes when mpv exits; give the tracker a moment to finish.
	var lastPos float64
	select {
	case lastPos = <-positions:
	case <-time.After(time.Second):
		stopTracking()
		lastPos = <-positions
	}

	if err := exitError(ctx, waitErr); err != nil {
		return lastPos, fmt.Errorf("running mpv: %w", err)
	}
	return lastPos, nil
}

// trackPosition observes mpv's time-pos over IPC until the connection closes.
func trackPosition(ctx context.Context, socketPath string) float64 {
	var lastPos float64

	// Wait for socket to appear
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return 0
		case <-time.After(100 * time.Millisecond):
		}
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return 0
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	// Start observing time-pos property
	cmd := map[string]interface{}{
		"command":    []interface{}{"observe_property", 1, "time-pos"},
		"request_id": 100,
	}
	data, _ := json.Marshal(cmd)
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return 0
	}

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		lastPos = parsePosition(scanner.Bytes(), lastPos)
	}

	return lastPos
}

// parsePosition returns the time-pos carried by an mpv IPC line, or last
// when the line is something else.
func parsePosition(line []byte, last float64) float64 {
	var event struct {
		Event string  `json:"event"`
		Name  string  `json:"name"`
		Data  float64 `json:"data"`
	}
	if err := json.Unmarshal(line, &event); err != nil {
		return last
	}
	if event.Name == "time-pos" && event.Data > 0 {
		return event.Data
	}
	return last
}
