package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/time/rate"

	"cinestream/internal/media"
	"cinestream/internal/playback"
	"cinestream/internal/player"
	"cinestream/internal/subtitle"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cursorStyle   = lipgloss.NewStyle().Reverse(true).Padding(0, 1)
	langStyle     = lipgloss.NewStyle().Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Padding(0, 1)
)

// Message types for bubbletea
type snapshotMsg playback.Snapshot

type playDoneMsg struct {
	session   int
	ref       media.Ref
	streamURL string
	position  float64
	err       error
}

// Model is the bubbletea model behind Sink.
type Model struct {
	opts    Options
	ctx     context.Context
	updates <-chan playback.Snapshot

	snap    playback.Snapshot
	cursor  int
	spinner spinner.Model
	status  string
	width   int

	limiter     *rate.Limiter
	playing     bool
	playSession int
	playCtx     context.Context
	playCancel  context.CancelFunc
	playingURL  string
	lastPos     float64
}

func newModel(opts Options, updates <-chan playback.Snapshot) *Model {
	every := opts.PlayEvery
	if every <= 0 {
		every = 2 * time.Second
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &Model{
		opts:    opts,
		ctx:     context.Background(),
		updates: updates,
		snap:    playback.Snapshot{Phase: playback.Pending},
		spinner: sp,
		limiter: rate.NewLimiter(rate.Every(every), 1),
		lastPos: opts.StartPos,
	}
}

// Init starts the spinner and the snapshot listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForSnapshot())
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// ==================== Update ====================

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		cmd := m.applySnapshot(playback.Snapshot(msg))
		return m, tea.Batch(cmd, m.waitForSnapshot())

	case playDoneMsg:
		return m, m.handlePlayDone(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) applySnapshot(snap playback.Snapshot) tea.Cmd {
	prev := m.snap
	m.snap = snap

	// Keep the cursor where the user left it unless the strip itself changed.
	if !slices.Equal(prev.Languages, snap.Languages) || prev.Selection != snap.Selection {
		m.cursor = 0
		for i, lang := range snap.Languages {
			if lang == snap.Selection.Language {
				m.cursor = i
				break
			}
		}
	}

	// Simple reload policy: a new stream while the player is open restarts it.
	if m.playing && snap.StreamURL != "" && snap.StreamURL != m.playingURL {
		m.status = "Stream changed, reloading player"
		return m.launch()
	}
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.stopPlayer()
		return m, tea.Quit

	case "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}

	case "right", "l":
		if m.cursor < len(m.snap.Languages)-1 {
			m.cursor++
		}

	case "enter":
		if len(m.snap.Languages) == 0 {
			m.status = "No languages offered for this title"
			return m, nil
		}
		tag := m.snap.Languages[m.cursor]
		if tag == m.snap.Selection.Language {
			return m, nil
		}
		m.status = "Switching to " + tag.Label()
		observer := m.opts.Observer
		return m, func() tea.Msg {
			observer.OnLanguageSelected(tag)
			return nil
		}

	case "p":
		if m.snap.StreamURL == "" {
			m.status = "Nothing to play yet"
			return m, nil
		}
		if m.playing {
			m.status = "Player already open"
			return m, nil
		}
		if !m.limiter.Allow() {
			m.status = "Slow down"
			return m, nil
		}
		return m, m.launch()

	case "s":
		m.stopPlayer()
	}

	return m, nil
}

// launch kills any running player and starts a new one on the current stream.
func (m *Model) launch() tea.Cmd {
	m.stopPlayer()

	ctx, cancel := context.WithCancel(m.ctx)
	m.playSession++
	m.playing = true
	m.playCtx = ctx
	m.playCancel = cancel
	m.playingURL = m.snap.StreamURL
	m.status = "Playing with " + m.opts.Player.Name()

	req := player.Request{
		URL:      m.snap.StreamURL,
		Title:    m.snap.Title,
		StartPos: m.lastPos,
	}
	if sub := subtitle.Pick(m.snap.Subtitles, m.snap.Selection.Language, m.opts.SubtitleLanguage); sub != nil {
		req.SubtitleURL = sub.URL
	}

	p, session, ref := m.opts.Player, m.playSession, m.snap.Ref
	return func() tea.Msg {
		pos, err := p.Play(ctx, req)
		return playDoneMsg{session: session, ref: ref, streamURL: req.URL, position: pos, err: err}
	}
}

func (m *Model) handlePlayDone(msg playDoneMsg) tea.Cmd {
	if msg.position > 0 {
		m.lastPos = msg.position
	}

	if msg.session == m.playSession {
		m.playing = false
		if m.playCancel != nil {
			m.playCancel()
			m.playCancel = nil
		}
		if msg.err != nil {
			m.status = "Player error: " + msg.err.Error()
		} else {
			m.status = "Playback finished"
		}
	}

	if m.opts.OnPlayed == nil {
		return nil
	}
	onPlayed, pos := m.opts.OnPlayed, m.lastPos
	return func() tea.Msg {
		onPlayed(msg.ref, msg.streamURL, pos)
		return nil
	}
}

func (m *Model) stopPlayer() {
	if m.playCancel != nil {
		m.playCancel()
		m.playCancel = nil
	}
	m.playing = false
}

// ==================== View ====================

func (m *Model) View() string {
	var b strings.Builder

	title := m.snap.Title
	if title == "" {
		title = "cinestream"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")

	switch {
	case m.snap.Phase == playback.Pending:
		b.WriteString(m.spinner.View() + " Resolving stream...\n")
	case m.snap.InFlight:
		b.WriteString(m.spinner.View() + " Switching language...\n")
	}

	if m.snap.Phase == playback.Error {
		msg := m.snap.Err
		if msg == "" {
			msg = "resolution failed"
		}
		b.WriteString(errorStyle.Render("Error: "+msg) + "\n")
	}

	if m.snap.StreamURL != "" {
		b.WriteString(dimStyle.Render(truncate(m.snap.StreamURL, m.width)) + "\n")
	}
	if n := len(m.snap.Subtitles); n > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d subtitle tracks", n)) + "\n")
	}

	if len(m.snap.Languages) > 0 {
		b.WriteString("\n" + m.languageStrip() + "\n")
	}

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("←/→ choose language • enter select • p play • s stop • q quit") + "\n")
	return b.String()
}

func (m *Model) languageStrip() string {
	items := make([]string, 0, len(m.snap.Languages))
	for i, lang := range m.snap.Languages {
		label := lang.Label()
		if lang == m.snap.Selection.Language {
			label = "● " + label
		}
		switch {
		case i == m.cursor:
			items = append(items, cursorStyle.Render(label))
		case lang == m.snap.Selection.Language:
			items = append(items, selectedStyle.Render(label))
		default:
			items = append(items, langStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, items...)
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}
