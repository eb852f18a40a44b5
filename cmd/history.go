package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"cinestream/internal/config"
	"cinestream/internal/history"
	"cinestream/internal/media"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved watch sessions",
	Args:  cobra.NoArgs,
	RunE:  historyRun,
}

var historyRemoveCmd = &cobra.Command{
	Use:   "rm <address>",
	Short: "Forget the session for a title",
	Args:  cobra.ExactArgs(1),
	RunE:  historyRemoveRun,
}

func init() {
	historyCmd.AddCommand(historyRemoveCmd)
}

func openHistoryStore() (*history.Store, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return store, nil
}

func historyRun(cmd *cobra.Command, args []string) error {
	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history entries found.")
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderHistory(sessions))
	return nil
}

func historyRemoveRun(cmd *cobra.Command, args []string) error {
	addr, err := media.ParseAddress(args[0])
	if err != nil {
		return err
	}

	store, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Remove(cmd.Context(), addr.Ref); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("%s: %w", addr.Path(), err)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", addr.Path())
	return nil
}

// renderHistory formats sessions as a table, newest first.
func renderHistory(sessions []history.Session) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Address", "Provider", "Language", "Position", "Updated"})

	for _, s := range sessions {
		addr := media.Address{Ref: s.Ref}
		lang := "-"
		if !s.Language.Unset() {
			lang = s.Language.Label()
		}
		updated := "-"
		if !s.UpdatedAt.IsZero() {
			updated = s.UpdatedAt.Local().Format(time.DateTime)
		}
		tw.AppendRow(table.Row{addr.Path(), s.Ref.Provider, lang, formatPosition(s.Position), updated})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// formatPosition formats seconds as H:MM:SS or M:SS.
func formatPosition(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
