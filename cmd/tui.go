package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/theirongolddev/fincast/internal/tui"
	"github.com/theirongolddev/fincast/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// The TUI owns the terminal; keep progress lines off it.
	flagQuiet = true

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	theme.SetActive(e.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	load := func(ctx context.Context) (tui.Data, error) {
		txs, err := e.history(ctx)
		if err != nil {
			return tui.Data{}, err
		}
		stored, err := e.store.ListPredictions(ctx, e.userID, time.Time{})
		if err != nil {
			return tui.Data{}, fmt.Errorf("loading predictions: %w", err)
		}
		return tui.Data{History: txs, Stored: stored}, nil
	}

	app := tui.NewApp(tui.Options{
		Load:      load,
		Now:       e.now,
		Months:    e.cfg.General.ForecastMonths,
		AccountID: flagAccount,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
