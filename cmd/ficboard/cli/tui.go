package cli

import (
	"fmt"
	"io"
	"log/slog"

	"ficboard/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal board",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Log lines would corrupt the alternate screen; only a log file is used.
	if cfg.LogFile != "" {
		closeLog, err := configureLogging(cfg)
		if err != nil {
			return err
		}
		defer closeLog()
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}
	host, err := newHost(cfg)
	if err != nil {
		return err
	}

	model := tui.NewModel(cfg.BoardPolicy(), newLoader(cfg, host), cfg.TUI.Style)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
