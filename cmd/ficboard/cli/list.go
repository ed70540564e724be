package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List board columns and cards",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closeLog, err := configureLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	state, err := loadBoard(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if jsonOut {
		printJSON(struct {
			Columns any    `json:"columns"`
			Origin  string `json:"origin"`
			Tickets int    `json:"tickets"`
		}{
			Columns: state.board.Columns,
			Origin:  string(state.result.Origin),
			Tickets: state.board.Len(),
		})
		return nil
	}

	if len(state.board.Columns) == 0 {
		fmt.Println("No tickets to show.")
		return nil
	}

	for i, col := range state.board.Columns {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s (%d)\n", col.Status, col.Count())
		fmt.Println(strings.Repeat("-", 60))
		for _, card := range col.Cards {
			typ := "-"
			if card.Type != "" {
				typ = ansi.Truncate(card.Type, 12, "...")
			}
			fmt.Printf("%4d  %-12s %s\n", card.Index, typ, ansi.Truncate(card.Title, 60, "..."))
		}
	}
	fmt.Printf("\nTotal: %d tickets in %d columns (source: %s)\n", state.board.Len(), len(state.board.Columns), state.result.Origin)
	return nil
}
