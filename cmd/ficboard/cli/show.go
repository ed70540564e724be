package cli

import (
	"fmt"
	"os"
	"strconv"

	"ficboard/internal/tui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var showHTML bool

var showCmd = &cobra.Command{
	Use:   "show <index>",
	Short: "Show one ticket's detail",
	Long:  "Show the detail for the card at <index> (see `ficboard list`). Output is styled Markdown on a terminal, plain Markdown otherwise.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showHTML, "html", false, "print the detail HTML fragment")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid index %q: must be a number", args[0])
	}
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
	t, ok := state.store.Get(index)
	if !ok {
		return fmt.Errorf("no ticket at index %d (board has %d)", index, state.store.Len())
	}
	detail := state.policy.RenderDetail(t)

	switch {
	case jsonOut:
		printJSON(detail)
	case showHTML:
		markup, err := detail.HTML()
		if err != nil {
			return err
		}
		fmt.Println(markup)
	default:
		md := detail.Markdown()
		fd := int(os.Stdout.Fd())
		if !term.IsTerminal(fd) {
			fmt.Print(md)
			return nil
		}
		width := 80
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			width = w
		}
		rendered, err := tui.RenderMarkdown(md, width, cfg.TUI.Style)
		if err != nil {
			fmt.Print(md)
			return nil
		}
		fmt.Println(rendered)
	}
	return nil
}
