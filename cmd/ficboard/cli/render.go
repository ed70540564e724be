package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"ficboard/internal/kanban"

	"github.com/spf13/cobra"
)

var (
	renderOut  string
	renderOpen int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the host document with the board mounted",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (default stdout)")
	renderCmd.Flags().IntVar(&renderOpen, "open", -1, "open the detail for this card index")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
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
	markup, err := state.board.HTML()
	if err != nil {
		return err
	}
	doc, err := state.host.Document()
	if err != nil {
		return err
	}
	if err := doc.MountBoard(markup); err != nil {
		return err
	}
	if renderOpen >= 0 {
		router := kanban.NewRouter(state.policy, state.store, doc)
		if !router.Open(renderOpen) {
			return fmt.Errorf("no ticket at index %d (board has %d)", renderOpen, state.store.Len())
		}
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	if renderOut == "" || renderOut == "-" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.MkdirAll(filepath.Dir(renderOut), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(renderOut, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", renderOut, err)
	}
	fmt.Printf("Wrote %d tickets in %d columns to %s\n", state.board.Len(), len(state.board.Columns), renderOut)
	return nil
}
