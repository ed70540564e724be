package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ficboard/internal/config"
	"ficboard/internal/kanban"
	"ficboard/internal/source"
	"ficboard/internal/surface"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
	jsonOut bool
	version = config.Version
	commit  = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "ficboard",
	Short:   "ficboard — kanban board for ticket records",
	Long:    "ficboard groups a JSON list of ticket records into status columns and renders them as an HTML page, an HTTP server or a terminal board.",
	Version: fmt.Sprintf("%s (%s)", version, commit),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output JSON")
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

// resolveConfigPath determines which config file to use.
// Priority: --config flag > ./ficboard.toml > global config > defaults.
func resolveConfigPath() string {
	if cfgPath != "" {
		return cfgPath
	}
	if _, err := os.Stat("ficboard.toml"); err == nil {
		return "ficboard.toml"
	}
	return ""
}

func loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(resolveConfigPath())
}

// configureLogging applies the configured level and log file. --verbose
// still wins. The returned func closes the log file, if any.
func configureLogging(cfg *config.Config) (func(), error) {
	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFile == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, opts)))
	return func() { _ = f.Close() }, nil
}

func newHost(cfg *config.Config) (*surface.Host, error) {
	return surface.LoadHost(cfg.Source.HostDocument)
}

func newLoader(cfg *config.Config, host *surface.Host) *source.Loader {
	return source.NewLoader(source.Options{
		DataURL:      cfg.Source.DataURL,
		SiteRoot:     cfg.Source.SiteRoot,
		FallbackPath: cfg.Source.FallbackPath,
		Timeout:      cfg.Timeout(),
		Attempts:     cfg.Source.Attempts,
	}, host)
}

// boardState is one load of the data rendered into a board.
type boardState struct {
	policy kanban.Policy
	host   *surface.Host
	board  *kanban.Board
	store  *kanban.Store
	result *source.Result
}

// loadBoard loads the records and renders the board. Unavailable data is
// a warning, not an error: the board is simply empty.
func loadBoard(ctx context.Context, cfg *config.Config) (*boardState, error) {
	host, err := newHost(cfg)
	if err != nil {
		return nil, err
	}
	res, err := newLoader(cfg, host).Load(ctx)
	if err != nil {
		if !errors.Is(err, source.ErrNoData) {
			return nil, err
		}
		slog.Warn("no ticket data available, rendering empty board", "err", err)
	}

	policy := cfg.BoardPolicy()
	board, store := kanban.RenderBoard(policy.Pipeline(res.Tickets))
	return &boardState{policy: policy, host: host, board: board, store: store, result: res}, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
