package cli

import (
	"fmt"

	"ficboard/internal/daemon"
	"ficboard/internal/server"

	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides server.listen)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closeLog, err := configureLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	listen := cfg.Server.Listen
	if serveListen != "" {
		listen = serveListen
	}
	host, err := newHost(cfg)
	if err != nil {
		return err
	}

	srv := server.New(cfg.BoardPolicy(), host, newLoader(cfg, host))
	fmt.Printf("Serving board on http://%s\n", listen)
	return daemon.Run(srv, daemon.Options{Listen: listen, ReloadInterval: cfg.ReloadInterval()})
}
