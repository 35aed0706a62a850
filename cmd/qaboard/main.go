package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/qaboard/internal/app"
	"github.com/five82/qaboard/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "qaboard: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	var opts app.Options

	board := func(cmd *cobra.Command, _ []string) error {
		return app.Run(cmd.Context(), opts)
	}

	root := &cobra.Command{
		Use:           "qaboard",
		Short:         "Live audience Q&A board",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          board,
	}
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "board config path (default ~/.config/qaboard/config.toml)")
	root.PersistentFlags().StringVar(&opts.PrefsPath, "prefs", "", "preferences path (default ~/.config/qaboard/prefs.toml)")
	root.Flags().DurationVar(&opts.RefreshEvery, "refresh", 0, "background refresh interval, e.g. 10s (optional)")

	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive board",
		Args:  cobra.NoArgs,
		RunE:  board,
	}
	boardCmd.Flags().DurationVar(&opts.RefreshEvery, "refresh", 0, "background refresh interval, e.g. 10s (optional)")

	var copyLink bool
	linkCmd := &cobra.Command{
		Use:   "link",
		Short: "Print the audience join link and QR code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.PrintJoinLink(cmd.OutOrStdout(), opts, copyLink)
		},
	}
	linkCmd.Flags().BoolVar(&copyLink, "copy", false, "also copy the link to the clipboard")

	var serverConfig string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the questions API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := server.LoadConfig(serverConfig)
			if err != nil {
				return err
			}
			logger := log.New(os.Stderr, "qaboard-serve ", log.LstdFlags)
			return server.Run(cmd.Context(), cfg, logger)
		},
	}
	// Shadows the board's --config for this subcommand.
	serveCmd.Flags().StringVar(&serverConfig, "config", "", "server config path (YAML, optional)")

	root.AddCommand(boardCmd, linkCmd, serveCmd)
	return root
}
