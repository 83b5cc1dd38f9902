package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/polyglot/internal/cli"
	"codeberg.org/snonux/polyglot/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command; the processor is built once config is loaded
	rootCmd := cli.CreateRootCommand(flags, func() (cli.Runner, error) {
		config, err := cli.LoadConfig()
		if err != nil {
			return nil, err
		}
		return processor.NewProcessor(flags, config), nil
	})

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.SetupLogging(flags.Verbose)
		cli.InitConfig(flags.CfgFile)
	})

	// Ctrl+C stops capture and shuts the service down
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
