package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deffeddef/invoice-extractor-app/internal/common"
)

var (
	configPath string
	logLevel   string

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "invoicectl",
	Short: "Extract structured invoice data from PDF and text documents",
	Long: `invoicectl runs the invoice extraction pipeline locally.

Examples:
  invoicectl extract invoice.pdf                # print the result envelope as JSON
  invoicectl extract invoice.pdf --xlsx out.xlsx
  invoicectl watch ./inbox --out ./results      # process new files as they arrive
  invoicectl fetch-model                        # download the model weights once`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := common.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		// stdout carries command output
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: common.ParseLevel(c.Log.Level)}))
		slog.SetDefault(logger)
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional config file (yaml/toml/json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(fetchModelCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
