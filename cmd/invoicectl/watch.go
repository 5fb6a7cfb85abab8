package main

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deffeddef/invoice-extractor-app/internal/app"
	"github.com/deffeddef/invoice-extractor-app/internal/ingest"
)

var (
	watchOut      string
	watchWorkers  int
	watchExisting bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Process PDF and TXT files as they appear in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{args[0]},
			InitialScan: watchExisting,
			SkipHidden:  true,
			Debounce:    watchDebounce,
		}, logger)
		if err != nil {
			return err
		}

		queue := ingest.NewProcessorQueue(a.Processor, logger,
			ingest.WithWorkers(watchWorkers),
			ingest.WithOutDir(watchOut),
			ingest.WithResultHandler(func(o ingest.Outcome) {
				switch {
				case o.Err != "":
					pterm.Error.Printf("%s: %s\n", o.Path, o.Err)
				case !o.Result.OK():
					pterm.Warning.Printf("%s: %s\n", o.Path, o.Result.ErrorMessage)
				default:
					pterm.Success.Printf("%s (%d line items)\n", o.Path, len(o.Result.InvoiceData.LineItems))
				}
			}),
		)
		pterm.Info.Printf("Watching %s (Ctrl+C to stop)\n", args[0])

		for events != nil || errs != nil {
			select {
			case p, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				if err := queue.Enqueue(ctx, ingest.Job{Path: p}); err != nil {
					logger.Warn("enqueue failed", "path", p, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				pterm.Warning.Printf("watcher: %v\n", err)
			}
		}

		// ctx is done here; give in-flight jobs a bounded drain window
		drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		queue.Shutdown(drainCtx)
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchOut, "out", "", "write <name>.json result envelopes into this directory")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 2, "number of concurrent pipeline workers")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", true, "also process files already present")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "wait for writes to settle before processing")
}
