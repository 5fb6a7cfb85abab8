package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deffeddef/invoice-extractor-app/internal/modelfile"
)

var fetchModelCmd = &cobra.Command{
	Use:   "fetch-model",
	Short: "Download the configured model weights unless already present",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spinner, _ := pterm.DefaultSpinner.Start("Fetching " + cfg.Model.Name)
		path, err := modelfile.Ensure(cmd.Context(), cfg.Model.URL, cfg.Model.Dir, cfg.Model.Name, logger)
		if err != nil {
			spinner.Fail(err.Error())
			return err
		}
		spinner.Success("Model ready at " + path)
		return nil
	},
}
