package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deffeddef/invoice-extractor-app/internal/app"
	"github.com/deffeddef/invoice-extractor-app/internal/entity"
	"github.com/deffeddef/invoice-extractor-app/internal/utils"
)

var (
	xlsxOut     string
	showSummary bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Run the pipeline on one PDF or TXT file and print the result envelope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		res := a.Processor.Parse(ctx, filepath.Base(path), f)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
		if !res.OK() {
			pterm.Error.Println(res.ErrorMessage)
			return fmt.Errorf("extraction failed")
		}

		if showSummary {
			if err := renderSummary(res.InvoiceData); err != nil {
				return err
			}
		}
		if xlsxOut != "" {
			b, err := a.Exporter.InvoiceWorkbook(ctx, res.InvoiceData)
			if err != nil {
				return err
			}
			if err := os.WriteFile(xlsxOut, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", xlsxOut, err)
			}
			pterm.Success.Printf("Workbook written to %s\n", xlsxOut)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&xlsxOut, "xlsx", "", "also write the invoice as an XLSX workbook")
	extractCmd.Flags().BoolVar(&showSummary, "summary", true, "print a line-item table to stderr")
}

func renderSummary(inv *entity.Invoice) error {
	data := pterm.TableData{{"Description", "Qty", "Unit Price", "Total", "Score"}}
	for _, it := range inv.LineItems {
		data = append(data, []string{
			it.Description,
			fmt.Sprintf("%g", it.Quantity),
			fmt.Sprintf("%.2f", it.UnitPrice),
			fmt.Sprintf("%.2f", it.Total),
			utils.FormatAmount(it.SustainabilityScore),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	pterm.Fprintln(os.Stderr, table)

	if m := inv.SustainabilityMetrics; m != nil {
		pterm.Fprintln(os.Stderr, pterm.Sprintf("Vendor: %s  ESG risk: %s  green vendor: %t  CO2-intensive items: %t  total: %.2f",
			inv.VendorName(), m.OverallESGRisk, m.GreenVendorFlag, m.CO2IntensiveItemsFlag, inv.TotalAmount))
	}
	return nil
}
