package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/deffeddef/invoice-extractor-app/internal/common"
	"github.com/deffeddef/invoice-extractor-app/internal/entity"
	"github.com/deffeddef/invoice-extractor-app/internal/utils"
)

const (
	SheetInvoice   = "Invoice"
	SheetLineItems = "Line Items"

	// ContentType is the MIME type of the produced workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Service renders enriched invoices as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// InvoiceWorkbook returns an XLSX workbook (as bytes) with a summary sheet
// and one row per line item.
func (s *Service) InvoiceWorkbook(ctx context.Context, inv *entity.Invoice) ([]byte, error) {
	if inv == nil {
		return nil, errors.New("export: nil invoice")
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", SheetInvoice); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetLineItems); err != nil {
		return nil, err
	}

	if err := writeSummary(f, inv); err != nil {
		return nil, err
	}
	if err := writeLineItems(f, inv.LineItems); err != nil {
		return nil, err
	}

	idx, _ := f.GetSheetIndex(SheetInvoice)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	common.LoggerFrom(ctx, s.logger).Info("export.xlsx.ok",
		"line_items", len(inv.LineItems),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, inv *entity.Invoice) error {
	var vendorName, vatID string
	var vendorAddr *entity.Address
	if inv.Vendor != nil {
		vendorName = utils.StrOrEmpty(inv.Vendor.Name)
		vatID = utils.StrOrEmpty(inv.Vendor.VATID)
		vendorAddr = inv.Vendor.Address
	}

	rows := [][2]any{
		{"Invoice Number", utils.StrOrEmpty(inv.InvoiceNumber)},
		{"Invoice Date", utils.StrOrEmpty(inv.InvoiceDate)},
		{"Vendor", vendorName},
		{"Vendor Address", formatAddress(vendorAddr)},
		{"Vendor VAT ID", vatID},
		{"Customer", utils.StrOrEmpty(inv.CustomerName)},
		{"Customer Address", formatAddress(inv.CustomerAddress)},
		{"Currency", utils.StrOrEmpty(inv.Currency)},
		{"Subtotal", optAmount(inv.Subtotal)},
		{"Tax Amount", optAmount(inv.TaxAmount)},
		{"Total Amount", inv.TotalAmount},
	}
	if m := inv.SustainabilityMetrics; m != nil {
		rows = append(rows,
			[2]any{"Overall ESG Risk", m.OverallESGRisk},
			[2]any{"Green Vendor", strconv.FormatBool(m.GreenVendorFlag)},
			[2]any{"CO2 Intensive Items", strconv.FormatBool(m.CO2IntensiveItemsFlag)},
		)
	}

	for i, r := range rows {
		if err := f.SetSheetRow(SheetInvoice, fmt.Sprintf("A%d", i+1), &[]any{r[0], r[1]}); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetInvoice, "A", "A", 22)
	_ = f.SetColWidth(SheetInvoice, "B", "B", 48)
	return nil
}

func writeLineItems(f *excelize.File, items []entity.LineItem) error {
	headers := []any{"Description", "Quantity", "Unit Price", "Total", "Sustainability Score"}
	if err := f.SetSheetRow(SheetLineItems, "A1", &headers); err != nil {
		return err
	}
	for i, it := range items {
		row := []any{it.Description, it.Quantity, it.UnitPrice, it.Total, optAmount(it.SustainabilityScore)}
		if err := f.SetSheetRow(SheetLineItems, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetLineItems, "A", "A", 40)
	_ = f.SetColWidth(SheetLineItems, "B", "E", 14)
	return nil
}

// optAmount keeps numbers numeric in the sheet; nil becomes an empty cell.
func optAmount(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}

func formatAddress(a *entity.Address) string {
	if a == nil {
		return ""
	}
	out := ""
	for _, part := range []*string{a.Street, a.ZipCode, a.City, a.Country} {
		if part == nil || *part == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += *part
	}
	return out
}
