package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/deffeddef/invoice-extractor-app/internal/entity"
	"github.com/deffeddef/invoice-extractor-app/internal/utils"
)

func TestInvoiceWorkbook(t *testing.T) {
	inv := &entity.Invoice{
		InvoiceNumber: utils.Ptr("INV-7"),
		Vendor: &entity.Vendor{
			Name:    utils.Ptr("GreenCorp"),
			Address: &entity.Address{Street: utils.Ptr("1 Leaf Rd"), City: utils.Ptr("Oslo")},
		},
		LineItems: []entity.LineItem{
			{Description: "Recycled paper", Quantity: 2, UnitPrice: 5, Total: 10, SustainabilityScore: utils.Ptr(80.0)},
			{Description: "Stapler", Quantity: 1, UnitPrice: 3, Total: 3},
		},
		TotalAmount: 13,
		SustainabilityMetrics: &entity.SustainabilityMetrics{
			OverallESGRisk: "Low", GreenVendorFlag: true,
		},
	}

	b, err := NewService(nil).InvoiceWorkbook(context.Background(), inv)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetInvoice, SheetLineItems}, f.GetSheetList())

	rows, err := f.GetRows(SheetInvoice)
	require.NoError(t, err)
	summary := map[string]string{}
	for _, r := range rows {
		if len(r) == 2 {
			summary[r[0]] = r[1]
		}
	}
	assert.Equal(t, "INV-7", summary["Invoice Number"])
	assert.Equal(t, "GreenCorp", summary["Vendor"])
	assert.Equal(t, "1 Leaf Rd, Oslo", summary["Vendor Address"])
	assert.Equal(t, "13", summary["Total Amount"])
	assert.Equal(t, "Low", summary["Overall ESG Risk"])
	assert.Equal(t, "true", summary["Green Vendor"])

	items, err := f.GetRows(SheetLineItems)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Description", items[0][0])
	assert.Equal(t, []string{"Recycled paper", "2", "5", "10", "80"}, items[1])
	assert.Equal(t, "Stapler", items[2][0])
}

func TestInvoiceWorkbookNil(t *testing.T) {
	_, err := NewService(nil).InvoiceWorkbook(context.Background(), nil)
	require.Error(t, err)
}
