package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deffeddef/invoice-extractor-app/internal/common"
)

const fullInvoice = `{
  "invoice_number": "INV-2023-001",
  "invoice_date": "2023-01-15",
  "vendor": {
    "name": "Example Corp",
    "address": {"street": "123 Main St", "city": "Anytown", "zip_code": "12345", "country": "USA"},
    "vat_id": "US123456789"
  },
  "customer_name": "Customer Name",
  "customer_address": {"street": "456 Oak Ave", "city": "Otherville", "zip_code": "67890", "country": null},
  "line_items": [
    {"description": "Product A", "quantity": 2.0, "unit_price": 10.0, "total": 20.0},
    {"description": "Service B", "quantity": 1, "unit_price": 50, "total": 50, "sustainability_score": null}
  ],
  "subtotal": 70.0,
  "tax_amount": 7.0,
  "total_amount": 77.0,
  "currency": "USD",
  "notes": "unknown fields are ignored"
}`

func newValidator(t *testing.T, lenient bool) *Validator {
	t.Helper()
	v, err := NewValidator(lenient, nil)
	require.NoError(t, err)
	return v
}

func violationOf(t *testing.T, err error) *common.SchemaViolation {
	t.Helper()
	require.Error(t, err)
	var sv *common.SchemaViolation
	require.True(t, errors.As(err, &sv), "want SchemaViolation, got %v", err)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, common.CodeSchemaViolation, appErr.Code)
	assert.Contains(t, appErr.Message, "Validation failed. The LLM returned data that does not match the required schema. Details: ")
	return sv
}

func fields(sv *common.SchemaViolation) []string {
	out := make([]string, 0, len(sv.Violations))
	for _, v := range sv.Violations {
		out = append(out, v.Field)
	}
	return out
}

func TestValidateFullInvoice(t *testing.T) {
	inv, err := newValidator(t, false).Validate(json.RawMessage(fullInvoice))
	require.NoError(t, err)

	assert.Equal(t, "INV-2023-001", *inv.InvoiceNumber)
	assert.Equal(t, "Example Corp", inv.VendorName())
	assert.Equal(t, "12345", *inv.Vendor.Address.ZipCode)
	assert.Nil(t, inv.CustomerAddress.Country)
	require.Len(t, inv.LineItems, 2)
	assert.Equal(t, "Product A", inv.LineItems[0].Description)
	assert.Equal(t, 50.0, inv.LineItems[1].UnitPrice)
	assert.Nil(t, inv.LineItems[1].SustainabilityScore)
	assert.Equal(t, 77.0, inv.TotalAmount)
	assert.Nil(t, inv.SustainabilityMetrics)
}

func TestValidateMinimalInvoice(t *testing.T) {
	inv, err := newValidator(t, false).Validate(json.RawMessage(`{"total_amount": 0}`))
	require.NoError(t, err)
	assert.NotNil(t, inv.LineItems)
	assert.Empty(t, inv.LineItems)
	assert.Nil(t, inv.Vendor)
}

func TestValidateMissingTotal(t *testing.T) {
	_, err := newValidator(t, false).Validate(json.RawMessage(`{"invoice_number": "X"}`))
	sv := violationOf(t, err)
	assert.Contains(t, sv.Error(), "total_amount")
}

func TestValidateReportsPaths(t *testing.T) {
	doc := `{
	  "total_amount": 10,
	  "vendor": {"name": 42},
	  "line_items": [
	    {"description": "ok", "quantity": 1, "unit_price": 1, "total": 1},
	    {"description": "bad", "quantity": "two", "unit_price": 1}
	  ]
	}`
	_, err := newValidator(t, false).Validate(json.RawMessage(doc))
	sv := violationOf(t, err)

	got := fields(sv)
	assert.Contains(t, got, "/line_items/1")
	assert.Contains(t, got, "/line_items/1/quantity")
	assert.Contains(t, got, "/vendor/name")
	assert.Contains(t, sv.Error(), "total")
	assert.NotContains(t, got, "/line_items/0")
}

func TestValidateOrdersViolationsByDocumentPosition(t *testing.T) {
	items := make([]string, 12)
	for i := range items {
		qty := "1"
		if i == 2 || i == 10 {
			qty = `"many"`
		}
		items[i] = fmt.Sprintf(`{"description": "item %d", "quantity": %s, "unit_price": 1, "total": 1}`, i, qty)
	}
	doc := `{"total_amount": 12, "line_items": [` + strings.Join(items, ",") + `]}`

	_, err := newValidator(t, false).Validate(json.RawMessage(doc))
	sv := violationOf(t, err)

	got := fields(sv)
	i2, i10 := indexOf(got, "/line_items/2/quantity"), indexOf(got, "/line_items/10/quantity")
	require.NotEqual(t, -1, i2, "%v", got)
	require.NotEqual(t, -1, i10, "%v", got)
	assert.Less(t, i2, i10)
}

func TestComparePointers(t *testing.T) {
	assert.Negative(t, comparePointers("/line_items/2", "/line_items/10"))
	assert.Positive(t, comparePointers("/line_items/10/total", "/line_items/9"))
	assert.Negative(t, comparePointers("/line_items", "/line_items/0"))
	assert.Negative(t, comparePointers("/currency", "/vendor/name"))
	assert.Zero(t, comparePointers("/vendor", "/vendor"))
}

func indexOf(xs []string, want string) int {
	for i, x := range xs {
		if x == want {
			return i
		}
	}
	return -1
}

func TestValidateWrongTypeForTotal(t *testing.T) {
	_, err := newValidator(t, false).Validate(json.RawMessage(`{"total_amount": "77.00"}`))
	sv := violationOf(t, err)
	assert.Equal(t, []string{"/total_amount"}, fields(sv))
	assert.Contains(t, sv.Error(), "string")
}

func TestValidateLenientRepairsNumericStrings(t *testing.T) {
	doc := `{
	  "total_amount": "$1,234.50",
	  "tax_amount": "",
	  "line_items": [{"description": "Widget", "quantity": "3", "unit_price": "10.0", "total": 30}]
	}`
	strict := newValidator(t, false)
	_, err := strict.Validate(json.RawMessage(doc))
	violationOf(t, err)

	inv, err := newValidator(t, true).Validate(json.RawMessage(doc))
	require.NoError(t, err)
	assert.Equal(t, 1234.5, inv.TotalAmount)
	assert.Nil(t, inv.TaxAmount)
	assert.Equal(t, 3.0, inv.LineItems[0].Quantity)
	assert.Equal(t, 10.0, inv.LineItems[0].UnitPrice)
}

func TestValidateLenientDropsNullLineItems(t *testing.T) {
	inv, err := newValidator(t, true).Validate(json.RawMessage(`{"total_amount": 5, "line_items": null}`))
	require.NoError(t, err)
	assert.Empty(t, inv.LineItems)
}

func TestValidateLenientReportsOriginalViolation(t *testing.T) {
	doc := `{"total_amount": "12.00", "line_items": [{"description": "x", "quantity": "lots", "unit_price": 1, "total": 1}]}`
	_, err := newValidator(t, true).Validate(json.RawMessage(doc))
	sv := violationOf(t, err)
	assert.Contains(t, fields(sv), "/total_amount", "original violation, not the repaired one")
	assert.Contains(t, fields(sv), "/line_items/0/quantity")
}

func TestRepair(t *testing.T) {
	out, changes, err := Repair(json.RawMessage(`{"subtotal": " 7 ", "total_amount": "NaN", "line_items": [{"total": "null"}, "junk"]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"subtotal": 7, "total_amount": "NaN", "line_items": [{"total": null}, "junk"]}`, string(out))
	assert.ElementsMatch(t, []string{"/subtotal: string -> number", "/line_items/0/total: blank -> null"}, changes)

	_, _, err = Repair(json.RawMessage(`not json`))
	require.Error(t, err)
}
