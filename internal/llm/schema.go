package llm

import (
	"encoding/json"
	"sync"
)

// BuildInvoiceJSONSchema returns the invoice record's JSON Schema as a generic map.
// The same document is embedded in the prompt and compiled for validation.
// Optional fields accept null; unknown properties are tolerated.
func BuildInvoiceJSONSchema() map[string]any {
	address := func(desc string) map[string]any {
		return map[string]any{
			"type":        []any{"object", "null"},
			"description": desc,
			"properties": map[string]any{
				"street":   optString("Street and house number."),
				"city":     optString("City."),
				"zip_code": optString("Postal code."),
				"country":  optString("Country."),
			},
		}
	}

	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"description":          map[string]any{"type": "string", "description": "Description of the item or service."},
			"quantity":             map[string]any{"type": "number", "description": "Quantity of the item or service."},
			"unit_price":           map[string]any{"type": "number", "description": "Unit price of the item or service."},
			"total":                map[string]any{"type": "number", "description": "Total price for the line item."},
			"sustainability_score": optNumber("A calculated sustainability score for the item (0-100)."),
		},
		"required": []any{"description", "quantity", "unit_price", "total"},
	}

	return map[string]any{
		"title": "Invoice",
		"type":  "object",
		"properties": map[string]any{
			"invoice_number": optString("The invoice number."),
			"invoice_date":   optString("The date of the invoice."),
			"vendor": map[string]any{
				"type":        []any{"object", "null"},
				"description": "Details of the vendor.",
				"properties": map[string]any{
					"name":    optString("The name of the vendor."),
					"address": address("The address of the vendor."),
					"vat_id":  optString("The VAT ID of the vendor."),
				},
			},
			"customer_name":    optString("The name of the customer."),
			"customer_address": address("The address of the customer."),
			"line_items": map[string]any{
				"type":        "array",
				"description": "List of line items in the invoice.",
				"items":       lineItem,
			},
			"subtotal":     optNumber("The subtotal amount before taxes and discounts."),
			"tax_amount":   optNumber("The total tax amount."),
			"total_amount": map[string]any{"type": "number", "description": "The total amount due."},
			"currency":     optString("The currency of the amounts (e.g., USD, EUR)."),
			"sustainability_metrics": map[string]any{
				"type":        []any{"object", "null"},
				"description": "Sustainability metrics for the invoice.",
				"properties": map[string]any{
					"overall_esg_risk":         optString("Overall ESG risk assessment (e.g., 'Low', 'Medium', 'High')."),
					"green_vendor_flag":        map[string]any{"type": []any{"boolean", "null"}, "description": "True if the vendor is identified as a green vendor."},
					"co2_intensive_items_flag": map[string]any{"type": []any{"boolean", "null"}, "description": "True if any line item is identified as CO2 intensive."},
				},
			},
		},
		"required": []any{"total_amount"},
	}
}

func optString(desc string) map[string]any {
	return map[string]any{"type": []any{"string", "null"}, "description": desc}
}

func optNumber(desc string) map[string]any {
	return map[string]any{"type": []any{"number", "null"}, "description": desc}
}

var (
	schemaOnce sync.Once
	schemaText string
)

// InvoiceSchemaJSON returns the indented schema document, as embedded in prompts.
func InvoiceSchemaJSON() string {
	schemaOnce.Do(func() {
		b, _ := json.MarshalIndent(BuildInvoiceJSONSchema(), "", "  ")
		schemaText = string(b)
	})
	return schemaText
}
