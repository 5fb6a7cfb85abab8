package llm

import "strings"

// BuildInvoicePrompt embeds the schema and document text in the extraction
// instructions. The prompt ends inside an opened ```json fence so the model
// continues straight into the object.
func BuildInvoicePrompt(text string) string {
	var b strings.Builder
	b.WriteString("You are an expert AI assistant for invoices. Your task is to extract structured data from the provided invoice text.\n")
	b.WriteString("Ensure you extract the invoice number, invoice date, vendor's full name, address (street, city, zip code, country), and VAT ID.\n")
	b.WriteString("Also, extract the customer's full name and address (street, city, zip code, country).\n")
	b.WriteString("For each line item, extract the description, quantity, unit price, and total.\n")
	b.WriteString("Crucially, extract the currency of the total amount.\n")
	b.WriteString("Return ONLY the JSON output, matching the following schema exactly. Do NOT include any other text, explanations, or formatting outside the JSON block.\n\n")
	b.WriteString("JSON Schema:\n")
	b.WriteString(InvoiceSchemaJSON())
	b.WriteString("\n\nInvoice Text:\n---\n")
	b.WriteString(text)
	b.WriteString("\n---\n\nExtracted JSON:\n```json\n")
	return b.String()
}
