package entity

// Address is shared by vendor and customer addresses; both carry the same four optional parts.
type Address struct {
	Street  *string `json:"street"`
	City    *string `json:"city"`
	ZipCode *string `json:"zip_code"`
	Country *string `json:"country"`
}

// Vendor is the issuer of an invoice.
type Vendor struct {
	Name    *string  `json:"name"`
	Address *Address `json:"address"`
	VATID   *string  `json:"vat_id"`
}

// LineItem is a single invoice line. SustainabilityScore stays nil until the scorer runs.
type LineItem struct {
	Description         string   `json:"description"`
	Quantity            float64  `json:"quantity"`
	UnitPrice           float64  `json:"unit_price"`
	Total               float64  `json:"total"`
	SustainabilityScore *float64 `json:"sustainability_score"`
}

// SustainabilityMetrics is attached once per invoice by the scorer, fully populated.
type SustainabilityMetrics struct {
	OverallESGRisk        string `json:"overall_esg_risk"`
	GreenVendorFlag       bool   `json:"green_vendor_flag"`
	CO2IntensiveItemsFlag bool   `json:"co2_intensive_items_flag"`
}

// Invoice is the structured record extracted from a document.
// TotalAmount is the only required field; everything else tolerates partial extraction.
type Invoice struct {
	InvoiceNumber         *string                `json:"invoice_number"`
	InvoiceDate           *string                `json:"invoice_date"`
	Vendor                *Vendor                `json:"vendor"`
	CustomerName          *string                `json:"customer_name"`
	CustomerAddress       *Address               `json:"customer_address"`
	LineItems             []LineItem             `json:"line_items"`
	Subtotal              *float64               `json:"subtotal"`
	TaxAmount             *float64               `json:"tax_amount"`
	TotalAmount           float64                `json:"total_amount"`
	Currency              *string                `json:"currency"`
	SustainabilityMetrics *SustainabilityMetrics `json:"sustainability_metrics"`
}

// VendorName returns the vendor name or "" when the invoice carries none.
func (i *Invoice) VendorName() string {
	if i == nil || i.Vendor == nil || i.Vendor.Name == nil {
		return ""
	}
	return *i.Vendor.Name
}
