package entity

import "github.com/deffeddef/invoice-extractor-app/constants"

// ExtractionResult is the envelope returned for every parse request.
// Exactly one of InvoiceData and ErrorMessage is set, depending on Status.
type ExtractionResult struct {
	Status       string   `json:"status"`
	InvoiceData  *Invoice `json:"invoice_data,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

func Success(inv *Invoice) ExtractionResult {
	return ExtractionResult{Status: constants.StatusSuccess, InvoiceData: inv}
}

func Failure(msg string) ExtractionResult {
	return ExtractionResult{Status: constants.StatusError, ErrorMessage: msg}
}

// OK reports whether the envelope carries an invoice.
func (r ExtractionResult) OK() bool {
	return r.Status == constants.StatusSuccess
}
