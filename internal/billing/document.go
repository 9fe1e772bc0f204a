// Package billing projects orders into printable documents. A document is
// a read model: it is rebuilt from the order on every request and nothing
// here is persisted.
package billing

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind names the document variant.
type Kind string

const (
	// KindProforma is the default document for any order.
	KindProforma Kind = "FACTURE PROFORMA"
	// KindInvoice is only available once the order is paid.
	KindInvoice Kind = "FACTURE"
)

// Document is the printable projection of an order.
type Document struct {
	Kind          Kind           `json:"kind"`
	Number        string         `json:"number"`
	InvoiceNumber string         `json:"invoice_number,omitempty"`
	IssuedOn      time.Time      `json:"issued_on"`
	ClientName    string         `json:"client_name"`
	ClientAddress *string        `json:"client_address,omitempty"`
	ClientTaxID   *string        `json:"client_tax_id,omitempty"`
	Lines         []DocumentLine `json:"lines"`
	Total         int64          `json:"total"`
	TotalDisplay  string         `json:"total_display"`
	TotalInWords  string         `json:"total_in_words"`
}

// DocumentLine is one priced row of the document.
type DocumentLine struct {
	Label         string `json:"label"`
	Reference     string `json:"reference"`
	Tariff        int64  `json:"tariff"`
	TariffDisplay string `json:"tariff_display"`
	Quantity      int64  `json:"quantity"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
}

// frPrinter renders amounts with French digit grouping, the convention of
// the printed documents (e.g. 1 234 567).
var frPrinter = message.NewPrinter(language.French)

// FormatAmount renders an ariary amount for display.
func FormatAmount(amount int64) string {
	return frPrinter.Sprintf("%d", amount)
}
