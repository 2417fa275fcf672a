package dto

import "time"

// InvoiceResultResponse resultado del motor de facturación.
type InvoiceResultResponse struct {
	QuoteID        string    `json:"quote_id"`
	DocumentType   string    `json:"document_type"`
	DocumentNumber string    `json:"document_number"`
	IssuedAt       time.Time `json:"issued_at"`
	IssuedBy       string    `json:"issued_by,omitempty"`
	ReceiptRef     string    `json:"receipt_ref,omitempty"`
	// AlreadyInvoiced true cuando la llamada fue un reintento sobre una
	// cotización ya facturada (idempotencia, no error).
	AlreadyInvoiced bool `json:"already_invoiced"`
	// StockWarnings descripciones de faltantes detectados al descontar stock.
	StockWarnings []string `json:"stock_warnings,omitempty"`
}

// UpdateBillingProfileRequest body para PUT /api/perfil/facturacion.
// Kind: persona | empresa.
type UpdateBillingProfileRequest struct {
	Kind      string `json:"kind"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TaxID     string `json:"tax_id"`
	Address   string `json:"address"`
	LegalName string `json:"legal_name,omitempty"` // solo empresa
	Activity  string `json:"activity,omitempty"`   // solo empresa
}

// CustomerResponse perfil de cliente en respuestas. MissingBillingFields lista
// lo que falta para poder emitir su documento.
type CustomerResponse struct {
	ID                   string   `json:"id"`
	Kind                 string   `json:"kind"`
	Name                 string   `json:"name"`
	Email                string   `json:"email"`
	Phone                string   `json:"phone,omitempty"`
	TaxID                string   `json:"tax_id,omitempty"`
	Address              string   `json:"address,omitempty"`
	LegalName            string   `json:"legal_name,omitempty"`
	Activity             string   `json:"activity,omitempty"`
	MissingBillingFields []string `json:"missing_billing_fields,omitempty"`
}
