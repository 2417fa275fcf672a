package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateQuoteRequest body para POST /api/cotizaciones. CustomerID es opcional:
// si va vacío se resuelve el cliente del usuario autenticado; el staff puede
// crear a nombre de otro cliente.
type CreateQuoteRequest struct {
	CustomerID string `json:"customer_id,omitempty"`
	Note       string `json:"note,omitempty"`
}

// AddLineRequest body para POST /api/cotizaciones/:id/lineas.
type AddLineRequest struct {
	ProductID string `json:"product_id,omitempty"`
	SKU       string `json:"sku,omitempty"` // alternativa a product_id
	Quantity  int    `json:"quantity"`
}

// UpdateLineRequest body para PUT /api/cotizaciones/:id/lineas/:lineaID.
type UpdateLineRequest struct {
	Quantity int `json:"quantity"`
}

// QuoteLineResponse línea de cotización en respuestas.
type QuoteLineResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	ProductSKU  string          `json:"product_sku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// QuoteResponse cotización con líneas y totales.
type QuoteResponse struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	CustomerID  string `json:"customer_id"`
	State       string `json:"state"`
	Preparation string `json:"preparation,omitempty"`

	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`

	PaymentMethod string `json:"payment_method,omitempty"`
	Paid          bool   `json:"paid"`

	Invoiced       bool   `json:"invoiced"`
	DocumentType   string `json:"document_type,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`

	Note string `json:"note,omitempty"`

	Lines []QuoteLineResponse `json:"lines,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Expired     bool       `json:"expired"`
}
