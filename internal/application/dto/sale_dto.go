package dto

import "github.com/shopspring/decimal"

// ExternalSaleItemRequest línea reportada por el canal de venta externo.
type ExternalSaleItemRequest struct {
	ProductID string          `json:"product_id,omitempty"`
	SKU       string          `json:"sku,omitempty"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ImportExternalSaleRequest body para POST /api/ventas/externas. El total
// reportado viene con IVA incluido.
type ImportExternalSaleRequest struct {
	PreferenceID string                    `json:"preference_id"`
	PaymentID    string                    `json:"payment_id,omitempty"`
	BuyerEmail   string                    `json:"buyer_email"`
	BuyerName    string                    `json:"buyer_name,omitempty"`
	Status       string                    `json:"status"`
	Total        decimal.Decimal           `json:"total"`
	Items        []ExternalSaleItemRequest `json:"items"`
}

// ImportExternalSaleResponse resultado del importador.
type ImportExternalSaleResponse struct {
	SaleID  string `json:"sale_id"`
	QuoteID string `json:"quote_id"`
	Number  string `json:"number"`
	// AlreadyImported true si la preferencia ya había sido procesada.
	AlreadyImported bool `json:"already_imported"`
}
