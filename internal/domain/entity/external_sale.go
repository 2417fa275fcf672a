package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExternalSale es una venta notificada por el canal externo (checkout no
// iniciado desde la tienda). La clave de idempotencia es PreferenceID:
// constraint único en DB, a lo más una cotización materializada por
// preferencia sin importar cuántas veces llegue la notificación.
type ExternalSale struct {
	ID           string
	PreferenceID string // id de preferencia del gateway, único
	PaymentID    string
	BuyerEmail   string
	Status       string // estado de pago reportado por el gateway

	// Montos tal como los reporta el gateway. El total viene con IVA
	// incluido, a diferencia de las cotizaciones construidas localmente.
	ReportedTotal decimal.Decimal

	Items []ExternalSaleItem

	QuoteID string // back-reference; se escribe a lo más una vez

	CreatedAt time.Time
}

// ExternalSaleItem línea cruda reportada por el canal externo. Se resuelve
// contra el catálogo por id o SKU; si no existe se materializa un producto
// placeholder.
type ExternalSaleItem struct {
	ProductID string
	SKU       string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}
