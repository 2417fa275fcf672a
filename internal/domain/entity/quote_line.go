package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteLine es una línea de cotización. A lo más una por (cotización,
// producto): agregar el mismo producto incrementa la cantidad. El precio
// unitario es un snapshot al momento de agregar, no sigue al catálogo.
type QuoteLine struct {
	ID        string
	QuoteID   string
	ProductID string

	// Snapshot del producto para boleta/PDF aunque el catálogo cambie después.
	ProductName string
	ProductSKU  string

	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recalculate recalcula el subtotal de la línea (cantidad × precio unitario).
func (l *QuoteLine) Recalculate() {
	l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}
