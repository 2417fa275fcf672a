package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product referencia de catálogo usada por el ciclo de cotización: el precio
// se lee al agregar una línea (snapshot) y el stock lo descuenta el motor de
// facturación con una resta atómica acotada en cero.
type Product struct {
	ID          string
	SKU         string // código de producto, único
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Active      bool
	// Placeholder marca productos materializados por el importador de ventas
	// externas cuando el ítem reportado no resuelve contra el catálogo.
	Placeholder bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
