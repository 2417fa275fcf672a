package repository

import (
	"context"

	"github.com/pozinox/tienda-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	// DecrementStock descuenta qty del stock en una sola sentencia atómica,
	// acotando en cero. Devuelve el stock restante y la cantidad efectivamente
	// descontada (applied < qty cuando el stock no alcanzaba).
	DecrementStock(ctx context.Context, productID string, qty int) (remaining, applied int, err error)
}
