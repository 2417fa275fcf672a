package repository

import (
	"context"

	"github.com/pozinox/tienda-api/internal/domain/entity"
)

// ExternalSaleRepository define el puerto de persistencia para ExternalSale.
// Create debe devolver domain.ErrDuplicate si la preferencia ya fue registrada
// (constraint único sobre preference_id: es la clave de idempotencia del importador).
type ExternalSaleRepository interface {
	Create(ctx context.Context, sale *entity.ExternalSale) error
	GetByPreferenceID(ctx context.Context, preferenceID string) (*entity.ExternalSale, error)
	// SetQuoteID escribe la back-reference a la cotización materializada.
	SetQuoteID(ctx context.Context, saleID, quoteID string) error
}
