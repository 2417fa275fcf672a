package repository

import (
	"context"

	"github.com/pozinox/tienda-api/internal/domain/entity"
)

// QuoteRepository define el puerto de persistencia para Quote y sus líneas.
type QuoteRepository interface {
	Create(ctx context.Context, quote *entity.Quote) error
	GetByID(ctx context.Context, id string) (*entity.Quote, error)
	// GetByIDForUpdate lee con SELECT FOR UPDATE. Solo dentro de una transacción.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.Quote, error)
	GetByPreferenceID(ctx context.Context, preferenceID string) (*entity.Quote, error)
	// GetDraftByCustomer devuelve el borrador vigente del cliente, si existe.
	GetDraftByCustomer(ctx context.Context, customerID string) (*entity.Quote, error)
	Update(ctx context.Context, quote *entity.Quote) error
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*entity.Quote, error)
	ListByState(ctx context.Context, state entity.QuoteState, limit, offset int) ([]*entity.Quote, error)

	CreateLine(ctx context.Context, line *entity.QuoteLine) error
	UpdateLine(ctx context.Context, line *entity.QuoteLine) error
	DeleteLine(ctx context.Context, lineID string) error
	GetLines(ctx context.Context, quoteID string) ([]*entity.QuoteLine, error)
	// GetLineByProduct devuelve la línea del producto en la cotización, o ErrNotFound.
	GetLineByProduct(ctx context.Context, quoteID, productID string) (*entity.QuoteLine, error)
}
