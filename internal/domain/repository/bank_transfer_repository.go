package repository

import (
	"context"

	"github.com/pozinox/tienda-api/internal/domain/entity"
)

// BankTransferRepository define el puerto de persistencia para BankTransfer.
type BankTransferRepository interface {
	Create(ctx context.Context, transfer *entity.BankTransfer) error
	GetByID(ctx context.Context, id string) (*entity.BankTransfer, error)
	GetByQuoteID(ctx context.Context, quoteID string) (*entity.BankTransfer, error)
	Update(ctx context.Context, transfer *entity.BankTransfer) error
	// ListPending lista transferencias pendientes o en verificación para la
	// bandeja de revisión del staff.
	ListPending(ctx context.Context, limit, offset int) ([]*entity.BankTransfer, error)
}
