package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pozinox/tienda-api/internal/application/billing"
	"github.com/pozinox/tienda-api/internal/application/sales"
	"github.com/pozinox/tienda-api/internal/domain/repository"
)

var _ billing.InvoicingTxRunner = (*TxRunner)(nil)
var _ sales.ImportTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunInvoicing inicia una transacción con los repos de la facturación:
// cotización (lock FOR UPDATE), productos (descuento de stock) y correlativos.
func (r *TxRunner) RunInvoicing(ctx context.Context, fn func(
	quoteRepo repository.QuoteRepository,
	productRepo repository.ProductRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewQuoteRepository(tx), NewProductRepository(tx), NewSequenceRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunImport inicia una transacción con los repos del importador de ventas
// externas: cliente, productos, cotización, venta y correlativos.
func (r *TxRunner) RunImport(ctx context.Context, fn func(
	quoteRepo repository.QuoteRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	saleRepo repository.ExternalSaleRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewQuoteRepository(tx),
		NewProductRepository(tx),
		NewCustomerRepository(tx),
		NewExternalSaleRepository(tx),
		NewSequenceRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
