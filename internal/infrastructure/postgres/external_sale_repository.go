package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
)

var _ repository.ExternalSaleRepository = (*ExternalSaleRepo)(nil)

// ExternalSaleRepo implementación de ExternalSaleRepository (usable con pool o tx).
type ExternalSaleRepo struct {
	q Querier
}

// NewExternalSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewExternalSaleRepository(q Querier) *ExternalSaleRepo {
	return &ExternalSaleRepo{q: q}
}

// Create persiste la venta y sus ítems. El constraint único sobre
// preference_id es la clave de idempotencia: la segunda inserción de la misma
// preferencia devuelve domain.ErrDuplicate.
func (r *ExternalSaleRepo) Create(ctx context.Context, s *entity.ExternalSale) error {
	query := `
		INSERT INTO external_sales (id, preference_id, payment_id, buyer_email, status, reported_total, quote_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.PreferenceID, s.PaymentID, s.BuyerEmail, s.Status, s.ReportedTotal, s.QuoteID, s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert external sale: %w", err)
	}
	for i, it := range s.Items {
		itemQuery := `
			INSERT INTO external_sale_items (sale_id, position, product_id, sku, title, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := r.q.Exec(ctx, itemQuery,
			s.ID, i, it.ProductID, it.SKU, it.Title, it.Quantity, it.UnitPrice,
		); err != nil {
			return fmt.Errorf("insert external sale item: %w", err)
		}
	}
	return nil
}

// GetByPreferenceID obtiene la venta con sus ítems.
func (r *ExternalSaleRepo) GetByPreferenceID(ctx context.Context, preferenceID string) (*entity.ExternalSale, error) {
	query := `
		SELECT id, preference_id, payment_id, buyer_email, status, reported_total, quote_id, created_at
		FROM external_sales WHERE preference_id = $1`
	var s entity.ExternalSale
	err := r.q.QueryRow(ctx, query, preferenceID).Scan(
		&s.ID, &s.PreferenceID, &s.PaymentID, &s.BuyerEmail, &s.Status, &s.ReportedTotal, &s.QuoteID, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get external sale: %w", err)
	}

	itemQuery := `
		SELECT product_id, sku, title, quantity, unit_price
		FROM external_sale_items WHERE sale_id = $1 ORDER BY position`
	rows, err := r.q.Query(ctx, itemQuery, s.ID)
	if err != nil {
		return nil, fmt.Errorf("list external sale items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.ExternalSaleItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.Title, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan external sale item: %w", err)
		}
		s.Items = append(s.Items, it)
	}
	return &s, rows.Err()
}

// SetQuoteID escribe la back-reference a la cotización materializada.
func (r *ExternalSaleRepo) SetQuoteID(ctx context.Context, saleID, quoteID string) error {
	_, err := r.q.Exec(ctx, `UPDATE external_sales SET quote_id = $2 WHERE id = $1`, saleID, quoteID)
	if err != nil {
		return fmt.Errorf("set external sale quote: %w", err)
	}
	return nil
}
