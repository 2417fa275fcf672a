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

var _ repository.QuoteRepository = (*QuoteRepo)(nil)

// QuoteRepo implementación de QuoteRepository (usable con pool o tx).
type QuoteRepo struct {
	q Querier
}

// NewQuoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewQuoteRepository(q Querier) *QuoteRepo {
	return &QuoteRepo{q: q}
}

const quoteColumns = `
	id, customer_id, created_by, number, state, preparation,
	subtotal, tax, total,
	payment_method, paid, preference_id, payment_id,
	invoiced, document_type, document_number, issued_at, issued_by, receipt_ref,
	folio_sii, track_id_sii, note,
	created_at, finalized_at, expires_at, updated_at`

func scanQuote(row pgx.Row) (*entity.Quote, error) {
	var q entity.Quote
	err := row.Scan(
		&q.ID, &q.CustomerID, &q.CreatedBy, &q.Number, &q.State, &q.Preparation,
		&q.Subtotal, &q.Tax, &q.Total,
		&q.PaymentMethod, &q.Paid, &q.PreferenceID, &q.PaymentID,
		&q.Invoiced, &q.DocumentType, &q.DocumentNumber, &q.IssuedAt, &q.IssuedBy, &q.ReceiptRef,
		&q.FolioSII, &q.TrackIDSII, &q.Note,
		&q.CreatedAt, &q.FinalizedAt, &q.ExpiresAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan quote: %w", err)
	}
	return &q, nil
}

// Create persiste la cotización.
func (r *QuoteRepo) Create(ctx context.Context, q *entity.Quote) error {
	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`
	_, err := r.q.Exec(ctx, query,
		q.ID, q.CustomerID, q.CreatedBy, q.Number, q.State, q.Preparation,
		q.Subtotal, q.Tax, q.Total,
		q.PaymentMethod, q.Paid, q.PreferenceID, q.PaymentID,
		q.Invoiced, q.DocumentType, q.DocumentNumber, q.IssuedAt, q.IssuedBy, q.ReceiptRef,
		q.FolioSII, q.TrackIDSII, q.Note,
		q.CreatedAt, q.FinalizedAt, q.ExpiresAt, q.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// GetByID obtiene la cotización por ID.
func (r *QuoteRepo) GetByID(ctx context.Context, id string) (*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`
	return scanQuote(r.q.QueryRow(ctx, query, id))
}

// GetByIDForUpdate lee con lock de fila. Solo tiene sentido dentro de una
// transacción: serializa emisiones concurrentes sobre la misma cotización.
func (r *QuoteRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1 FOR UPDATE`
	return scanQuote(r.q.QueryRow(ctx, query, id))
}

// GetByPreferenceID obtiene la cotización correlacionada con una preferencia del gateway.
func (r *QuoteRepo) GetByPreferenceID(ctx context.Context, preferenceID string) (*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE preference_id = $1`
	return scanQuote(r.q.QueryRow(ctx, query, preferenceID))
}

// GetDraftByCustomer devuelve el borrador más reciente del cliente.
func (r *QuoteRepo) GetDraftByCustomer(ctx context.Context, customerID string) (*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + `
		FROM quotes WHERE customer_id = $1 AND state = $2
		ORDER BY created_at DESC LIMIT 1`
	return scanQuote(r.q.QueryRow(ctx, query, customerID, entity.QuoteDraft))
}

// Update actualiza todos los campos mutables de la cotización.
func (r *QuoteRepo) Update(ctx context.Context, q *entity.Quote) error {
	query := `
		UPDATE quotes SET
			state = $2, preparation = $3,
			subtotal = $4, tax = $5, total = $6,
			payment_method = $7, paid = $8, preference_id = $9, payment_id = $10,
			invoiced = $11, document_type = $12, document_number = $13,
			issued_at = $14, issued_by = $15, receipt_ref = $16,
			folio_sii = $17, track_id_sii = $18, note = $19,
			finalized_at = $20, updated_at = $21
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		q.ID, q.State, q.Preparation,
		q.Subtotal, q.Tax, q.Total,
		q.PaymentMethod, q.Paid, q.PreferenceID, q.PaymentID,
		q.Invoiced, q.DocumentType, q.DocumentNumber,
		q.IssuedAt, q.IssuedBy, q.ReceiptRef,
		q.FolioSII, q.TrackIDSII, q.Note,
		q.FinalizedAt, q.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update quote: %w", err)
	}
	return nil
}

// ListByCustomer lista cotizaciones del cliente, más recientes primero.
func (r *QuoteRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + `
		FROM quotes WHERE customer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, customerID, limit, offset)
}

// ListByState lista cotizaciones por estado (bandeja de staff).
func (r *QuoteRepo) ListByState(ctx context.Context, state entity.QuoteState, limit, offset int) ([]*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + `
		FROM quotes WHERE state = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, state, limit, offset)
}

func (r *QuoteRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Quote, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()
	var list []*entity.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

// CreateLine persiste una línea de cotización.
func (r *QuoteRepo) CreateLine(ctx context.Context, l *entity.QuoteLine) error {
	query := `
		INSERT INTO quote_lines (id, quote_id, product_id, product_name, product_sku, quantity, unit_price, subtotal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.QuoteID, l.ProductID, l.ProductName, l.ProductSKU,
		l.Quantity, l.UnitPrice, l.Subtotal, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert quote line: %w", err)
	}
	return nil
}

// UpdateLine actualiza cantidad y subtotal de una línea.
func (r *QuoteRepo) UpdateLine(ctx context.Context, l *entity.QuoteLine) error {
	query := `
		UPDATE quote_lines SET quantity = $2, unit_price = $3, subtotal = $4, updated_at = $5
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, l.ID, l.Quantity, l.UnitPrice, l.Subtotal, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update quote line: %w", err)
	}
	return nil
}

// DeleteLine elimina una línea.
func (r *QuoteRepo) DeleteLine(ctx context.Context, lineID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM quote_lines WHERE id = $1`, lineID)
	if err != nil {
		return fmt.Errorf("delete quote line: %w", err)
	}
	return nil
}

// GetLines lista las líneas de la cotización en orden de inserción.
func (r *QuoteRepo) GetLines(ctx context.Context, quoteID string) ([]*entity.QuoteLine, error) {
	query := `
		SELECT id, quote_id, product_id, product_name, product_sku, quantity, unit_price, subtotal, created_at, updated_at
		FROM quote_lines WHERE quote_id = $1 ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, quoteID)
	if err != nil {
		return nil, fmt.Errorf("list quote lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.QuoteLine
	for rows.Next() {
		var l entity.QuoteLine
		if err := rows.Scan(&l.ID, &l.QuoteID, &l.ProductID, &l.ProductName, &l.ProductSKU,
			&l.Quantity, &l.UnitPrice, &l.Subtotal, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan quote line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// GetLineByProduct devuelve la línea del producto en la cotización, o ErrNotFound.
func (r *QuoteRepo) GetLineByProduct(ctx context.Context, quoteID, productID string) (*entity.QuoteLine, error) {
	query := `
		SELECT id, quote_id, product_id, product_name, product_sku, quantity, unit_price, subtotal, created_at, updated_at
		FROM quote_lines WHERE quote_id = $1 AND product_id = $2`
	var l entity.QuoteLine
	err := r.q.QueryRow(ctx, query, quoteID, productID).Scan(
		&l.ID, &l.QuoteID, &l.ProductID, &l.ProductName, &l.ProductSKU,
		&l.Quantity, &l.UnitPrice, &l.Subtotal, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get quote line: %w", err)
	}
	return &l, nil
}
