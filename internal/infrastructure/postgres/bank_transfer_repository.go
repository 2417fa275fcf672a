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

var _ repository.BankTransferRepository = (*BankTransferRepo)(nil)

// BankTransferRepo implementación de BankTransferRepository (usable con pool o tx).
type BankTransferRepo struct {
	q Querier
}

// NewBankTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBankTransferRepository(q Querier) *BankTransferRepo {
	return &BankTransferRepo{q: q}
}

const transferColumns = `
	id, quote_id, state, declared_amount, proof_ref, transaction_ref, customer_note,
	reviewed_by, reviewed_at, reviewer_note, created_at, updated_at, expires_at`

func scanTransfer(row pgx.Row) (*entity.BankTransfer, error) {
	var t entity.BankTransfer
	err := row.Scan(
		&t.ID, &t.QuoteID, &t.State, &t.DeclaredAmount, &t.ProofRef, &t.TransactionRef, &t.CustomerNote,
		&t.ReviewedBy, &t.ReviewedAt, &t.ReviewerNote, &t.CreatedAt, &t.UpdatedAt, &t.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan bank transfer: %w", err)
	}
	return &t, nil
}

// Create persiste la transferencia. quote_id tiene constraint único: una
// transferencia por cotización.
func (r *BankTransferRepo) Create(ctx context.Context, t *entity.BankTransfer) error {
	query := `
		INSERT INTO bank_transfers (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.QuoteID, t.State, t.DeclaredAmount, t.ProofRef, t.TransactionRef, t.CustomerNote,
		t.ReviewedBy, t.ReviewedAt, t.ReviewerNote, t.CreatedAt, t.UpdatedAt, t.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert bank transfer: %w", err)
	}
	return nil
}

// GetByID obtiene la transferencia por ID.
func (r *BankTransferRepo) GetByID(ctx context.Context, id string) (*entity.BankTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM bank_transfers WHERE id = $1`
	return scanTransfer(r.q.QueryRow(ctx, query, id))
}

// GetByQuoteID obtiene la transferencia asociada a la cotización.
func (r *BankTransferRepo) GetByQuoteID(ctx context.Context, quoteID string) (*entity.BankTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM bank_transfers WHERE quote_id = $1`
	return scanTransfer(r.q.QueryRow(ctx, query, quoteID))
}

// Update actualiza la transferencia.
func (r *BankTransferRepo) Update(ctx context.Context, t *entity.BankTransfer) error {
	query := `
		UPDATE bank_transfers SET
			state = $2, proof_ref = $3, transaction_ref = $4, customer_note = $5,
			reviewed_by = $6, reviewed_at = $7, reviewer_note = $8, updated_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.State, t.ProofRef, t.TransactionRef, t.CustomerNote,
		t.ReviewedBy, t.ReviewedAt, t.ReviewerNote, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update bank transfer: %w", err)
	}
	return nil
}

// ListPending lista transferencias pendientes o en verificación, más antiguas primero.
func (r *BankTransferRepo) ListPending(ctx context.Context, limit, offset int) ([]*entity.BankTransfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM bank_transfers WHERE state IN ($1, $2)
		ORDER BY created_at LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, entity.TransferPending, entity.TransferVerifying, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list bank transfers: %w", err)
	}
	defer rows.Close()
	var list []*entity.BankTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}
