package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pozinox/tienda-api/internal/domain"
)

// Estados de la transferencia bancaria.
type TransferState string

const (
	TransferPending   TransferState = "pendiente"
	TransferVerifying TransferState = "verificando"
	TransferApproved  TransferState = "aprobada"
	TransferRejected  TransferState = "rechazada"
)

// BankTransfer registra un pago por transferencia bancaria de verificación
// manual. Uno a uno con su cotización. Aprobada/rechazada son terminales.
// La expiración (creación + 3 días) es solo informativa: nada transiciona
// automáticamente al vencerla.
type BankTransfer struct {
	ID      string
	QuoteID string

	State TransferState

	DeclaredAmount decimal.Decimal // total de la cotización al momento de declarar
	ProofRef       string          // referencia al comprobante subido
	TransactionRef string          // número de transacción bancaria, si el cliente lo informa
	CustomerNote   string

	ReviewedBy   string
	ReviewedAt   *time.Time
	ReviewerNote string

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired indica si venció el plazo informativo para concretar la transferencia.
func (t *BankTransfer) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Resubmit actualiza el comprobante mientras la transferencia sigue pendiente.
// Si el cliente informa un número de transacción pasa a verificando.
func (t *BankTransfer) Resubmit(proofRef, transactionRef, note string, now time.Time) error {
	if t.State != TransferPending {
		return domain.ErrStateConflict
	}
	if proofRef != "" {
		t.ProofRef = proofRef
	}
	t.CustomerNote = note
	if transactionRef != "" {
		t.TransactionRef = transactionRef
		t.State = TransferVerifying
	}
	t.UpdatedAt = now
	return nil
}

// Approve aprueba la transferencia. Válida desde pendiente o verificando;
// registra revisor, fecha y observación. Terminal.
func (t *BankTransfer) Approve(reviewerID, note string, now time.Time) error {
	if t.State != TransferPending && t.State != TransferVerifying {
		return domain.ErrStateConflict
	}
	t.State = TransferApproved
	t.ReviewedBy = reviewerID
	rt := now
	t.ReviewedAt = &rt
	t.ReviewerNote = note
	t.UpdatedAt = now
	return nil
}

// Reject rechaza la transferencia. Mismas precondiciones que Approve. Terminal.
func (t *BankTransfer) Reject(reviewerID, note string, now time.Time) error {
	if t.State != TransferPending && t.State != TransferVerifying {
		return domain.ErrStateConflict
	}
	t.State = TransferRejected
	t.ReviewedBy = reviewerID
	rt := now
	t.ReviewedAt = &rt
	t.ReviewerNote = note
	t.UpdatedAt = now
	return nil
}
