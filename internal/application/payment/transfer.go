package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pozinox/tienda-api/internal/application/dto"
	appquote "github.com/pozinox/tienda-api/internal/application/quote"
	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
	"github.com/pozinox/tienda-api/pkg/logger"
)

const proofDir = "comprobantes"

// TransferUseCase flujo de pago por transferencia bancaria: el cliente declara
// la transferencia subiendo el comprobante y el staff la verifica a mano.
type TransferUseCase struct {
	quoteRepo    repository.QuoteRepository
	transferRepo repository.BankTransferRepository
	files        FileStore
	notifier     Notifier
	validityDays int
	log          *logger.Logger
}

// NewTransferUseCase construye el caso de uso de transferencias.
func NewTransferUseCase(
	quoteRepo repository.QuoteRepository,
	transferRepo repository.BankTransferRepository,
	files FileStore,
	notifier Notifier,
	validityDays int,
	log *logger.Logger,
) *TransferUseCase {
	return &TransferUseCase{
		quoteRepo:    quoteRepo,
		transferRepo: transferRepo,
		files:        files,
		notifier:     notifier,
		validityDays: validityDays,
		log:          log,
	}
}

// SubmitProof registra el comprobante de transferencia. La primera subida crea
// el registro (pendiente, monto declarado = total de la cotización) y pasa la
// cotización a revisión; mientras la transferencia siga pendiente el cliente
// puede reemplazar el comprobante. Avisa al staff en segundo plano.
func (uc *TransferUseCase) SubmitProof(ctx context.Context, quoteID string, actor appquote.Actor, filename string, data []byte, in dto.SubmitTransferProofRequest) (*dto.TransferResponse, error) {
	q, err := uc.authorize(ctx, quoteID, actor)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	t, err := uc.transferRepo.GetByQuoteID(ctx, q.ID)
	switch {
	case err == nil:
		// Reemplazo de comprobante mientras siga pendiente.
		proofRef := ""
		if len(data) > 0 {
			proofRef, err = uc.saveProof(ctx, q, filename, data)
			if err != nil {
				return nil, err
			}
		}
		if err := t.Resubmit(proofRef, in.TransactionRef, in.Note, now); err != nil {
			return nil, err
		}
		if err := uc.transferRepo.Update(ctx, t); err != nil {
			return nil, err
		}
	default:
		if len(data) == 0 {
			return nil, domain.ErrInvalidInput
		}
		if err := q.CanStartPayment(now); err != nil {
			return nil, err
		}
		proofRef, err := uc.saveProof(ctx, q, filename, data)
		if err != nil {
			return nil, err
		}
		t = &entity.BankTransfer{
			ID:             uuid.New().String(),
			QuoteID:        q.ID,
			State:          entity.TransferPending,
			DeclaredAmount: q.Total,
			ProofRef:       proofRef,
			CustomerNote:   in.Note,
			CreatedAt:      now,
			UpdatedAt:      now,
			ExpiresAt:      now.AddDate(0, 0, uc.validityDays),
		}
		if in.TransactionRef != "" {
			t.TransactionRef = in.TransactionRef
			t.State = entity.TransferVerifying
		}
		if err := uc.transferRepo.Create(ctx, t); err != nil {
			return nil, err
		}
		if err := q.MarkUnderReview(entity.PaymentTransfer, now); err != nil {
			return nil, err
		}
		if err := uc.quoteRepo.Update(ctx, q); err != nil {
			return nil, err
		}
	}

	uc.log.Info().Str("quote_id", q.ID).Str("transfer_id", t.ID).Msg("comprobante de transferencia recibido")
	go uc.notifier.StaffProofSubmitted(q, t)
	return toTransferResponse(t), nil
}

// Approve aprueba la transferencia y marca la cotización como pagada. Solo
// staff; aprobar una transferencia ya resuelta devuelve ErrStateConflict.
func (uc *TransferUseCase) Approve(ctx context.Context, transferID, reviewerID string, in dto.ReviewTransferRequest) (*dto.TransferResponse, error) {
	t, err := uc.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := t.Approve(reviewerID, in.Note, now); err != nil {
		return nil, err
	}
	q, err := uc.quoteRepo.GetByID(ctx, t.QuoteID)
	if err != nil {
		return nil, err
	}
	if err := q.MarkPaid(entity.PaymentTransfer, now); err != nil {
		return nil, err
	}
	if err := uc.transferRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	if err := uc.quoteRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	uc.log.Info().Str("quote_id", q.ID).Str("transfer_id", t.ID).Str("revisor", reviewerID).Msg("transferencia aprobada")
	go uc.notifier.CustomerTransferReviewed(q, t, true)
	return toTransferResponse(t), nil
}

// Reject rechaza la transferencia. La cotización queda en revisión: el cliente
// puede contactar a la tienda o la cotización se cancela a mano.
func (uc *TransferUseCase) Reject(ctx context.Context, transferID, reviewerID string, in dto.ReviewTransferRequest) (*dto.TransferResponse, error) {
	t, err := uc.transferRepo.GetByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := t.Reject(reviewerID, in.Note, now); err != nil {
		return nil, err
	}
	if err := uc.transferRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	q, err := uc.quoteRepo.GetByID(ctx, t.QuoteID)
	if err == nil {
		uc.log.Info().Str("quote_id", q.ID).Str("transfer_id", t.ID).Str("revisor", reviewerID).Msg("transferencia rechazada")
		go uc.notifier.CustomerTransferReviewed(q, t, false)
	}
	return toTransferResponse(t), nil
}

// GetByQuote devuelve la transferencia asociada a la cotización.
func (uc *TransferUseCase) GetByQuote(ctx context.Context, quoteID string, actor appquote.Actor) (*dto.TransferResponse, error) {
	if _, err := uc.authorize(ctx, quoteID, actor); err != nil {
		return nil, err
	}
	t, err := uc.transferRepo.GetByQuoteID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return toTransferResponse(t), nil
}

// ListPending lista transferencias pendientes de revisión (bandeja de staff).
func (uc *TransferUseCase) ListPending(ctx context.Context, page dto.PageRequest) ([]*dto.TransferResponse, error) {
	page.DefaultPage()
	transfers, err := uc.transferRepo.ListPending(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.TransferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, toTransferResponse(t))
	}
	return out, nil
}

func (uc *TransferUseCase) saveProof(ctx context.Context, q *entity.Quote, filename string, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s", q.Number, filename)
	ref, err := uc.files.Save(ctx, proofDir, name, data)
	if err != nil {
		uc.log.Error().Err(err).Str("quote_id", q.ID).Msg("guardar comprobante")
		return "", err
	}
	return ref, nil
}

func (uc *TransferUseCase) authorize(ctx context.Context, quoteID string, actor appquote.Actor) (*entity.Quote, error) {
	q, err := uc.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff && q.CustomerID != actor.CustomerID {
		return nil, domain.ErrForbidden
	}
	return q, nil
}

func toTransferResponse(t *entity.BankTransfer) *dto.TransferResponse {
	return &dto.TransferResponse{
		ID:             t.ID,
		QuoteID:        t.QuoteID,
		State:          string(t.State),
		DeclaredAmount: t.DeclaredAmount,
		ProofRef:       t.ProofRef,
		TransactionRef: t.TransactionRef,
		CustomerNote:   t.CustomerNote,
		ReviewedBy:     t.ReviewedBy,
		ReviewedAt:     t.ReviewedAt,
		ReviewerNote:   t.ReviewerNote,
		ExpiresAt:      t.ExpiresAt,
		CreatedAt:      t.CreatedAt,
	}
}
