package payment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozinox/tienda-api/internal/application/dto"
	"github.com/pozinox/tienda-api/internal/application/payment"
	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/pkg/logger"
)

func newTransferUC(qr *memQuoteRepo, tr *memTransferRepo, files *memFileStore) *payment.TransferUseCase {
	return payment.NewTransferUseCase(qr, tr, files, nopNotifier{}, 3, logger.Nop())
}

func TestSubmitProof_CreaTransferenciaYPasaARevision(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	tr := newMemTransferRepo()
	files := newMemFileStore()
	uc := newTransferUC(qr, tr, files)

	resp, err := uc.SubmitProof(context.Background(), "q-1", cliente, "pago.pdf", []byte("pdf"),
		dto.SubmitTransferProofRequest{Note: "transferido hoy"})
	require.NoError(t, err)

	assert.Equal(t, "pendiente", resp.State)
	assert.True(t, resp.DeclaredAmount.Equal(finalizedQuote().Total), "declara el total de la cotización")
	assert.Equal(t, "comprobantes/PZ2026030001_pago.pdf", resp.ProofRef)
	assert.Contains(t, files.saved, resp.ProofRef)

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.Equal(t, entity.QuoteUnderReview, stored.State)
	assert.Equal(t, entity.PaymentTransfer, stored.PaymentMethod)
}

func TestSubmitProof_ConNumeroDeTransaccion_QuedaVerificando(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	uc := newTransferUC(qr, newMemTransferRepo(), newMemFileStore())

	resp, err := uc.SubmitProof(context.Background(), "q-1", cliente, "pago.pdf", []byte("pdf"),
		dto.SubmitTransferProofRequest{TransactionRef: "TX-1001"})
	require.NoError(t, err)

	assert.Equal(t, "verificando", resp.State)
	assert.Equal(t, "TX-1001", resp.TransactionRef)
}

func TestSubmitProof_SinArchivoLaPrimeraVez_Invalido(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	uc := newTransferUC(qr, newMemTransferRepo(), newMemFileStore())

	_, err := uc.SubmitProof(context.Background(), "q-1", cliente, "", nil, dto.SubmitTransferProofRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubmitProof_ReemplazaComprobanteMientrasPendiente(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	tr := newMemTransferRepo()
	uc := newTransferUC(qr, tr, newMemFileStore())
	ctx := context.Background()

	first, err := uc.SubmitProof(ctx, "q-1", cliente, "pago.pdf", []byte("v1"), dto.SubmitTransferProofRequest{})
	require.NoError(t, err)

	second, err := uc.SubmitProof(ctx, "q-1", cliente, "pago_v2.pdf", []byte("v2"), dto.SubmitTransferProofRequest{})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "se actualiza el mismo registro")
	assert.Equal(t, "comprobantes/PZ2026030001_pago_v2.pdf", second.ProofRef)
}

func TestSubmitProof_CotizacionAjena_Forbidden(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	uc := newTransferUC(qr, newMemTransferRepo(), newMemFileStore())

	otro := cliente
	otro.CustomerID = "c-2"
	_, err := uc.SubmitProof(context.Background(), "q-1", otro, "pago.pdf", []byte("pdf"), dto.SubmitTransferProofRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestApprove_MarcaCotizacionPagada(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	tr := newMemTransferRepo()
	uc := newTransferUC(qr, tr, newMemFileStore())
	ctx := context.Background()

	submitted, err := uc.SubmitProof(ctx, "q-1", cliente, "pago.pdf", []byte("pdf"), dto.SubmitTransferProofRequest{})
	require.NoError(t, err)

	resp, err := uc.Approve(ctx, submitted.ID, "staff-1", dto.ReviewTransferRequest{Note: "monto ok"})
	require.NoError(t, err)

	assert.Equal(t, "aprobada", resp.State)
	assert.Equal(t, "staff-1", resp.ReviewedBy)

	stored, _ := qr.GetByID(ctx, "q-1")
	assert.Equal(t, entity.QuotePaid, stored.State)
	assert.True(t, stored.Paid)
	assert.Equal(t, entity.PreparationStarted, stored.Preparation)
}

func TestApprove_TransferenciaResuelta_RetornaStateConflict(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	tr := newMemTransferRepo()
	uc := newTransferUC(qr, tr, newMemFileStore())
	ctx := context.Background()

	submitted, err := uc.SubmitProof(ctx, "q-1", cliente, "pago.pdf", []byte("pdf"), dto.SubmitTransferProofRequest{})
	require.NoError(t, err)
	_, err = uc.Approve(ctx, submitted.ID, "staff-1", dto.ReviewTransferRequest{})
	require.NoError(t, err)

	_, err = uc.Approve(ctx, submitted.ID, "staff-2", dto.ReviewTransferRequest{})
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestReject_LaCotizacionSigueEnRevision(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	tr := newMemTransferRepo()
	uc := newTransferUC(qr, tr, newMemFileStore())
	ctx := context.Background()

	submitted, err := uc.SubmitProof(ctx, "q-1", cliente, "pago.pdf", []byte("pdf"), dto.SubmitTransferProofRequest{})
	require.NoError(t, err)

	resp, err := uc.Reject(ctx, submitted.ID, "staff-1", dto.ReviewTransferRequest{Note: "monto no coincide"})
	require.NoError(t, err)

	assert.Equal(t, "rechazada", resp.State)

	// La cotización no se cancela sola: queda en revisión para resolverla a mano.
	stored, _ := qr.GetByID(ctx, "q-1")
	assert.Equal(t, entity.QuoteUnderReview, stored.State)
	assert.False(t, stored.Paid)
}

func TestListPending_SoloPendientesYVerificando(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	tr := newMemTransferRepo()
	uc := newTransferUC(qr, tr, newMemFileStore())
	ctx := context.Background()

	submitted, err := uc.SubmitProof(ctx, "q-1", cliente, "pago.pdf", []byte("pdf"), dto.SubmitTransferProofRequest{})
	require.NoError(t, err)

	pending, err := uc.ListPending(ctx, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = uc.Approve(ctx, submitted.ID, "staff-1", dto.ReviewTransferRequest{})
	require.NoError(t, err)

	pending, err = uc.ListPending(ctx, dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, pending, "aprobada sale de la bandeja")
}

func TestGetByQuote_DevuelveLaTransferencia(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	tr := newMemTransferRepo()
	uc := newTransferUC(qr, tr, newMemFileStore())
	ctx := context.Background()

	_, err := uc.GetByQuote(ctx, "q-1", cliente)
	assert.ErrorIs(t, err, domain.ErrNotFound, "sin comprobante no hay transferencia")

	submitted, err := uc.SubmitProof(ctx, "q-1", cliente, "pago.pdf", []byte("pdf"), dto.SubmitTransferProofRequest{})
	require.NoError(t, err)

	got, err := uc.GetByQuote(ctx, "q-1", staff)
	require.NoError(t, err)
	assert.Equal(t, submitted.ID, got.ID)
}
