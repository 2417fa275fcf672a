package payment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozinox/tienda-api/internal/application/dto"
	"github.com/pozinox/tienda-api/internal/application/payment"
	appquote "github.com/pozinox/tienda-api/internal/application/quote"
	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memQuoteRepo struct {
	quotes map[string]*entity.Quote
	lines  map[string]*entity.QuoteLine
}

func newMemQuoteRepo(quotes ...*entity.Quote) *memQuoteRepo {
	r := &memQuoteRepo{
		quotes: make(map[string]*entity.Quote),
		lines:  make(map[string]*entity.QuoteLine),
	}
	for _, q := range quotes {
		cp := *q
		r.quotes[q.ID] = &cp
	}
	return r
}

func (r *memQuoteRepo) Create(_ context.Context, q *entity.Quote) error {
	cp := *q
	r.quotes[q.ID] = &cp
	return nil
}

func (r *memQuoteRepo) GetByID(_ context.Context, id string) (*entity.Quote, error) {
	q, ok := r.quotes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *memQuoteRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.Quote, error) {
	return r.GetByID(ctx, id)
}

func (r *memQuoteRepo) GetByPreferenceID(_ context.Context, preferenceID string) (*entity.Quote, error) {
	for _, q := range r.quotes {
		if q.PreferenceID == preferenceID {
			cp := *q
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memQuoteRepo) GetDraftByCustomer(_ context.Context, customerID string) (*entity.Quote, error) {
	for _, q := range r.quotes {
		if q.CustomerID == customerID && q.State == entity.QuoteDraft {
			cp := *q
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memQuoteRepo) Update(_ context.Context, q *entity.Quote) error {
	if _, ok := r.quotes[q.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *q
	r.quotes[q.ID] = &cp
	return nil
}

func (r *memQuoteRepo) ListByCustomer(_ context.Context, customerID string, _, _ int) ([]*entity.Quote, error) {
	var out []*entity.Quote
	for _, q := range r.quotes {
		if q.CustomerID == customerID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memQuoteRepo) ListByState(_ context.Context, state entity.QuoteState, _, _ int) ([]*entity.Quote, error) {
	var out []*entity.Quote
	for _, q := range r.quotes {
		if q.State == state {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memQuoteRepo) CreateLine(_ context.Context, l *entity.QuoteLine) error {
	cp := *l
	r.lines[l.ID] = &cp
	return nil
}

func (r *memQuoteRepo) UpdateLine(_ context.Context, l *entity.QuoteLine) error {
	cp := *l
	r.lines[l.ID] = &cp
	return nil
}

func (r *memQuoteRepo) DeleteLine(_ context.Context, lineID string) error {
	delete(r.lines, lineID)
	return nil
}

func (r *memQuoteRepo) GetLines(_ context.Context, quoteID string) ([]*entity.QuoteLine, error) {
	var out []*entity.QuoteLine
	for _, l := range r.lines {
		if l.QuoteID == quoteID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memQuoteRepo) GetLineByProduct(_ context.Context, quoteID, productID string) (*entity.QuoteLine, error) {
	for _, l := range r.lines {
		if l.QuoteID == quoteID && l.ProductID == productID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// fakeGateway responde con estados preconfigurados por payment ID.
type fakeGateway struct {
	preferenceID string
	checkoutURL  string
	createErr    error
	payments     map[string]*payment.GatewayPayment
	queryErr     error
}

func (g *fakeGateway) CreateCheckout(_ context.Context, _ *entity.Quote, _ []*entity.QuoteLine) (string, string, error) {
	if g.createErr != nil {
		return "", "", g.createErr
	}
	return g.preferenceID, g.checkoutURL, nil
}

func (g *fakeGateway) GetPayment(_ context.Context, paymentID string) (*payment.GatewayPayment, error) {
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	p, ok := g.payments[paymentID]
	if !ok {
		return nil, errors.New("pago desconocido")
	}
	return p, nil
}

// fakeInvoicer cuenta las facturaciones disparadas.
type fakeInvoicer struct {
	calls []string
	err   error
}

func (i *fakeInvoicer) Invoice(_ context.Context, quoteID, _ string) (*dto.InvoiceResultResponse, error) {
	i.calls = append(i.calls, quoteID)
	if i.err != nil {
		return nil, i.err
	}
	return &dto.InvoiceResultResponse{QuoteID: quoteID, DocumentNumber: "R202600001"}, nil
}

// nopNotifier descarta los avisos (corren en goroutines propias).
type nopNotifier struct{}

func (nopNotifier) StaffProofSubmitted(*entity.Quote, *entity.BankTransfer)            {}
func (nopNotifier) CustomerTransferReviewed(*entity.Quote, *entity.BankTransfer, bool) {}

// memFileStore guarda los artefactos en un mapa.
type memFileStore struct {
	saved map[string][]byte
}

func newMemFileStore() *memFileStore { return &memFileStore{saved: make(map[string][]byte)} }

func (s *memFileStore) Save(_ context.Context, dir, filename string, data []byte) (string, error) {
	ref := dir + "/" + filename
	s.saved[ref] = data
	return ref, nil
}

type memTransferRepo struct {
	transfers map[string]*entity.BankTransfer
}

func newMemTransferRepo() *memTransferRepo {
	return &memTransferRepo{transfers: make(map[string]*entity.BankTransfer)}
}

func (r *memTransferRepo) Create(_ context.Context, t *entity.BankTransfer) error {
	cp := *t
	r.transfers[t.ID] = &cp
	return nil
}

func (r *memTransferRepo) GetByID(_ context.Context, id string) (*entity.BankTransfer, error) {
	t, ok := r.transfers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memTransferRepo) GetByQuoteID(_ context.Context, quoteID string) (*entity.BankTransfer, error) {
	for _, t := range r.transfers {
		if t.QuoteID == quoteID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTransferRepo) Update(_ context.Context, t *entity.BankTransfer) error {
	if _, ok := r.transfers[t.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *t
	r.transfers[t.ID] = &cp
	return nil
}

func (r *memTransferRepo) ListPending(_ context.Context, _, _ int) ([]*entity.BankTransfer, error) {
	var out []*entity.BankTransfer
	for _, t := range r.transfers {
		if t.State == entity.TransferPending || t.State == entity.TransferVerifying {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Setup
// ──────────────────────────────────────────────────────────────────────────────

var (
	cliente = appquote.Actor{UserID: "u-1", CustomerID: "c-1"}
	staff   = appquote.Actor{UserID: "staff-1", IsStaff: true}
)

func finalizedQuote() *entity.Quote {
	now := time.Now()
	fin := now
	return &entity.Quote{
		ID:          "q-1",
		CustomerID:  "c-1",
		Number:      "PZ2026030001",
		State:       entity.QuoteFinalized,
		Subtotal:    decimal.NewFromInt(4000),
		Tax:         decimal.NewFromInt(760),
		Total:       decimal.NewFromInt(4760),
		CreatedAt:   now,
		FinalizedAt: &fin,
		ExpiresAt:   now.AddDate(0, 0, 7),
		UpdatedAt:   now,
	}
}

func instructionsConfig() payment.InstructionsConfig {
	return payment.InstructionsConfig{
		Bank: dto.BankAccountInfo{
			Banco:        "Banco de Chile",
			NumeroCuenta: "1234567890",
		},
		Pickup: dto.PickupInfo{
			Direccion: "Av. Principal 123, Santiago",
			Horarios:  "Lunes a Viernes: 9:00 - 18:00",
		},
		TransferValidityDays: 3,
	}
}

func newRouter(qr *memQuoteRepo, gw *fakeGateway, inv *fakeInvoicer) *payment.Router {
	return payment.NewRouter(qr, gw, inv, instructionsConfig(), logger.Nop())
}

// ──────────────────────────────────────────────────────────────────────────────
// SelectMethod
// ──────────────────────────────────────────────────────────────────────────────

func TestSelectMethod_Efectivo_PagaDeInmediato(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	router := newRouter(qr, &fakeGateway{}, &fakeInvoicer{})

	resp, err := router.SelectMethod(context.Background(), "q-1", "efectivo", cliente)
	require.NoError(t, err)

	assert.Equal(t, "pagada", resp.State)
	require.NotNil(t, resp.Pickup)
	assert.Equal(t, "Av. Principal 123, Santiago", resp.Pickup.Direccion)

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.True(t, stored.Paid)
	assert.Equal(t, entity.PreparationStarted, stored.Preparation)
}

func TestSelectMethod_Transferencia_EntregaDatosBancarios(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	router := newRouter(qr, &fakeGateway{}, &fakeInvoicer{})

	resp, err := router.SelectMethod(context.Background(), "q-1", "transferencia", cliente)
	require.NoError(t, err)

	assert.Equal(t, "finalizada", resp.State, "la cotización pasa a revisión recién con el comprobante")
	require.NotNil(t, resp.BankAccount)
	assert.Equal(t, "Banco de Chile", resp.BankAccount.Banco)
	require.NotNil(t, resp.ExpiresAt)

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.Equal(t, entity.PaymentTransfer, stored.PaymentMethod)
	assert.False(t, stored.Paid)
}

func TestSelectMethod_Gateway_GuardaPreferencia(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	gw := &fakeGateway{preferenceID: "pref-1", checkoutURL: "https://mp.example/checkout/pref-1"}
	router := newRouter(qr, gw, &fakeInvoicer{})

	resp, err := router.SelectMethod(context.Background(), "q-1", "mercadopago", cliente)
	require.NoError(t, err)

	assert.Equal(t, "https://mp.example/checkout/pref-1", resp.CheckoutURL)
	assert.Equal(t, "pref-1", resp.PreferenceID)

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.Equal(t, "pref-1", stored.PreferenceID)
	assert.Equal(t, entity.PaymentGateway, stored.PaymentMethod)
}

func TestSelectMethod_GatewayCaido_RetornaExternalService(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	gw := &fakeGateway{createErr: errors.New("timeout")}
	router := newRouter(qr, gw, &fakeInvoicer{})

	_, err := router.SelectMethod(context.Background(), "q-1", "mercadopago", cliente)
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestSelectMethod_YaPagada_EsNoOpInformativo(t *testing.T) {
	q := finalizedQuote()
	require.NoError(t, q.MarkPaid(entity.PaymentCash, time.Now()))
	qr := newMemQuoteRepo(q)
	router := newRouter(qr, &fakeGateway{}, &fakeInvoicer{})

	resp, err := router.SelectMethod(context.Background(), "q-1", "transferencia", cliente)
	require.NoError(t, err, "reintentar la selección no es error")
	assert.Equal(t, "pagada", resp.State)
	assert.NotEmpty(t, resp.Message)

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.Equal(t, entity.PaymentCash, stored.PaymentMethod, "el método original no cambia")
}

func TestSelectMethod_Borrador_RetornaStateConflict(t *testing.T) {
	q := finalizedQuote()
	q.State = entity.QuoteDraft
	q.FinalizedAt = nil
	qr := newMemQuoteRepo(q)
	router := newRouter(qr, &fakeGateway{}, &fakeInvoicer{})

	_, err := router.SelectMethod(context.Background(), "q-1", "efectivo", cliente)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestSelectMethod_Expirada_RetornaQuoteExpired(t *testing.T) {
	q := finalizedQuote()
	q.ExpiresAt = time.Now().AddDate(0, 0, -1)
	qr := newMemQuoteRepo(q)
	router := newRouter(qr, &fakeGateway{}, &fakeInvoicer{})

	_, err := router.SelectMethod(context.Background(), "q-1", "efectivo", cliente)
	assert.ErrorIs(t, err, domain.ErrQuoteExpired)
}

func TestSelectMethod_MetodoDesconocido_Invalido(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	router := newRouter(qr, &fakeGateway{}, &fakeInvoicer{})

	_, err := router.SelectMethod(context.Background(), "q-1", "cheque", cliente)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSelectMethod_OtroCliente_RetornaForbidden(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	router := newRouter(qr, &fakeGateway{}, &fakeInvoicer{})

	otro := appquote.Actor{UserID: "u-2", CustomerID: "c-2"}
	_, err := router.SelectMethod(context.Background(), "q-1", "efectivo", otro)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Webhook y retorno
// ──────────────────────────────────────────────────────────────────────────────

func TestHandleWebhook_Aprobado_PagaYFactura(t *testing.T) {
	q := finalizedQuote()
	q.PaymentMethod = entity.PaymentGateway
	q.PreferenceID = "pref-1"
	qr := newMemQuoteRepo(q)
	gw := &fakeGateway{payments: map[string]*payment.GatewayPayment{
		"pay-1": {ID: "pay-1", Status: "approved", ExternalReference: "q-1"},
	}}
	inv := &fakeInvoicer{}
	router := newRouter(qr, gw, inv)

	require.NoError(t, router.HandleWebhook(context.Background(), "pay-1"))

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.True(t, stored.Paid)
	assert.Equal(t, "pay-1", stored.PaymentID)
	assert.Equal(t, []string{"q-1"}, inv.calls, "la facturación automática se dispara una vez")
}

func TestHandleWebhook_AprobadoRepetido_EsIdempotente(t *testing.T) {
	q := finalizedQuote()
	q.PreferenceID = "pref-1"
	qr := newMemQuoteRepo(q)
	gw := &fakeGateway{payments: map[string]*payment.GatewayPayment{
		"pay-1": {ID: "pay-1", Status: "approved", ExternalReference: "q-1"},
	}}
	inv := &fakeInvoicer{}
	router := newRouter(qr, gw, inv)

	require.NoError(t, router.HandleWebhook(context.Background(), "pay-1"))
	require.NoError(t, router.HandleWebhook(context.Background(), "pay-1"))

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.True(t, stored.Paid)
	assert.Len(t, inv.calls, 1, "la réplica no vuelve a facturar")
}

func TestHandleWebhook_Pendiente_PasaARevision(t *testing.T) {
	q := finalizedQuote()
	q.PreferenceID = "pref-1"
	qr := newMemQuoteRepo(q)
	gw := &fakeGateway{payments: map[string]*payment.GatewayPayment{
		"pay-1": {ID: "pay-1", Status: "pending", ExternalReference: "q-1"},
	}}
	router := newRouter(qr, gw, &fakeInvoicer{})

	require.NoError(t, router.HandleWebhook(context.Background(), "pay-1"))

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.Equal(t, entity.QuoteUnderReview, stored.State)
	assert.False(t, stored.Paid)
}

func TestHandleWebhook_PendienteNoDegradaPagada(t *testing.T) {
	q := finalizedQuote()
	require.NoError(t, q.MarkPaid(entity.PaymentGateway, time.Now()))
	qr := newMemQuoteRepo(q)
	gw := &fakeGateway{payments: map[string]*payment.GatewayPayment{
		"pay-2": {ID: "pay-2", Status: "in_process", ExternalReference: "q-1"},
	}}
	router := newRouter(qr, gw, &fakeInvoicer{})

	require.NoError(t, router.HandleWebhook(context.Background(), "pay-2"))

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.Equal(t, entity.QuotePaid, stored.State, "un estado tardío nunca revierte el pago")
}

func TestHandleWebhook_Rechazado_NoTransiciona(t *testing.T) {
	q := finalizedQuote()
	qr := newMemQuoteRepo(q)
	gw := &fakeGateway{payments: map[string]*payment.GatewayPayment{
		"pay-1": {ID: "pay-1", Status: "rejected", ExternalReference: "q-1"},
	}}
	router := newRouter(qr, gw, &fakeInvoicer{})

	require.NoError(t, router.HandleWebhook(context.Background(), "pay-1"))

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.Equal(t, entity.QuoteFinalized, stored.State, "el cliente puede reintentar el pago")
}

func TestHandleWebhook_ConsultaFalla_RetornaErrorParaReintento(t *testing.T) {
	qr := newMemQuoteRepo(finalizedQuote())
	gw := &fakeGateway{queryErr: errors.New("gateway caído")}
	router := newRouter(qr, gw, &fakeInvoicer{})

	err := router.HandleWebhook(context.Background(), "pay-1")
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestHandleWebhook_SinCotizacionAsociada_SeIgnora(t *testing.T) {
	qr := newMemQuoteRepo()
	gw := &fakeGateway{payments: map[string]*payment.GatewayPayment{
		"pay-9": {ID: "pay-9", Status: "approved", ExternalReference: "venta-externa"},
	}}
	router := newRouter(qr, gw, &fakeInvoicer{})

	assert.NoError(t, router.HandleWebhook(context.Background(), "pay-9"),
		"un pago de otro canal no es error: lo procesa el importador")
}

func TestHandleReturn_ReconsultaElGateway(t *testing.T) {
	q := finalizedQuote()
	q.PreferenceID = "pref-1"
	qr := newMemQuoteRepo(q)
	// El redirect dice approved pero el gateway reporta pending: manda el gateway.
	gw := &fakeGateway{payments: map[string]*payment.GatewayPayment{
		"pay-1": {ID: "pay-1", Status: "pending", ExternalReference: "q-1"},
	}}
	router := newRouter(qr, gw, &fakeInvoicer{})

	resp, err := router.HandleReturn(context.Background(), payment.ReturnParams{
		PaymentID:         "pay-1",
		Status:            "approved",
		ExternalReference: "q-1",
	}, cliente)
	require.NoError(t, err)
	assert.Equal(t, "en_revision", resp.State)
}

func TestHandleReturn_ConsultaFalla_UsaEstadoDelRedirect(t *testing.T) {
	q := finalizedQuote()
	q.PreferenceID = "pref-1"
	qr := newMemQuoteRepo(q)
	gw := &fakeGateway{queryErr: errors.New("timeout")}
	inv := &fakeInvoicer{}
	router := newRouter(qr, gw, inv)

	resp, err := router.HandleReturn(context.Background(), payment.ReturnParams{
		PaymentID:    "pay-1",
		Status:       "approved",
		PreferenceID: "pref-1",
	}, cliente)
	require.NoError(t, err)
	assert.Equal(t, "pagada", resp.State)
	assert.Len(t, inv.calls, 1)
}

func TestHandleReturn_ResuelvePorPreferencia(t *testing.T) {
	q := finalizedQuote()
	q.PreferenceID = "pref-1"
	qr := newMemQuoteRepo(q)
	gw := &fakeGateway{payments: map[string]*payment.GatewayPayment{
		"pay-1": {ID: "pay-1", Status: "approved", ExternalReference: ""},
	}}
	router := newRouter(qr, gw, &fakeInvoicer{})

	resp, err := router.HandleReturn(context.Background(), payment.ReturnParams{
		PaymentID:    "pay-1",
		Status:       "approved",
		PreferenceID: "pref-1",
	}, cliente)
	require.NoError(t, err)
	assert.Equal(t, "pagada", resp.State)
}

func TestHandleReturn_CotizacionAjena_Forbidden(t *testing.T) {
	q := finalizedQuote()
	q.PreferenceID = "pref-1"
	qr := newMemQuoteRepo(q)
	gw := &fakeGateway{queryErr: errors.New("timeout")}
	inv := &fakeInvoicer{}
	router := newRouter(qr, gw, inv)

	// Otro cliente con el id de la cotización y status forjado en la URL: el
	// fallback al estado del redirect jamás se evalúa para quien no es dueño.
	otro := cliente
	otro.CustomerID = "c-2"
	_, err := router.HandleReturn(context.Background(), payment.ReturnParams{
		PaymentID:         "pay-1",
		Status:            "approved",
		ExternalReference: "q-1",
	}, otro)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	stored, _ := qr.GetByID(context.Background(), "q-1")
	assert.Equal(t, entity.QuoteFinalized, stored.State, "la cotización no se toca")
	assert.Empty(t, inv.calls)
}
