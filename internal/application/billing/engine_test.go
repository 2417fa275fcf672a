package billing_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozinox/tienda-api/internal/application/billing"
	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
	"github.com/pozinox/tienda-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memQuoteRepo struct {
	quotes map[string]*entity.Quote
	lines  map[string]*entity.QuoteLine
}

func newMemQuoteRepo() *memQuoteRepo {
	return &memQuoteRepo{
		quotes: make(map[string]*entity.Quote),
		lines:  make(map[string]*entity.QuoteLine),
	}
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
	cp := *q
	r.quotes[q.ID] = &cp
	return nil
}

func (r *memQuoteRepo) ListByCustomer(_ context.Context, _ string, _, _ int) ([]*entity.Quote, error) {
	return nil, nil
}

func (r *memQuoteRepo) ListByState(_ context.Context, _ entity.QuoteState, _, _ int) ([]*entity.Quote, error) {
	return nil, nil
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

type memCustomerRepo struct {
	customers map[string]*entity.Customer
}

func newMemCustomerRepo(customers ...*entity.Customer) *memCustomerRepo {
	r := &memCustomerRepo{customers: make(map[string]*entity.Customer)}
	for _, c := range customers {
		cp := *c
		r.customers[c.ID] = &cp
	}
	return r
}

func (r *memCustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *memCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCustomerRepo) GetByUserID(_ context.Context, userID string) (*entity.Customer, error) {
	for _, c := range r.customers {
		if c.UserID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memCustomerRepo) GetByEmail(_ context.Context, email string) (*entity.Customer, error) {
	for _, c := range r.customers {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memCustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

type memProductRepo struct {
	products map[string]*entity.Product
}

func newMemProductRepo(products ...*entity.Product) *memProductRepo {
	r := &memProductRepo{products: make(map[string]*entity.Product)}
	for _, p := range products {
		cp := *p
		r.products[p.ID] = &cp
	}
	return r
}

func (r *memProductRepo) Create(_ context.Context, p *entity.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *memProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memProductRepo) Update(_ context.Context, p *entity.Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *memProductRepo) List(_ context.Context, _, _ int) ([]*entity.Product, error) {
	return nil, nil
}

func (r *memProductRepo) DecrementStock(_ context.Context, productID string, qty int) (int, int, error) {
	p, ok := r.products[productID]
	if !ok {
		return 0, 0, domain.ErrNotFound
	}
	applied := qty
	if p.Stock < qty {
		applied = p.Stock
	}
	p.Stock -= applied
	return p.Stock, applied, nil
}

type memSeqRepo struct {
	counters map[string]int64
}

func newMemSeqRepo() *memSeqRepo { return &memSeqRepo{counters: make(map[string]int64)} }

func (r *memSeqRepo) Next(_ context.Context, key string) (int64, error) {
	r.counters[key]++
	return r.counters[key], nil
}

// fakeTxRunner ejecuta la función directamente sobre los fakes (sin simular
// rollback: los tests cubren los caminos que terminan en commit).
type fakeTxRunner struct {
	quoteRepo   *memQuoteRepo
	productRepo *memProductRepo
	seqRepo     *memSeqRepo
}

func (t *fakeTxRunner) RunInvoicing(ctx context.Context, fn func(
	repository.QuoteRepository,
	repository.ProductRepository,
	repository.SequenceRepository,
) error) error {
	return fn(t.quoteRepo, t.productRepo, t.seqRepo)
}

type fakeRenderer struct {
	err   error
	calls int
}

func (r *fakeRenderer) Render(_ *billing.ReceiptData) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-1.4 test"), nil
}

type memFileStore struct {
	saved map[string][]byte
}

func newMemFileStore() *memFileStore { return &memFileStore{saved: make(map[string][]byte)} }

func (s *memFileStore) Save(_ context.Context, dir, filename string, data []byte) (string, error) {
	ref := dir + "/" + filename
	s.saved[ref] = data
	return ref, nil
}

func (s *memFileStore) Load(_ context.Context, ref string) ([]byte, error) {
	data, ok := s.saved[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

type nopNotifier struct{}

func (nopNotifier) CustomerDocumentIssued(*entity.Quote, *entity.Customer) {}

// ──────────────────────────────────────────────────────────────────────────────
// Setup
// ──────────────────────────────────────────────────────────────────────────────

type engineFixture struct {
	engine    *billing.Engine
	quoteRepo *memQuoteRepo
	products  *memProductRepo
	files     *memFileStore
	renderer  *fakeRenderer
}

func newEngineFixture(t *testing.T, customer *entity.Customer, products ...*entity.Product) *engineFixture {
	t.Helper()
	qr := newMemQuoteRepo()
	pr := newMemProductRepo(products...)
	sr := newMemSeqRepo()
	files := newMemFileStore()
	renderer := &fakeRenderer{}
	engine := billing.NewEngine(
		&fakeTxRunner{quoteRepo: qr, productRepo: pr, seqRepo: sr},
		qr, newMemCustomerRepo(customer), renderer, files, nopNotifier{},
		billing.IssuerConfig{RazonSocial: "Pozinox S.A.", RUT: "76.543.210-K"},
		logger.Nop(),
	)
	return &engineFixture{engine: engine, quoteRepo: qr, products: pr, files: files, renderer: renderer}
}

func personaCompleta() *entity.Customer {
	return &entity.Customer{
		ID:      "c-1",
		Kind:    entity.KindNaturalPerson,
		Name:    "Juana Pérez",
		Email:   "juana@example.com",
		TaxID:   "12.345.678-9",
		Address: "Calle Uno 100",
		Active:  true,
	}
}

func empresaCompleta() *entity.Customer {
	return &entity.Customer{
		ID:        "c-1",
		Kind:      entity.KindCompany,
		Name:      "Contacto",
		Email:     "compras@acerosur.cl",
		TaxID:     "76.111.222-3",
		LegalName: "Aceros del Sur SpA",
		Activity:  "Venta de aceros",
		Address:   "Camino Industrial 55",
		Active:    true,
	}
}

// paidQuote siembra una cotización pagada con una línea de 2 unidades.
func paidQuote(t *testing.T, f *engineFixture, productID string, qty int) *entity.Quote {
	t.Helper()
	now := time.Now()
	q := &entity.Quote{
		ID:         "q-1",
		CustomerID: "c-1",
		Number:     "PZ2026030001",
		State:      entity.QuoteFinalized,
		Subtotal:   decimal.NewFromInt(3000),
		Tax:        decimal.NewFromInt(570),
		Total:      decimal.NewFromInt(3570),
		CreatedAt:  now,
		ExpiresAt:  now.AddDate(0, 0, 7),
	}
	require.NoError(t, q.MarkPaid(entity.PaymentTransfer, now))
	require.NoError(t, f.quoteRepo.Create(context.Background(), q))

	line := &entity.QuoteLine{
		ID:          "l-1",
		QuoteID:     q.ID,
		ProductID:   productID,
		ProductName: "Perno inox 8mm",
		ProductSKU:  "PERNO-8MM",
		Quantity:    qty,
		UnitPrice:   decimal.NewFromInt(1500),
	}
	line.Recalculate()
	require.NoError(t, f.quoteRepo.CreateLine(context.Background(), line))
	return q
}

func stockedProduct(stock int) *entity.Product {
	return &entity.Product{
		ID:     "p-1",
		SKU:    "PERNO-8MM",
		Name:   "Perno inox 8mm",
		Price:  decimal.NewFromInt(1500),
		Stock:  stock,
		Active: true,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoice_PersonaNatural_EmiteBoleta(t *testing.T) {
	f := newEngineFixture(t, personaCompleta(), stockedProduct(10))
	paidQuote(t, f, "p-1", 2)

	result, err := f.engine.Invoice(context.Background(), "q-1", "staff-1")
	require.NoError(t, err)

	assert.Equal(t, "boleta", result.DocumentType)
	assert.Equal(t, fmt.Sprintf("R%d00001", time.Now().Year()), result.DocumentNumber,
		"formato R{yyyy}{nnnnn} con correlativo anual")
	assert.Equal(t, "staff-1", result.IssuedBy)
	assert.False(t, result.AlreadyInvoiced)
	assert.Empty(t, result.StockWarnings)

	stored, _ := f.quoteRepo.GetByID(context.Background(), "q-1")
	assert.True(t, stored.Invoiced)
	assert.NotEmpty(t, stored.ReceiptRef, "el PDF queda referenciado")
	assert.Contains(t, f.files.saved, stored.ReceiptRef)

	p, _ := f.products.GetByID(context.Background(), "p-1")
	assert.Equal(t, 8, p.Stock, "el stock se descuenta al facturar")
}

func TestInvoice_Empresa_EmiteFactura(t *testing.T) {
	f := newEngineFixture(t, empresaCompleta(), stockedProduct(10))
	paidQuote(t, f, "p-1", 2)

	result, err := f.engine.Invoice(context.Background(), "q-1", "")
	require.NoError(t, err)

	assert.Equal(t, "factura", result.DocumentType)
	assert.Equal(t, fmt.Sprintf("F%d00001", time.Now().Year()), result.DocumentNumber)
	assert.Empty(t, result.IssuedBy, "emisión automática")
}

func TestInvoice_Reintento_EsIdempotente(t *testing.T) {
	f := newEngineFixture(t, personaCompleta(), stockedProduct(10))
	paidQuote(t, f, "p-1", 2)
	ctx := context.Background()

	first, err := f.engine.Invoice(ctx, "q-1", "staff-1")
	require.NoError(t, err)

	second, err := f.engine.Invoice(ctx, "q-1", "staff-2")
	require.NoError(t, err)

	assert.True(t, second.AlreadyInvoiced)
	assert.Equal(t, first.DocumentNumber, second.DocumentNumber, "el número nunca se reasigna")

	p, _ := f.products.GetByID(ctx, "p-1")
	assert.Equal(t, 8, p.Stock, "el stock no se descuenta dos veces")
	assert.Equal(t, 1, f.renderer.calls, "el PDF se genera una sola vez")
}

func TestInvoice_PerfilIncompleto_SeOmite(t *testing.T) {
	incompleta := personaCompleta()
	incompleta.TaxID = ""
	f := newEngineFixture(t, incompleta, stockedProduct(10))
	paidQuote(t, f, "p-1", 2)
	ctx := context.Background()

	_, err := f.engine.Invoice(ctx, "q-1", "")
	assert.ErrorIs(t, err, domain.ErrBillingProfileIncomplete)

	// La cotización queda pagada y sin facturar; el stock no se toca.
	stored, _ := f.quoteRepo.GetByID(ctx, "q-1")
	assert.Equal(t, entity.QuotePaid, stored.State)
	assert.False(t, stored.Invoiced)
	p, _ := f.products.GetByID(ctx, "p-1")
	assert.Equal(t, 10, p.Stock)
}

func TestInvoice_SinPagar_RetornaStateConflict(t *testing.T) {
	f := newEngineFixture(t, personaCompleta(), stockedProduct(10))
	now := time.Now()
	q := &entity.Quote{
		ID:         "q-1",
		CustomerID: "c-1",
		Number:     "PZ2026030001",
		State:      entity.QuoteFinalized,
		CreatedAt:  now,
		ExpiresAt:  now.AddDate(0, 0, 7),
	}
	require.NoError(t, f.quoteRepo.Create(context.Background(), q))

	_, err := f.engine.Invoice(context.Background(), "q-1", "")
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestInvoice_StockInsuficiente_AcotaEnCeroYAdvierte(t *testing.T) {
	f := newEngineFixture(t, personaCompleta(), stockedProduct(3))
	paidQuote(t, f, "p-1", 5)
	ctx := context.Background()

	result, err := f.engine.Invoice(ctx, "q-1", "staff-1")
	require.NoError(t, err, "el faltante no aborta la emisión")

	require.Len(t, result.StockWarnings, 1)
	assert.Contains(t, result.StockWarnings[0], "PERNO-8MM")
	assert.Contains(t, result.StockWarnings[0], "pedidos 5")
	assert.Contains(t, result.StockWarnings[0], "descontados 3")

	p, _ := f.products.GetByID(ctx, "p-1")
	assert.Equal(t, 0, p.Stock, "acotado en cero, nunca negativo")

	stored, _ := f.quoteRepo.GetByID(ctx, "q-1")
	assert.True(t, stored.Invoiced)
}

func TestInvoice_RenderFalla_ElDocumentoSeEmiteIgual(t *testing.T) {
	f := newEngineFixture(t, personaCompleta(), stockedProduct(10))
	f.renderer.err = errors.New("fuente no disponible")
	paidQuote(t, f, "p-1", 2)

	result, err := f.engine.Invoice(context.Background(), "q-1", "staff-1")
	require.NoError(t, err, "el PDF es secundario: la emisión no se revierte")
	assert.NotEmpty(t, result.DocumentNumber)
	assert.Empty(t, result.ReceiptRef)
}

func TestInvoice_CorrelativosPorTipoDeDocumento(t *testing.T) {
	// Boleta y factura llevan correlativos independientes.
	fPersona := newEngineFixture(t, personaCompleta(), stockedProduct(10))
	paidQuote(t, fPersona, "p-1", 1)
	r1, err := fPersona.engine.Invoice(context.Background(), "q-1", "")
	require.NoError(t, err)

	fEmpresa := newEngineFixture(t, empresaCompleta(), stockedProduct(10))
	paidQuote(t, fEmpresa, "p-1", 1)
	r2, err := fEmpresa.engine.Invoice(context.Background(), "q-1", "")
	require.NoError(t, err)

	assert.Equal(t, byte('R'), r1.DocumentNumber[0])
	assert.Equal(t, byte('F'), r2.DocumentNumber[0])
}

func TestReceipt_DevuelveElPDF(t *testing.T) {
	f := newEngineFixture(t, personaCompleta(), stockedProduct(10))
	paidQuote(t, f, "p-1", 2)
	ctx := context.Background()

	_, _, err := f.engine.Receipt(ctx, "q-1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "sin documento emitido no hay PDF")

	result, err := f.engine.Invoice(ctx, "q-1", "staff-1")
	require.NoError(t, err)

	filename, pdf, err := f.engine.Receipt(ctx, "q-1")
	require.NoError(t, err)
	assert.Equal(t, result.DocumentNumber+".pdf", filename)
	assert.NotEmpty(t, pdf)
}
