package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/pozinox/tienda-api/internal/application/dto"
	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
	"github.com/pozinox/tienda-api/pkg/logger"
)

const receiptDir = "documentos"

// IssuerConfig identidad del emisor impresa en los documentos.
type IssuerConfig struct {
	RazonSocial string
	RUT         string
	Direccion   string
	Email       string
	Telefono    string
}

// Engine motor de facturación. Emite exactamente un documento tributario por
// cotización pagada: boleta para persona natural, factura para empresa. La
// asignación de número, el descuento de stock y la marca de facturada ocurren
// en una sola transacción; reintentar sobre una cotización ya facturada es
// no-op (nunca se descuenta stock dos veces ni se reasigna el número).
type Engine struct {
	txRunner     InvoicingTxRunner
	quoteRepo    repository.QuoteRepository
	customerRepo repository.CustomerRepository
	renderer     ReceiptRenderer
	files        FileStore
	notifier     Notifier
	issuer       IssuerConfig
	log          *logger.Logger
}

// NewEngine construye el motor de facturación.
func NewEngine(
	txRunner InvoicingTxRunner,
	quoteRepo repository.QuoteRepository,
	customerRepo repository.CustomerRepository,
	renderer ReceiptRenderer,
	files FileStore,
	notifier Notifier,
	issuer IssuerConfig,
	log *logger.Logger,
) *Engine {
	return &Engine{
		txRunner:     txRunner,
		quoteRepo:    quoteRepo,
		customerRepo: customerRepo,
		renderer:     renderer,
		files:        files,
		notifier:     notifier,
		issuer:       issuer,
		log:          log,
	}
}

// Invoice emite el documento de la cotización. issuedBy vacío = emisión
// automática (pago de gateway o importador); con valor = emisión manual del
// staff (transferencia y efectivo). Idempotente por cotización.
func (e *Engine) Invoice(ctx context.Context, quoteID, issuedBy string) (*dto.InvoiceResultResponse, error) {
	q, err := e.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q.Invoiced {
		return e.toResult(q, true, nil), nil
	}
	if q.State != entity.QuotePaid {
		return nil, domain.ErrStateConflict
	}

	customer, err := e.customerRepo.GetByID(ctx, q.CustomerID)
	if err != nil {
		return nil, err
	}
	profile, err := customer.BillingProfile()
	if err != nil {
		return nil, err
	}
	if missing := profile.Validate(); len(missing) > 0 {
		e.log.Warn().Str("quote_id", q.ID).Str("customer_id", customer.ID).
			Strs("faltantes", missing).Msg("facturación omitida: perfil incompleto")
		return nil, domain.ErrBillingProfileIncomplete
	}
	docType := profile.DocumentType()

	now := time.Now()
	var (
		invoiced *entity.Quote
		already  bool
		warnings []string
	)
	err = e.txRunner.RunInvoicing(ctx, func(
		quoteRepo repository.QuoteRepository,
		productRepo repository.ProductRepository,
		seqRepo repository.SequenceRepository,
	) error {
		// Releer con lock: otra emisión concurrente pudo ganar la carrera.
		locked, err := quoteRepo.GetByIDForUpdate(ctx, quoteID)
		if err != nil {
			return err
		}
		if locked.Invoiced {
			invoiced = locked
			already = true
			return nil
		}
		if locked.State != entity.QuotePaid {
			return domain.ErrStateConflict
		}
		lines, err := quoteRepo.GetLines(ctx, locked.ID)
		if err != nil {
			return err
		}

		number, err := nextDocumentNumber(ctx, seqRepo, docType, now)
		if err != nil {
			return err
		}

		// Descuento de stock acotado en cero: un faltante no aborta la
		// emisión, queda como advertencia para reposición.
		for _, l := range lines {
			remaining, applied, err := productRepo.DecrementStock(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			if applied < l.Quantity {
				w := fmt.Sprintf("producto %s: pedidos %d, descontados %d, stock restante %d",
					l.ProductSKU, l.Quantity, applied, remaining)
				warnings = append(warnings, w)
				e.log.Warn().Str("quote_id", locked.ID).Str("sku", l.ProductSKU).
					Int("pedidos", l.Quantity).Int("descontados", applied).
					Msg("stock insuficiente al facturar")
			}
		}

		if err := locked.MarkInvoiced(docType, number, issuedBy, now); err != nil {
			return err
		}

		// El PDF se genera dentro de la transacción para que ReceiptRef quede
		// en el mismo commit; si el render falla el documento se emite igual.
		if pdf, err := e.renderer.Render(e.buildReceiptData(locked, customer, lines, now)); err != nil {
			e.log.Error().Err(err).Str("quote_id", locked.ID).Msg("generar PDF del documento")
		} else if ref, err := e.files.Save(ctx, receiptDir, number+".pdf", pdf); err != nil {
			e.log.Error().Err(err).Str("quote_id", locked.ID).Msg("guardar PDF del documento")
		} else {
			locked.ReceiptRef = ref
		}

		if err := quoteRepo.Update(ctx, locked); err != nil {
			return err
		}
		invoiced = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !already {
		e.log.Info().Str("quote_id", invoiced.ID).Str("documento", invoiced.DocumentNumber).
			Str("tipo", string(invoiced.DocumentType)).Msg("documento emitido")
		go e.notifier.CustomerDocumentIssued(invoiced, customer)
	}
	return e.toResult(invoiced, already, warnings), nil
}

// Receipt devuelve el PDF del documento emitido.
func (e *Engine) Receipt(ctx context.Context, quoteID string) (filename string, pdf []byte, err error) {
	q, err := e.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return "", nil, err
	}
	if !q.Invoiced || q.ReceiptRef == "" {
		return "", nil, domain.ErrNotFound
	}
	pdf, err = e.files.Load(ctx, q.ReceiptRef)
	if err != nil {
		return "", nil, err
	}
	return q.DocumentNumber + ".pdf", pdf, nil
}

// nextDocumentNumber arma {R|F}{yyyy}{nnnnn} con correlativo anual por prefijo.
func nextDocumentNumber(ctx context.Context, seqRepo repository.SequenceRepository, docType entity.DocumentType, now time.Time) (string, error) {
	key := fmt.Sprintf("%s%04d", docType.NumberPrefix(), now.Year())
	n, err := seqRepo.Next(ctx, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", key, n), nil
}

func (e *Engine) buildReceiptData(q *entity.Quote, c *entity.Customer, lines []*entity.QuoteLine, now time.Time) *ReceiptData {
	data := &ReceiptData{
		DocumentType:   q.DocumentType,
		DocumentNumber: q.DocumentNumber,
		IssuedAt:       now.Format("02-01-2006"),

		IssuerName:    e.issuer.RazonSocial,
		IssuerTaxID:   e.issuer.RUT,
		IssuerAddress: e.issuer.Direccion,
		IssuerEmail:   e.issuer.Email,
		IssuerPhone:   e.issuer.Telefono,

		CustomerName:     c.BillingName(),
		CustomerTaxID:    c.TaxID,
		CustomerAddress:  c.Address,
		CustomerActivity: c.Activity,

		QuoteNumber:   q.Number,
		PaymentMethod: string(q.PaymentMethod),

		Subtotal: q.Subtotal,
		Tax:      q.Tax,
		Total:    q.Total,
	}
	for _, l := range lines {
		data.Lines = append(data.Lines, ReceiptLine{
			SKU:       l.ProductSKU,
			Name:      l.ProductName,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}
	return data
}

func (e *Engine) toResult(q *entity.Quote, already bool, warnings []string) *dto.InvoiceResultResponse {
	res := &dto.InvoiceResultResponse{
		QuoteID:         q.ID,
		DocumentType:    string(q.DocumentType),
		DocumentNumber:  q.DocumentNumber,
		IssuedBy:        q.IssuedBy,
		ReceiptRef:      q.ReceiptRef,
		AlreadyInvoiced: already,
		StockWarnings:   warnings,
	}
	if q.IssuedAt != nil {
		res.IssuedAt = *q.IssuedAt
	}
	return res
}
