package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pozinox/tienda-api/internal/domain"
)

// Estados de la cotización. El estado es la única fuente de verdad: el flag
// Paid y el sub-estado de preparación se mutan solo a través de las
// transiciones, nunca por asignación directa desde fuera del paquete.
type QuoteState string

const (
	QuoteDraft       QuoteState = "borrador"
	QuoteFinalized   QuoteState = "finalizada"
	QuoteUnderReview QuoteState = "en_revision"
	QuotePaid        QuoteState = "pagada"
	QuoteCancelled   QuoteState = "cancelada"
)

// Sub-estado de preparación del pedido; solo tiene sentido una vez pagada.
type PreparationState string

const (
	PreparationNone    PreparationState = ""
	PreparationStarted PreparationState = "iniciada"
	PreparationPacking PreparationState = "preparando"
	PreparationReady   PreparationState = "lista"
)

// Métodos de pago.
type PaymentMethod string

const (
	PaymentNone     PaymentMethod = ""
	PaymentGateway  PaymentMethod = "mercadopago"
	PaymentTransfer PaymentMethod = "transferencia"
	PaymentCash     PaymentMethod = "efectivo"
)

// Tipo de documento tributario emitido al facturar.
type DocumentType string

const (
	DocumentBoleta  DocumentType = "boleta"  // persona natural
	DocumentFactura DocumentType = "factura" // empresa
)

// NumberPrefix devuelve el prefijo del número de documento: R para boleta, F para factura.
func (d DocumentType) NumberPrefix() string {
	if d == DocumentFactura {
		return "F"
	}
	return "R"
}

// Quote es una cotización: carrito mutable en borrador, congelada al
// finalizar, pagable por una de tres vías y facturable exactamente una vez.
type Quote struct {
	ID         string
	CustomerID string
	CreatedBy  string // staff que la creó a nombre del cliente; vacío si la creó el propio cliente
	Number     string // formato PZ{yyyy}{mm}{nnnn}, único

	State       QuoteState
	Preparation PreparationState

	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal

	PaymentMethod PaymentMethod
	Paid          bool
	PreferenceID  string // correlación con el checkout del gateway
	PaymentID     string // id de pago reportado por el gateway

	// Facturación
	Invoiced       bool
	DocumentType   DocumentType
	DocumentNumber string // formato {R|F}{yyyy}{nnnnn}; nunca se reasigna
	IssuedAt       *time.Time
	IssuedBy       string // staff que facturó manualmente; vacío = automática
	ReceiptRef     string // referencia al artefacto (PDF) generado
	FolioSII       string // placeholder, sin integración real
	TrackIDSII     string // placeholder, sin integración real

	Note string

	CreatedAt   time.Time
	FinalizedAt *time.Time
	ExpiresAt   time.Time
	UpdatedAt   time.Time
}

// IsExpired indica si la cotización está vencida: solo borrador y finalizada
// expiran; pagada, en revisión o cancelada nunca, sin importar la fecha.
func (q *Quote) IsExpired(now time.Time) bool {
	if q.State != QuoteDraft && q.State != QuoteFinalized {
		return false
	}
	return now.After(q.ExpiresAt)
}

// Finalize congela la cotización: exige borrador, al menos una línea y no
// estar expirada. La expiración se evalúa antes que el estado para que un
// reintento de finalizar una cotización vencida reporte ErrQuoteExpired.
func (q *Quote) Finalize(now time.Time, lineCount int) error {
	if q.IsExpired(now) {
		return domain.ErrQuoteExpired
	}
	if q.State != QuoteDraft {
		return domain.ErrStateConflict
	}
	if lineCount == 0 {
		return domain.ErrEmptyQuote
	}
	q.State = QuoteFinalized
	t := now
	q.FinalizedAt = &t
	q.UpdatedAt = now
	return nil
}

// CanStartPayment valida las guardas comunes a las tres estrategias de pago.
// Pagada o en revisión retorna ErrStateConflict (el router lo convierte en
// no-op informativo); expirada retorna ErrQuoteExpired.
func (q *Quote) CanStartPayment(now time.Time) error {
	if q.IsExpired(now) {
		return domain.ErrQuoteExpired
	}
	if q.State != QuoteFinalized {
		return domain.ErrStateConflict
	}
	return nil
}

// MarkUnderReview transiciona finalizada -> en_revision (pago recibido pero
// no confirmado: gateway pendiente o comprobante de transferencia subido).
func (q *Quote) MarkUnderReview(method PaymentMethod, now time.Time) error {
	if q.State != QuoteFinalized && q.State != QuoteUnderReview {
		return domain.ErrStateConflict
	}
	q.State = QuoteUnderReview
	q.PaymentMethod = method
	q.Paid = false
	q.UpdatedAt = now
	return nil
}

// MarkPaid transiciona finalizada|en_revision -> pagada y arranca la preparación.
func (q *Quote) MarkPaid(method PaymentMethod, now time.Time) error {
	if q.State != QuoteFinalized && q.State != QuoteUnderReview {
		return domain.ErrStateConflict
	}
	q.State = QuotePaid
	q.PaymentMethod = method
	q.Paid = true
	q.Preparation = PreparationStarted
	q.UpdatedAt = now
	return nil
}

// Cancel transiciona finalizada|en_revision -> cancelada (acción explícita).
func (q *Quote) Cancel(now time.Time) error {
	if q.State != QuoteFinalized && q.State != QuoteUnderReview {
		return domain.ErrStateConflict
	}
	q.State = QuoteCancelled
	q.UpdatedAt = now
	return nil
}

// AdvancePreparation avanza iniciada -> preparando -> lista. Solo con la cotización pagada.
func (q *Quote) AdvancePreparation(now time.Time) error {
	if q.State != QuotePaid {
		return domain.ErrStateConflict
	}
	switch q.Preparation {
	case PreparationStarted:
		q.Preparation = PreparationPacking
	case PreparationPacking:
		q.Preparation = PreparationReady
	default:
		return domain.ErrStateConflict
	}
	q.UpdatedAt = now
	return nil
}

// MarkInvoiced registra el documento tributario. Exige pagada y no facturada;
// el número nunca se reasigna una vez escrito.
func (q *Quote) MarkInvoiced(docType DocumentType, number, issuedBy string, now time.Time) error {
	if q.State != QuotePaid {
		return domain.ErrStateConflict
	}
	if q.Invoiced {
		return domain.ErrStateConflict
	}
	q.Invoiced = true
	q.DocumentType = docType
	q.DocumentNumber = number
	t := now
	q.IssuedAt = &t
	q.IssuedBy = issuedBy
	q.UpdatedAt = now
	return nil
}

// SetTotals fija los totales recalculados. Solo en borrador: después de
// finalizar las líneas están congeladas y el recálculo está prohibido.
func (q *Quote) SetTotals(subtotal, tax, total decimal.Decimal, now time.Time) error {
	if q.State != QuoteDraft {
		return domain.ErrStateConflict
	}
	q.Subtotal = subtotal
	q.Tax = tax
	q.Total = total
	q.UpdatedAt = now
	return nil
}

// ComputeTotals recalcula desde cero: subtotal = suma de subtotales de línea,
// iva = round(subtotal * tasa, 2), total = subtotal + iva.
func ComputeTotals(lines []*QuoteLine, taxRate decimal.Decimal) (subtotal, tax, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal)
	}
	subtotal = subtotal.Round(2)
	tax = subtotal.Mul(taxRate).Round(2)
	total = subtotal.Add(tax)
	return subtotal, tax, total
}
