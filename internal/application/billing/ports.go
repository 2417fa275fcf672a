package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
)

// InvoicingTxRunner ejecuta una función dentro de una transacción que incluye
// los repos que participan de la facturación: cotización (lock), stock y
// correlativos. Commit al retornar nil, rollback ante error.
type InvoicingTxRunner interface {
	RunInvoicing(ctx context.Context, fn func(
		quoteRepo repository.QuoteRepository,
		productRepo repository.ProductRepository,
		seqRepo repository.SequenceRepository,
	) error) error
}

// ReceiptData todo lo que el documento tributario imprime.
type ReceiptData struct {
	DocumentType   entity.DocumentType
	DocumentNumber string
	IssuedAt       string // fecha formateada

	// Emisor
	IssuerName    string
	IssuerTaxID   string
	IssuerAddress string
	IssuerEmail   string
	IssuerPhone   string

	// Receptor
	CustomerName     string
	CustomerTaxID    string
	CustomerAddress  string
	CustomerActivity string // giro; solo factura

	QuoteNumber   string
	PaymentMethod string

	Lines    []ReceiptLine
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ReceiptLine línea del documento.
type ReceiptLine struct {
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// ReceiptRenderer genera el PDF del documento tributario.
type ReceiptRenderer interface {
	Render(data *ReceiptData) ([]byte, error)
}

// FileStore guarda el PDF generado y devuelve una referencia recuperable.
type FileStore interface {
	Save(ctx context.Context, dir, filename string, data []byte) (ref string, err error)
	Load(ctx context.Context, ref string) ([]byte, error)
}

// Notifier avisa al cliente que su documento fue emitido. No debe bloquear:
// errores se loguean, nunca se propagan.
type Notifier interface {
	CustomerDocumentIssued(q *entity.Quote, c *entity.Customer)
}
