package quote

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/repository"
)

// PDFData todo lo que la cotización impresa muestra. No es un documento
// tributario: el cliente la descarga como respaldo antes de pagar.
type PDFData struct {
	Number    string
	State     string
	CreatedAt string // fecha formateada
	ExpiresAt string

	CustomerName string

	IssuerName  string
	IssuerTaxID string

	Lines    []PDFLine
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Note     string
}

// PDFLine línea de la cotización impresa.
type PDFLine struct {
	SKU       string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// PDFRenderer genera el PDF de la cotización.
type PDFRenderer interface {
	RenderQuote(data *PDFData) ([]byte, error)
}

// PDFUseCase descarga de la cotización en PDF.
type PDFUseCase struct {
	quoteRepo    repository.QuoteRepository
	customerRepo repository.CustomerRepository
	renderer     PDFRenderer
	issuerName   string
	issuerTaxID  string
}

// NewPDFUseCase construye el caso de uso de descarga.
func NewPDFUseCase(
	quoteRepo repository.QuoteRepository,
	customerRepo repository.CustomerRepository,
	renderer PDFRenderer,
	issuerName, issuerTaxID string,
) *PDFUseCase {
	return &PDFUseCase{
		quoteRepo:    quoteRepo,
		customerRepo: customerRepo,
		renderer:     renderer,
		issuerName:   issuerName,
		issuerTaxID:  issuerTaxID,
	}
}

// Download genera el PDF de la cotización. Un cliente solo descarga las suyas.
func (uc *PDFUseCase) Download(ctx context.Context, quoteID string, actor Actor) (filename string, pdf []byte, err error) {
	q, err := uc.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return "", nil, err
	}
	if !actor.IsStaff && q.CustomerID != actor.CustomerID {
		return "", nil, domain.ErrForbidden
	}
	lines, err := uc.quoteRepo.GetLines(ctx, q.ID)
	if err != nil {
		return "", nil, err
	}
	customer, err := uc.customerRepo.GetByID(ctx, q.CustomerID)
	if err != nil {
		return "", nil, err
	}

	data := &PDFData{
		Number:       q.Number,
		State:        string(q.State),
		CreatedAt:    q.CreatedAt.Format("02-01-2006"),
		ExpiresAt:    q.ExpiresAt.Format("02-01-2006"),
		CustomerName: customer.BillingName(),
		IssuerName:   uc.issuerName,
		IssuerTaxID:  uc.issuerTaxID,
		Subtotal:     q.Subtotal,
		Tax:          q.Tax,
		Total:        q.Total,
		Note:         q.Note,
	}
	for _, l := range lines {
		data.Lines = append(data.Lines, PDFLine{
			SKU:       l.ProductSKU,
			Name:      l.ProductName,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Subtotal:  l.Subtotal,
		})
	}

	pdf, err = uc.renderer.RenderQuote(data)
	if err != nil {
		return "", nil, err
	}
	return q.Number + ".pdf", pdf, nil
}
