package sales

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pozinox/tienda-api/internal/application/dto"
	appquote "github.com/pozinox/tienda-api/internal/application/quote"
	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
	"github.com/pozinox/tienda-api/pkg/logger"
)

// ImportTxRunner ejecuta la materialización de una venta externa en una sola
// transacción: cliente, productos placeholder, cotización, líneas y registro
// de venta, todo o nada.
type ImportTxRunner interface {
	RunImport(ctx context.Context, fn func(
		quoteRepo repository.QuoteRepository,
		productRepo repository.ProductRepository,
		customerRepo repository.CustomerRepository,
		saleRepo repository.ExternalSaleRepository,
		seqRepo repository.SequenceRepository,
	) error) error
}

// Invoicer dispara la facturación de la cotización materializada.
type Invoicer interface {
	Invoice(ctx context.Context, quoteID, issuedBy string) (*dto.InvoiceResultResponse, error)
}

// Importer ingresa ventas concretadas por el canal externo al ledger local.
// Idempotente por preference_id: la misma notificación repetida (o dos
// réplicas procesándola a la vez) materializa exactamente una cotización.
type Importer struct {
	txRunner  ImportTxRunner
	saleRepo  repository.ExternalSaleRepository
	quoteRepo repository.QuoteRepository
	invoicer  Invoicer
	taxRate   decimal.Decimal
	log       *logger.Logger
}

// NewImporter construye el importador.
func NewImporter(
	txRunner ImportTxRunner,
	saleRepo repository.ExternalSaleRepository,
	quoteRepo repository.QuoteRepository,
	invoicer Invoicer,
	taxRate decimal.Decimal,
	log *logger.Logger,
) *Importer {
	return &Importer{
		txRunner:  txRunner,
		saleRepo:  saleRepo,
		quoteRepo: quoteRepo,
		invoicer:  invoicer,
		taxRate:   taxRate,
		log:       log,
	}
}

// ImportOrGet procesa la venta externa. Si la preferencia ya fue importada
// devuelve la cotización existente sin tocar nada. El total reportado viene
// con IVA incluido, así que acá se desglosa hacia atrás:
// subtotal = round(total / (1 + tasa), 2), iva = total - subtotal; el total
// reportado es autoritativo y el invariante total = subtotal + iva se preserva.
func (i *Importer) ImportOrGet(ctx context.Context, in dto.ImportExternalSaleRequest) (*dto.ImportExternalSaleResponse, error) {
	if in.PreferenceID == "" || in.BuyerEmail == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if !in.Total.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 || it.UnitPrice.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	}

	if existing, err := i.saleRepo.GetByPreferenceID(ctx, in.PreferenceID); err == nil {
		return i.existingResponse(ctx, existing)
	}

	one := decimal.NewFromInt(1)
	subtotal := in.Total.Div(one.Add(i.taxRate)).Round(2)
	tax := in.Total.Sub(subtotal)

	now := time.Now()
	saleID := uuid.New().String()
	quoteID := uuid.New().String()
	var number string

	err := i.txRunner.RunImport(ctx, func(
		quoteRepo repository.QuoteRepository,
		productRepo repository.ProductRepository,
		customerRepo repository.CustomerRepository,
		saleRepo repository.ExternalSaleRepository,
		seqRepo repository.SequenceRepository,
	) error {
		customer, err := i.resolveCustomer(ctx, customerRepo, in, now)
		if err != nil {
			return err
		}

		number, err = appquote.NextNumber(ctx, seqRepo, now)
		if err != nil {
			return err
		}

		finalized := now
		q := &entity.Quote{
			ID:            quoteID,
			CustomerID:    customer.ID,
			Number:        number,
			State:         entity.QuotePaid,
			Preparation:   entity.PreparationStarted,
			Subtotal:      subtotal,
			Tax:           tax,
			Total:         in.Total,
			PaymentMethod: entity.PaymentGateway,
			Paid:          true,
			PreferenceID:  in.PreferenceID,
			PaymentID:     in.PaymentID,
			Note:          "venta canal externo",
			CreatedAt:     now,
			FinalizedAt:   &finalized,
			ExpiresAt:     now,
			UpdatedAt:     now,
		}
		if err := quoteRepo.Create(ctx, q); err != nil {
			return err
		}

		saleItems := make([]entity.ExternalSaleItem, 0, len(in.Items))
		for _, it := range in.Items {
			product, err := i.resolveProduct(ctx, productRepo, it, now)
			if err != nil {
				return err
			}
			line := &entity.QuoteLine{
				ID:          uuid.New().String(),
				QuoteID:     q.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				ProductSKU:  product.SKU,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			line.Recalculate()
			if err := quoteRepo.CreateLine(ctx, line); err != nil {
				return err
			}
			saleItems = append(saleItems, entity.ExternalSaleItem{
				ProductID: product.ID,
				SKU:       product.SKU,
				Title:     it.Title,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
			})
		}

		sale := &entity.ExternalSale{
			ID:            saleID,
			PreferenceID:  in.PreferenceID,
			PaymentID:     in.PaymentID,
			BuyerEmail:    in.BuyerEmail,
			Status:        in.Status,
			ReportedTotal: in.Total,
			Items:         saleItems,
			QuoteID:       q.ID,
			CreatedAt:     now,
		}
		if err := saleRepo.Create(ctx, sale); err != nil {
			return err
		}
		return saleRepo.SetQuoteID(ctx, sale.ID, q.ID)
	})
	if err != nil {
		// Carrera con otra réplica: la preferencia ya quedó registrada, la
		// transacción propia se revirtió completa. Se devuelve la existente.
		if errors.Is(err, domain.ErrDuplicate) {
			if existing, gerr := i.saleRepo.GetByPreferenceID(ctx, in.PreferenceID); gerr == nil {
				return i.existingResponse(ctx, existing)
			}
		}
		return nil, err
	}

	i.log.Info().Str("preference_id", in.PreferenceID).Str("quote_id", quoteID).
		Str("numero", number).Msg("venta externa importada")

	// Facturación automática. El cliente importado suele no tener RUT todavía:
	// en ese caso el motor la omite y queda para emisión manual.
	if _, err := i.invoicer.Invoice(ctx, quoteID, ""); err != nil {
		i.log.Warn().Err(err).Str("quote_id", quoteID).Msg("facturación de venta externa pendiente")
	}

	return &dto.ImportExternalSaleResponse{
		SaleID:  saleID,
		QuoteID: quoteID,
		Number:  number,
	}, nil
}

func (i *Importer) existingResponse(ctx context.Context, sale *entity.ExternalSale) (*dto.ImportExternalSaleResponse, error) {
	resp := &dto.ImportExternalSaleResponse{
		SaleID:          sale.ID,
		QuoteID:         sale.QuoteID,
		AlreadyImported: true,
	}
	if q, err := i.quoteRepo.GetByID(ctx, sale.QuoteID); err == nil {
		resp.Number = q.Number
	}
	return resp, nil
}

// resolveCustomer busca el cliente por email o lo crea sin cuenta de acceso.
func (i *Importer) resolveCustomer(ctx context.Context, customerRepo repository.CustomerRepository, in dto.ImportExternalSaleRequest, now time.Time) (*entity.Customer, error) {
	if c, err := customerRepo.GetByEmail(ctx, in.BuyerEmail); err == nil {
		return c, nil
	}
	name := in.BuyerName
	if name == "" {
		name = in.BuyerEmail
	}
	c := &entity.Customer{
		ID:        uuid.New().String(),
		Kind:      entity.KindNaturalPerson,
		Name:      name,
		Email:     in.BuyerEmail,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := customerRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// resolveProduct resuelve el ítem contra el catálogo por id o SKU; si no
// existe materializa un producto placeholder fuera del catálogo activo.
func (i *Importer) resolveProduct(ctx context.Context, productRepo repository.ProductRepository, it dto.ExternalSaleItemRequest, now time.Time) (*entity.Product, error) {
	if it.ProductID != "" {
		if p, err := productRepo.GetByID(ctx, it.ProductID); err == nil {
			return p, nil
		}
	}
	if it.SKU != "" {
		if p, err := productRepo.GetBySKU(ctx, it.SKU); err == nil {
			return p, nil
		}
	}
	sku := it.SKU
	if sku == "" {
		sku = "EXT-" + uuid.New().String()[:8]
	}
	name := it.Title
	if name == "" {
		name = "Producto canal externo"
	}
	p := &entity.Product{
		ID:          uuid.New().String(),
		SKU:         sku,
		Name:        name,
		Price:       it.UnitPrice,
		Stock:       0,
		Active:      false,
		Placeholder: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
