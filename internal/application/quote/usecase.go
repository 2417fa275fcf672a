package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pozinox/tienda-api/internal/application/dto"
	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
	"github.com/pozinox/tienda-api/pkg/logger"
)

// Config parámetros del ciclo de cotización. La tasa de IVA y la vigencia se
// inyectan; ningún cálculo las lee de forma ambiental.
type Config struct {
	TaxRate      decimal.Decimal
	ValidityDays int
}

// Actor identifica a quien ejecuta la operación, ya resuelto por el middleware.
type Actor struct {
	UserID     string
	CustomerID string // vacío para staff sin perfil de cliente
	IsStaff    bool
}

// UseCase casos de uso del ledger de cotizaciones: borrador, líneas,
// finalización, cancelación y preparación.
type UseCase struct {
	quoteRepo   repository.QuoteRepository
	productRepo repository.ProductRepository
	seqRepo     repository.SequenceRepository
	cfg         Config
	log         *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	quoteRepo repository.QuoteRepository,
	productRepo repository.ProductRepository,
	seqRepo repository.SequenceRepository,
	cfg Config,
	log *logger.Logger,
) *UseCase {
	return &UseCase{quoteRepo: quoteRepo, productRepo: productRepo, seqRepo: seqRepo, cfg: cfg, log: log}
}

// CreateOrReuseDraft devuelve el borrador vigente del cliente o crea uno nuevo
// con número PZ{yyyy}{mm}{nnnn}. Un cliente tiene a lo más un borrador activo.
func (uc *UseCase) CreateOrReuseDraft(ctx context.Context, in dto.CreateQuoteRequest, actor Actor) (*dto.QuoteResponse, error) {
	customerID := actor.CustomerID
	if actor.IsStaff && in.CustomerID != "" {
		customerID = in.CustomerID
	}
	if customerID == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	if existing, err := uc.quoteRepo.GetDraftByCustomer(ctx, customerID); err == nil {
		if !existing.IsExpired(now) {
			return uc.toResponse(ctx, existing)
		}
	}

	number, err := uc.nextQuoteNumber(ctx, now)
	if err != nil {
		return nil, err
	}
	createdBy := ""
	if actor.IsStaff {
		createdBy = actor.UserID
	}
	q := &entity.Quote{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		CreatedBy:  createdBy,
		Number:     number,
		State:      entity.QuoteDraft,
		Subtotal:   decimal.Zero,
		Tax:        decimal.Zero,
		Total:      decimal.Zero,
		Note:       in.Note,
		CreatedAt:  now,
		ExpiresAt:  now.AddDate(0, 0, uc.cfg.ValidityDays),
		UpdatedAt:  now,
	}
	if err := uc.quoteRepo.Create(ctx, q); err != nil {
		return nil, err
	}
	uc.log.Info().Str("numero", q.Number).Str("quote_id", q.ID).Msg("cotización creada")
	return uc.toResponse(ctx, q)
}

// Get devuelve la cotización con líneas. Un cliente solo ve las suyas.
func (uc *UseCase) Get(ctx context.Context, quoteID string, actor Actor) (*dto.QuoteResponse, error) {
	q, err := uc.authorize(ctx, quoteID, actor)
	if err != nil {
		return nil, err
	}
	return uc.toResponse(ctx, q)
}

// ListMine lista las cotizaciones del cliente autenticado.
func (uc *UseCase) ListMine(ctx context.Context, actor Actor, page dto.PageRequest) ([]*dto.QuoteResponse, error) {
	if actor.CustomerID == "" {
		return nil, domain.ErrForbidden
	}
	page.DefaultPage()
	quotes, err := uc.quoteRepo.ListByCustomer(ctx, actor.CustomerID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return uc.toResponses(quotes), nil
}

// ListByState lista cotizaciones por estado (bandeja de staff).
func (uc *UseCase) ListByState(ctx context.Context, state string, page dto.PageRequest) ([]*dto.QuoteResponse, error) {
	page.DefaultPage()
	quotes, err := uc.quoteRepo.ListByState(ctx, entity.QuoteState(state), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return uc.toResponses(quotes), nil
}

// AddLine agrega un producto al borrador. Si el producto ya está en la
// cotización se incrementa la cantidad en vez de duplicar la línea. El precio
// se copia del catálogo al momento de agregar (snapshot).
func (uc *UseCase) AddLine(ctx context.Context, quoteID string, in dto.AddLineRequest, actor Actor) (*dto.QuoteResponse, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	q, err := uc.authorize(ctx, quoteID, actor)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := uc.ensureEditable(q, now); err != nil {
		return nil, err
	}

	product, err := uc.resolveProduct(ctx, in.ProductID, in.SKU)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, domain.ErrInvalidInput
	}

	line, err := uc.quoteRepo.GetLineByProduct(ctx, q.ID, product.ID)
	switch {
	case err == nil:
		line.Quantity += in.Quantity
		line.Recalculate()
		line.UpdatedAt = now
		if err := uc.quoteRepo.UpdateLine(ctx, line); err != nil {
			return nil, err
		}
	default:
		line = &entity.QuoteLine{
			ID:          uuid.New().String(),
			QuoteID:     q.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			ProductSKU:  product.SKU,
			Quantity:    in.Quantity,
			UnitPrice:   product.Price,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		line.Recalculate()
		if err := uc.quoteRepo.CreateLine(ctx, line); err != nil {
			return nil, err
		}
	}

	if err := uc.recalcTotals(ctx, q, now); err != nil {
		return nil, err
	}
	return uc.toResponse(ctx, q)
}

// UpdateLineQuantity fija la cantidad de una línea del borrador.
func (uc *UseCase) UpdateLineQuantity(ctx context.Context, quoteID, lineID string, in dto.UpdateLineRequest, actor Actor) (*dto.QuoteResponse, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	q, err := uc.authorize(ctx, quoteID, actor)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := uc.ensureEditable(q, now); err != nil {
		return nil, err
	}
	line, err := uc.findLine(ctx, q.ID, lineID)
	if err != nil {
		return nil, err
	}
	line.Quantity = in.Quantity
	line.Recalculate()
	line.UpdatedAt = now
	if err := uc.quoteRepo.UpdateLine(ctx, line); err != nil {
		return nil, err
	}
	if err := uc.recalcTotals(ctx, q, now); err != nil {
		return nil, err
	}
	return uc.toResponse(ctx, q)
}

// RemoveLine quita una línea del borrador.
func (uc *UseCase) RemoveLine(ctx context.Context, quoteID, lineID string, actor Actor) (*dto.QuoteResponse, error) {
	q, err := uc.authorize(ctx, quoteID, actor)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := uc.ensureEditable(q, now); err != nil {
		return nil, err
	}
	line, err := uc.findLine(ctx, q.ID, lineID)
	if err != nil {
		return nil, err
	}
	if err := uc.quoteRepo.DeleteLine(ctx, line.ID); err != nil {
		return nil, err
	}
	if err := uc.recalcTotals(ctx, q, now); err != nil {
		return nil, err
	}
	return uc.toResponse(ctx, q)
}

// Finalize congela la cotización: borrador -> finalizada. Exige al menos una
// línea y no estar expirada.
func (uc *UseCase) Finalize(ctx context.Context, quoteID string, actor Actor) (*dto.QuoteResponse, error) {
	q, err := uc.authorize(ctx, quoteID, actor)
	if err != nil {
		return nil, err
	}
	lines, err := uc.quoteRepo.GetLines(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	if err := q.Finalize(time.Now(), len(lines)); err != nil {
		return nil, err
	}
	if err := uc.quoteRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	uc.log.Info().Str("numero", q.Number).Str("total", q.Total.StringFixed(2)).Msg("cotización finalizada")
	return uc.toResponse(ctx, q)
}

// Cancel cancela una cotización finalizada o en revisión.
func (uc *UseCase) Cancel(ctx context.Context, quoteID string, actor Actor) (*dto.QuoteResponse, error) {
	q, err := uc.authorize(ctx, quoteID, actor)
	if err != nil {
		return nil, err
	}
	if err := q.Cancel(time.Now()); err != nil {
		return nil, err
	}
	if err := uc.quoteRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	return uc.toResponse(ctx, q)
}

// AdvancePreparation avanza el sub-estado de preparación (solo staff, la
// cotización debe estar pagada).
func (uc *UseCase) AdvancePreparation(ctx context.Context, quoteID string) (*dto.QuoteResponse, error) {
	q, err := uc.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := q.AdvancePreparation(time.Now()); err != nil {
		return nil, err
	}
	if err := uc.quoteRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	return uc.toResponse(ctx, q)
}

// nextQuoteNumber pide el correlativo mensual y arma PZ{yyyy}{mm}{nnnn}.
func (uc *UseCase) nextQuoteNumber(ctx context.Context, now time.Time) (string, error) {
	return NextNumber(ctx, uc.seqRepo, now)
}

// NextNumber genera el siguiente número de cotización PZ{yyyy}{mm}{nnnn} con
// correlativo mensual. Lo usa también el importador de ventas externas para
// que las cotizaciones materializadas compartan la numeración.
func NextNumber(ctx context.Context, seqRepo repository.SequenceRepository, now time.Time) (string, error) {
	key := fmt.Sprintf("PZ%04d%02d", now.Year(), int(now.Month()))
	n, err := seqRepo.Next(ctx, key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", key, n), nil
}

// authorize carga la cotización y valida que el actor pueda verla: el staff ve
// todas, un cliente solo las propias.
func (uc *UseCase) authorize(ctx context.Context, quoteID string, actor Actor) (*entity.Quote, error) {
	q, err := uc.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff && q.CustomerID != actor.CustomerID {
		return nil, domain.ErrForbidden
	}
	return q, nil
}

// ensureEditable valida que la cotización siga siendo un borrador vigente.
func (uc *UseCase) ensureEditable(q *entity.Quote, now time.Time) error {
	if q.IsExpired(now) {
		return domain.ErrQuoteExpired
	}
	if q.State != entity.QuoteDraft {
		return domain.ErrStateConflict
	}
	return nil
}

func (uc *UseCase) findLine(ctx context.Context, quoteID, lineID string) (*entity.QuoteLine, error) {
	lines, err := uc.quoteRepo.GetLines(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if l.ID == lineID {
			return l, nil
		}
	}
	return nil, domain.ErrNotFound
}

// recalcTotals recalcula subtotal/IVA/total desde las líneas y persiste.
func (uc *UseCase) recalcTotals(ctx context.Context, q *entity.Quote, now time.Time) error {
	lines, err := uc.quoteRepo.GetLines(ctx, q.ID)
	if err != nil {
		return err
	}
	subtotal, tax, total := entity.ComputeTotals(lines, uc.cfg.TaxRate)
	if err := q.SetTotals(subtotal, tax, total, now); err != nil {
		return err
	}
	return uc.quoteRepo.Update(ctx, q)
}

func (uc *UseCase) resolveProduct(ctx context.Context, productID, sku string) (*entity.Product, error) {
	switch {
	case productID != "":
		return uc.productRepo.GetByID(ctx, productID)
	case sku != "":
		return uc.productRepo.GetBySKU(ctx, sku)
	default:
		return nil, domain.ErrInvalidInput
	}
}

func (uc *UseCase) toResponse(ctx context.Context, q *entity.Quote) (*dto.QuoteResponse, error) {
	lines, err := uc.quoteRepo.GetLines(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	resp := ToQuoteResponse(q)
	resp.Lines = make([]dto.QuoteLineResponse, 0, len(lines))
	for _, l := range lines {
		resp.Lines = append(resp.Lines, dto.QuoteLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			ProductSKU:  l.ProductSKU,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		})
	}
	return resp, nil
}

func (uc *UseCase) toResponses(quotes []*entity.Quote) []*dto.QuoteResponse {
	out := make([]*dto.QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, ToQuoteResponse(q))
	}
	return out
}

// ToQuoteResponse mapea la entidad sin cargar líneas (listados).
func ToQuoteResponse(q *entity.Quote) *dto.QuoteResponse {
	return &dto.QuoteResponse{
		ID:             q.ID,
		Number:         q.Number,
		CustomerID:     q.CustomerID,
		State:          string(q.State),
		Preparation:    string(q.Preparation),
		Subtotal:       q.Subtotal,
		Tax:            q.Tax,
		Total:          q.Total,
		PaymentMethod:  string(q.PaymentMethod),
		Paid:           q.Paid,
		Invoiced:       q.Invoiced,
		DocumentType:   string(q.DocumentType),
		DocumentNumber: q.DocumentNumber,
		Note:           q.Note,
		CreatedAt:      q.CreatedAt,
		FinalizedAt:    q.FinalizedAt,
		ExpiresAt:      q.ExpiresAt,
		Expired:        q.IsExpired(time.Now()),
	}
}
