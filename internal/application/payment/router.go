package payment

import (
	"context"
	"errors"
	"time"

	"github.com/pozinox/tienda-api/internal/application/dto"
	appquote "github.com/pozinox/tienda-api/internal/application/quote"
	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
	"github.com/pozinox/tienda-api/pkg/logger"
)

// Estados de pago reportados por el gateway.
const (
	StatusApproved  = "approved"
	StatusPending   = "pending"
	StatusInProcess = "in_process"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// InstructionsConfig datos operativos que se devuelven como instrucciones de
// pago: cuenta bancaria para transferencia y retiro en tienda para efectivo.
type InstructionsConfig struct {
	Bank                 dto.BankAccountInfo
	Pickup               dto.PickupInfo
	TransferValidityDays int
}

// Router enruta el pago de una cotización finalizada por una de tres
// estrategias: gateway online, transferencia bancaria o efectivo. Centraliza
// además la aplicación de resultados del gateway (retorno y webhook).
type Router struct {
	quoteRepo repository.QuoteRepository
	gateway   Gateway
	invoicer  Invoicer
	cfg       InstructionsConfig
	log       *logger.Logger
}

// NewRouter construye el router de pagos.
func NewRouter(
	quoteRepo repository.QuoteRepository,
	gateway Gateway,
	invoicer Invoicer,
	cfg InstructionsConfig,
	log *logger.Logger,
) *Router {
	return &Router{quoteRepo: quoteRepo, gateway: gateway, invoicer: invoicer, cfg: cfg, log: log}
}

// SelectMethod elige la estrategia de pago para una cotización finalizada.
// Si la cotización ya está pagada o en revisión responde un no-op informativo
// en vez de error: reintentar la selección no corrompe nada.
func (r *Router) SelectMethod(ctx context.Context, quoteID, method string, actor appquote.Actor) (*dto.PaymentInstructionsResponse, error) {
	q, err := r.authorize(ctx, quoteID, actor)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	if q.State == entity.QuotePaid || q.State == entity.QuoteUnderReview {
		msg := "el pago de esta cotización ya está en curso"
		if q.State == entity.QuotePaid {
			msg = "la cotización ya está pagada"
		}
		return &dto.PaymentInstructionsResponse{
			QuoteID: q.ID,
			Method:  string(q.PaymentMethod),
			State:   string(q.State),
			Message: msg,
		}, nil
	}
	if err := q.CanStartPayment(now); err != nil {
		return nil, err
	}

	switch entity.PaymentMethod(method) {
	case entity.PaymentGateway:
		return r.startGateway(ctx, q, now)
	case entity.PaymentTransfer:
		return r.startTransfer(ctx, q, now)
	case entity.PaymentCash:
		return r.startCash(ctx, q, now)
	default:
		return nil, domain.ErrInvalidInput
	}
}

// startGateway crea la preferencia de checkout y guarda la correlación.
func (r *Router) startGateway(ctx context.Context, q *entity.Quote, now time.Time) (*dto.PaymentInstructionsResponse, error) {
	lines, err := r.quoteRepo.GetLines(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	prefID, checkoutURL, err := r.gateway.CreateCheckout(ctx, q, lines)
	if err != nil {
		r.log.Error().Err(err).Str("quote_id", q.ID).Msg("crear preferencia de pago")
		return nil, domain.ErrExternalService
	}
	q.PaymentMethod = entity.PaymentGateway
	q.PreferenceID = prefID
	q.UpdatedAt = now
	if err := r.quoteRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	return &dto.PaymentInstructionsResponse{
		QuoteID:      q.ID,
		Method:       string(entity.PaymentGateway),
		State:        string(q.State),
		CheckoutURL:  checkoutURL,
		PreferenceID: prefID,
	}, nil
}

// startTransfer registra el método y devuelve los datos de la cuenta. La
// cotización recién pasa a revisión cuando el cliente sube el comprobante.
func (r *Router) startTransfer(ctx context.Context, q *entity.Quote, now time.Time) (*dto.PaymentInstructionsResponse, error) {
	q.PaymentMethod = entity.PaymentTransfer
	q.UpdatedAt = now
	if err := r.quoteRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	bank := r.cfg.Bank
	expires := now.AddDate(0, 0, r.cfg.TransferValidityDays)
	return &dto.PaymentInstructionsResponse{
		QuoteID:     q.ID,
		Method:      string(entity.PaymentTransfer),
		State:       string(q.State),
		BankAccount: &bank,
		ExpiresAt:   &expires,
	}, nil
}

// startCash marca la cotización como pagada de inmediato (el pago se concreta
// contra entrega en tienda) y devuelve la información de retiro. La boleta se
// emite manualmente al recibir el efectivo.
func (r *Router) startCash(ctx context.Context, q *entity.Quote, now time.Time) (*dto.PaymentInstructionsResponse, error) {
	if err := q.MarkPaid(entity.PaymentCash, now); err != nil {
		return nil, err
	}
	if err := r.quoteRepo.Update(ctx, q); err != nil {
		return nil, err
	}
	r.log.Info().Str("quote_id", q.ID).Str("numero", q.Number).Msg("pago en efectivo registrado")
	pickup := r.cfg.Pickup
	return &dto.PaymentInstructionsResponse{
		QuoteID: q.ID,
		Method:  string(entity.PaymentCash),
		State:   string(q.State),
		Pickup:  &pickup,
	}, nil
}

// ReturnParams parámetros con los que el gateway redirige al cliente de vuelta.
type ReturnParams struct {
	PaymentID         string
	Status            string
	PreferenceID      string
	ExternalReference string
}

// HandleReturn procesa la redirección del checkout. Solo el dueño de la
// cotización (o staff) puede invocarla. El estado del pago se reconsulta al
// gateway; los parámetros de la URL son el fallback solo si la consulta falla
// (el redirect no es confiable como fuente de verdad).
func (r *Router) HandleReturn(ctx context.Context, p ReturnParams, actor appquote.Actor) (*dto.QuoteResponse, error) {
	q, err := r.resolveQuote(ctx, p.ExternalReference, p.PreferenceID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff && q.CustomerID != actor.CustomerID {
		return nil, domain.ErrForbidden
	}

	status := p.Status
	paymentID := p.PaymentID
	if p.PaymentID != "" {
		pay, err := r.gateway.GetPayment(ctx, p.PaymentID)
		if err != nil {
			r.log.Warn().Err(err).Str("payment_id", p.PaymentID).
				Msg("consulta de pago falló, usando estado del redirect")
		} else {
			status = pay.Status
			paymentID = pay.ID
		}
	}
	if err := r.applyOutcome(ctx, q, status, paymentID); err != nil {
		return nil, err
	}
	return appquote.ToQuoteResponse(q), nil
}

// HandleWebhook procesa la notificación asíncrona del gateway. Acá no hay
// fallback: si la consulta del pago falla se devuelve error para que el
// gateway reintente la notificación.
func (r *Router) HandleWebhook(ctx context.Context, paymentID string) error {
	pay, err := r.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		r.log.Error().Err(err).Str("payment_id", paymentID).Msg("consulta de pago del webhook")
		return domain.ErrExternalService
	}
	q, err := r.resolveQuote(ctx, pay.ExternalReference, "")
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Pago de un canal que no corresponde a una cotización local
			// (p. ej. venta externa que entra por el importador).
			r.log.Debug().Str("payment_id", paymentID).Msg("webhook sin cotización asociada, ignorado")
			return nil
		}
		return err
	}
	return r.applyOutcome(ctx, q, pay.Status, pay.ID)
}

// applyOutcome aplica el estado reportado por el gateway a la cotización.
// Reaplicar approved sobre una cotización pagada es no-op; un estado pendiente
// nunca degrada una cotización ya pagada.
func (r *Router) applyOutcome(ctx context.Context, q *entity.Quote, status, paymentID string) error {
	now := time.Now()
	switch status {
	case StatusApproved:
		if q.Paid {
			return nil
		}
		if err := q.MarkPaid(entity.PaymentGateway, now); err != nil {
			return err
		}
		q.PaymentID = paymentID
		if err := r.quoteRepo.Update(ctx, q); err != nil {
			return err
		}
		r.log.Info().Str("quote_id", q.ID).Str("payment_id", paymentID).Msg("pago aprobado por gateway")
		// Facturación automática. Si falla no se revierte el pago: queda
		// pendiente de reintento manual.
		if _, err := r.invoicer.Invoice(ctx, q.ID, ""); err != nil {
			r.log.Error().Err(err).Str("quote_id", q.ID).Msg("facturación automática falló")
		}
		return nil
	case StatusPending, StatusInProcess:
		if q.Paid {
			return nil
		}
		if q.State == entity.QuoteFinalized {
			if err := q.MarkUnderReview(entity.PaymentGateway, now); err != nil {
				return err
			}
		}
		q.PaymentID = paymentID
		return r.quoteRepo.Update(ctx, q)
	case StatusRejected, StatusCancelled:
		// La cotización no transiciona: el cliente puede reintentar el pago.
		r.log.Warn().Str("quote_id", q.ID).Str("status", status).Msg("pago no concretado")
		if q.PaymentID == "" && paymentID != "" {
			q.PaymentID = paymentID
			q.UpdatedAt = now
			return r.quoteRepo.Update(ctx, q)
		}
		return nil
	default:
		r.log.Warn().Str("quote_id", q.ID).Str("status", status).Msg("estado de pago desconocido")
		return nil
	}
}

// resolveQuote ubica la cotización por referencia externa (quote ID) o, en su
// defecto, por id de preferencia.
func (r *Router) resolveQuote(ctx context.Context, externalRef, preferenceID string) (*entity.Quote, error) {
	if externalRef != "" {
		if q, err := r.quoteRepo.GetByID(ctx, externalRef); err == nil {
			return q, nil
		}
	}
	if preferenceID != "" {
		return r.quoteRepo.GetByPreferenceID(ctx, preferenceID)
	}
	return nil, domain.ErrNotFound
}

func (r *Router) authorize(ctx context.Context, quoteID string, actor appquote.Actor) (*entity.Quote, error) {
	q, err := r.quoteRepo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff && q.CustomerID != actor.CustomerID {
		return nil, domain.ErrForbidden
	}
	return q, nil
}
