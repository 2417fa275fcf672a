package mercadopago

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"

	apppayment "github.com/pozinox/tienda-api/internal/application/payment"
	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
)

var _ apppayment.Gateway = (*Gateway)(nil)

// Gateway adaptador de MercadoPago Checkout Pro: crea preferencias de pago y
// consulta el estado de pagos.
type Gateway struct {
	prefClient    preference.Client
	paymentClient mppayment.Client
	// baseURL pública de la API, para back_urls y webhook.
	baseURL string
}

// Disabled reemplaza al gateway cuando no hay access token configurado: el
// resto de los métodos de pago (transferencia, efectivo) siguen operativos y
// cualquier intento de checkout online falla de forma controlada.
type Disabled struct{}

var _ apppayment.Gateway = Disabled{}

func (Disabled) CreateCheckout(context.Context, *entity.Quote, []*entity.QuoteLine) (string, string, error) {
	return "", "", fmt.Errorf("pago online no disponible: %w", domain.ErrExternalService)
}

func (Disabled) GetPayment(context.Context, string) (*apppayment.GatewayPayment, error) {
	return nil, fmt.Errorf("pago online no disponible: %w", domain.ErrExternalService)
}

// New construye el gateway con el access token de la cuenta.
func New(accessToken, baseURL string) (*Gateway, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("mercadopago: falta el access token")
	}
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: config: %w", err)
	}
	return &Gateway{
		prefClient:    preference.NewClient(cfg),
		paymentClient: mppayment.NewClient(cfg),
		baseURL:       baseURL,
	}, nil
}

// CreateCheckout crea la preferencia con una línea por producto más una línea
// de IVA, para que el monto cobrado coincida exactamente con el total de la
// cotización. external_reference lleva el quote ID para correlacionar el pago.
func (g *Gateway) CreateCheckout(ctx context.Context, q *entity.Quote, lines []*entity.QuoteLine) (string, string, error) {
	items := make([]preference.ItemRequest, 0, len(lines)+1)
	for _, l := range lines {
		items = append(items, preference.ItemRequest{
			ID:         l.ProductSKU,
			Title:      l.ProductName,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice.InexactFloat64(),
			CurrencyID: "CLP",
		})
	}
	if q.Tax.IsPositive() {
		items = append(items, preference.ItemRequest{
			ID:         "IVA",
			Title:      "IVA (19%)",
			Quantity:   1,
			UnitPrice:  q.Tax.InexactFloat64(),
			CurrencyID: "CLP",
		})
	}

	req := preference.Request{
		Items:             items,
		ExternalReference: q.ID,
		BackURLs: &preference.BackURLsRequest{
			Success: g.baseURL + "/api/pagos/retorno",
			Failure: g.baseURL + "/api/pagos/retorno",
			Pending: g.baseURL + "/api/pagos/retorno",
		},
		AutoReturn:      "approved",
		NotificationURL: g.baseURL + "/api/pagos/webhook",
	}
	resp, err := g.prefClient.Create(ctx, req)
	if err != nil {
		return "", "", fmt.Errorf("crear preferencia: %w", err)
	}
	return resp.ID, resp.InitPoint, nil
}

// GetPayment consulta el estado actual de un pago.
func (g *Gateway) GetPayment(ctx context.Context, paymentID string) (*apppayment.GatewayPayment, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment id inválido %q: %w", paymentID, err)
	}
	resp, err := g.paymentClient.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("consultar pago %d: %w", id, err)
	}
	return &apppayment.GatewayPayment{
		ID:                strconv.Itoa(resp.ID),
		Status:            resp.Status,
		ExternalReference: resp.ExternalReference,
	}, nil
}
