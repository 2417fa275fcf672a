package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pozinox/tienda-api/internal/application/dto"
	"github.com/pozinox/tienda-api/internal/application/payment"
)

// PaymentHandler selección de método de pago y callbacks del gateway.
type PaymentHandler struct {
	router *payment.Router
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(router *payment.Router) *PaymentHandler {
	return &PaymentHandler{router: router}
}

// SelectMethod elige la estrategia de pago de una cotización finalizada.
// POST /api/cotizaciones/:id/pago
func (h *PaymentHandler) SelectMethod(c *fiber.Ctx) error {
	var in dto.SelectPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.router.SelectMethod(c.Context(), c.Params("id"), in.Method, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// Return procesa la redirección del checkout. Requiere la sesión del dueño:
// el front recibe el redirect del gateway y llama acá con el token del cliente.
// GET /api/pagos/retorno
func (h *PaymentHandler) Return(c *fiber.Ctx) error {
	params := payment.ReturnParams{
		PaymentID:         c.Query("payment_id", c.Query("collection_id")),
		Status:            c.Query("status", c.Query("collection_status")),
		PreferenceID:      c.Query("preference_id"),
		ExternalReference: c.Query("external_reference"),
	}
	quote, err := h.router.HandleReturn(c.Context(), params, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// Webhook procesa la notificación asíncrona del gateway (público). Un error
// responde 502 para que el gateway reintente.
// POST /api/pagos/webhook
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	var in dto.WebhookNotification
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Type != "payment" || in.Data.ID == "" {
		// Otros tipos de evento no interesan; 200 para que no reintente.
		return c.JSON(dto.MessageResponse{Message: "ignorado"})
	}
	if err := h.router.HandleWebhook(c.Context(), in.Data.ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "procesado"})
}
