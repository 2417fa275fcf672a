package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pozinox/tienda-api/internal/application/billing"
)

// BillingHandler emisión manual de documentos y descarga del PDF.
type BillingHandler struct {
	engine *billing.Engine
}

// NewBillingHandler construye el handler.
func NewBillingHandler(engine *billing.Engine) *BillingHandler {
	return &BillingHandler{engine: engine}
}

// Invoice emite el documento de una cotización pagada (staff; para pagos por
// transferencia y efectivo). Idempotente: repetir devuelve el mismo documento.
// POST /api/cotizaciones/:id/facturar
func (h *BillingHandler) Invoice(c *fiber.Ctx) error {
	result, err := h.engine.Invoice(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if result.AlreadyInvoiced {
		return c.JSON(result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Receipt descarga el PDF del documento emitido.
// GET /api/cotizaciones/:id/documento
func (h *BillingHandler) Receipt(c *fiber.Ctx) error {
	filename, pdf, err := h.engine.Receipt(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}
