package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pozinox/tienda-api/internal/application/dto"
	"github.com/pozinox/tienda-api/internal/application/sales"
)

// SaleHandler ingreso de ventas del canal externo.
type SaleHandler struct {
	importer *sales.Importer
}

// NewSaleHandler construye el handler.
func NewSaleHandler(importer *sales.Importer) *SaleHandler {
	return &SaleHandler{importer: importer}
}

// Import materializa una venta externa como cotización pagada (staff).
// Idempotente por preference_id: repetir devuelve la cotización ya creada.
// POST /api/ventas/externas
func (h *SaleHandler) Import(c *fiber.Ctx) error {
	var in dto.ImportExternalSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.importer.ImportOrGet(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	if resp.AlreadyImported {
		return c.JSON(resp)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}
