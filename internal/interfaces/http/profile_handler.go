package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pozinox/tienda-api/internal/application/billing"
	"github.com/pozinox/tienda-api/internal/application/dto"
)

// ProfileHandler perfil de facturación del cliente autenticado.
type ProfileHandler struct {
	uc *billing.CustomerUseCase
}

// NewProfileHandler construye el handler.
func NewProfileHandler(uc *billing.CustomerUseCase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

// Get devuelve el perfil, incluyendo los campos de facturación faltantes.
// GET /api/perfil
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	profile, err := h.uc.GetProfile(c.Context(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateBilling actualiza clasificación y datos de facturación.
// PUT /api/perfil/facturacion
func (h *ProfileHandler) UpdateBilling(c *fiber.Ctx) error {
	var in dto.UpdateBillingProfileRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	profile, err := h.uc.UpdateBillingProfile(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
