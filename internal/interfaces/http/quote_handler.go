package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pozinox/tienda-api/internal/application/dto"
	appquote "github.com/pozinox/tienda-api/internal/application/quote"
)

// QuoteHandler ciclo de vida de la cotización: borrador, líneas, finalización,
// cancelación y preparación.
type QuoteHandler struct {
	uc  *appquote.UseCase
	pdf *appquote.PDFUseCase
}

// NewQuoteHandler construye el handler.
func NewQuoteHandler(uc *appquote.UseCase, pdf *appquote.PDFUseCase) *QuoteHandler {
	return &QuoteHandler{uc: uc, pdf: pdf}
}

// Create crea (o reutiliza) el borrador del cliente.
// POST /api/cotizaciones
func (h *QuoteHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateQuoteRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	quote, err := h.uc.CreateOrReuseDraft(c.Context(), in, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(quote)
}

// Get devuelve la cotización con líneas y totales.
// GET /api/cotizaciones/:id
func (h *QuoteHandler) Get(c *fiber.Ctx) error {
	quote, err := h.uc.Get(c.Context(), c.Params("id"), getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// ListMine lista las cotizaciones del cliente autenticado.
// GET /api/cotizaciones
func (h *QuoteHandler) ListMine(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	quotes, err := h.uc.ListMine(c.Context(), getActor(c), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quotes)
}

// ListByState lista cotizaciones por estado (staff).
// GET /api/cotizaciones/estado/:estado
func (h *QuoteHandler) ListByState(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	quotes, err := h.uc.ListByState(c.Context(), c.Params("estado"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quotes)
}

// AddLine agrega un producto al borrador.
// POST /api/cotizaciones/:id/lineas
func (h *QuoteHandler) AddLine(c *fiber.Ctx) error {
	var in dto.AddLineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	quote, err := h.uc.AddLine(c.Context(), c.Params("id"), in, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// UpdateLine fija la cantidad de una línea.
// PUT /api/cotizaciones/:id/lineas/:lineaID
func (h *QuoteHandler) UpdateLine(c *fiber.Ctx) error {
	var in dto.UpdateLineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	quote, err := h.uc.UpdateLineQuantity(c.Context(), c.Params("id"), c.Params("lineaID"), in, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// RemoveLine quita una línea del borrador.
// DELETE /api/cotizaciones/:id/lineas/:lineaID
func (h *QuoteHandler) RemoveLine(c *fiber.Ctx) error {
	quote, err := h.uc.RemoveLine(c.Context(), c.Params("id"), c.Params("lineaID"), getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// Finalize congela la cotización.
// POST /api/cotizaciones/:id/finalizar
func (h *QuoteHandler) Finalize(c *fiber.Ctx) error {
	quote, err := h.uc.Finalize(c.Context(), c.Params("id"), getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// Cancel cancela la cotización.
// POST /api/cotizaciones/:id/cancelar
func (h *QuoteHandler) Cancel(c *fiber.Ctx) error {
	quote, err := h.uc.Cancel(c.Context(), c.Params("id"), getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}

// DownloadPDF descarga la cotización en PDF.
// GET /api/cotizaciones/:id/pdf
func (h *QuoteHandler) DownloadPDF(c *fiber.Ctx) error {
	filename, pdf, err := h.pdf.Download(c.Context(), c.Params("id"), getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// AdvancePreparation avanza el sub-estado de preparación (staff).
// POST /api/cotizaciones/:id/preparacion/avanzar
func (h *QuoteHandler) AdvancePreparation(c *fiber.Ctx) error {
	quote, err := h.uc.AdvancePreparation(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(quote)
}
