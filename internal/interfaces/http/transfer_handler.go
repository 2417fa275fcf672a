package http

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/pozinox/tienda-api/internal/application/dto"
	"github.com/pozinox/tienda-api/internal/application/payment"
)

// maxProofSize tamaño máximo del comprobante (5 MB).
const maxProofSize = 5 << 20

// TransferHandler flujo de transferencia bancaria: comprobante y verificación.
type TransferHandler struct {
	uc *payment.TransferUseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *payment.TransferUseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// SubmitProof recibe el comprobante (multipart: file + transaction_ref + note).
// POST /api/cotizaciones/:id/transferencia/comprobante
func (h *TransferHandler) SubmitProof(c *fiber.Ctx) error {
	in := dto.SubmitTransferProofRequest{
		TransactionRef: c.FormValue("transaction_ref"),
		Note:           c.FormValue("note"),
	}

	var (
		filename string
		data     []byte
	)
	if fh, err := c.FormFile("file"); err == nil {
		if fh.Size > maxProofSize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{Code: "FILE_TOO_LARGE", Message: "el comprobante supera los 5 MB"})
		}
		f, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "no se pudo leer el archivo"})
		}
		defer f.Close()
		data, err = io.ReadAll(f)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "no se pudo leer el archivo"})
		}
		filename = fh.Filename
	}

	transfer, err := h.uc.SubmitProof(c.Context(), c.Params("id"), getActor(c), filename, data, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transfer)
}

// GetByQuote devuelve la transferencia de la cotización.
// GET /api/cotizaciones/:id/transferencia
func (h *TransferHandler) GetByQuote(c *fiber.Ctx) error {
	transfer, err := h.uc.GetByQuote(c.Context(), c.Params("id"), getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transfer)
}

// ListPending bandeja de transferencias por revisar (staff).
// GET /api/transferencias/pendientes
func (h *TransferHandler) ListPending(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	transfers, err := h.uc.ListPending(c.Context(), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transfers)
}

// Approve aprueba la transferencia y confirma el pago (staff).
// POST /api/transferencias/:id/aprobar
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	var in dto.ReviewTransferRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	transfer, err := h.uc.Approve(c.Context(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transfer)
}

// Reject rechaza la transferencia (staff).
// POST /api/transferencias/:id/rechazar
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	var in dto.ReviewTransferRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	transfer, err := h.uc.Reject(c.Context(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transfer)
}
