package payment

import (
	"context"

	"github.com/pozinox/tienda-api/internal/application/dto"
	"github.com/pozinox/tienda-api/internal/domain/entity"
)

// GatewayPayment estado de un pago consultado al gateway.
type GatewayPayment struct {
	ID     string
	Status string // approved | pending | in_process | rejected | cancelled
	// ExternalReference correlación con la cotización (se envía el quote ID al
	// crear la preferencia y el gateway lo devuelve en cada consulta).
	ExternalReference string
}

// Gateway puerto hacia la pasarela de pago online.
type Gateway interface {
	// CreateCheckout crea la preferencia de pago para la cotización y devuelve
	// el id de preferencia y la URL de checkout.
	CreateCheckout(ctx context.Context, q *entity.Quote, lines []*entity.QuoteLine) (preferenceID, checkoutURL string, err error)
	// GetPayment consulta el estado actual de un pago.
	GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}

// FileStore guarda artefactos binarios (comprobantes de transferencia) y
// devuelve una referencia recuperable.
type FileStore interface {
	Save(ctx context.Context, dir, filename string, data []byte) (ref string, err error)
}

// Notifier envía avisos del flujo de transferencia. Las implementaciones no
// deben bloquear el flujo principal: los errores se loguean, nunca se propagan.
type Notifier interface {
	// StaffProofSubmitted avisa al equipo que hay un comprobante por revisar.
	StaffProofSubmitted(q *entity.Quote, t *entity.BankTransfer)
	// CustomerTransferReviewed avisa al cliente el resultado de la revisión.
	CustomerTransferReviewed(q *entity.Quote, t *entity.BankTransfer, approved bool)
}

// Invoicer dispara la facturación automática tras confirmar un pago. issuedBy
// vacío indica emisión automática.
type Invoicer interface {
	Invoice(ctx context.Context, quoteID, issuedBy string) (*dto.InvoiceResultResponse, error)
}
