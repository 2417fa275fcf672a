package mail

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	appbilling "github.com/pozinox/tienda-api/internal/application/billing"
	apppayment "github.com/pozinox/tienda-api/internal/application/payment"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
	"github.com/pozinox/tienda-api/pkg/config"
	"github.com/pozinox/tienda-api/pkg/logger"
)

var _ apppayment.Notifier = (*GomailNotifier)(nil)
var _ appbilling.Notifier = (*GomailNotifier)(nil)

// GomailNotifier envía los avisos del ciclo de pago por SMTP. Si no hay host
// configurado solo loguea: el flujo de negocio nunca depende del correo.
type GomailNotifier struct {
	cfg          config.SMTPConfig
	staffEmail   string // bandeja del equipo para comprobantes por revisar
	customerRepo repository.CustomerRepository
	log          *logger.Logger
}

// NewGomailNotifier construye el notificador.
func NewGomailNotifier(cfg config.SMTPConfig, staffEmail string, customerRepo repository.CustomerRepository, log *logger.Logger) *GomailNotifier {
	return &GomailNotifier{cfg: cfg, staffEmail: staffEmail, customerRepo: customerRepo, log: log}
}

// StaffProofSubmitted avisa al equipo que hay un comprobante de transferencia por revisar.
func (n *GomailNotifier) StaffProofSubmitted(q *entity.Quote, t *entity.BankTransfer) {
	subject := fmt.Sprintf("Comprobante por revisar — cotización %s", q.Number)
	body := fmt.Sprintf(
		"Se recibió un comprobante de transferencia.\n\nCotización: %s\nMonto declarado: $%s\nTransferencia: %s\n",
		q.Number, t.DeclaredAmount.StringFixed(0), t.ID,
	)
	n.send(n.staffEmail, subject, body)
}

// CustomerTransferReviewed avisa al cliente el resultado de la revisión.
func (n *GomailNotifier) CustomerTransferReviewed(q *entity.Quote, t *entity.BankTransfer, approved bool) {
	email := n.customerEmail(q.CustomerID)
	if email == "" {
		return
	}
	if approved {
		body := fmt.Sprintf(
			"Tu transferencia por la cotización %s fue verificada y el pago quedó confirmado.\n¡Gracias por tu compra!\n",
			q.Number,
		)
		n.send(email, fmt.Sprintf("Pago confirmado — cotización %s", q.Number), body)
		return
	}
	body := fmt.Sprintf(
		"No pudimos verificar la transferencia de la cotización %s.\nMotivo: %s\nPor favor contáctanos para resolverlo.\n",
		q.Number, t.ReviewerNote,
	)
	n.send(email, fmt.Sprintf("Transferencia rechazada — cotización %s", q.Number), body)
}

// CustomerDocumentIssued avisa al cliente que su boleta o factura fue emitida.
func (n *GomailNotifier) CustomerDocumentIssued(q *entity.Quote, c *entity.Customer) {
	if c.Email == "" {
		return
	}
	docName := "boleta"
	if q.DocumentType == entity.DocumentFactura {
		docName = "factura"
	}
	subject := fmt.Sprintf("Tu %s %s fue emitida", docName, q.DocumentNumber)
	body := fmt.Sprintf(
		"Hola %s,\n\nSe emitió la %s %s por tu compra (cotización %s) por un total de $%s.\nPuedes descargarla desde tu cuenta.\n",
		c.Name, docName, q.DocumentNumber, q.Number, q.Total.StringFixed(0),
	)
	n.send(c.Email, subject, body)
}

func (n *GomailNotifier) customerEmail(customerID string) string {
	c, err := n.customerRepo.GetByID(context.Background(), customerID)
	if err != nil {
		n.log.Warn().Err(err).Str("customer_id", customerID).Msg("resolver email del cliente")
		return ""
	}
	return c.Email
}

func (n *GomailNotifier) send(to, subject, body string) {
	if to == "" {
		return
	}
	if n.cfg.Host == "" {
		n.log.Info().Str("para", to).Str("asunto", subject).Msg("SMTP no configurado, correo omitido")
		return
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.User, n.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		n.log.Error().Err(err).Str("para", to).Str("asunto", subject).Msg("enviar correo")
		return
	}
	n.log.Debug().Str("para", to).Str("asunto", subject).Msg("correo enviado")
}
