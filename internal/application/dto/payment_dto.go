package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SelectPaymentRequest body para POST /api/cotizaciones/:id/pago.
// Method: mercadopago | transferencia | efectivo.
type SelectPaymentRequest struct {
	Method string `json:"method"`
}

// PaymentInstructionsResponse resultado de seleccionar método de pago. Según
// el método trae la URL de checkout, los datos de la cuenta bancaria o la
// información de retiro en tienda.
type PaymentInstructionsResponse struct {
	QuoteID string `json:"quote_id"`
	Method  string `json:"method"`
	State   string `json:"state"`

	// mercadopago
	CheckoutURL  string `json:"checkout_url,omitempty"`
	PreferenceID string `json:"preference_id,omitempty"`

	// transferencia
	BankAccount *BankAccountInfo `json:"bank_account,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`

	// efectivo
	Pickup *PickupInfo `json:"pickup,omitempty"`

	Message string `json:"message,omitempty"`
}

// BankAccountInfo datos de la cuenta para transferir.
type BankAccountInfo struct {
	Banco             string `json:"banco"`
	TipoCuenta        string `json:"tipo_cuenta"`
	NumeroCuenta      string `json:"numero_cuenta"`
	RUTTitular        string `json:"rut_titular"`
	NombreTitular     string `json:"nombre_titular"`
	EmailConfirmacion string `json:"email_confirmacion"`
}

// PickupInfo datos de retiro en tienda para pago en efectivo.
type PickupInfo struct {
	Direccion string `json:"direccion"`
	Horarios  string `json:"horarios"`
	Telefono  string `json:"telefono"`
}

// SubmitTransferProofRequest campos del formulario multipart de comprobante
// (el archivo viaja aparte como file).
type SubmitTransferProofRequest struct {
	TransactionRef string `json:"transaction_ref,omitempty" form:"transaction_ref"`
	Note           string `json:"note,omitempty" form:"note"`
}

// ReviewTransferRequest body para aprobar/rechazar una transferencia.
type ReviewTransferRequest struct {
	Note string `json:"note,omitempty"`
}

// TransferResponse transferencia bancaria en respuestas.
type TransferResponse struct {
	ID             string          `json:"id"`
	QuoteID        string          `json:"quote_id"`
	State          string          `json:"state"`
	DeclaredAmount decimal.Decimal `json:"declared_amount"`
	ProofRef       string          `json:"proof_ref,omitempty"`
	TransactionRef string          `json:"transaction_ref,omitempty"`
	CustomerNote   string          `json:"customer_note,omitempty"`
	ReviewedBy     string          `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time      `json:"reviewed_at,omitempty"`
	ReviewerNote   string          `json:"reviewer_note,omitempty"`
	ExpiresAt      time.Time       `json:"expires_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

// WebhookNotification payload del webhook de MercadoPago. Solo interesan el
// tipo y el id del pago; el estado real siempre se reconsulta al gateway.
type WebhookNotification struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}
