package entity

import (
	"time"

	"github.com/pozinox/tienda-api/internal/domain"
)

// Clasificación del cliente. Determina el documento tributario:
// persona natural -> boleta, empresa -> factura.
type CustomerKind string

const (
	KindNaturalPerson CustomerKind = "persona"
	KindCompany       CustomerKind = "empresa"
)

// Customer perfil de cliente de la tienda. Los campos de facturación se
// validan solo al emitir el documento; un perfil incompleto no bloquea el
// pago, solo omite la facturación automática.
type Customer struct {
	ID     string
	UserID string // cuenta de acceso asociada; vacío para clientes importados sin cuenta
	Kind   CustomerKind

	Name  string
	Email string
	Phone string

	// Datos de facturación
	TaxID     string // RUT; requerido para cualquier documento
	Address   string // requerido para boleta y factura
	LegalName string // razón social; solo empresa
	Activity  string // giro; solo empresa

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BillingProfile es el tipo cerrado de dos variantes con el que el motor de
// facturación decide el documento y valida campos en un único switch, en vez
// de chequear atributos sueltos en cada punto de uso.
type BillingProfile interface {
	DocumentType() DocumentType
	// Validate devuelve la lista de campos faltantes. Vacía = perfil completo.
	Validate() []string
}

// NaturalPersonProfile datos de boleta para persona natural.
type NaturalPersonProfile struct {
	TaxID   string
	Address string
}

func (p NaturalPersonProfile) DocumentType() DocumentType { return DocumentBoleta }

func (p NaturalPersonProfile) Validate() []string {
	var missing []string
	if p.TaxID == "" {
		missing = append(missing, "rut")
	}
	if p.Address == "" {
		missing = append(missing, "direccion")
	}
	return missing
}

// CompanyProfile datos de factura para empresa.
type CompanyProfile struct {
	TaxID     string
	LegalName string
	Activity  string
	Address   string
}

func (p CompanyProfile) DocumentType() DocumentType { return DocumentFactura }

func (p CompanyProfile) Validate() []string {
	var missing []string
	if p.TaxID == "" {
		missing = append(missing, "rut")
	}
	if p.LegalName == "" {
		missing = append(missing, "razon_social")
	}
	if p.Activity == "" {
		missing = append(missing, "giro")
	}
	if p.Address == "" {
		missing = append(missing, "direccion_comercial")
	}
	return missing
}

// BillingProfile construye la variante según la clasificación del cliente.
func (c *Customer) BillingProfile() (BillingProfile, error) {
	switch c.Kind {
	case KindNaturalPerson:
		return NaturalPersonProfile{TaxID: c.TaxID, Address: c.Address}, nil
	case KindCompany:
		return CompanyProfile{TaxID: c.TaxID, LegalName: c.LegalName, Activity: c.Activity, Address: c.Address}, nil
	default:
		return nil, domain.ErrInvalidInput
	}
}

// BillingName nombre a imprimir en el documento: razón social para empresa,
// nombre del cliente para persona natural.
func (c *Customer) BillingName() string {
	if c.Kind == KindCompany && c.LegalName != "" {
		return c.LegalName
	}
	return c.Name
}
