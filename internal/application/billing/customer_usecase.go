package billing

import (
	"context"
	"time"

	"github.com/pozinox/tienda-api/internal/application/dto"
	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
)

// CustomerUseCase gestión del perfil de facturación del cliente. Completar el
// perfil es lo que habilita la emisión del documento; mientras falten campos
// el motor omite la facturación sin bloquear el pago.
type CustomerUseCase struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(customerRepo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{customerRepo: customerRepo}
}

// GetProfile devuelve el perfil del cliente asociado al usuario autenticado.
func (uc *CustomerUseCase) GetProfile(ctx context.Context, userID string) (*dto.CustomerResponse, error) {
	c, err := uc.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

// UpdateBillingProfile actualiza clasificación y datos de facturación.
func (uc *CustomerUseCase) UpdateBillingProfile(ctx context.Context, userID string, in dto.UpdateBillingProfileRequest) (*dto.CustomerResponse, error) {
	kind := entity.CustomerKind(in.Kind)
	if kind != entity.KindNaturalPerson && kind != entity.KindCompany {
		return nil, domain.ErrInvalidInput
	}
	c, err := uc.customerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.Kind = kind
	c.TaxID = in.TaxID
	c.Address = in.Address
	if in.Name != "" {
		c.Name = in.Name
	}
	if in.Phone != "" {
		c.Phone = in.Phone
	}
	if kind == entity.KindCompany {
		c.LegalName = in.LegalName
		c.Activity = in.Activity
	} else {
		c.LegalName = ""
		c.Activity = ""
	}
	c.UpdatedAt = time.Now()
	if err := uc.customerRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return toCustomerResponse(c), nil
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	resp := &dto.CustomerResponse{
		ID:        c.ID,
		Kind:      string(c.Kind),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		TaxID:     c.TaxID,
		Address:   c.Address,
		LegalName: c.LegalName,
		Activity:  c.Activity,
	}
	if profile, err := c.BillingProfile(); err == nil {
		resp.MissingBillingFields = profile.Validate()
	}
	return resp
}
