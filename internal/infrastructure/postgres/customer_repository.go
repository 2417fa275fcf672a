package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pozinox/tienda-api/internal/domain"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `id, user_id, kind, name, email, phone, tax_id, address, legal_name, activity, active, created_at, updated_at`

// user_id es NULL para clientes importados sin cuenta; hacia la entidad se
// normaliza a string vacío.
const customerSelect = `id, COALESCE(user_id, ''), kind, name, email, phone, tax_id, address, legal_name, activity, active, created_at, updated_at`

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	err := row.Scan(&c.ID, &c.UserID, &c.Kind, &c.Name, &c.Email, &c.Phone,
		&c.TaxID, &c.Address, &c.LegalName, &c.Activity, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	return &c, nil
}

// Create persiste un cliente.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		c.ID, nullIfEmpty(c.UserID), c.Kind, c.Name, c.Email, c.Phone,
		c.TaxID, c.Address, c.LegalName, c.Activity, c.Active, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	query := `SELECT ` + customerSelect + ` FROM customers WHERE id = $1`
	return scanCustomer(r.q.QueryRow(ctx, query, id))
}

// GetByUserID obtiene el cliente asociado a una cuenta de acceso.
func (r *CustomerRepo) GetByUserID(ctx context.Context, userID string) (*entity.Customer, error) {
	query := `SELECT ` + customerSelect + ` FROM customers WHERE user_id = $1`
	return scanCustomer(r.q.QueryRow(ctx, query, userID))
}

// GetByEmail obtiene un cliente por email (lo usa el importador de ventas externas).
func (r *CustomerRepo) GetByEmail(ctx context.Context, email string) (*entity.Customer, error) {
	query := `SELECT ` + customerSelect + ` FROM customers WHERE email = $1`
	return scanCustomer(r.q.QueryRow(ctx, query, email))
}

// Update actualiza un cliente.
func (r *CustomerRepo) Update(ctx context.Context, c *entity.Customer) error {
	query := `
		UPDATE customers SET kind = $2, name = $3, email = $4, phone = $5,
			tax_id = $6, address = $7, legal_name = $8, activity = $9, active = $10, updated_at = $11
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Kind, c.Name, c.Email, c.Phone,
		c.TaxID, c.Address, c.LegalName, c.Activity, c.Active, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}
