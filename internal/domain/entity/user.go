package entity

import "time"

// Roles de usuario.
const (
	RoleCliente       = "cliente"
	RoleTrabajador    = "trabajador"
	RoleAdministrador = "administrador"
)

// User cuenta de acceso al sistema (cliente o staff).
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Status       string // "active" | "disabled"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsStaff indica si el usuario puede ejecutar acciones de back-office
// (verificar transferencias, facturar manualmente, avanzar preparación).
func (u *User) IsStaff() bool {
	return u.Role == RoleTrabajador || u.Role == RoleAdministrador
}
