package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pozinox/tienda-api/internal/application/dto"
	appquote "github.com/pozinox/tienda-api/internal/application/quote"
	"github.com/pozinox/tienda-api/internal/domain/entity"
	"github.com/pozinox/tienda-api/internal/domain/repository"
	"github.com/pozinox/tienda-api/pkg/jwt"
)

// Locals keys para la identidad resuelta en Fiber.
const (
	LocalUserID     = "user_id"
	LocalRole       = "role"
	LocalCustomerID = "customer_id"
)

// AuthMiddleware valida el Bearer Token JWT y extrae UserID y Role a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		userID, role, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, userID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

// CustomerMiddleware resuelve el perfil de cliente del usuario autenticado y
// deja su id en c.Locals. El staff puede no tener perfil; no es error.
func CustomerMiddleware(customerRepo repository.CustomerRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID != "" {
			if customer, err := customerRepo.GetByUserID(c.Context(), userID); err == nil {
				c.Locals(LocalCustomerID, customer.ID)
			}
		}
		return c.Next()
	}
}

// RequireStaff exige rol trabajador o administrador.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role != entity.RoleTrabajador && role != entity.RoleAdministrador {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "requiere rol de staff"})
		}
		return c.Next()
	}
}

// RequireAdmin exige rol administrador.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetRole(c) != entity.RoleAdministrador {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "requiere rol administrador"})
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetRole devuelve el rol del contexto.
func GetRole(c *fiber.Ctx) string {
	v := c.Locals(LocalRole)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetCustomerID devuelve el id de cliente del contexto (puede ser vacío para staff).
func GetCustomerID(c *fiber.Ctx) string {
	v := c.Locals(LocalCustomerID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// getActor arma el actor de la petición para los casos de uso.
func getActor(c *fiber.Ctx) appquote.Actor {
	role := GetRole(c)
	return appquote.Actor{
		UserID:     GetUserID(c),
		CustomerID: GetCustomerID(c),
		IsStaff:    role == entity.RoleTrabajador || role == entity.RoleAdministrador,
	}
}
