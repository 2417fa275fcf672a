package domain

import "errors"

// Errores de dominio (sin dependencias externas).
//
// ErrStateConflict cubre transiciones inválidas para el estado actual;
// cuando la reaplicación es semánticamente segura (p. ej. volver a aplicar
// "approved" sobre una cotización ya pagada) los casos de uso la tratan como
// no-op informativo en lugar de propagar este error.
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")
	ErrStateConflict   = errors.New("transición inválida para el estado actual")
	ErrQuoteExpired    = errors.New("la cotización está expirada")
	ErrEmptyQuote      = errors.New("la cotización no tiene productos")
	ErrExternalService = errors.New("error del servicio externo")
	// ErrBillingProfileIncomplete el perfil de facturación del cliente no tiene
	// los campos que exige su tipo de documento; la cotización queda pagada y
	// sin facturar hasta completar los datos.
	ErrBillingProfileIncomplete = errors.New("datos de facturación incompletos")

	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
)
