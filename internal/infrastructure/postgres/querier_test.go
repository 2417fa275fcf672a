package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores de Postgres
// ──────────────────────────────────────────────────────────────────────────────

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "external_sales_preference_id_key"}
	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert sale: %w", unique)),
		"también envuelto en el error del repo")

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "customers_user_id_fkey"}
	assert.False(t, isUniqueViolation(fk), "violación de FK no es duplicado")
	assert.False(t, isUniqueViolation(errors.New("conexión rechazada")))
	assert.False(t, isUniqueViolation(nil))
}

// ──────────────────────────────────────────────────────────────────────────────
// Columnas opcionales con FK
// ──────────────────────────────────────────────────────────────────────────────

// Un cliente importado por el canal externo no tiene cuenta de acceso: su
// user_id debe insertarse como NULL, nunca como '' (un '' rompería la FK a
// users y abortaría la transacción del importador completa).
func TestNullIfEmpty_UserIDSinCuenta(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "u-1", nullIfEmpty("u-1"))
}
