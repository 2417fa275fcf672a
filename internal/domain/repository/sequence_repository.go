package repository

import "context"

// SequenceRepository entrega correlativos monotónicos por clave mediante un
// contador atómico en DB. Dos llamadas concurrentes con la misma clave nunca
// devuelven el mismo valor, y nunca hay huecos por carrera (sí puede haberlos
// si la transacción que consumió el número termina en rollback).
type SequenceRepository interface {
	// Next incrementa y devuelve el contador de la clave, partiendo de 1.
	Next(ctx context.Context, key string) (int64, error)
}
