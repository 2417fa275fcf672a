package postgres

import (
	"context"
	"fmt"

	"github.com/pozinox/tienda-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo contador atómico por clave sobre la tabla sequences. El upsert
// con RETURNING resuelve la carrera en el servidor: dos llamadas concurrentes
// con la misma clave reciben valores distintos, sin lock explícito ni retry.
type SequenceRepo struct {
	q Querier
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next incrementa y devuelve el contador de la clave, partiendo de 1.
func (r *SequenceRepo) Next(ctx context.Context, key string) (int64, error) {
	query := `
		INSERT INTO sequences (key, value) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET value = sequences.value + 1
		RETURNING value`
	var n int64
	if err := r.q.QueryRow(ctx, query, key).Scan(&n); err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", key, err)
	}
	return n, nil
}
