package shop

import (
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/petalandstem/storefront/internal/postgres"
)

type DB = postgres.DB

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// affectedOne turns a zero row count into ErrNotFound.
func affectedOne(n int64) error {
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func orDefault[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
