// Package store persists anime records.
package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/otakudb/services/otakudb/internal/domain"
	"github.com/example/otakudb/services/otakudb/internal/query"
)

// ErrNotFound is returned when a write addresses a record that does not exist.
var ErrNotFound = errors.New("anime not found")

// AnimeStore defines the contract for anime persistence.
type AnimeStore interface {
	Lookup(ctx context.Context, l query.Lookup) ([]domain.Anime, error)
	Create(ctx context.Context, a domain.Anime) (domain.Anime, error)
	// Update writes assignments to the record with the given id. Both Update
	// and Delete return ErrNotFound when no row was affected.
	Update(ctx context.Context, id int64, assignments []domain.Field) error
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// DB is the subset of *pgxpool.Pool the Postgres store needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}
