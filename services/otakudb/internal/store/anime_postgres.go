package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/example/otakudb/services/otakudb/internal/domain"
	"github.com/example/otakudb/services/otakudb/internal/query"
)

// PostgresAnimeStore persists anime in Postgres.
type PostgresAnimeStore struct {
	db DB
}

// NewPostgresAnimeStore creates a store backed by db, usually a *pgxpool.Pool.
func NewPostgresAnimeStore(db DB) *PostgresAnimeStore {
	return &PostgresAnimeStore{db: db}
}

func (s *PostgresAnimeStore) Lookup(ctx context.Context, l query.Lookup) ([]domain.Anime, error) {
	st, err := query.Select(l)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, st.SQL, st.Args...)
	if err != nil {
		return nil, fmt.Errorf("query animes: %w", err)
	}
	defer rows.Close()

	out := []domain.Anime{}
	for rows.Next() {
		a, err := scanAnime(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate animes: %w", err)
	}
	return out, nil
}

func (s *PostgresAnimeStore) Create(ctx context.Context, a domain.Anime) (domain.Anime, error) {
	st, err := query.Insert(a)
	if err != nil {
		return domain.Anime{}, err
	}
	out, err := scanAnime(s.db.QueryRow(ctx, st.SQL, st.Args...))
	if err != nil {
		return domain.Anime{}, fmt.Errorf("insert anime: %w", err)
	}
	return out, nil
}

func (s *PostgresAnimeStore) Update(ctx context.Context, id int64, assignments []domain.Field) error {
	st, err := query.Update(id, assignments)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, st.SQL, st.Args...)
	if err != nil {
		return fmt.Errorf("update anime %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresAnimeStore) Delete(ctx context.Context, id int64) error {
	st, err := query.Delete(id)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, st.SQL, st.Args...)
	if err != nil {
		return fmt.Errorf("delete anime %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresAnimeStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// scanAnime reads one row laid out as domain.Columns.
func scanAnime(row pgx.Row) (domain.Anime, error) {
	var (
		a     domain.Anime
		genre string
	)
	err := row.Scan(&a.ID, &a.UID, &a.Title, &a.Synopsis, &genre, &a.Aired,
		&a.Episodes, &a.Members, &a.Popularity, &a.Ranked, &a.Score, &a.ImgURL, &a.Link)
	if err != nil {
		return domain.Anime{}, fmt.Errorf("scan anime: %w", err)
	}
	if a.Genre, err = query.DecodeGenre(genre); err != nil {
		return domain.Anime{}, err
	}
	return a, nil
}
