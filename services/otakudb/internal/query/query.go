// Package query turns validated anime input into parameterised SQL statements.
package query

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"

	"github.com/example/otakudb/services/otakudb/internal/domain"
)

const (
	dialectPostgres = "postgres"
	// Table is the relation holding the catalog.
	Table = "animes"
)

var (
	// ErrNoFields is returned when an update carries no fields at all.
	ErrNoFields = errors.New("no fields to update")
	// ErrImmutableOnly is returned when every provided field is immutable.
	ErrImmutableOnly = errors.New("only immutable fields provided")
)

// Statement is SQL text with its positional arguments.
type Statement struct {
	SQL  string
	Args []any
}

func dialect() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func columns(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

type sqler interface {
	ToSQL() (string, []any, error)
}

func build(ds sqler) (Statement, error) {
	sql, args, err := ds.ToSQL()
	if err != nil {
		return Statement{}, fmt.Errorf("build query: %w", err)
	}
	return Statement{SQL: sql, Args: args}, nil
}

// Select renders the statement for a lookup plan. Results are ordered by id.
func Select(l Lookup) (Statement, error) {
	ds := dialect().From(Table).Prepared(true).
		Select(columns(domain.Columns)...).
		Order(goqu.I(domain.FieldID).Asc())

	switch l.Kind {
	case ByID:
		ds = ds.Where(goqu.C(domain.FieldID).Eq(l.ID))
	case ByTitle:
		exprs := make([]goqu.Expression, 0, len(l.Tokens))
		for _, tok := range l.Tokens {
			exprs = append(exprs, goqu.C(domain.FieldTitle).ILike(Contains(tok)))
		}
		ds = ds.Where(goqu.And(exprs...))
	case ByGenre:
		ds = ds.Where(goqu.C(domain.FieldGenre).ILike(Contains(l.Genre)))
	}
	return build(ds)
}

// Insert renders the statement creating a. Every column except id is written
// and the stored row is returned.
func Insert(a domain.Anime) (Statement, error) {
	genre, err := EncodeGenre(a.Genre)
	if err != nil {
		return Statement{}, err
	}
	ds := dialect().Insert(Table).Prepared(true).
		Cols(columns(domain.Columns[1:])...).
		Vals(goqu.Vals{
			a.UID, a.Title, opt(a.Synopsis), genre, opt(a.Aired),
			opt(a.Episodes), opt(a.Members), opt(a.Popularity), opt(a.Ranked),
			opt(a.Score), opt(a.ImgURL), opt(a.Link),
		}).
		Returning(columns(domain.Columns)...)
	return build(ds)
}

// Delete renders the statement removing the record with the given id.
func Delete(id int64) (Statement, error) {
	ds := dialect().Delete(Table).Prepared(true).
		Where(goqu.C(domain.FieldID).Eq(id))
	return build(ds)
}

// PrepareUpdate drops immutable fields from an update while keeping the order
// in which the rest were provided.
func PrepareUpdate(fields []domain.Field) ([]domain.Field, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	out := make([]domain.Field, 0, len(fields))
	for _, f := range fields {
		if domain.Immutable(f.Name) {
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, ErrImmutableOnly
	}
	return out, nil
}

// Update renders the statement writing assignments to the record with the
// given id. Columns are assigned in the order given. goqu sorts record keys,
// so the SET list is assembled here.
func Update(id int64, assignments []domain.Field) (Statement, error) {
	if len(assignments) == 0 {
		return Statement{}, ErrNoFields
	}
	var b strings.Builder
	args := make([]any, 0, len(assignments)+1)

	b.WriteString("UPDATE ")
	b.WriteString(pgx.Identifier{Table}.Sanitize())
	b.WriteString(" SET ")
	for i, f := range assignments {
		v := f.Value
		if f.Name == domain.FieldGenre {
			g, _ := v.([]string)
			enc, err := EncodeGenre(g)
			if err != nil {
				return Statement{}, err
			}
			v = enc
		}
		args = append(args, v)
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=$%d", pgx.Identifier{f.Name}.Sanitize(), len(args))
	}
	args = append(args, id)
	fmt.Fprintf(&b, " WHERE %s=$%d", pgx.Identifier{domain.FieldID}.Sanitize(), len(args))
	return Statement{SQL: b.String(), Args: args}, nil
}

// EncodeGenre serialises genres to the JSON array text stored in the genre column.
func EncodeGenre(genre []string) (string, error) {
	if genre == nil {
		genre = []string{}
	}
	b, err := json.Marshal(genre)
	if err != nil {
		return "", fmt.Errorf("encode genre: %w", err)
	}
	return string(b), nil
}

// DecodeGenre parses the stored genre text. Empty text yields an empty list.
func DecodeGenre(text string) ([]string, error) {
	out := []string{}
	if strings.TrimSpace(text) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("decode genre: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains returns an ILIKE pattern matching s as a literal substring.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func opt[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
