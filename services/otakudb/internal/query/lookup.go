package query

import (
	"strings"

	"github.com/example/otakudb/services/otakudb/internal/domain"
)

// LookupKind selects the criterion a lookup filters on.
type LookupKind int

const (
	All LookupKind = iota
	ByID
	ByTitle
	ByGenre
)

// Lookup is a resolved search. Only the members matching Kind are set.
type Lookup struct {
	Kind   LookupKind
	ID     int64
	Title  string
	Tokens []string
	Genre  string
}

// PlanLookup picks the criterion from validated lookup fields. id wins over
// title, title over genre. Fields without a value are ignored.
func PlanLookup(fields []domain.Field) Lookup {
	var (
		id           *int64
		title, genre string
	)
	for _, f := range fields {
		switch v := f.Value.(type) {
		case int64:
			if f.Name == domain.FieldID {
				id = &v
			}
		case string:
			switch f.Name {
			case domain.FieldTitle:
				title = v
			case domain.FieldGenre:
				genre = v
			}
		}
	}

	if id != nil {
		return Lookup{Kind: ByID, ID: *id}
	}
	if tokens := strings.Fields(title); len(tokens) > 0 {
		return Lookup{Kind: ByTitle, Title: title, Tokens: tokens}
	}
	if genre != "" {
		return Lookup{Kind: ByGenre, Genre: genre}
	}
	return Lookup{Kind: All}
}

// Matches reports whether a satisfies l, using the same case-insensitive
// substring rules as the SQL rendering.
func (l Lookup) Matches(a domain.Anime) bool {
	switch l.Kind {
	case ByID:
		return a.ID == l.ID
	case ByTitle:
		title := strings.ToLower(a.Title)
		for _, tok := range l.Tokens {
			if !strings.Contains(title, strings.ToLower(tok)) {
				return false
			}
		}
		return true
	case ByGenre:
		text, err := EncodeGenre(a.Genre)
		if err != nil {
			return false
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(l.Genre))
	default:
		return true
	}
}
