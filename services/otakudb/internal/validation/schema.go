// Package validation checks client input against the create, partial update and
// lookup schemas of the anime resource.
package validation

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/otakudb/services/otakudb/internal/domain"
)

type kind int

const (
	kindInteger kind = iota
	kindNumber
	kindString
	kindStrings
)

// rule describes one field of a schema.
type rule struct {
	name     string
	kind     kind
	required bool
	// nullable fields take null or "" as "no value".
	nullable bool
	// constraint is a go-playground/validator tag checked after type coercion.
	constraint string
}

// Schema is an ordered set of field rules. Unknown fields are refused.
type Schema struct {
	name  string
	rules []rule
}

func (s *Schema) String() string { return s.name }

const maxText = "max=255"

// Create is the schema of a full record submitted on creation.
var Create = &Schema{name: "create", rules: []rule{
	{name: domain.FieldUID, kind: kindInteger, required: true},
	{name: domain.FieldTitle, kind: kindString, required: true, constraint: maxText},
	{name: domain.FieldSynopsis, kind: kindString, nullable: true},
	{name: domain.FieldGenre, kind: kindStrings, required: true},
	{name: domain.FieldAired, kind: kindString, nullable: true},
	{name: domain.FieldEpisodes, kind: kindInteger, nullable: true},
	{name: domain.FieldMembers, kind: kindInteger, nullable: true},
	{name: domain.FieldPopularity, kind: kindInteger, nullable: true},
	{name: domain.FieldRanked, kind: kindInteger, nullable: true},
	{name: domain.FieldScore, kind: kindNumber, nullable: true, constraint: "gte=0,lte=10"},
	{name: domain.FieldImgURL, kind: kindString, nullable: true, constraint: "url"},
	{name: domain.FieldLink, kind: kindString, nullable: true, constraint: "url"},
}}

// Patch is the schema of a partial update. Every field is optional; id and uid
// are accepted here only so the query builder can strip them as immutable.
var Patch = &Schema{name: "patch", rules: []rule{
	{name: domain.FieldID, kind: kindInteger},
	{name: domain.FieldUID, kind: kindInteger},
	{name: domain.FieldTitle, kind: kindString, constraint: maxText},
	{name: domain.FieldSynopsis, kind: kindString, nullable: true},
	{name: domain.FieldGenre, kind: kindStrings},
	{name: domain.FieldAired, kind: kindString, nullable: true},
	{name: domain.FieldEpisodes, kind: kindInteger, nullable: true},
	{name: domain.FieldMembers, kind: kindInteger, nullable: true},
	{name: domain.FieldPopularity, kind: kindInteger, nullable: true},
	{name: domain.FieldRanked, kind: kindInteger, nullable: true},
	{name: domain.FieldScore, kind: kindNumber, nullable: true, constraint: "gte=0,lte=10"},
	{name: domain.FieldImgURL, kind: kindString, nullable: true, constraint: "url"},
	{name: domain.FieldLink, kind: kindString, nullable: true, constraint: "url"},
}}

// Lookup is the schema of the search query parameters. Empty values count as absent.
var Lookup = &Schema{name: "lookup", rules: []rule{
	{name: domain.FieldID, kind: kindInteger, nullable: true, constraint: "gt=0"},
	{name: domain.FieldGenre, kind: kindString, nullable: true, constraint: maxText},
	{name: domain.FieldTitle, kind: kindString, nullable: true, constraint: maxText},
}}

// Target selects the lookup's id parameter alone, for operations addressed by id.
var Target = &Schema{name: "target", rules: []rule{
	{name: domain.FieldID, kind: kindInteger, required: true, constraint: "gt=0"},
}}

var validate = validator.New()

// Validate checks in against s. It returns the typed fields in input order, or
// every failure in schema order followed by unknown fields in input order.
func Validate(s *Schema, in Input) ([]domain.Field, []string) {
	fields, errs := Check(s, in)
	return fields, Messages(errs)
}

// Check is Validate returning structured errors.
func Check(s *Schema, in Input) ([]domain.Field, []FieldError) {
	var errs []FieldError
	typed := make(map[string]any, len(s.rules))
	known := make(map[string]bool, len(s.rules))

	for _, r := range s.rules {
		known[r.name] = true
		raw, ok := in.Get(r.name)
		if !ok {
			if r.required {
				errs = append(errs, FieldError{Field: r.name, Category: CatRequired})
			}
			continue
		}
		v, ferr := r.coerce(raw)
		if ferr != nil {
			errs = append(errs, *ferr)
			continue
		}
		typed[r.name] = v
	}
	for _, p := range in {
		if !known[p.Name] {
			errs = append(errs, FieldError{Field: p.Name, Category: CatUnknown})
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	fields := make([]domain.Field, 0, len(typed))
	for _, p := range in {
		fields = append(fields, domain.Field{Name: p.Name, Value: typed[p.Name]})
	}
	return fields, nil
}

func (r rule) coerce(raw any) (any, *FieldError) {
	if isBlank(raw) {
		switch {
		case r.nullable:
			return nil, nil
		case r.required:
			return nil, r.fail(CatRequired, "")
		}
	}

	var (
		v   any
		cat string
	)
	switch r.kind {
	case kindInteger:
		v, cat = toInteger(raw)
	case kindNumber:
		v, cat = toNumber(raw)
	case kindString:
		v, cat = toString(raw)
	case kindStrings:
		v, cat = toStrings(raw)
	}
	if cat != "" {
		return nil, r.fail(cat, "")
	}
	if r.constraint == "" {
		return v, nil
	}
	if err := validate.Var(v, r.constraint); err != nil {
		return nil, r.constraintFailure(err)
	}
	return v, nil
}

func (r rule) fail(cat, limit string) *FieldError {
	return &FieldError{Field: r.name, Category: cat, Limit: limit}
}

// constraintFailure maps the failing validator tag onto a category.
func (r rule) constraintFailure(err error) *FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return r.fail(CatUnknown, "")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "max":
		return r.fail(CatStringMax, fe.Param())
	case "gte", "min":
		return r.fail(CatNumberMin, fe.Param())
	case "lte":
		return r.fail(CatNumberMax, fe.Param())
	case "gt":
		return r.fail(CatNumberPositive, fe.Param())
	case "url", "uri":
		return r.fail(CatStringURI, "")
	default:
		return r.fail(CatUnknown, fe.Param())
	}
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && s == ""
}

// numericText returns the textual form of a JSON number or numeric string.
func numericText(raw any) (string, bool) {
	switch v := raw.(type) {
	case json.Number:
		return v.String(), true
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	default:
		return "", false
	}
}

func toInteger(raw any) (any, string) {
	s, ok := numericText(raw)
	if !ok {
		return nil, CatNumberBase
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, CatNumberBase
	}
	if f != math.Trunc(f) {
		return nil, CatNumberInteger
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, CatUnknown
	}
	return int64(f), ""
}

func toNumber(raw any) (any, string) {
	s, ok := numericText(raw)
	if !ok {
		return nil, CatNumberBase
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, CatNumberBase
	}
	return f, ""
}

func toString(raw any) (any, string) {
	s, ok := raw.(string)
	if !ok {
		return nil, CatStringBase
	}
	if s == "" {
		return nil, CatStringEmpty
	}
	return s, ""
}

func toStrings(raw any) (any, string) {
	items, ok := raw.([]any)
	if !ok {
		return nil, CatArrayBase
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, CatArrayIncludes
		}
		out = append(out, s)
	}
	return out, ""
}
