package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
)

// ErrNotObject is returned when a request body is not a single JSON object.
var ErrNotObject = errors.New("request body must be a JSON object")

// Pair is one named raw value as received from the client.
type Pair struct {
	Name  string
	Value any
}

// Input is an ordered bag of raw values. Order is the order in which the
// client supplied the keys, which drives the column order of updates.
type Input []Pair

// Get returns the raw value for name.
func (in Input) Get(name string) (any, bool) {
	for _, p := range in {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// set replaces an existing key in place, keeping its first position.
func (in Input) set(name string, v any) Input {
	for i := range in {
		if in[i].Name == name {
			in[i].Value = v
			return in
		}
	}
	return append(in, Pair{Name: name, Value: v})
}

// DecodeObject reads one JSON object from r keeping key order. Numbers are kept
// as json.Number so integers are never rounded through float64. An empty body
// decodes to an empty Input.
func DecodeObject(r io.Reader) (Input, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return Input{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotObject
	}

	in := Input{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, ErrNotObject
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		in = in.set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrNotObject
	}
	return in, nil
}

// FromQuery converts query parameters into an Input, sorted by name. A
// parameter given more than once keeps all its values, which no schema accepts.
func FromQuery(q url.Values) Input {
	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	sort.Strings(names)

	in := make(Input, 0, len(names))
	for _, name := range names {
		vals := q[name]
		switch len(vals) {
		case 0:
			continue
		case 1:
			in = append(in, Pair{Name: name, Value: vals[0]})
		default:
			multi := make([]any, len(vals))
			for i, v := range vals {
				multi[i] = v
			}
			in = append(in, Pair{Name: name, Value: multi})
		}
	}
	return in
}
