package validation

import "fmt"

// Failure categories. They name the structural reason a value was refused.
const (
	CatNumberBase     = "number.base"
	CatNumberInteger  = "number.integer"
	CatNumberMin      = "number.min"
	CatNumberMax      = "number.max"
	CatNumberPositive = "number.positive"
	CatStringBase     = "string.base"
	CatStringEmpty    = "string.empty"
	CatStringMax      = "string.max"
	CatStringURI      = "string.uri"
	CatRequired       = "any.required"
	CatUnknown        = "object.unknown"
	CatArrayBase      = "array.base"
	CatArrayIncludes  = "array.includes"
)

// FieldError is one failed field.
type FieldError struct {
	Field    string
	Category string
	Limit    string
}

// Message renders the error as a sentence naming the field and, where one
// applies, the violated limit.
func (e FieldError) Message() string {
	f := e.Field
	switch e.Category {
	case CatNumberBase:
		return fmt.Sprintf("field %q must be a number", f)
	case CatNumberInteger:
		return fmt.Sprintf("field %q must be an integer", f)
	case CatNumberMin:
		return fmt.Sprintf("field %q must be greater than or equal to %s", f, e.Limit)
	case CatNumberMax:
		return fmt.Sprintf("field %q must be less than or equal to %s", f, e.Limit)
	case CatNumberPositive:
		return fmt.Sprintf("field %q must be a positive number (greater than zero)", f)
	case CatStringBase:
		return fmt.Sprintf("field %q must be a string", f)
	case CatStringMax:
		return fmt.Sprintf("field %q must not exceed %s characters", f, e.Limit)
	case CatStringURI:
		return fmt.Sprintf("field %q must be a valid URI", f)
	case CatRequired:
		return fmt.Sprintf("field %q is required", f)
	case CatArrayBase:
		return fmt.Sprintf("field %q must be an array", f)
	case CatArrayIncludes:
		return fmt.Sprintf("field %q contains invalid items", f)
	default:
		return fmt.Sprintf("invalid value for field %q", f)
	}
}

// Messages renders a list of field errors.
func Messages(errs []FieldError) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message()
	}
	return out
}
