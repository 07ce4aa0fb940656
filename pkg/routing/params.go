package routing

import (
	"fmt"
	"reflect"
	"strconv"
)

// ValidateParams reports whether every params[i] fully matches specs[i].
// Patterns are anchored at both ends. Checking stops at the first failure.
// A count mismatch or an invalid pattern never validates.
func ValidateParams(specs, params []string) bool {
	if len(specs) != len(params) {
		return false
	}
	for i, spec := range specs {
		re, err := compilePattern(spec)
		if err != nil || !re.MatchString(params[i]) {
			return false
		}
	}
	return true
}

// Params holds the positional parameters extracted for a route, in order.
type Params []string

// Len returns the number of parameters.
func (p Params) Len() int { return len(p) }

// String returns the i-th parameter, or "" when out of range.
func (p Params) String(i int) string {
	if i < 0 || i >= len(p) {
		return ""
	}
	return p[i]
}

// Int parses the i-th parameter as an int.
func (p Params) Int(i int) (int, error) {
	return Param[int](p, i)
}

// Int64 parses the i-th parameter as an int64.
func (p Params) Int64(i int) (int64, error) {
	return Param[int64](p, i)
}

// Param converts the i-th parameter to T.
func Param[T ~string | ~int | ~int64 | ~float64 | ~bool](p Params, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(p) {
		return zero, fmt.Errorf("routing: parameter %d out of range", i)
	}
	v, ok := Convert[T](p[i])
	if !ok {
		return zero, fmt.Errorf("routing: parameter %d: cannot convert %q", i, p[i])
	}
	return v, nil
}

// Convert parses raw into T. It reports false when raw does not parse.
// Named types convert through their underlying kind.
func Convert[T ~string | ~int | ~int64 | ~float64 | ~bool](raw string) (T, bool) {
	var out T
	v := reflect.ValueOf(&out).Elem()
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return out, false
		}
		v.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return out, false
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return out, false
		}
		v.SetBool(b)
	default:
		return out, false
	}
	return out, true
}
