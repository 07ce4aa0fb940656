package internal

import "github.com/edmunds-dev/edmunds/pkg/routing"

// ContextValue returns the value stored under key as T, or T's zero value.
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

func Query[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string) T {
	v, _ := routing.Convert[T](c.Query(name))
	return v
}

// QueryDefault returns defaultValue when the parameter is empty or does not parse.
func QueryDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](c Context, name string, defaultValue T) T {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	v, ok := routing.Convert[T](raw)
	if !ok {
		return defaultValue
	}
	return v
}
