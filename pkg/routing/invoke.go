package routing

import "errors"

// Lifecycle is implemented by controllers. C is the request context type.
type Lifecycle[C any] interface {
	Initialize(c C) error
	Finalize(c C) error
}

// Invoke runs one controller action.
//
// The shared default controller is initialized first and finalized last,
// wrapping the target controller. A boolean result is recorded on resp
// under SuccessKey; any other result is returned as is. An initialize error
// skips the action. An action error still finalizes every initialized
// controller. All errors are joined. def may be nil.
func Invoke[C any](c C, def, ctrl Lifecycle[C], action func() (any, error), resp *Response) (any, error) {
	initialized := make([]Lifecycle[C], 0, 2)
	for _, l := range []Lifecycle[C]{def, ctrl} {
		if l == nil {
			continue
		}
		if err := l.Initialize(c); err != nil {
			return nil, finalize(c, initialized, err)
		}
		initialized = append(initialized, l)
	}

	result, err := action()
	if err == nil {
		if ok, isBool := result.(bool); isBool {
			resp.Assign(SuccessKey, ok)
			result = nil
		}
	}

	return result, finalize(c, initialized, err)
}

// finalize runs Finalize in reverse initialization order.
func finalize[C any](c C, initialized []Lifecycle[C], err error) error {
	errs := []error{err}
	for i := len(initialized) - 1; i >= 0; i-- {
		errs = append(errs, initialized[i].Finalize(c))
	}
	return errors.Join(errs...)
}
