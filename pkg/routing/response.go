package routing

import (
	"maps"
	"net/http"
)

// SuccessKey is where Invoke records a boolean action result.
const SuccessKey = "success"

// Response accumulates what a controller wants to send back.
// It is owned by a single request.
type Response struct {
	values   map[string]any
	redirect string
	view     string
	status   int
}

// NewResponse creates an empty response with status 200.
func NewResponse() *Response {
	return &Response{
		values: make(map[string]any),
		status: http.StatusOK,
	}
}

// Assign sets a response value.
func (r *Response) Assign(key string, value any) {
	r.values[key] = value
}

// Get returns a response value.
func (r *Response) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Values returns a copy of all assigned values.
func (r *Response) Values() map[string]any {
	return maps.Clone(r.values)
}

// SetStatus sets the HTTP status code used when rendering.
func (r *Response) SetStatus(code int) {
	if code > 0 {
		r.status = code
	}
}

// Status returns the HTTP status code.
func (r *Response) Status() int { return r.status }

// Redirect makes the response a redirect to url.
func (r *Response) Redirect(url string) {
	r.redirect = url
}

// RedirectURL returns the redirect target, if any.
func (r *Response) RedirectURL() string { return r.redirect }

// View selects the view to render with the assigned values.
func (r *Response) View(name string) {
	r.view = name
}

// ViewName returns the selected view, if any.
func (r *Response) ViewName() string { return r.view }
