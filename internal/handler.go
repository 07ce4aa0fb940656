package internal

// Handler declares explicit routes next to the controller dispatcher.
//
//	type Webhooks struct{}
//
//	func (h *Webhooks) Routes(r edmunds.Router) {
//	    r.POST("/webhooks/stripe", h.stripe)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc handles a request. A returned error goes to the ErrorHandler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc. Returning without calling next stops the chain.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler renders errors returned from handlers.
type ErrorHandler func(Context, error) error

// Renderer renders a named view with the response values.
// Templating itself lives outside the framework.
type Renderer interface {
	Render(c Context, code int, view string, data map[string]any) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(c Context, code int, view string, data map[string]any) error

func (f RendererFunc) Render(c Context, code int, view string, data map[string]any) error {
	return f(c, code, view, data)
}
