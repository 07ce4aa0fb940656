package analytics

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrInvalidLog = errors.New("analytics: invalid log")

// Kind names a log type.
type Kind string

const (
	KindError     Kind = "error"
	KindEvent     Kind = "event"
	KindPageview  Kind = "pageview"
	KindEcommerce Kind = "ecommerce"
)

// ParseKind accepts any letter case.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindError, KindEvent, KindPageview, KindEcommerce:
		return k, true
	default:
		return "", false
	}
}

// Entry is one stored log. Exactly one payload field is set, matching Kind.
type Entry struct {
	Time        time.Time     `json:"time"`
	Error       *ErrorLog     `json:"error,omitempty"`
	Event       *EventLog     `json:"event,omitempty"`
	Pageview    *PageviewLog  `json:"pageview,omitempty"`
	Ecommerce   *EcommerceLog `json:"ecommerce,omitempty"`
	ID          string        `json:"id"`
	Kind        Kind          `json:"kind"`
	VisitorID   string        `json:"visitor_id,omitempty"`
	UserID      string        `json:"user_id,omitempty"`
	Transaction string        `json:"transaction,omitempty"`
}

// Payload returns the populated payload.
func (e Entry) Payload() any {
	switch e.Kind {
	case KindError:
		return e.Error
	case KindEvent:
		return e.Event
	case KindPageview:
		return e.Pageview
	case KindEcommerce:
		return e.Ecommerce
	default:
		return nil
	}
}

// ErrorLog describes a failure, server side or reported by a browser.
type ErrorLog struct {
	Type    string `json:"type" validate:"required,max=64"`
	Message string `json:"message" validate:"required,max=4096"`
	Code    string `json:"code,omitempty" validate:"max=64"`
	File    string `json:"file,omitempty" validate:"max=1024"`
	Line    int    `json:"line,omitempty" validate:"gte=0"`
}

// EventLog is a user interaction.
type EventLog struct {
	Value    *float64 `json:"value,omitempty"`
	Category string   `json:"category" validate:"required,max=255"`
	Action   string   `json:"action" validate:"required,max=255"`
	Name     string   `json:"name,omitempty" validate:"max=255"`
}

// PageviewLog is a page view. Host and Path are derived from URL.
type PageviewLog struct {
	URL      string `json:"url" validate:"required,url"`
	Referrer string `json:"referrer,omitempty" validate:"omitempty,url"`
	Host     string `json:"host" validate:"required"`
	Path     string `json:"path" validate:"required,startswith=/"`
}

// NewPageview derives Host and Path from rawURL. A path without a leading
// slash gets one.
func NewPageview(rawURL, referrer string) (PageviewLog, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PageviewLog{}, fmt.Errorf("%w: url: %w", ErrInvalidLog, err)
	}
	path := u.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return PageviewLog{URL: rawURL, Referrer: referrer, Host: u.Host, Path: path}, nil
}

// EcommerceLog is a completed order.
type EcommerceLog struct {
	Items    []EcommerceItem `json:"items,omitempty" validate:"-"`
	ID       string          `json:"id" validate:"required,max=255"`
	Previous string          `json:"previous,omitempty" validate:"max=255"`
	Revenue  float64         `json:"revenue" validate:"gte=0"`
	Subtotal float64         `json:"subtotal,omitempty" validate:"gte=0"`
	Shipping float64         `json:"shipping,omitempty" validate:"gte=0"`
	Tax      float64         `json:"tax,omitempty" validate:"gte=0"`
	Discount float64         `json:"discount,omitempty" validate:"gte=0"`
}

// EcommerceItem is one order line.
type EcommerceItem struct {
	ID       string  `json:"id" validate:"required,max=255"`
	Category string  `json:"category,omitempty" validate:"max=255"`
	Name     string  `json:"name" validate:"required,max=255"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

var validate = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// Validate checks a log payload.
func Validate(v any) error {
	if err := validate().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLog, err)
	}
	return nil
}

// ValidItems drops invalid order lines.
func (l *EcommerceLog) ValidItems() {
	kept := l.Items[:0]
	for _, it := range l.Items {
		if Validate(it) == nil {
			kept = append(kept, it)
		}
	}
	l.Items = kept
}
