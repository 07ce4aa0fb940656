// Package controllers holds controllers shipped with edmunds.
package controllers

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/edmunds-dev/edmunds/internal"
	"github.com/edmunds-dev/edmunds/pkg/analytics"
	"github.com/edmunds-dev/edmunds/pkg/routing"
	"github.com/edmunds-dev/edmunds/pkg/sanitizer"
)

// LogPath is where LogController is usually mounted.
const LogPath = "log"

// maxLogBody caps the size of a posted log.
const maxLogBody = 64 << 10

// browserErrorType is the ErrorLog type of errors reported by clients.
const browserErrorType = "Javascript"

// LogController accepts analytics logs posted by browsers:
//
//	POST /log/error      message, code, file, line
//	POST /log/event      category, action, name, value
//	POST /log/pageview   url, referrer
//	POST /log/ecommerce  id, revenue, subtotal, shipping, tax, discount, previous, items
//
// Input is JSON or a form. In forms every "items" value is one JSON encoded
// order line. The response records whether the log was accepted as
// "success"; invalid input is not an error.
type LogController struct {
	internal.BaseController
}

// NewLogController creates a LogController.
func NewLogController() *LogController { return &LogController{} }

func (*LogController) Routes() routing.Routes[internal.Action[*LogController]] {
	return routing.Routes[internal.Action[*LogController]]{
		0: {
			routing.RootRoute: {
				Verbs:   []routing.Verb{routing.VerbPost},
				Params:  []string{`(?i:error|event|pageview|ecommerce)`},
				Handler: (*LogController).post,
			},
		},
	}
}

func (lc *LogController) post(c internal.Context, p routing.Params) (any, error) {
	kind, ok := analytics.ParseKind(p.String(0))
	if !ok {
		return false, nil
	}

	in, err := readInput(c)
	if err != nil {
		c.LogDebug("unreadable log input", "kind", kind, "error", err)
		return false, nil
	}
	in.sanitize()

	tracker := c.Tracker()
	switch kind {
	case analytics.KindError:
		err = tracker.ErrorLog(c, in.errorLog())
	case analytics.KindEvent:
		err = tracker.Event(c, in.eventLog())
	case analytics.KindPageview:
		var l analytics.PageviewLog
		if l, err = analytics.NewPageview(in.URL, in.Referrer); err == nil {
			err = tracker.Pageview(c, l)
		}
	case analytics.KindEcommerce:
		err = tracker.Ecommerce(c, in.ecommerceLog())
	}
	if err != nil {
		c.LogDebug("rejected log", "kind", kind, "error", err)
		return false, nil
	}
	return true, nil
}

// logInput is the union of every log kind's fields.
type logInput struct {
	Value    *float64                  `json:"value"`
	Line     *int                      `json:"line"`
	Message  string                    `json:"message"`
	Code     any                       `json:"code"`
	File     string                    `json:"file"`
	Category string                    `json:"category"`
	Action   string                    `json:"action"`
	Name     string                    `json:"name"`
	URL      string                    `json:"url"`
	Referrer string                    `json:"referrer"`
	ID       string                    `json:"id"`
	Previous string                    `json:"previous"`
	Items    []analytics.EcommerceItem `json:"items"`
	Revenue  float64                   `json:"revenue"`
	Subtotal float64                   `json:"subtotal"`
	Shipping float64                   `json:"shipping"`
	Tax      float64                   `json:"tax"`
	Discount float64                   `json:"discount"`
}

// sanitize strips markup from the free text fields.
func (in *logInput) sanitize() {
	sanitizer.Fields(&in.Message, &in.File, &in.Category, &in.Action, &in.Name, &in.ID, &in.Previous)
	if s, ok := in.Code.(string); ok {
		in.Code = sanitizer.Text(s)
	}
	for i := range in.Items {
		sanitizer.Fields(&in.Items[i].ID, &in.Items[i].Category, &in.Items[i].Name)
	}
}

func (in logInput) errorLog() analytics.ErrorLog {
	l := analytics.ErrorLog{
		Type:    browserErrorType,
		Message: in.Message,
		File:    in.File,
	}
	if in.Code != nil {
		l.Code = fmt.Sprint(in.Code)
	}
	if in.Line != nil {
		l.Line = *in.Line
	}
	return l
}

func (in logInput) eventLog() analytics.EventLog {
	return analytics.EventLog{
		Category: in.Category,
		Action:   in.Action,
		Name:     in.Name,
		Value:    in.Value,
	}
}

func (in logInput) ecommerceLog() analytics.EcommerceLog {
	return analytics.EcommerceLog{
		ID:       in.ID,
		Previous: in.Previous,
		Revenue:  in.Revenue,
		Subtotal: in.Subtotal,
		Shipping: in.Shipping,
		Tax:      in.Tax,
		Discount: in.Discount,
		Items:    in.Items,
	}
}

func readInput(c internal.Context) (logInput, error) {
	r := c.Request()
	r.Body = http.MaxBytesReader(c.Response(), r.Body, maxLogBody)

	var in logInput
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		err := dec.Decode(&in)
		return in, err
	}

	if err := r.ParseForm(); err != nil {
		return in, err
	}
	f := r.PostForm

	in.Message = f.Get("message")
	if code := f.Get("code"); code != "" {
		in.Code = code
	}
	in.File = f.Get("file")
	if v, ok := routing.Convert[int](f.Get("line")); ok {
		in.Line = &v
	}
	in.Category = f.Get("category")
	in.Action = f.Get("action")
	in.Name = f.Get("name")
	if v, ok := routing.Convert[float64](f.Get("value")); ok {
		in.Value = &v
	}
	in.URL = f.Get("url")
	in.Referrer = f.Get("referrer")
	in.ID = f.Get("id")
	in.Previous = f.Get("previous")
	in.Revenue, _ = routing.Convert[float64](f.Get("revenue"))
	in.Subtotal, _ = routing.Convert[float64](f.Get("subtotal"))
	in.Shipping, _ = routing.Convert[float64](f.Get("shipping"))
	in.Tax, _ = routing.Convert[float64](f.Get("tax"))
	in.Discount, _ = routing.Convert[float64](f.Get("discount"))

	for _, raw := range f["items"] {
		var item analytics.EcommerceItem
		if json.Unmarshal([]byte(raw), &item) == nil {
			in.Items = append(in.Items, item)
		}
	}
	return in, nil
}
