// Package ctx wraps a request/response pair so handlers take one argument:
//
//	func (h *OrderController) Index(c *ctx.Context) {
//	    orders, err := h.orders.ListOrders(c.Context(), c.Param("buyerUid"))
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.Success(orders)
//	}
//
//	router.Get("/orders/{buyerUid}", "orders.index", ctx.Wrap(h.Index))
package ctx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/bind"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap adapts h to http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context is valid only for the duration of the handler call.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W, c.R, c.status = w, r, 0
	return c
}

func release(c *Context) {
	c.W, c.R = nil, nil
	pool.Put(c)
}

// ─── Request ─────────────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value, or "".
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// ClientIP prefers the first X-Forwarded-For hop.
func (c *Context) ClientIP() string {
	if fwd := c.R.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	ip := c.R.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

func (c *Context) Context() context.Context { return c.R.Context() }

// BindJSON decodes and validates the body into dest. On failure it has
// already answered (400 or 422) and returns false.
//
//	var in PaymentInput
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.Error(http.StatusBadRequest, err.Error())
		return false
	}
	if len(errs) > 0 {
		c.status = http.StatusUnprocessableEntity
		response.ValidationError(c.W, errs)
		return false
	}
	return true
}

// ─── Response ────────────────────────────────────────────────────────────────

// JSON writes v as is, outside the envelope.
func (c *Context) JSON(code int, v any) {
	c.W.Header().Set("Content-Type", "application/json")
	c.W.WriteHeader(code)
	c.status = code
	json.NewEncoder(c.W).Encode(v) //nolint:errcheck
}

func (c *Context) Success(data any) {
	c.status = http.StatusOK
	response.Success(c.W, data)
}

func (c *Context) Created(data any) {
	c.status = http.StatusCreated
	response.Created(c.W, data)
}

func (c *Context) Error(code int, message string) {
	c.status = code
	response.Error(c.W, code, message)
}

// Fail answers with the status err carries.
func (c *Context) Fail(err error) {
	c.status = response.Status(err)
	response.FromError(c.W, c.R, err)
}

// FailWithData answers like Fail but keeps data in the envelope, for
// conflicts that return the record already in place. Use it for 4xx only.
func (c *Context) FailWithData(err error, data any) {
	c.status = response.Status(err)
	response.ErrorWithData(c.W, c.status, err.Error(), data)
}

// String writes a plain-text response.
func (c *Context) String(code int, format string, args ...any) {
	c.W.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.W.WriteHeader(code)
	c.status = code
	fmt.Fprintf(c.W, format, args...)
}

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
