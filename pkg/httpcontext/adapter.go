// Package httpcontext turns a fasthttp request into the context.Context the
// ledger use cases run under.
package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/moneytracker/pkg/logger"
)

const (
	// HeaderRequestID carries the correlation id in both directions.
	HeaderRequestID = "X-Request-ID"

	DefaultTimeout     = 5 * time.Second
	maxRequestIDLength = 128
)

// Adapter bounds every request by a deadline and tags it with a request id.
type Adapter struct {
	timeout time.Duration
	newID   func() string
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Adapter{timeout: timeout, newID: uuid.NewString}
}

// Attach returns the request context and echoes the request id on the
// response. A caller supplied id is kept only if it is a short printable
// token; anything else is replaced so it cannot forge log lines.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	requestID := a.requestID(&ctx.Request.Header)
	ctx.Response.Header.Set(HeaderRequestID, requestID)

	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
	return logger.ContextWithRequestID(stdCtx, requestID), cancel
}

func (a *Adapter) requestID(header *fasthttp.RequestHeader) string {
	if id := strings.TrimSpace(string(header.Peek(HeaderRequestID))); validRequestID(id) {
		return id
	}
	return a.newID()
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}
