package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/api/transport"
	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/pkg/httpcontext"
	"github.com/fastygo/moneytracker/pkg/logger"
)

const dayLayout = "2006-01-02"

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondNoContent(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(http.StatusNoContent)
}

func (h baseHandler) respondError(stdCtx context.Context, ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.String("path", string(ctx.Path())),
			zap.Error(err))
		message = "internal error"
	}
	h.respondJSON(ctx, status, transport.NewError(code, message, nil))
}

func (h baseHandler) badRequest(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), message, nil))
}

func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.badRequest(ctx, "invalid payload")
		return false
	}
	return true
}

func (h baseHandler) pathID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	if strings.TrimSpace(id) == "" {
		h.badRequest(ctx, "missing id")
		return "", false
	}
	return id, true
}

func (h baseHandler) pageRequest(ctx *fasthttp.RequestCtx) (domain.PageRequest, bool) {
	args := ctx.QueryArgs()
	page := domain.PageRequest{}
	var err error
	if page.Number, err = parseIntArg(args.Peek("page")); err != nil {
		h.badRequest(ctx, "page must be an integer")
		return page, false
	}
	if page.Size, err = parseIntArg(args.Peek("pageSize")); err != nil {
		h.badRequest(ctx, "pageSize must be an integer")
		return page, false
	}
	return page, true
}

// respondPage writes the items as data and the paging figures as meta.
func respondPage[T any](h baseHandler, ctx *fasthttp.RequestCtx, page domain.PagedResult[T]) {
	meta := transport.PageMeta{
		Page:        page.PageNumber,
		PageSize:    page.PageSize,
		TotalCount:  page.TotalCount,
		TotalPages:  page.TotalPages(),
		HasPrevious: page.HasPrevious(),
		HasNext:     page.HasNext(),
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(page.Items, meta))
}

func mapError(err error) (int, string) {
	code := domain.CodeOf(err)
	switch code {
	case domain.ErrCodeInvalid, domain.ErrCodeInvalidReference, domain.ErrCodeDeserialization:
		return http.StatusBadRequest, string(code)
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, string(code)
	case domain.ErrCodeConflict:
		return http.StatusConflict, string(code)
	case domain.ErrCodeBusinessRule:
		return http.StatusUnprocessableEntity, string(code)
	case domain.ErrCodeUnavailable:
		return http.StatusServiceUnavailable, string(code)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

func parseIntArg(raw []byte) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	return strconv.Atoi(string(raw))
}

// parseDate accepts RFC 3339 timestamps and plain days.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(dayLayout, value)
	if err != nil {
		return time.Time{}, domain.NewInvalidArgument("date", "must be RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}

func optionalDate(raw []byte, field string) (*time.Time, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	t, err := parseDate(string(raw))
	if err != nil {
		return nil, domain.NewInvalidArgument(field, "must be RFC 3339 or YYYY-MM-DD")
	}
	return &t, nil
}
