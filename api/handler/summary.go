package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/pkg/httpcontext"
	summaryUC "github.com/fastygo/moneytracker/usecase/summary"
)

type SummaryHandler struct {
	baseHandler
	uc *summaryUC.UseCase
}

func NewSummaryHandler(uc *summaryUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *SummaryHandler {
	return &SummaryHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Monthly income and expense projection
// @Tags summary
// @Router /api/v1/summary/monthly [get]
func (h *SummaryHandler) Monthly(ctx *fasthttp.RequestCtx) {
	now := time.Now().UTC()
	year, err := intArgOr(ctx.QueryArgs().Peek("year"), now.Year())
	if err != nil {
		h.badRequest(ctx, "year must be an integer")
		return
	}
	month, err := intArgOr(ctx.QueryArgs().Peek("month"), int(now.Month()))
	if err != nil {
		h.badRequest(ctx, "month must be an integer")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	summary, err := h.uc.Monthly(stdCtx, year, month)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, summary)
}

func intArgOr(raw []byte, fallback int) (int, error) {
	if len(raw) == 0 {
		return fallback, nil
	}
	return strconv.Atoi(string(raw))
}
