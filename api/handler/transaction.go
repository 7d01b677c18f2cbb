package handler

import (
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/api/transport"
	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/pkg/httpcontext"
	transactionUC "github.com/fastygo/moneytracker/usecase/transaction"
)

type TransactionHandler struct {
	baseHandler
	uc *transactionUC.UseCase
}

func NewTransactionHandler(uc *transactionUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List transactions
// @Tags transactions
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(ctx *fasthttp.RequestCtx) {
	page, ok := h.pageRequest(ctx)
	if !ok {
		return
	}
	query, err := transactionQuery(ctx.QueryArgs())
	if err != nil {
		h.badRequest(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.List(stdCtx, query, page)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	respondPage(h.baseHandler, ctx, result)
}

// @Summary Create transaction
// @Tags transactions
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(ctx *fasthttp.RequestCtx) {
	in, ok := h.parseInput(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, in)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	ctx.Response.Header.Set("Location", "/api/v1/transactions/"+created.ID)
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get transaction
// @Tags transactions
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) Get(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

// @Summary Replace transaction
// @Tags transactions
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	in, ok := h.parseInput(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, id, in)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Patch transaction
// @Tags transactions
// @Router /api/v1/transactions/{id} [patch]
func (h *TransactionHandler) Patch(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req transport.TransactionPatchRequest
	if !h.decode(ctx, &req) {
		return
	}
	patch, err := toTransactionPatch(req)
	if err != nil {
		h.badRequest(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patched, err := h.uc.Patch(stdCtx, id, patch)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, patched)
}

// @Summary Delete transaction
// @Tags transactions
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, id); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

func (h *TransactionHandler) parseInput(ctx *fasthttp.RequestCtx) (transactionUC.Input, bool) {
	var req transport.TransactionRequest
	if !h.decode(ctx, &req) {
		return transactionUC.Input{}, false
	}
	kind, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		h.badRequest(ctx, err.Error())
		return transactionUC.Input{}, false
	}
	date, err := parseDate(req.Date)
	if err != nil {
		h.badRequest(ctx, err.Error())
		return transactionUC.Input{}, false
	}
	return transactionUC.Input{
		Amount:      req.Amount,
		Type:        kind,
		CategoryID:  req.CategoryID,
		PersonID:    req.PersonID,
		Date:        date,
		Description: req.Description,
	}, true
}

func toTransactionPatch(req transport.TransactionPatchRequest) (domain.TransactionPatch, error) {
	patch := domain.TransactionPatch{
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		PersonID:    req.PersonID,
		Description: req.Description,
	}
	if req.Type != nil {
		kind, err := domain.ParseTransactionType(*req.Type)
		if err != nil {
			return patch, err
		}
		patch.Type = &kind
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return patch, err
		}
		patch.Date = &date
	}
	return patch, nil
}

func transactionQuery(args *fasthttp.Args) (domain.TransactionQuery, error) {
	query := domain.TransactionQuery{
		CategoryID:          string(args.Peek("categoryId")),
		PersonID:            string(args.Peek("personId")),
		DescriptionContains: strings.TrimSpace(string(args.Peek("q"))),
	}
	if raw := args.Peek("type"); len(raw) > 0 {
		kind, err := domain.ParseTransactionType(string(raw))
		if err != nil {
			return query, err
		}
		query.Type = &kind
	}
	var err error
	if query.From, err = optionalDate(args.Peek("from"), "from"); err != nil {
		return query, err
	}
	if query.To, err = optionalDate(args.Peek("to"), "to"); err != nil {
		return query, err
	}
	return query, nil
}
