package handler

import (
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/api/transport"
	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/pkg/httpcontext"
	categoryUC "github.com/fastygo/moneytracker/usecase/category"
)

type CategoryHandler struct {
	baseHandler
	uc *categoryUC.UseCase
}

func NewCategoryHandler(uc *categoryUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List categories
// @Tags categories
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(ctx *fasthttp.RequestCtx) {
	page, ok := h.pageRequest(ctx)
	if !ok {
		return
	}
	query := domain.CategoryQuery{NameContains: strings.TrimSpace(string(ctx.QueryArgs().Peek("name")))}
	if raw := ctx.QueryArgs().Peek("type"); len(raw) > 0 {
		kind, err := domain.ParseCategoryType(string(raw))
		if err != nil {
			h.badRequest(ctx, err.Error())
			return
		}
		query.Type = &kind
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

// @Summary Create category
// @Tags categories
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.CategoryRequest
	if !h.decode(ctx, &req) {
		return
	}
	kind, err := domain.ParseCategoryType(req.Type)
	if err != nil {
		h.badRequest(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, req.Name, kind, req.MonthlyLimit)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	ctx.Response.Header.Set("Location", "/api/v1/categories/"+created.ID)
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get category
// @Tags categories
// @Router /api/v1/categories/{id} [get]
func (h *CategoryHandler) Get(ctx *fasthttp.RequestCtx) {
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

// @Summary Replace category
// @Tags categories
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req transport.CategoryRequest
	if !h.decode(ctx, &req) {
		return
	}
	kind, err := domain.ParseCategoryType(req.Type)
	if err != nil {
		h.badRequest(ctx, err.Error())
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, id, req.Name, kind, req.MonthlyLimit)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Patch category
// @Tags categories
// @Router /api/v1/categories/{id} [patch]
func (h *CategoryHandler) Patch(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req transport.CategoryPatchRequest
	if !h.decode(ctx, &req) {
		return
	}
	var kind *domain.CategoryType
	if req.Type != nil {
		parsed, err := domain.ParseCategoryType(*req.Type)
		if err != nil {
			h.badRequest(ctx, err.Error())
			return
		}
		kind = &parsed
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patched, err := h.uc.Patch(stdCtx, id, req.Name, kind, req.MonthlyLimit)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, patched)
}

// @Summary Delete category
// @Tags categories
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(ctx *fasthttp.RequestCtx) {
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

// @Summary List transactions of a category
// @Tags categories
// @Router /api/v1/categories/{id}/transactions [get]
func (h *CategoryHandler) Transactions(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	page, ok := h.pageRequest(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Transactions(stdCtx, id, page)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	respondPage(h.baseHandler, ctx, result)
}
