package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/moneytracker/api/transport"
	"github.com/fastygo/moneytracker/domain"
	"github.com/fastygo/moneytracker/pkg/httpcontext"
	personUC "github.com/fastygo/moneytracker/usecase/person"
)

type PersonHandler struct {
	baseHandler
	uc *personUC.UseCase
}

func NewPersonHandler(uc *personUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *PersonHandler {
	return &PersonHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List persons
// @Tags persons
// @Router /api/v1/persons [get]
func (h *PersonHandler) List(ctx *fasthttp.RequestCtx) {
	page, ok := h.pageRequest(ctx)
	if !ok {
		return
	}
	query := domain.PersonQuery{NameContains: strings.TrimSpace(string(ctx.QueryArgs().Peek("name")))}
	if raw := ctx.QueryArgs().Peek("age"); len(raw) > 0 {
		age, err := strconv.Atoi(string(raw))
		if err != nil {
			h.badRequest(ctx, "age must be an integer")
			return
		}
		query.Age = &age
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

// @Summary Create person
// @Tags persons
// @Router /api/v1/persons [post]
func (h *PersonHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.PersonRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, req.Name, req.Age)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	ctx.Response.Header.Set("Location", "/api/v1/persons/"+created.ID)
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get person
// @Tags persons
// @Router /api/v1/persons/{id} [get]
func (h *PersonHandler) Get(ctx *fasthttp.RequestCtx) {
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

// @Summary Replace person
// @Tags persons
// @Router /api/v1/persons/{id} [put]
func (h *PersonHandler) Update(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req transport.PersonRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, id, req.Name, req.Age)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Patch person
// @Tags persons
// @Router /api/v1/persons/{id} [patch]
func (h *PersonHandler) Patch(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req transport.PersonPatchRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	patched, err := h.uc.Patch(stdCtx, id, req.Name, req.Age)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, patched)
}

// @Summary Delete person
// @Tags persons
// @Router /api/v1/persons/{id} [delete]
func (h *PersonHandler) Delete(ctx *fasthttp.RequestCtx) {
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

// @Summary List transactions of a person
// @Tags persons
// @Router /api/v1/persons/{id}/transactions [get]
func (h *PersonHandler) Transactions(ctx *fasthttp.RequestCtx) {
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

// @Summary Income, expense and balance of a person
// @Tags persons
// @Router /api/v1/persons/{id}/summary [get]
func (h *PersonHandler) Summary(ctx *fasthttp.RequestCtx) {
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	summary, err := h.uc.Summary(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, summary)
}
