package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/moneytracker/api/handler"
)

type Handlers struct {
	Transaction *apiHandler.TransactionHandler
	Category    *apiHandler.CategoryHandler
	Person      *apiHandler.PersonHandler
	Summary     *apiHandler.SummaryHandler
	Health      *apiHandler.HealthHandler
}

// Middleware wraps every API route.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, middleware ...Middleware) *router.Router {
	r := router.New()
	wrap := func(h fasthttp.RequestHandler) fasthttp.RequestHandler {
		for i := len(middleware) - 1; i >= 0; i-- {
			h = middleware[i](h)
		}
		return h
	}

	r.GET("/health", handlers.Health.Check)

	v1 := r.Group("/api/v1")

	v1.GET("/transactions", wrap(handlers.Transaction.List))
	v1.POST("/transactions", wrap(handlers.Transaction.Create))
	v1.GET("/transactions/{id}", wrap(handlers.Transaction.Get))
	v1.PUT("/transactions/{id}", wrap(handlers.Transaction.Update))
	v1.PATCH("/transactions/{id}", wrap(handlers.Transaction.Patch))
	v1.DELETE("/transactions/{id}", wrap(handlers.Transaction.Delete))

	v1.GET("/categories", wrap(handlers.Category.List))
	v1.POST("/categories", wrap(handlers.Category.Create))
	v1.GET("/categories/{id}", wrap(handlers.Category.Get))
	v1.PUT("/categories/{id}", wrap(handlers.Category.Update))
	v1.PATCH("/categories/{id}", wrap(handlers.Category.Patch))
	v1.DELETE("/categories/{id}", wrap(handlers.Category.Delete))
	v1.GET("/categories/{id}/transactions", wrap(handlers.Category.Transactions))

	v1.GET("/persons", wrap(handlers.Person.List))
	v1.POST("/persons", wrap(handlers.Person.Create))
	v1.GET("/persons/{id}", wrap(handlers.Person.Get))
	v1.PUT("/persons/{id}", wrap(handlers.Person.Update))
	v1.PATCH("/persons/{id}", wrap(handlers.Person.Patch))
	v1.DELETE("/persons/{id}", wrap(handlers.Person.Delete))
	v1.GET("/persons/{id}/transactions", wrap(handlers.Person.Transactions))
	v1.GET("/persons/{id}/summary", wrap(handlers.Person.Summary))

	v1.GET("/summary/monthly", wrap(handlers.Summary.Monthly))

	return r
}
