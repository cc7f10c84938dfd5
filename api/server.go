/*
server.go - HTTP router setup

PURPOSE:
  Wires handlers into a chi router with the middleware stack and the
  CORS policy the planning board frontend needs.

SEE ALSO:
  - handlers.go: Endpoint implementations
  - cmd/server/main.go: Server lifecycle
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/machines", h.ListMachines)
		r.Get("/processes", h.ListProcesses)
		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{id}", h.GetOrderData)

		r.Get("/shifts", h.ListShifts)
		r.Get("/shift-allocations", h.GetShiftAllocations)
		r.Put("/date-shifts", h.UpdateDateShift)

		r.Post("/alterations", h.AddAlteration)
		r.Put("/alterations/{id}", h.UpdateAlteration)
		r.Delete("/alterations/{id}", h.DeleteAlteration)

		r.Get("/allocations", h.GetAllocations)
		r.Post("/allocations", h.SaveAllocations)
	})

	return r
}
