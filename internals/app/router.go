package app

import (
	"time"

	middle "github.com/darwin-luque/uptime-monitor/internals/middleware"
	"github.com/darwin-luque/uptime-monitor/internals/modules/ops"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(c *Container) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middle.RequestID)
	r.Use(middle.Logger(c.Logger))
	r.Use(middle.Metrics(c.RequestStats))
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", c.opsHandler.Health)
	r.Get("/readyz", c.opsHandler.Ready)
	r.Get("/status", c.opsHandler.Status)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Mount("/checks", ops.Routes(c.opsHandler))
	})

	return r
}
