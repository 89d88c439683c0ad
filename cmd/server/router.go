package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"certflow/internal/platform/config"
	"certflow/internal/platform/health"
	"certflow/internal/platform/metrics"
	adminmw "certflow/pkg/platform/middleware/admin"
	authmw "certflow/pkg/platform/middleware/auth"
	"certflow/pkg/platform/middleware/device"
	"certflow/pkg/platform/middleware/metadata"
	"certflow/pkg/platform/middleware/request"
	"certflow/pkg/platform/middleware/requesttime"
)

func newRouter(cfg config.Server, a *app, reg *prometheus.Registry, log *slog.Logger) (http.Handler, error) {
	trusted, err := metadata.ParseTrustedProxies(cfg.HTTP.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("http.trusted_proxies: %w", err)
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.New(trusted).Handler)
	r.Use(device.Device)
	r.Use(requesttime.Middleware)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(metrics.NewHTTP(reg).Middleware)

	h := health.New(cfg.Environment)
	h.RegisterCheck("ledger", a.ledger.Health)
	h.RegisterCheck("content", a.content.Health)
	if a.infra.db != nil {
		h.RegisterCheck("database", a.infra.db.Health)
	}
	if a.infra.redis != nil {
		h.RegisterCheck("redis", a.infra.redis.Health)
	}
	if a.audit.producer != nil {
		h.RegisterCheck("kafka", a.audit.producer.Health)
	}
	h.Register(r)
	r.Handle("/metrics", metrics.Handler(reg))

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.HTTP.RequestTimeout))
		r.Use(request.BodyLimit(request.EncodedBodyLimit(max(cfg.Issuance.MaxImageBytes, cfg.Content.MaxBlobBytes))))
		r.Use(request.ContentTypeJSON)

		a.sessionHandler.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(authmw.RequireAuth(a.tokens, a.sessions, log))

			a.sessionHandler.RegisterAuthenticated(r)
			a.roleHandler.Register(r)
			a.authzHandler.Register(r)
			a.issuanceHandler.Register(r)
			a.catalogHandler.Register(r)

			r.Group(func(r chi.Router) {
				r.Use(adminmw.RequireAdministrator(a.gate, log))
				a.authzHandler.RegisterAdmin(r)
			})
		})
	})

	return r, nil
}
