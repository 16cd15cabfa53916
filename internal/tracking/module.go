package tracking

import (
	apphttp "nirvana_backend/internal/http"
	"nirvana_backend/platform/logger"
)

type Module struct {
	handler *Handler
}

func NewModule(issuer *Issuer, store ComplaintReader, images ImageLinker, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(issuer, store, images, log)}
}

func (m *Module) Name() string {
	return "tracking"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/track")
	if ctx.PublicRateLimiter != nil {
		group.Use(ctx.PublicRateLimiter.RateLimit())
	}
	group.GET("/:token", m.handler.Get)
}

var _ apphttp.Module = (*Module)(nil)
