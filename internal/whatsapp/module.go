package whatsapp

import (
	apphttp "nirvana_backend/internal/http"
	"nirvana_backend/platform/httpkit"
	"nirvana_backend/platform/logger"
	"nirvana_backend/platform/validator"
)

// ModuleConfig is the subset of configuration the webhook needs.
type ModuleConfig interface {
	GetWhatsAppVerifyToken() string
	GetWhatsAppAppSecret() string
	GetInboundRatePerMinute() int
}

// Module exposes the Cloud API webhook.
type Module struct {
	handler *Handler
}

// NewModule wires the webhook handler. A nil client drops the replies sent
// for unsupported or throttled messages.
func NewModule(cfg ModuleConfig, client *Client, dispatcher Dispatcher, val *validator.Validator, log *logger.Logger) *Module {
	limiter := httpkit.PerMinute(cfg.GetInboundRatePerMinute(), log)
	h := NewHandler(cfg.GetWhatsAppVerifyToken(), cfg.GetWhatsAppAppSecret(), dispatcher, client, limiter, val, log)
	return &Module{handler: h}
}

func (m *Module) Name() string {
	return "whatsapp"
}

// RegisterRoutes mounts the webhook at the engine root, where the platform
// is configured to call it.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.GET("/webhook", m.handler.Verify)
	ctx.Engine.HEAD("/webhook", m.handler.Head)
	ctx.Engine.POST("/webhook", m.handler.Receive)
}

var _ apphttp.Module = (*Module)(nil)
