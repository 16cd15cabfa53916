package whatsapp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/internal/intake/ports"
	"nirvana_backend/platform/httpkit"
	"nirvana_backend/platform/logger"
	"nirvana_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	maxWebhookBody = 1 << 20

	msgUnsupported = "I can process text messages, images, audio messages, and location. Please send one of those."
	msgSlowDown    = "You're sending messages too quickly. Please wait a moment and try again."
)

// Dispatcher hands an inbound event to the intake conversation, either
// inline or through a queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, evt domain.InboundEvent) error
}

// Handler serves the Cloud API webhook.
type Handler struct {
	verifyToken string
	appSecret   string
	dispatcher  Dispatcher
	sender      ports.ReplySender
	limiter     *httpkit.KeyedRateLimiter
	val         *validator.Validator
	log         *logger.Logger
}

// NewHandler creates a webhook handler. sender may be nil.
func NewHandler(verifyToken, appSecret string, dispatcher Dispatcher, sender ports.ReplySender, limiter *httpkit.KeyedRateLimiter, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		dispatcher:  dispatcher,
		sender:      sender,
		limiter:     limiter,
		val:         val,
		log:         log,
	}
}

// Verify answers the subscription handshake.
// GET /webhook
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// Head is used by the platform as a liveness probe.
// HEAD /webhook
func (h *Handler) Head(c *gin.Context) {
	c.Status(http.StatusOK)
}

// Receive accepts message notifications. The platform retries anything
// other than 200, so processing failures are logged and acknowledged.
// POST /webhook
func (h *Handler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if h.appSecret != "" && !VerifySignature(h.appSecret, body, c.GetHeader(SignatureHeader)) {
		h.log.Warn("webhook signature mismatch", slog.String("client_ip", c.ClientIP()))
		httpkit.Error(c, http.StatusUnauthorized, "invalid signature", nil)
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.log.Warn("webhook payload not decodable", slog.String("error", err.Error()))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	ctx := c.Request.Context()
	events, unsupported := Extract(payload)
	for _, u := range unsupported {
		h.reply(ctx, u.SenderID, msgUnsupported)
	}
	for _, evt := range events {
		h.dispatch(ctx, evt)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "received": len(events)})
}

func (h *Handler) dispatch(ctx context.Context, evt domain.InboundEvent) {
	log := h.log.WithSender(evt.SenderID)

	if err := h.val.Struct(evt); err != nil {
		log.Warn("dropping invalid inbound event", slog.String("type", string(evt.Type)), slog.String("error", err.Error()))
		return
	}
	if h.limiter != nil && !h.limiter.Allow(evt.SenderID) {
		h.log.RateLimitExceeded(logger.MaskSender(evt.SenderID), "/webhook")
		h.reply(ctx, evt.SenderID, msgSlowDown)
		return
	}
	if err := h.dispatcher.Dispatch(ctx, evt); err != nil {
		log.Error("failed to dispatch inbound event",
			slog.String("message_id", evt.MessageID),
			slog.String("error", err.Error()),
		)
	}
}

func (h *Handler) reply(ctx context.Context, to, text string) {
	if h.sender == nil || to == "" {
		return
	}
	if err := h.sender.SendMessage(ctx, to, text); err != nil {
		h.log.WithSender(to).Warn("failed to send webhook reply", slog.String("error", err.Error()))
	}
}
