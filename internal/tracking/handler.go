package tracking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/platform/apperr"
	"nirvana_backend/platform/httpkit"
	"nirvana_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgLinkInvalid = "Link expired or invalid"

// ComplaintReader loads a complaint by ID.
type ComplaintReader interface {
	GetComplaint(ctx context.Context, id uuid.UUID) (domain.Complaint, error)
}

// ImageLinker presigns a stored image reference. ok is false for references
// it does not own.
type ImageLinker interface {
	DownloadURL(ctx context.Context, ref string) (url string, ok bool, err error)
}

type Handler struct {
	issuer *Issuer
	store  ComplaintReader
	images ImageLinker
	log    *logger.Logger
}

// NewHandler creates the public tracking handler. images may be nil.
func NewHandler(issuer *Issuer, store ComplaintReader, images ImageLinker, log *logger.Logger) *Handler {
	return &Handler{issuer: issuer, store: store, images: images, log: log}
}

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ComplaintResponse struct {
	ID            string           `json:"id"`
	TrackingID    string           `json:"trackingId"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Department    string           `json:"department"`
	SeverityScore float64          `json:"severityScore"`
	SeverityBand  string           `json:"severityBand"`
	Status        string           `json:"status"`
	Location      LocationResponse `json:"location"`
	ImageURL      string           `json:"imageUrl,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// Get returns the complaint a tracking token points at.
// GET /api/v1/track/:token
func (h *Handler) Get(c *gin.Context) {
	id, err := h.issuer.Parse(c.Param("token"))
	if err != nil {
		httpkit.HandleError(c, apperr.NotFound(msgLinkInvalid))
		return
	}

	ctx := c.Request.Context()
	complaint, err := h.store.GetComplaint(ctx, id)
	if errors.Is(err, domain.ErrComplaintNotFound) {
		httpkit.HandleError(c, apperr.NotFound(msgLinkInvalid))
		return
	}
	if err != nil {
		h.log.DatabaseError("get complaint for tracking", err)
		httpkit.HandleError(c, apperr.Storage("complaint unavailable", err))
		return
	}

	resp := ComplaintResponse{
		ID:            complaint.ID.String(),
		TrackingID:    complaint.ShortID(),
		Title:         complaint.Title,
		Description:   complaint.Description,
		Department:    complaint.Category,
		SeverityScore: complaint.SeverityScore,
		SeverityBand:  domain.SeverityBand(complaint.SeverityScore),
		Status:        complaint.Status,
		Location: LocationResponse{
			Latitude:  complaint.Latitude,
			Longitude: complaint.Longitude,
		},
		CreatedAt: complaint.CreatedAt,
	}
	resp.ImageURL = h.imageURL(ctx, complaint)

	c.Header("Cache-Control", "no-store")
	httpkit.OK(c, resp)
}

func (h *Handler) imageURL(ctx context.Context, complaint domain.Complaint) string {
	if h.images == nil || complaint.ImageRef == "" {
		return ""
	}
	url, ok, err := h.images.DownloadURL(ctx, complaint.ImageRef)
	if err != nil {
		h.log.Warn("failed to presign complaint image",
			slog.String("complaint_id", complaint.ID.String()),
			slog.String("error", err.Error()),
		)
		return ""
	}
	if !ok {
		return ""
	}
	return url
}
