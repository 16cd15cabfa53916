package conversation

import (
	"context"
	"log/slog"

	"nirvana_backend/internal/events"
	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/platform/apperr"
)

// submit is the transient Completed stage: enhance, persist, confirm, reset.
// A storage failure leaves the session untouched so the citizen can retry.
func (c *Controller) submit(ctx context.Context, sess *domain.Session) (string, error) {
	if sess.UserID == nil || !sess.Draft.ReadyForSubmit() {
		return "", apperr.Internal("draft is not ready for submission").WithOp("conversation.submit")
	}
	draft := sess.Draft
	dept := draft.DepartmentOrGeneral()

	enhanced := c.enhancer.Enhance(ctx, draft.Description, dept, draft.Location)

	complaint, err := c.createComplaint(ctx, domain.NewComplaint{
		UserID:        *sess.UserID,
		Title:         enhanced.Title,
		Description:   enhanced.Description,
		Category:      dept,
		SeverityScore: draft.SeverityScore,
		Location:      *draft.Location,
		ImageRef:      draft.ImageRef,
		ImageLabel:    draft.VisionLabel,
	})
	if err != nil {
		c.log.WithSender(sess.SenderID).Error("failed to persist complaint", slog.String("error", err.Error()))
		return msgSubmitFailed, nil
	}

	trackingURL := c.trackingURL(sess.SenderID, complaint)

	c.publish(ctx, events.ComplaintSubmitted{
		BaseEvent:     events.NewBaseEvent(),
		ComplaintID:   complaint.ID,
		UserID:        complaint.UserID,
		SenderID:      sess.SenderID,
		Title:         complaint.Title,
		Description:   complaint.Description,
		Department:    complaint.Category,
		SeverityScore: complaint.SeverityScore,
		Latitude:      complaint.Latitude,
		Longitude:     complaint.Longitude,
		ImageRef:      complaint.ImageRef,
		TrackingURL:   trackingURL,
	})

	sess.Advance(domain.StageCompleted, c.now())
	sess.Reset(c.now())
	return submittedReply(complaint, trackingURL), nil
}

func (c *Controller) createComplaint(ctx context.Context, nc domain.NewComplaint) (domain.Complaint, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Collaborator)
	defer cancel()

	complaint, err := c.store.CreateComplaint(ctx, nc)
	if err != nil {
		return domain.Complaint{}, apperr.Storage("create complaint failed", err).WithOp("conversation.submit")
	}
	return complaint, nil
}

func (c *Controller) trackingURL(senderID string, complaint domain.Complaint) string {
	if c.tracking == nil {
		return ""
	}
	url, err := c.tracking.TrackingURL(complaint.ID)
	if err != nil {
		c.log.WithSender(senderID).Warn("failed to issue tracking link",
			slog.String("complaint_id", complaint.ID.String()),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return url
}
