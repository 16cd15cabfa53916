package conversation

import (
	"context"
	"errors"
	"strings"

	"nirvana_backend/internal/events"
	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/platform/apperr"

	"github.com/google/uuid"
)

// handleCommand runs a stage-independent command. Only cancel touches the
// draft.
func (c *Controller) handleCommand(ctx context.Context, sess *domain.Session, cmd domain.Command) (string, error) {
	switch cmd.Kind {
	case domain.CommandCancel:
		return c.cancel(ctx, sess), nil
	case domain.CommandStatus:
		return c.status(ctx, sess, cmd.ComplaintID)
	case domain.CommandHistory:
		return c.history(ctx, sess)
	default:
		return "", apperr.Internal("unknown command " + cmd.Kind.String()).WithOp("conversation.handleCommand")
	}
}

func (c *Controller) cancel(ctx context.Context, sess *domain.Session) string {
	if !sess.Active() {
		sess.Reset(c.now())
		return msgCancelNoop
	}

	c.publish(ctx, events.IntakeCancelled{
		BaseEvent: events.NewBaseEvent(),
		SenderID:  sess.SenderID,
		Stage:     sess.Stage.String(),
	})
	sess.Reset(c.now())
	return msgCancelled
}

// status lists the sender's complaints or shows one of them. idPrefix is
// either a full record ID or a prefix of at least eight characters.
func (c *Controller) status(ctx context.Context, sess *domain.Session, idPrefix string) (string, error) {
	userID, err := c.resolveUser(ctx, sess)
	if apperr.Is(err, apperr.KindUnregistered) {
		return unregisteredReply(sess.SenderID, "check complaint status"), nil
	}
	if err != nil {
		return "", err
	}

	mode := "list"
	if idPrefix != "" {
		mode = "id"
	}
	c.publish(ctx, events.StatusRequested{
		BaseEvent: events.NewBaseEvent(),
		SenderID:  sess.SenderID,
		Mode:      mode,
	})

	if idPrefix != "" {
		complaint, found, err := c.findComplaint(ctx, userID, idPrefix)
		if err != nil {
			return "", err
		}
		if !found {
			return notFoundReply(idPrefix), nil
		}
		return statusDetailReply(complaint), nil
	}

	complaints, err := c.listComplaints(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(complaints) == 0 {
		return msgNoComplaints, nil
	}
	return statusListReply(complaints), nil
}

func (c *Controller) history(ctx context.Context, sess *domain.Session) (string, error) {
	userID, err := c.resolveUser(ctx, sess)
	if apperr.Is(err, apperr.KindUnregistered) {
		return unregisteredReply(sess.SenderID, "view complaint history"), nil
	}
	if err != nil {
		return "", err
	}

	c.publish(ctx, events.StatusRequested{
		BaseEvent: events.NewBaseEvent(),
		SenderID:  sess.SenderID,
		Mode:      "history",
	})

	complaints, err := c.listComplaints(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(complaints) == 0 {
		return msgNoHistory, nil
	}
	return historyReply(complaints), nil
}

// resolveUser returns the user cached on the session, looking it up when the
// session has none yet. The session stage is not changed.
func (c *Controller) resolveUser(ctx context.Context, sess *domain.Session) (uuid.UUID, error) {
	if sess.UserID != nil {
		return *sess.UserID, nil
	}
	user, err := c.lookupUser(ctx, sess.SenderID)
	if err != nil {
		return uuid.Nil, err
	}
	id := user.ID
	sess.UserID = &id
	return id, nil
}

func (c *Controller) listComplaints(ctx context.Context, userID uuid.UUID) ([]domain.Complaint, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Collaborator)
	defer cancel()

	complaints, err := c.store.ListComplaints(ctx, userID, 0)
	if err != nil {
		return nil, apperr.Storage("list complaints failed", err).WithOp("conversation.listComplaints")
	}
	return complaints, nil
}

// findComplaint resolves a full ID directly and a short prefix against the
// sender's own complaints. Complaints of other users are never returned.
func (c *Controller) findComplaint(ctx context.Context, userID uuid.UUID, idPrefix string) (domain.Complaint, bool, error) {
	if id, err := uuid.Parse(idPrefix); err == nil {
		lookupCtx, cancel := context.WithTimeout(ctx, c.timeouts.Collaborator)
		defer cancel()

		complaint, err := c.store.GetComplaint(lookupCtx, id)
		if errors.Is(err, domain.ErrComplaintNotFound) {
			return domain.Complaint{}, false, nil
		}
		if err != nil {
			return domain.Complaint{}, false, apperr.Storage("get complaint failed", err).WithOp("conversation.findComplaint")
		}
		return complaint, complaint.UserID == userID, nil
	}

	complaints, err := c.listComplaints(ctx, userID)
	if err != nil {
		return domain.Complaint{}, false, err
	}
	prefix := strings.ToLower(idPrefix)
	for _, complaint := range complaints {
		if strings.HasPrefix(complaint.ID.String(), prefix) {
			return complaint, true, nil
		}
	}
	return domain.Complaint{}, false, nil
}
