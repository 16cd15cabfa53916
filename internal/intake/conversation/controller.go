// Package conversation drives the per-sender complaint intake workflow:
// Init → Description → Location → MediaUpload → Confirmation → Completed.
// It owns session state and produces exactly one reply per inbound event.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"nirvana_backend/internal/events"
	"nirvana_backend/internal/intake/classify"
	"nirvana_backend/internal/intake/command"
	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/internal/intake/enhance"
	"nirvana_backend/internal/intake/evidence"
	"nirvana_backend/internal/intake/ports"
	"nirvana_backend/internal/intake/session"
	"nirvana_backend/platform/apperr"
	"nirvana_backend/platform/logger"

	"github.com/google/uuid"
)

// TrackingLinker issues a public tracking URL for a stored complaint.
type TrackingLinker interface {
	TrackingURL(complaintID uuid.UUID) (string, error)
}

// Timeouts bound individual collaborator calls.
type Timeouts struct {
	// Collaborator applies to storage and user lookups.
	Collaborator time.Duration
	// Media applies to downloads, vision, speech and image storage.
	Media time.Duration
}

// Deps are the collaborators of a Controller. Optional fields may be nil:
// the controller degrades to its fallbacks.
type Deps struct {
	Store       ports.ComplaintStore
	Sessions    session.Store
	Locker      session.Locker
	Sender      ports.ReplySender
	Media       ports.MediaResolver
	Images      ports.ImageStore
	Labeler     ports.Labeler
	Transcriber ports.Transcriber
	Classifier  *classify.Engine
	Evidence    *evidence.Validator
	Enhancer    *enhance.Engine
	Tracking    TrackingLinker
	Bus         events.Bus
	Log         *logger.Logger
	Timeouts    Timeouts
}

// Controller is the intake state machine.
type Controller struct {
	store       ports.ComplaintStore
	sessions    session.Store
	locker      session.Locker
	sender      ports.ReplySender
	media       ports.MediaResolver
	images      ports.ImageStore
	labeler     ports.Labeler
	transcriber ports.Transcriber
	classifier  *classify.Engine
	evidence    *evidence.Validator
	enhancer    *enhance.Engine
	tracking    TrackingLinker
	bus         events.Bus
	log         *logger.Logger
	timeouts    Timeouts
	now         func() time.Time
}

// New creates a Controller.
func New(d Deps) *Controller {
	if d.Locker == nil {
		d.Locker = session.NewKeyedMutex()
	}
	if d.Timeouts.Collaborator <= 0 {
		d.Timeouts.Collaborator = 20 * time.Second
	}
	if d.Timeouts.Media <= 0 {
		d.Timeouts.Media = d.Timeouts.Collaborator
	}
	return &Controller{
		store:       d.Store,
		sessions:    d.Sessions,
		locker:      d.Locker,
		sender:      d.Sender,
		media:       d.Media,
		images:      d.Images,
		labeler:     d.Labeler,
		transcriber: d.Transcriber,
		classifier:  d.Classifier,
		evidence:    d.Evidence,
		enhancer:    d.Enhancer,
		tracking:    d.Tracking,
		bus:         d.Bus,
		log:         d.Log,
		timeouts:    d.Timeouts,
		now:         time.Now,
	}
}

// Handle processes one inbound event for its sender and sends the reply.
// Events of the same sender are serialized; different senders run in
// parallel. The returned error is non-nil only when the sender lock could not
// be taken; the event may then be retried.
func (c *Controller) Handle(ctx context.Context, evt domain.InboundEvent) (domain.Reply, error) {
	log := c.log.WithSender(evt.SenderID)

	unlock, err := c.locker.Lock(ctx, evt.SenderID)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	sess, err := c.sessions.Load(ctx, evt.SenderID)
	if err != nil {
		log.Error("failed to load session", slog.String("error", err.Error()))
		reply := domain.Reply{To: evt.SenderID, Text: msgStorageError}
		c.send(ctx, reply)
		return reply, nil
	}

	before := sess.Stage
	text := c.dispatch(ctx, sess, evt)
	if sess.Stage != before {
		log.IntakeTransition(evt.SenderID, before.String(), sess.Stage.String())
	}

	text = c.persist(ctx, sess, text)

	reply := domain.Reply{To: evt.SenderID, Text: text}
	c.send(ctx, reply)
	return reply, nil
}

// persist saves sess and returns the reply to send. A session that cannot be
// saved is deleted so the stored copy never outlives a submission; when the
// delete fails too, the sender is asked to cancel before going on.
func (c *Controller) persist(ctx context.Context, sess *domain.Session, text string) string {
	log := c.log.WithSender(sess.SenderID)

	var err error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		if err = c.sessions.Save(ctx, sess); err == nil {
			return text
		}
		log.Error("failed to save session",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}

	if err := c.sessions.Delete(ctx, sess.SenderID); err != nil {
		log.Error("failed to discard unsaved session", slog.String("error", err.Error()))
		return text + "\n\n" + msgStateNotSaved
	}
	if sess.Stage == domain.StageInit {
		return text
	}
	return msgProgressLost
}

// dispatch runs the command interceptor or the stage handler and maps
// failures onto replies. It never panics.
func (c *Controller) dispatch(ctx context.Context, sess *domain.Session, evt domain.InboundEvent) (text string) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("intake handler panic",
				slog.String("sender", logger.MaskSender(sess.SenderID)),
				slog.String("stage", sess.Stage.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			sess.Reset(c.now())
			text = msgGenericError
		}
	}()

	if cmd := command.FromEvent(evt); cmd.Kind != domain.CommandNone {
		text, err := c.handleCommand(ctx, sess, cmd)
		if err != nil {
			return c.resolveError(sess, err)
		}
		return text
	}

	text, err := c.handleStage(ctx, sess, evt)
	if err != nil {
		return c.resolveError(sess, err)
	}
	return text
}

func (c *Controller) handleStage(ctx context.Context, sess *domain.Session, evt domain.InboundEvent) (string, error) {
	switch sess.Stage {
	case domain.StageInit:
		return c.handleInit(ctx, sess, evt)
	case domain.StageDescription:
		return c.handleDescription(ctx, sess, evt)
	case domain.StageLocation:
		return c.handleLocation(ctx, sess, evt)
	case domain.StageMediaUpload:
		return c.handleMediaUpload(ctx, sess, evt)
	case domain.StageConfirmation:
		return c.handleConfirmation(ctx, sess, evt)
	default:
		return "", apperr.Internal(fmt.Sprintf("session in unexpected stage %q", sess.Stage)).WithOp("conversation.handleStage")
	}
}

// resolveError maps the error taxonomy onto session effects and replies.
func (c *Controller) resolveError(sess *domain.Session, err error) string {
	log := c.log.WithSender(sess.SenderID)
	switch apperr.GetKind(err) {
	case apperr.KindStorage:
		log.Error("storage failure", slog.String("stage", sess.Stage.String()), slog.String("error", err.Error()))
		return msgStorageError
	default:
		log.Error("uncaught intake failure", slog.String("stage", sess.Stage.String()), slog.String("error", err.Error()))
		sess.Reset(c.now())
		return msgGenericError
	}
}

func (c *Controller) lookupUser(ctx context.Context, senderID string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Collaborator)
	defer cancel()

	user, err := c.store.LookupUser(ctx, senderID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, apperr.Unregistered("sender is not registered").WithOp("conversation.lookupUser")
	}
	if err != nil {
		return domain.User{}, apperr.Storage("user lookup failed", err).WithOp("conversation.lookupUser")
	}
	return user, nil
}

func (c *Controller) send(ctx context.Context, reply domain.Reply) {
	if c.sender == nil || reply.Text == "" {
		return
	}
	if err := c.sender.SendMessage(ctx, reply.To, reply.Text); err != nil {
		c.log.WithSender(reply.To).Warn("failed to send reply", slog.String("error", err.Error()))
	}
}

// notify sends an intermediate message outside the single reply, best effort.
func (c *Controller) notify(ctx context.Context, to, text string) {
	c.send(ctx, domain.Reply{To: to, Text: text})
}

func (c *Controller) publish(ctx context.Context, evt events.Event) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(ctx, evt)
}
