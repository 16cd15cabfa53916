package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"nirvana_backend/internal/events"
	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/internal/intake/evidence"
	"nirvana_backend/internal/intake/location"
	"nirvana_backend/internal/intake/ports"
	"nirvana_backend/platform/apperr"
	"nirvana_backend/platform/sanitize"
)

func (c *Controller) handleInit(ctx context.Context, sess *domain.Session, evt domain.InboundEvent) (string, error) {
	user, err := c.lookupUser(ctx, sess.SenderID)
	if apperr.Is(err, apperr.KindUnregistered) {
		return unregisteredReply(sess.SenderID, "file complaints"), nil
	}
	if err != nil {
		return "", err
	}

	id := user.ID
	sess.UserID = &id
	sess.Draft = domain.Draft{}
	sess.Advance(domain.StageDescription, c.now())

	c.publish(ctx, events.ComplaintStarted{
		BaseEvent: events.NewBaseEvent(),
		SenderID:  sess.SenderID,
		UserID:    user.ID,
	})
	return msgGreeting, nil
}

func (c *Controller) handleDescription(ctx context.Context, sess *domain.Session, evt domain.InboundEvent) (string, error) {
	var (
		text   string
		prefix string
	)
	switch evt.Type {
	case domain.EventText:
		text = sanitize.Text(evt.Text)
	case domain.EventAudio:
		c.notify(ctx, sess.SenderID, msgVoiceProcessing)
		transcript, ok := c.transcribe(ctx, evt)
		if !ok {
			return msgVoiceFailed, nil
		}
		text = transcript
		prefix = fmt.Sprintf("✅ Voice message transcribed: \"%s\"\n\n", sanitize.Truncate(transcript, 200))
	default:
		return msgDescribeIssue, nil
	}
	if text == "" {
		return msgDescribeIssue, nil
	}

	result := c.classifier.Classify(ctx, text)
	sess.Draft.Description = text
	sess.Draft.ApplyClassification(result)
	if !sess.Draft.ReadyForLocation() {
		return "", apperr.Internal("classification left draft incomplete").WithOp("conversation.handleDescription")
	}
	sess.Advance(domain.StageLocation, c.now())

	c.publish(ctx, events.DepartmentInferred{
		BaseEvent:     events.NewBaseEvent(),
		SenderID:      sess.SenderID,
		Department:    result.Department.String(),
		SeverityScore: sess.Draft.SeverityScore,
		NeedsImage:    result.NeedsImage,
		Source:        string(result.Source),
	})
	return prefix + classifiedReply(result.Department), nil
}

// transcribe downloads and transcribes a voice note. Any failure is reported
// as !ok; the citizen is asked to type instead.
func (c *Controller) transcribe(ctx context.Context, evt domain.InboundEvent) (string, bool) {
	if c.media == nil || c.transcriber == nil {
		c.log.CollaboratorFallback("transcriber", ports.ErrNotConfigured.Error())
		return "", false
	}

	media := ports.Call(ctx, c.timeouts.Media, func(ctx context.Context) (ports.Media, error) {
		return c.media.Resolve(ctx, evt.MediaID)
	})
	m, ok := media.Get()
	if !ok {
		c.log.CollaboratorFallback("media", media.Reason())
		return "", false
	}

	mimeType := firstNonEmpty(m.MIMEType, evt.MIMEType)
	transcript := ports.Call(ctx, c.timeouts.Media, func(ctx context.Context) (string, error) {
		return c.transcriber.Transcribe(ctx, m.Data, mimeType)
	})
	text, ok := transcript.Get()
	if !ok {
		c.log.CollaboratorFallback("transcriber", transcript.Reason())
		return "", false
	}
	text = sanitize.Text(text)
	return text, text != ""
}

func (c *Controller) handleLocation(ctx context.Context, sess *domain.Session, evt domain.InboundEvent) (string, error) {
	switch evt.Type {
	case domain.EventText:
		return msgLocationTextRejected, nil
	case domain.EventLocation:
	default:
		return msgLocationExpected, nil
	}

	res := location.Validate(evt.Location)
	if !res.Passed {
		return "❌ " + res.Reason, nil
	}

	loc := res.Coordinates
	sess.Draft.Location = &loc
	sess.Advance(domain.StageMediaUpload, c.now())
	return locationAcceptedReply(res.Reason, sess.Draft.NeedsImage), nil
}

func (c *Controller) handleMediaUpload(ctx context.Context, sess *domain.Session, evt domain.InboundEvent) (string, error) {
	switch evt.Type {
	case domain.EventImage:
		return c.acceptImage(ctx, sess, evt), nil
	case domain.EventText:
		if isSubmit(evt.Text) {
			return c.submit(ctx, sess)
		}
		if text := sanitize.Text(evt.Text); text != "" {
			sess.Draft.AppendDetails(text)
			return msgDetailsAdded, nil
		}
		return msgMediaPrompt, nil
	default:
		return msgMediaPrompt, nil
	}
}

func (c *Controller) handleConfirmation(ctx context.Context, sess *domain.Session, evt domain.InboundEvent) (string, error) {
	if evt.Type != domain.EventText {
		return msgConfirmPrompt, nil
	}
	if isSubmit(evt.Text) {
		return c.submit(ctx, sess)
	}
	if text := sanitize.Text(evt.Text); text != "" {
		sess.Draft.AppendDetails(text)
	}
	return msgConfirmPrompt, nil
}

// acceptImage runs the evidence pipeline for one photo. Only the spam check
// gates storage; consistency and photo location are reported as warnings.
func (c *Controller) acceptImage(ctx context.Context, sess *domain.Session, evt domain.InboundEvent) string {
	if c.media == nil {
		c.log.CollaboratorFallback("media", ports.ErrNotConfigured.Error())
		return msgImageFailed
	}
	media := ports.Call(ctx, c.timeouts.Media, func(ctx context.Context) (ports.Media, error) {
		return c.media.Resolve(ctx, evt.MediaID)
	})
	m, ok := media.Get()
	if !ok || len(m.Data) == 0 {
		c.log.CollaboratorFallback("media", media.Reason())
		return msgImageFailed
	}
	mimeType := firstNonEmpty(m.MIMEType, evt.MIMEType, "image/jpeg")

	label, hasLabel := c.label(ctx, m.Data, mimeType)
	if hasLabel {
		spam := c.evidence.CheckSpam(ctx, label)
		if !spam.Passed {
			c.publish(ctx, events.ImageReceived{
				BaseEvent: events.NewBaseEvent(),
				SenderID:  sess.SenderID,
				Accepted:  false,
				Label:     label,
				Reason:    spam.Reason,
			})
			return "⚠️ " + strings.TrimSuffix(spam.Reason, ".") +
				". Please send a photo of the actual problem, or type 'submit' to continue without an image."
		}
	}

	ref, err := c.storeImage(ctx, sess.SenderID, evt.MediaID, m.Data, mimeType)
	if err != nil {
		c.log.WithSender(sess.SenderID).Error("failed to store image", slog.String("error", err.Error()))
		return msgImageFailed
	}
	sess.Draft.ImageRef = ref
	sess.Draft.VisionLabel = label

	var notes []string
	if label != "" {
		consistency := c.evidence.CheckConsistency(ctx, sess.Draft.Description, label)
		if consistency.Passed {
			notes = append(notes, "✅ Image verified and matches your complaint! "+consistency.Reason)
		} else {
			notes = append(notes, "⚠️ The image may not match your description: "+consistency.Reason+
				" It has been attached anyway; add details if needed.")
		}
	}
	if warning, far := evidence.CheckPhotoLocation(m.Data, sess.Draft.Location); far {
		notes = append(notes, "⚠️ "+warning)
	}

	c.publish(ctx, events.ImageReceived{
		BaseEvent: events.NewBaseEvent(),
		SenderID:  sess.SenderID,
		Accepted:  true,
		Label:     label,
		Reason:    "stored",
	})
	sess.Advance(domain.StageConfirmation, c.now())

	if len(notes) == 0 {
		return msgImageStored
	}
	return strings.Join(notes, "\n") + "\n\n" + msgImageStored
}

// label asks the vision collaborator for a label. An unavailable labeler
// skips the spam check rather than blocking the upload.
func (c *Controller) label(ctx context.Context, data []byte, mimeType string) (string, bool) {
	if c.labeler == nil {
		return "", false
	}
	out := ports.Call(ctx, c.timeouts.Media, func(ctx context.Context) (string, error) {
		return c.labeler.Label(ctx, data, mimeType)
	})
	label, ok := out.Get()
	if !ok {
		c.log.CollaboratorFallback("labeler", out.Reason())
		return "", false
	}
	return strings.TrimSpace(label), true
}

func (c *Controller) storeImage(ctx context.Context, senderID, mediaID string, data []byte, mimeType string) (string, error) {
	if c.images == nil {
		return "whatsapp-media:" + mediaID, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Media)
	defer cancel()
	return c.images.StoreImage(ctx, senderID, data, mimeType)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
