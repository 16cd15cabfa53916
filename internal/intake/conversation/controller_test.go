package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nirvana_backend/internal/intake/classify"
	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/internal/intake/enhance"
	"nirvana_backend/internal/intake/evidence"
	"nirvana_backend/internal/intake/ports"
	"nirvana_backend/internal/intake/session"
	"nirvana_backend/platform/logger"

	"github.com/google/uuid"
)

const testSender = "919876543210"

type testStore struct {
	mu         sync.Mutex
	users      map[string]domain.User
	complaints []domain.Complaint
	created    []domain.NewComplaint
	createErr  error
	listErr    error
	panicOn    string
}

func newTestStore() *testStore {
	return &testStore{users: map[string]domain.User{
		testSender: {ID: uuid.New(), PhoneNumber: "+" + testSender, Name: "Asha"},
	}}
}

func (s *testStore) LookupUser(_ context.Context, senderID string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[senderID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *testStore) CreateComplaint(_ context.Context, c domain.NewComplaint) (domain.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panicOn == "create" {
		panic("store exploded")
	}
	if s.createErr != nil {
		return domain.Complaint{}, s.createErr
	}
	s.created = append(s.created, c)
	rec := domain.Complaint{
		ID:            uuid.New(),
		UserID:        c.UserID,
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.Category.String(),
		SeverityScore: c.SeverityScore,
		Latitude:      c.Location.Latitude,
		Longitude:     c.Location.Longitude,
		ImageRef:      c.ImageRef,
		Status:        domain.ComplaintStatusOpen,
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	s.complaints = append([]domain.Complaint{rec}, s.complaints...)
	return rec, nil
}

func (s *testStore) ListComplaints(_ context.Context, userID uuid.UUID, _ int) ([]domain.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Complaint
	for _, c := range s.complaints {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *testStore) GetComplaint(_ context.Context, id uuid.UUID) (domain.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.complaints {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Complaint{}, domain.ErrComplaintNotFound
}

type recordingSender struct {
	mu       sync.Mutex
	messages []domain.Reply
}

func (s *recordingSender) SendMessage(_ context.Context, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, domain.Reply{To: to, Text: text})
	return nil
}

type testMedia struct {
	data []byte
	err  error
}

func (m *testMedia) Resolve(_ context.Context, _ string) (ports.Media, error) {
	if m.err != nil {
		return ports.Media{}, m.err
	}
	return ports.Media{Data: m.data, MIMEType: "image/jpeg"}, nil
}

type testLabeler struct {
	label string
	err   error
}

func (l *testLabeler) Label(_ context.Context, _ []byte, _ string) (string, error) {
	return l.label, l.err
}

type testTranscriber struct {
	text string
	err  error
}

func (t *testTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return t.text, t.err
}

type testImages struct {
	stored int
	err    error
}

func (i *testImages) StoreImage(_ context.Context, senderID string, _ []byte, _ string) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	i.stored++
	return "complaint-images/" + senderID + "/photo.jpg", nil
}

type testTracking struct{}

func (testTracking) TrackingURL(id uuid.UUID) (string, error) {
	return "https://nirvana.example/track/" + id.String()[:8], nil
}

type harness struct {
	ctrl        *Controller
	store       *testStore
	sessions    *session.MemoryStore
	sender      *recordingSender
	media       *testMedia
	labeler     *testLabeler
	transcriber *testTranscriber
	images      *testImages
}

// newHarness wires a controller whose generative collaborators are absent,
// so every engine answers from its keyword fallback.
func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithSessions(t, nil)
}

// newHarnessWithSessions lets a test wrap the in-memory session store.
func newHarnessWithSessions(t *testing.T, wrap func(session.Store) session.Store) *harness {
	t.Helper()
	log := logger.New("development")
	h := &harness{
		store:       newTestStore(),
		sessions:    session.NewMemoryStore(0),
		sender:      &recordingSender{},
		media:       &testMedia{data: []byte{0xff, 0xd8, 0xff}},
		labeler:     &testLabeler{label: "road, pothole, asphalt"},
		transcriber: &testTranscriber{text: "streetlight not working on 5th cross"},
		images:      &testImages{},
	}
	var sessions session.Store = h.sessions
	if wrap != nil {
		sessions = wrap(h.sessions)
	}
	h.ctrl = New(Deps{
		Store:       h.store,
		Sessions:    sessions,
		Sender:      h.sender,
		Media:       h.media,
		Images:      h.images,
		Labeler:     h.labeler,
		Transcriber: h.transcriber,
		Classifier:  classify.New(nil, time.Second, log),
		Evidence:    evidence.New(nil, time.Second, log),
		Enhancer:    enhance.New(nil, time.Second, log),
		Tracking:    testTracking{},
		Log:         log,
		Timeouts:    Timeouts{Collaborator: time.Second, Media: time.Second},
	})
	return h
}

func (h *harness) send(t *testing.T, evt domain.InboundEvent) string {
	t.Helper()
	if evt.SenderID == "" {
		evt.SenderID = testSender
	}
	reply, err := h.ctrl.Handle(context.Background(), evt)
	if err != nil {
		t.Fatalf("Handle(%s) returned error: %v", evt.Type, err)
	}
	return reply.Text
}

func (h *harness) text(t *testing.T, body string) string {
	t.Helper()
	return h.send(t, domain.InboundEvent{Type: domain.EventText, Text: body})
}

func (h *harness) location(t *testing.T, lat, lng float64) string {
	t.Helper()
	return h.send(t, domain.InboundEvent{Type: domain.EventLocation, Location: &domain.Coordinates{Latitude: lat, Longitude: lng}})
}

func (h *harness) image(t *testing.T) string {
	t.Helper()
	return h.send(t, domain.InboundEvent{Type: domain.EventImage, MediaID: "media-1", MIMEType: "image/jpeg"})
}

func (h *harness) session(t *testing.T) *domain.Session {
	t.Helper()
	sess, err := h.sessions.Load(context.Background(), testSender)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return sess
}

func (h *harness) requireStage(t *testing.T, want domain.Stage) {
	t.Helper()
	if got := h.session(t).Stage; got != want {
		t.Fatalf("expected stage %s, got %s", want, got)
	}
}

func sameDraft(a, b domain.Draft) bool {
	if (a.Location == nil) != (b.Location == nil) {
		return false
	}
	if a.Location != nil && *a.Location != *b.Location {
		return false
	}
	return a.Description == b.Description &&
		a.DepartmentOrGeneral() == b.DepartmentOrGeneral() &&
		a.SeverityScore == b.SeverityScore &&
		a.NeedsImage == b.NeedsImage &&
		a.ImageRef == b.ImageRef &&
		a.VisionLabel == b.VisionLabel
}

// toMediaUpload drives a registered sender to the media stage.
func (h *harness) toMediaUpload(t *testing.T, description string) {
	t.Helper()
	h.text(t, "hi")
	h.text(t, description)
	h.location(t, 12.9716, 77.5946)
	h.requireStage(t, domain.StageMediaUpload)
}

func TestHandle_GreetsRegisteredSender(t *testing.T) {
	h := newHarness(t)

	reply := h.text(t, "hello")

	if reply != msgGreeting {
		t.Fatalf("expected greeting, got %q", reply)
	}
	sess := h.session(t)
	if sess.Stage != domain.StageDescription {
		t.Fatalf("expected description stage, got %s", sess.Stage)
	}
	if sess.UserID == nil || *sess.UserID != h.store.users[testSender].ID {
		t.Fatalf("expected user to be stored on session, got %v", sess.UserID)
	}
}

func TestHandle_UnregisteredSenderStaysInInit(t *testing.T) {
	h := newHarness(t)

	reply := h.send(t, domain.InboundEvent{SenderID: "15550001111", Type: domain.EventText, Text: "hello"})

	if !strings.Contains(reply, "register first") {
		t.Fatalf("expected registration instructions, got %q", reply)
	}
	sess, _ := h.sessions.Load(context.Background(), "15550001111")
	if sess.Stage != domain.StageInit || sess.UserID != nil {
		t.Fatalf("expected untouched init session, got %+v", sess)
	}
}

func TestHandle_GarbageDescriptionUsesFallbackClassification(t *testing.T) {
	h := newHarness(t)
	h.text(t, "hi")

	reply := h.text(t, "garbage not collected for 3 days near my house")

	sess := h.session(t)
	if sess.Stage != domain.StageLocation {
		t.Fatalf("expected location stage, got %s", sess.Stage)
	}
	if sess.Draft.DepartmentOrGeneral() != domain.DepartmentSanitation {
		t.Fatalf("expected Sanitation, got %s", sess.Draft.DepartmentOrGeneral())
	}
	if sess.Draft.SeverityScore != 0.7 {
		t.Fatalf("expected severity 0.7, got %v", sess.Draft.SeverityScore)
	}
	if !sess.Draft.NeedsImage {
		t.Fatal("expected needs_image for garbage complaint")
	}
	if !strings.Contains(reply, "Sanitation") {
		t.Fatalf("expected department in reply, got %q", reply)
	}
}

func TestHandle_DescriptionRejectsNonTextInput(t *testing.T) {
	h := newHarness(t)
	h.text(t, "hi")

	reply := h.location(t, 12.9, 77.5)

	if reply != msgDescribeIssue {
		t.Fatalf("expected re-prompt, got %q", reply)
	}
	h.requireStage(t, domain.StageDescription)
}

func TestHandle_VoiceDescriptionIsTranscribed(t *testing.T) {
	h := newHarness(t)
	h.text(t, "hi")

	reply := h.send(t, domain.InboundEvent{Type: domain.EventAudio, MediaID: "voice-1", MIMEType: "audio/ogg"})

	if !strings.HasPrefix(reply, "✅ Voice message transcribed") {
		t.Fatalf("expected transcription echo, got %q", reply)
	}
	sess := h.session(t)
	if sess.Stage != domain.StageLocation {
		t.Fatalf("expected location stage, got %s", sess.Stage)
	}
	if sess.Draft.Description != h.transcriber.text {
		t.Fatalf("expected transcript as description, got %q", sess.Draft.Description)
	}
	if sess.Draft.DepartmentOrGeneral() != domain.DepartmentElectricity {
		t.Fatalf("expected Electricity, got %s", sess.Draft.DepartmentOrGeneral())
	}
	if len(h.sender.messages) < 3 || h.sender.messages[1].Text != msgVoiceProcessing {
		t.Fatalf("expected processing acknowledgement before reply, got %+v", h.sender.messages)
	}
}

func TestHandle_VoiceTranscriptionFailureKeepsStage(t *testing.T) {
	h := newHarness(t)
	h.transcriber.err = errors.New("speech backend down")
	h.text(t, "hi")

	reply := h.send(t, domain.InboundEvent{Type: domain.EventAudio, MediaID: "voice-1"})

	if reply != msgVoiceFailed {
		t.Fatalf("expected voice failure reply, got %q", reply)
	}
	h.requireStage(t, domain.StageDescription)
	if h.session(t).Draft.Description != "" {
		t.Fatal("expected empty draft after failed transcription")
	}
}

func TestHandle_LocationStageRejectsTypedAddress(t *testing.T) {
	h := newHarness(t)
	h.text(t, "hi")
	h.text(t, "pothole on main road")

	reply := h.text(t, "12 MG Road, Bengaluru")

	if reply != msgLocationTextRejected {
		t.Fatalf("expected verbatim location rejection, got %q", reply)
	}
	h.requireStage(t, domain.StageLocation)
}

func TestHandle_LocationOutOfRangeIsRejected(t *testing.T) {
	h := newHarness(t)
	h.text(t, "hi")
	h.text(t, "pothole on main road")

	reply := h.location(t, 91, 0)

	if !strings.Contains(reply, "Latitude must be between -90 and 90") {
		t.Fatalf("expected range reason, got %q", reply)
	}
	sess := h.session(t)
	if sess.Stage != domain.StageLocation || sess.Draft.Location != nil {
		t.Fatalf("expected location stage without location, got %+v", sess)
	}
}

func TestHandle_LocationPromptDependsOnNeedsImage(t *testing.T) {
	cases := []struct {
		name        string
		description string
		want        string
	}{
		{"visual issue", "garbage dumped near the park", msgPromptPhotos},
		{"non visual", "please improve bus frequency", msgPromptOptional},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.text(t, "hi")
			h.text(t, tc.description)

			reply := h.location(t, 12.9716, 77.5946)

			if !strings.Contains(reply, tc.want) {
				t.Fatalf("expected %q in reply, got %q", tc.want, reply)
			}
			if !strings.Contains(reply, "12.971600, 77.594600") {
				t.Fatalf("expected normalized coordinates, got %q", reply)
			}
			h.requireStage(t, domain.StageMediaUpload)
		})
	}
}

func TestHandle_SubmitWithoutImage(t *testing.T) {
	h := newHarness(t)
	h.toMediaUpload(t, "garbage not collected for 3 days near my house")

	reply := h.text(t, "submit")

	if len(h.store.created) != 1 {
		t.Fatalf("expected one complaint persisted, got %d", len(h.store.created))
	}
	rec := h.store.complaints[0]
	if !strings.Contains(reply, "Tracking ID: "+rec.ShortID()) {
		t.Fatalf("expected truncated ID in reply, got %q", reply)
	}
	if !strings.Contains(reply, "https://nirvana.example/track/") {
		t.Fatalf("expected tracking link, got %q", reply)
	}
	created := h.store.created[0]
	if created.Category != domain.DepartmentSanitation || created.ImageRef != "" {
		t.Fatalf("unexpected persisted complaint: %+v", created)
	}
	if created.Title == "" || !strings.Contains(created.Description, "Location: 12.971600, 77.594600") {
		t.Fatalf("expected enhanced title and description, got %+v", created)
	}
	sess := h.session(t)
	if sess.Stage != domain.StageInit || sess.Draft != (domain.Draft{}) {
		t.Fatalf("expected reset session, got %+v", sess)
	}
	if sess.UserID == nil {
		t.Fatal("expected user to survive reset")
	}
}

func TestHandle_RepeatedSubmitStartsNewFlow(t *testing.T) {
	h := newHarness(t)
	h.toMediaUpload(t, "pothole on main road")
	h.text(t, "submit")

	reply := h.text(t, "submit")

	if reply != msgGreeting {
		t.Fatalf("expected a new flow greeting, got %q", reply)
	}
	if len(h.store.created) != 1 {
		t.Fatalf("expected a single complaint, got %d", len(h.store.created))
	}
	h.requireStage(t, domain.StageDescription)
}

func TestHandle_MediaStageAppendsDetails(t *testing.T) {
	h := newHarness(t)
	h.toMediaUpload(t, "pothole on main road")

	reply := h.text(t, "it is near the bus stop")

	if reply != msgDetailsAdded {
		t.Fatalf("expected details acknowledgement, got %q", reply)
	}
	want := "pothole on main road" + domain.AdditionalDetailsSeparator + "it is near the bus stop"
	sess := h.session(t)
	if sess.Draft.Description != want || sess.Stage != domain.StageMediaUpload {
		t.Fatalf("unexpected session after details: %+v", sess)
	}
}

func TestHandle_AcceptedImageAdvancesToConfirmation(t *testing.T) {
	h := newHarness(t)
	h.toMediaUpload(t, "pothole on main road")

	reply := h.image(t)

	if !strings.Contains(reply, "Image verified and matches your complaint!") {
		t.Fatalf("expected consistency confirmation, got %q", reply)
	}
	if !strings.Contains(reply, msgImageStored) {
		t.Fatalf("expected stored acknowledgement, got %q", reply)
	}
	sess := h.session(t)
	if sess.Stage != domain.StageConfirmation {
		t.Fatalf("expected confirmation stage, got %s", sess.Stage)
	}
	if sess.Draft.ImageRef == "" || sess.Draft.VisionLabel != "road, pothole, asphalt" {
		t.Fatalf("expected image on draft, got %+v", sess.Draft)
	}

	h.text(t, "confirm")
	if got := h.store.created[0].ImageRef; got != sess.Draft.ImageRef {
		t.Fatalf("expected image ref %q persisted, got %q", sess.Draft.ImageRef, got)
	}
}

func TestHandle_InconsistentImageIsStillAttached(t *testing.T) {
	h := newHarness(t)
	h.labeler.label = "electrical pole, cable"
	h.toMediaUpload(t, "pothole on main road")

	reply := h.image(t)

	if !strings.Contains(reply, "may not match your description") {
		t.Fatalf("expected advisory warning, got %q", reply)
	}
	h.requireStage(t, domain.StageConfirmation)
}

func TestHandle_SpamImageIsRejected(t *testing.T) {
	h := newHarness(t)
	h.labeler.label = "selfie, face"
	h.toMediaUpload(t, "garbage not collected for 3 days near my house")
	before := h.session(t).Draft

	reply := h.image(t)

	if !strings.Contains(reply, "Please send a photo of the actual problem") {
		t.Fatalf("expected request for a different image, got %q", reply)
	}
	sess := h.session(t)
	if sess.Stage != domain.StageMediaUpload {
		t.Fatalf("expected media stage, got %s", sess.Stage)
	}
	if !sameDraft(sess.Draft, before) {
		t.Fatalf("expected draft unchanged, got %+v want %+v", sess.Draft, before)
	}
	if h.images.stored != 0 {
		t.Fatalf("expected no stored image, got %d", h.images.stored)
	}
}

func TestHandle_UnavailableLabelerStillAcceptsImage(t *testing.T) {
	h := newHarness(t)
	h.labeler.err = errors.New("vision quota exceeded")
	h.toMediaUpload(t, "pothole on main road")

	reply := h.image(t)

	if reply != msgImageStored {
		t.Fatalf("expected plain stored reply, got %q", reply)
	}
	h.requireStage(t, domain.StageConfirmation)
}

func TestHandle_ImageDownloadFailureKeepsStage(t *testing.T) {
	h := newHarness(t)
	h.media.err = errors.New("media expired")
	h.toMediaUpload(t, "pothole on main road")

	reply := h.image(t)

	if reply != msgImageFailed {
		t.Fatalf("expected image failure reply, got %q", reply)
	}
	h.requireStage(t, domain.StageMediaUpload)
}

func TestHandle_StorageFailureKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.toMediaUpload(t, "pothole on main road")
	h.store.createErr = errors.New("connection refused")
	before := h.session(t).Draft

	reply := h.text(t, "submit")

	if reply != msgSubmitFailed {
		t.Fatalf("expected submit failure apology, got %q", reply)
	}
	sess := h.session(t)
	if sess.Stage != domain.StageMediaUpload || sess.Draft.Description != before.Description {
		t.Fatalf("expected session preserved, got %+v", sess)
	}

	h.store.createErr = nil
	if reply := h.text(t, "submit"); !strings.Contains(reply, "successfully logged") {
		t.Fatalf("expected retry to succeed, got %q", reply)
	}
}

func TestHandle_PanicResetsSession(t *testing.T) {
	h := newHarness(t)
	h.toMediaUpload(t, "pothole on main road")
	h.store.panicOn = "create"

	reply := h.text(t, "submit")

	if reply != msgGenericError {
		t.Fatalf("expected generic apology, got %q", reply)
	}
	sess := h.session(t)
	if sess.Stage != domain.StageInit || sess.Draft != (domain.Draft{}) {
		t.Fatalf("expected reset session, got %+v", sess)
	}
}

func TestHandle_CancelFromEveryStage(t *testing.T) {
	steps := map[domain.Stage]func(h *harness, t *testing.T){
		domain.StageDescription: func(h *harness, t *testing.T) {
			h.text(t, "hi")
		},
		domain.StageLocation: func(h *harness, t *testing.T) {
			h.text(t, "hi")
			h.text(t, "pothole on main road")
		},
		domain.StageMediaUpload: func(h *harness, t *testing.T) {
			h.toMediaUpload(t, "pothole on main road")
		},
		domain.StageConfirmation: func(h *harness, t *testing.T) {
			h.toMediaUpload(t, "pothole on main road")
			h.image(t)
		},
	}
	for stage, reach := range steps {
		t.Run(stage.String(), func(t *testing.T) {
			h := newHarness(t)
			reach(h, t)
			h.requireStage(t, stage)

			reply := h.text(t, "Cancel!")

			if reply != msgCancelled {
				t.Fatalf("expected cancellation reply, got %q", reply)
			}
			sess := h.session(t)
			if sess.Stage != domain.StageInit || sess.Draft != (domain.Draft{}) {
				t.Fatalf("expected reset session, got %+v", sess)
			}
		})
	}
}

func TestHandle_CancelInInitIsNoop(t *testing.T) {
	h := newHarness(t)

	reply := h.text(t, "cancel")

	if reply != msgCancelNoop {
		t.Fatalf("expected no-op reply, got %q", reply)
	}
	h.requireStage(t, domain.StageInit)
}

func TestHandle_StatusListsAndShowsComplaints(t *testing.T) {
	h := newHarness(t)
	h.toMediaUpload(t, "pothole on main road")
	h.text(t, "submit")
	rec := h.store.complaints[0]

	list := h.text(t, "status")
	if !strings.Contains(list, "Your Complaints (1 total)") || !strings.Contains(list, rec.ShortID()) {
		t.Fatalf("unexpected status list: %q", list)
	}

	detail := h.text(t, "track "+rec.ShortID())
	if !strings.Contains(detail, "Complaint Status") || !strings.Contains(detail, "Public Works") {
		t.Fatalf("unexpected status detail: %q", detail)
	}

	full := h.text(t, "status "+rec.ID.String())
	if !strings.Contains(full, rec.ShortID()) {
		t.Fatalf("expected full ID lookup to match, got %q", full)
	}
	h.requireStage(t, domain.StageInit)
}

func TestHandle_StatusDoesNotShowOtherUsersComplaints(t *testing.T) {
	h := newHarness(t)
	other := uuid.New()
	foreign, _ := h.store.CreateComplaint(context.Background(), domain.NewComplaint{
		UserID:   other,
		Title:    "Water – Leak",
		Category: domain.DepartmentWater,
	})

	reply := h.text(t, "status "+foreign.ID.String())

	if reply != notFoundReply(foreign.ID.String()) {
		t.Fatalf("expected not found, got %q", reply)
	}
}

func TestHandle_CommandsDoNotTouchDraft(t *testing.T) {
	h := newHarness(t)
	h.text(t, "hi")
	h.text(t, "pothole on main road")
	before := h.session(t)

	reply := h.text(t, "history")

	if reply != msgNoHistory {
		t.Fatalf("expected empty history, got %q", reply)
	}
	after := h.session(t)
	if after.Stage != before.Stage || after.Draft.Description != before.Draft.Description {
		t.Fatalf("expected draft untouched, got %+v", after)
	}
}

func TestHandle_HistoryStorageFailureKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.text(t, "hi")
	h.store.listErr = errors.New("timeout")

	reply := h.text(t, "my complaints")

	if reply != msgStorageError {
		t.Fatalf("expected storage apology, got %q", reply)
	}
	h.requireStage(t, domain.StageDescription)
}

func TestHandle_SerializesEventsPerSender(t *testing.T) {
	h := newHarness(t)
	h.text(t, "hi")
	h.text(t, "pothole on main road")
	h.location(t, 12.9716, 77.5946)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.ctrl.Handle(context.Background(), domain.InboundEvent{
				SenderID: testSender,
				Type:     domain.EventText,
				Text:     "more detail",
			})
		}()
	}
	wg.Wait()

	got := strings.Count(h.session(t).Draft.Description, "more detail")
	if got != 20 {
		t.Fatalf("expected 20 appended details, got %d", got)
	}
}

func TestHandle_ConfirmationAppendsDetails(t *testing.T) {
	h := newHarness(t)
	h.toMediaUpload(t, "pothole on main road")
	h.image(t)

	reply := h.text(t, "near the school gate")

	if reply != msgConfirmPrompt {
		t.Fatalf("expected confirmation prompt, got %q", reply)
	}
	sess := h.session(t)
	want := "pothole on main road" + domain.AdditionalDetailsSeparator + "near the school gate"
	if sess.Draft.Description != want {
		t.Fatalf("expected appended description, got %q", sess.Draft.Description)
	}
	if sess.Stage != domain.StageConfirmation || sess.Draft.ImageRef == "" {
		t.Fatalf("expected confirmation stage with image kept, got %+v", sess)
	}
}

func TestHandle_ConfirmationRejectsImage(t *testing.T) {
	h := newHarness(t)
	h.toMediaUpload(t, "pothole on main road")
	h.image(t)
	before := h.session(t).Draft

	if reply := h.image(t); reply != msgConfirmPrompt {
		t.Fatalf("expected confirmation prompt for image, got %q", reply)
	}
	if reply := h.location(t, 12.9, 77.5); reply != msgConfirmPrompt {
		t.Fatalf("expected confirmation prompt for location, got %q", reply)
	}

	h.requireStage(t, domain.StageConfirmation)
	if !sameDraft(before, h.session(t).Draft) {
		t.Fatalf("expected draft unchanged, got %+v", h.session(t).Draft)
	}
	if h.images.stored != 1 {
		t.Fatalf("expected one stored image, got %d", h.images.stored)
	}
}

// flakySessions fails the next failSaves saves and, optionally, every delete.
type flakySessions struct {
	session.Store
	mu         sync.Mutex
	failSaves  int
	failDelete bool
}

func (f *flakySessions) Save(ctx context.Context, s *domain.Session) error {
	f.mu.Lock()
	if f.failSaves > 0 {
		f.failSaves--
		f.mu.Unlock()
		return errors.New("redis: connection reset by peer")
	}
	f.mu.Unlock()
	return f.Store.Save(ctx, s)
}

func (f *flakySessions) Delete(ctx context.Context, senderID string) error {
	f.mu.Lock()
	fail := f.failDelete
	f.mu.Unlock()
	if fail {
		return errors.New("redis: connection reset by peer")
	}
	return f.Store.Delete(ctx, senderID)
}

func (f *flakySessions) fail(saves int, deletes bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSaves = saves
	f.failDelete = deletes
}

func newFlakyHarness(t *testing.T) (*harness, *flakySessions) {
	t.Helper()
	flaky := &flakySessions{}
	h := newHarnessWithSessions(t, func(s session.Store) session.Store {
		flaky.Store = s
		return flaky
	})
	return h, flaky
}

func TestHandle_UnsavedSubmissionCannotBeSubmittedAgain(t *testing.T) {
	h, flaky := newFlakyHarness(t)
	h.toMediaUpload(t, "pothole on main road")

	flaky.fail(saveAttempts, false)
	reply := h.text(t, "submit")

	if !strings.Contains(reply, "Tracking ID") {
		t.Fatalf("expected submission confirmation, got %q", reply)
	}
	h.requireStage(t, domain.StageInit)
	if h.session(t).Draft.Description != "" {
		t.Fatal("expected stored draft to be discarded")
	}

	if reply := h.text(t, "submit"); reply != msgGreeting {
		t.Fatalf("expected a fresh conversation, got %q", reply)
	}
	if len(h.store.created) != 1 {
		t.Fatalf("expected a single complaint, got %d", len(h.store.created))
	}
}

func TestHandle_SaveRetrySucceeds(t *testing.T) {
	h, flaky := newFlakyHarness(t)
	h.text(t, "hi")

	flaky.fail(saveAttempts-1, false)
	reply := h.text(t, "pothole on main road")

	if reply == msgProgressLost {
		t.Fatal("expected the retried save to keep progress")
	}
	h.requireStage(t, domain.StageLocation)
}

func TestHandle_UnsavedProgressIsReported(t *testing.T) {
	h, flaky := newFlakyHarness(t)
	h.text(t, "hi")

	flaky.fail(saveAttempts, false)
	reply := h.text(t, "pothole on main road")

	if reply != msgProgressLost {
		t.Fatalf("expected lost progress notice, got %q", reply)
	}
	h.requireStage(t, domain.StageInit)
}

func TestHandle_UndeletableSessionAsksForCancel(t *testing.T) {
	h, flaky := newFlakyHarness(t)
	h.toMediaUpload(t, "pothole on main road")

	flaky.fail(saveAttempts, true)
	reply := h.text(t, "submit")

	if !strings.Contains(reply, "Tracking ID") || !strings.HasSuffix(reply, msgStateNotSaved) {
		t.Fatalf("expected confirmation followed by cancel notice, got %q", reply)
	}

	flaky.fail(0, false)
	if reply := h.text(t, "cancel"); reply != msgCancelled {
		t.Fatalf("expected cancel to clear the stale draft, got %q", reply)
	}
	h.text(t, "submit")
	if len(h.store.created) != 1 {
		t.Fatalf("expected a single complaint, got %d", len(h.store.created))
	}
}
