package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/cropgen/agrichat/internal/models"
	"github.com/cropgen/agrichat/internal/responder"
	"github.com/cropgen/agrichat/internal/store"
)

// fakeResponder returns canned answers and records what it was asked.
type fakeResponder struct {
	answer string
	err    error
	asked  []string
}

func (f *fakeResponder) Ask(ctx context.Context, text string) (string, error) {
	f.asked = append(f.asked, text)
	return f.answer, f.err
}

// fakeFactory hands out a shared fake responder so tests can inspect it.
type fakeFactory struct {
	rsp *fakeResponder
}

func (f *fakeFactory) NewResponder(connectionID string) responder.Responder {
	return f.rsp
}

// failingStore wraps an in-memory store and fails the configured operations.
type failingStore struct {
	*store.InMemoryStore
	failCreateFarmer bool
	failCreateOrg    bool
	failHistory      bool
	createAttempts   int
}

func (s *failingStore) CreateFarmer(ctx context.Context, name, contact string) (models.Farmer, error) {
	s.createAttempts++
	if s.failCreateFarmer {
		return models.Farmer{}, errors.New("db unavailable")
	}
	return s.InMemoryStore.CreateFarmer(ctx, name, contact)
}

func (s *failingStore) CreateOrganization(ctx context.Context, name, contact, email string) (models.Organization, error) {
	s.createAttempts++
	if s.failCreateOrg {
		return models.Organization{}, errors.New("db unavailable")
	}
	return s.InMemoryStore.CreateOrganization(ctx, name, contact, email)
}

func (s *failingStore) GetHistory(ctx context.Context, subjectID string) ([]models.ChatMessage, error) {
	if s.failHistory {
		return nil, errors.New("db unavailable")
	}
	return s.InMemoryStore.GetHistory(ctx, subjectID)
}

func newTestEngine(st store.Store, rsp *fakeResponder) *Engine {
	if rsp == nil {
		rsp = &fakeResponder{answer: "hello"}
	}
	return NewEngine(st, &fakeFactory{rsp: rsp})
}

func TestConnectReturnsWelcome(t *testing.T) {
	e := newTestEngine(store.NewInMemoryStore(), nil)
	got := e.Connect(context.Background(), "conn-1")
	if got != WelcomeMessage {
		t.Errorf("Connect returned %q, want welcome prompt", got)
	}
}

func TestInvalidRoleChoice(t *testing.T) {
	e := newTestEngine(store.NewInMemoryStore(), nil)
	e.Connect(context.Background(), "conn-1")

	replies := e.HandleMessage(context.Background(), "conn-1", "banana")
	if len(replies) != 1 || replies[0] != InvalidChoiceMessage {
		t.Fatalf("unexpected replies %v, want single invalid-choice message", replies)
	}

	// Still awaiting role selection: a valid choice must now work.
	replies = e.HandleMessage(context.Background(), "conn-1", "2")
	if len(replies) != 1 || replies[0] != "What is your name?" {
		t.Fatalf("unexpected replies after retry: %v", replies)
	}
}

func TestOrganizationIntakeHappyPath(t *testing.T) {
	st := store.NewInMemoryStore()
	e := newTestEngine(st, nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")

	replies := e.HandleMessage(ctx, "conn-1", "1")
	if len(replies) != 1 || replies[0] != "What is the name of your organization?" {
		t.Fatalf("unexpected replies for choice 1: %v", replies)
	}

	replies = e.HandleMessage(ctx, "conn-1", "Acme Co")
	if len(replies) != 1 || replies[0] != "What is the contact number of your organization?" {
		t.Fatalf("unexpected replies after name: %v", replies)
	}

	replies = e.HandleMessage(ctx, "conn-1", "9876543210")
	if len(replies) != 1 || replies[0] != "What is the email address of your organization?" {
		t.Fatalf("unexpected replies after contact: %v", replies)
	}

	replies = e.HandleMessage(ctx, "conn-1", "a@b.com")
	if len(replies) != 2 || replies[0] != OrganizationSavedMessage || replies[1] != FollowUpMessage {
		t.Fatalf("unexpected replies after email: %v", replies)
	}

	orgs, err := st.ListOrganizations(ctx)
	if err != nil {
		t.Fatalf("ListOrganizations failed: %v", err)
	}
	if len(orgs) != 1 {
		t.Fatalf("expected 1 organization, got %d", len(orgs))
	}
	org := orgs[0]
	if org.Name != "Acme Co" || org.Contact != "+919876543210" || org.Email != "a@b.com" {
		t.Errorf("unexpected saved record: %+v", org)
	}

	// Intake is done: the next message goes to the AI responder.
	replies = e.HandleMessage(ctx, "conn-1", "tell me about NDVI")
	if len(replies) != 1 || replies[0] != "hello" {
		t.Fatalf("expected AI answer after intake, got %v", replies)
	}
}

func TestFarmerIntakeHappyPath(t *testing.T) {
	st := store.NewInMemoryStore()
	e := newTestEngine(st, nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")

	e.HandleMessage(ctx, "conn-1", "2")
	e.HandleMessage(ctx, "conn-1", "Ravi Kumar")
	replies := e.HandleMessage(ctx, "conn-1", "98765 43210")
	if len(replies) != 2 || replies[0] != FarmerSavedMessage || replies[1] != FollowUpMessage {
		t.Fatalf("unexpected replies after contact: %v", replies)
	}

	farmers, err := st.ListFarmers(ctx)
	if err != nil {
		t.Fatalf("ListFarmers failed: %v", err)
	}
	if len(farmers) != 1 {
		t.Fatalf("expected 1 farmer, got %d", len(farmers))
	}
	if farmers[0].Name != "Ravi Kumar" || farmers[0].Contact != "+919876543210" {
		t.Errorf("unexpected saved record: %+v", farmers[0])
	}
}

func TestIntakeRejectsShortName(t *testing.T) {
	e := newTestEngine(store.NewInMemoryStore(), nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.HandleMessage(ctx, "conn-1", "2")

	replies := e.HandleMessage(ctx, "conn-1", "Jo")
	if len(replies) != 2 {
		t.Fatalf("expected error plus repeated question, got %v", replies)
	}
	if replies[0] != "Please enter a valid name with at least 3 characters." {
		t.Errorf("unexpected error reply %q", replies[0])
	}
	if replies[1] != "What is your name?" {
		t.Errorf("expected the same question repeated, got %q", replies[1])
	}

	// The step did not advance: a valid name proceeds to the contact question.
	replies = e.HandleMessage(ctx, "conn-1", "Ravi")
	if len(replies) != 1 || replies[0] != "What is your contact number?" {
		t.Fatalf("unexpected replies after valid retry: %v", replies)
	}
}

func TestIntakeRejectsBadContactAndEmail(t *testing.T) {
	e := newTestEngine(store.NewInMemoryStore(), nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.HandleMessage(ctx, "conn-1", "1")
	e.HandleMessage(ctx, "conn-1", "Acme Co")

	replies := e.HandleMessage(ctx, "conn-1", "12345")
	if len(replies) != 2 || replies[0] != "Please enter a valid 10-digit mobile number" {
		t.Fatalf("unexpected replies for bad contact: %v", replies)
	}

	e.HandleMessage(ctx, "conn-1", "9876543210")
	replies = e.HandleMessage(ctx, "conn-1", "nope")
	if len(replies) != 2 || replies[0] != "Please enter a valid email address." {
		t.Fatalf("unexpected replies for bad email: %v", replies)
	}
	if replies[1] != "What is the email address of your organization?" {
		t.Errorf("expected email question repeated, got %q", replies[1])
	}
}

func TestGeneralInquiryChoice(t *testing.T) {
	rsp := &fakeResponder{answer: "We monitor crops from orbit."}
	e := newTestEngine(store.NewInMemoryStore(), rsp)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")

	replies := e.HandleMessage(ctx, "conn-1", "3")
	if len(replies) != 1 || replies[0] != GeneralInfoMessage {
		t.Fatalf("unexpected replies for choice 3: %v", replies)
	}

	replies = e.HandleMessage(ctx, "conn-1", "what do you do?")
	if len(replies) != 1 || replies[0] != "We monitor crops from orbit." {
		t.Fatalf("unexpected AI replies: %v", replies)
	}
	if len(rsp.asked) != 1 || rsp.asked[0] != "what do you do?" {
		t.Errorf("responder asked %v, want the raw user message", rsp.asked)
	}
}

func TestAIFailureFallsBackToErrorMessage(t *testing.T) {
	rsp := &fakeResponder{err: errors.New("rate limited")}
	e := newTestEngine(store.NewInMemoryStore(), rsp)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.HandleMessage(ctx, "conn-1", "3")

	replies := e.HandleMessage(ctx, "conn-1", "hello?")
	if len(replies) != 1 || replies[0] != AIErrorMessage {
		t.Fatalf("unexpected replies on AI failure: %v", replies)
	}
}

func TestAIEmptyAnswerFallsBack(t *testing.T) {
	rsp := &fakeResponder{answer: ""}
	e := newTestEngine(store.NewInMemoryStore(), rsp)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.HandleMessage(ctx, "conn-1", "3")

	replies := e.HandleMessage(ctx, "conn-1", "hello?")
	if len(replies) != 1 || replies[0] != AIEmptyMessage {
		t.Fatalf("unexpected replies on empty AI answer: %v", replies)
	}
}

func TestSaveFailurePreservesAnswersAndRetries(t *testing.T) {
	st := &failingStore{InMemoryStore: store.NewInMemoryStore(), failCreateFarmer: true}
	e := newTestEngine(st, nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.HandleMessage(ctx, "conn-1", "2")
	e.HandleMessage(ctx, "conn-1", "Ravi Kumar")

	replies := e.HandleMessage(ctx, "conn-1", "9876543210")
	if len(replies) != 1 || replies[0] != SaveErrorMessage {
		t.Fatalf("unexpected replies on save failure: %v", replies)
	}
	if st.createAttempts != 1 {
		t.Fatalf("expected 1 create attempt, got %d", st.createAttempts)
	}

	// The store recovers; the next message retries the save with the
	// preserved answers.
	st.failCreateFarmer = false
	replies = e.HandleMessage(ctx, "conn-1", "are you there?")
	if len(replies) != 2 || replies[0] != FarmerSavedMessage || replies[1] != FollowUpMessage {
		t.Fatalf("unexpected replies on retry: %v", replies)
	}
	if st.createAttempts != 2 {
		t.Fatalf("expected 2 create attempts, got %d", st.createAttempts)
	}

	farmers, _ := st.ListFarmers(ctx)
	if len(farmers) != 1 || farmers[0].Name != "Ravi Kumar" {
		t.Fatalf("expected preserved answers to be saved, got %v", farmers)
	}
}

func TestRecordValidationFailureRestartsSequence(t *testing.T) {
	st := store.NewInMemoryStore()
	e := newTestEngine(st, nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.HandleMessage(ctx, "conn-1", "2")

	// Force a completed sequence whose accumulated answers fail the
	// whole-record re-check (non-canonical contact), which step-level
	// canonicalization normally prevents.
	sess, ok := e.registry.Session("conn-1")
	if !ok {
		t.Fatal("session missing")
	}
	sess.Answers["name"] = "Ravi Kumar"
	sess.Answers["contact"] = "9876543210"
	sess.Step = len(sess.Questions)

	replies := e.HandleMessage(ctx, "conn-1", "done")
	if len(replies) != 2 {
		t.Fatalf("expected error plus first question, got %v", replies)
	}
	if replies[0] != "Invalid input: Please enter a valid 10-digit mobile number" {
		t.Errorf("unexpected error reply %q", replies[0])
	}
	if replies[1] != "What is your name?" {
		t.Errorf("expected first question re-emitted, got %q", replies[1])
	}

	if sess.Step != 0 {
		t.Errorf("Step = %d, want 0 after restart", sess.Step)
	}
	if len(sess.Answers) != 0 {
		t.Errorf("Answers not cleared: %v", sess.Answers)
	}
	if sess.Kind != KindFarmer {
		t.Errorf("Kind = %q, want farmer intake to continue", sess.Kind)
	}

	// Nothing was persisted.
	farmers, err := st.ListFarmers(ctx)
	if err != nil {
		t.Fatalf("ListFarmers failed: %v", err)
	}
	if len(farmers) != 0 {
		t.Errorf("expected no farmers after rejected record, got %v", farmers)
	}

	// The sequence restarts cleanly from the name question.
	replies = e.HandleMessage(ctx, "conn-1", "Ravi Kumar")
	if len(replies) != 1 || replies[0] != "What is your contact number?" {
		t.Fatalf("unexpected replies after restart: %v", replies)
	}
}

func TestResetArchivesTranscript(t *testing.T) {
	e := newTestEngine(store.NewInMemoryStore(), nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.HandleMessage(ctx, "conn-1", "3")

	got := e.Reset(ctx, "conn-1")
	if got != ResetMessage {
		t.Errorf("Reset returned %q, want reset message", got)
	}
	archived := e.ArchivedSessions("conn-1")
	if len(archived) != 1 {
		t.Fatalf("expected 1 archived session, got %d", len(archived))
	}
	if len(archived[0]) == 0 {
		t.Error("archived transcript is empty")
	}

	// Fresh state: role selection applies again.
	replies := e.HandleMessage(ctx, "conn-1", "2")
	if len(replies) != 1 || replies[0] != "What is your name?" {
		t.Fatalf("unexpected replies after reset: %v", replies)
	}
}

func TestResetUnknownConnection(t *testing.T) {
	e := newTestEngine(store.NewInMemoryStore(), nil)
	if got := e.Reset(context.Background(), "nope"); got != "" {
		t.Errorf("Reset for unknown connection returned %q, want empty", got)
	}
}

func TestHandleMessageUnknownConnection(t *testing.T) {
	e := newTestEngine(store.NewInMemoryStore(), nil)
	if replies := e.HandleMessage(context.Background(), "nope", "hi"); replies != nil {
		t.Errorf("expected nil replies for unknown connection, got %v", replies)
	}
}

func TestHistoryPersistsAfterIntake(t *testing.T) {
	st := store.NewInMemoryStore()
	e := newTestEngine(st, nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.HandleMessage(ctx, "conn-1", "2")
	e.HandleMessage(ctx, "conn-1", "Ravi Kumar")
	e.HandleMessage(ctx, "conn-1", "9876543210")

	msgs := e.History(ctx, "conn-1")
	if len(msgs) != 2 {
		t.Fatalf("expected 2 durable messages (confirmation replies), got %d: %v", len(msgs), msgs)
	}
	if msgs[0].Text != FarmerSavedMessage || msgs[1].Text != FollowUpMessage {
		t.Errorf("unexpected durable history: %v", msgs)
	}
	for _, m := range msgs {
		if m.Sender != models.SenderAI {
			t.Errorf("expected ai sender, got %q", m.Sender)
		}
	}

	// Later turns land in the durable history too.
	e.HandleMessage(ctx, "conn-1", "thanks")
	msgs = e.History(ctx, "conn-1")
	if len(msgs) != 4 {
		t.Fatalf("expected 4 durable messages, got %d", len(msgs))
	}
	if msgs[2].Text != "thanks" || msgs[2].Sender != models.SenderUser {
		t.Errorf("unexpected user message in history: %+v", msgs[2])
	}
}

func TestHistoryBeforeIntakeIsEmpty(t *testing.T) {
	e := newTestEngine(store.NewInMemoryStore(), nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.HandleMessage(ctx, "conn-1", "3")

	msgs := e.History(ctx, "conn-1")
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("expected empty history before intake, got %v", msgs)
	}
}

func TestHistoryStoreFailureDegrades(t *testing.T) {
	st := &failingStore{InMemoryStore: store.NewInMemoryStore()}
	e := newTestEngine(st, nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.HandleMessage(ctx, "conn-1", "2")
	e.HandleMessage(ctx, "conn-1", "Ravi Kumar")
	e.HandleMessage(ctx, "conn-1", "9876543210")

	st.failHistory = true
	msgs := e.History(ctx, "conn-1")
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("expected empty history on store failure, got %v", msgs)
	}
}

func TestDisconnectDropsState(t *testing.T) {
	e := newTestEngine(store.NewInMemoryStore(), nil)
	ctx := context.Background()
	e.Connect(ctx, "conn-1")
	e.Disconnect("conn-1")

	if replies := e.HandleMessage(ctx, "conn-1", "2"); replies != nil {
		t.Errorf("expected nil replies after disconnect, got %v", replies)
	}
	if archived := e.ArchivedSessions("conn-1"); archived != nil {
		t.Errorf("expected no archived sessions after disconnect, got %v", archived)
	}
}
