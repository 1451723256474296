package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cropgen/agrichat/internal/models"
	"github.com/cropgen/agrichat/internal/responder"
	"github.com/cropgen/agrichat/internal/store"
	"github.com/cropgen/agrichat/internal/validation"
)

// Fixed reply texts. These are part of the conversational contract and are
// asserted on by clients and tests.
const (
	WelcomeMessage = "Welcome! To help you better, could you tell me who you are? Reply 1 for Organization, 2 for Farmer, or 3 for a general inquiry."

	GeneralInfoMessage = "Cropgen is a satellite-based crop monitoring platform that helps farmers and organizations optimize agricultural outcomes. How can I assist you further?"

	InvalidChoiceMessage = "Invalid choice. Please reply with 1, 2, or 3."

	OrganizationSavedMessage = "Organization details saved successfully."
	FarmerSavedMessage       = "Farmer details saved successfully."
	FollowUpMessage          = "How can I assist you further?"

	SaveErrorMessage = "Server error while saving data."
	AIErrorMessage   = "AI error occurred."
	AIEmptyMessage   = "Sorry, I didn't understand that."

	ResetMessage = "Conversation reset. " + WelcomeMessage
)

// DefaultAskTimeout bounds each AI responder call.
const DefaultAskTimeout = 30 * time.Second

// Engine drives the conversation state machine for every live connection.
// All failures from the store and the responder are converted to user-facing
// replies; nothing the engine returns can terminate a connection.
type Engine struct {
	registry   *Registry
	store      store.Store
	factory    responder.Factory
	askTimeout time.Duration
}

// NewEngine creates a conversation engine over the given store and responder
// factory.
func NewEngine(st store.Store, factory responder.Factory) *Engine {
	return &Engine{
		registry:   NewRegistry(),
		store:      st,
		factory:    factory,
		askTimeout: DefaultAskTimeout,
	}
}

// Connect allocates session state and a fresh AI responder for a new
// connection and returns the role-selection prompt.
func (e *Engine) Connect(ctx context.Context, connectionID string) string {
	slog.Info("Engine connection opened", "connectionID", connectionID)
	sess := e.registry.Create(connectionID, e.factory.NewResponder(connectionID))
	e.record(ctx, sess, models.SenderAI, WelcomeMessage)
	return WelcomeMessage
}

// Disconnect releases the session, the bound responder, and any archived
// transcripts for the connection.
func (e *Engine) Disconnect(connectionID string) {
	slog.Info("Engine connection closed", "connectionID", connectionID)
	e.registry.Remove(connectionID)
}

// HandleMessage advances the state machine with one inbound message and
// returns the ordered replies to emit. Messages for unknown connections
// (e.g. arriving after disconnect cleanup) are dropped.
func (e *Engine) HandleMessage(ctx context.Context, connectionID, raw string) []string {
	sess, ok := e.registry.Session(connectionID)
	if !ok {
		slog.Warn("Engine dropping message for unknown connection", "connectionID", connectionID)
		return nil
	}

	trimmed := strings.TrimSpace(raw)
	e.record(ctx, sess, models.SenderUser, trimmed)

	var replies []string
	switch sess.Kind {
	case KindUnset:
		replies = e.handleRoleSelection(ctx, sess, trimmed)
	case KindOrganization, KindFarmer:
		replies = e.handleIntakeAnswer(ctx, sess, trimmed)
	case KindGeneral:
		replies = e.handleGeneral(ctx, connectionID, sess, raw)
	}
	return replies
}

// handleRoleSelection interprets the first message as a menu choice.
func (e *Engine) handleRoleSelection(ctx context.Context, sess *Session, choice string) []string {
	switch choice {
	case "1":
		sess.Kind = KindOrganization
		sess.Questions = organizationQuestions
		return e.reply(ctx, sess, sess.Questions[0])
	case "2":
		sess.Kind = KindFarmer
		sess.Questions = farmerQuestions
		return e.reply(ctx, sess, sess.Questions[0])
	case "3":
		sess.Kind = KindGeneral
		return e.reply(ctx, sess, GeneralInfoMessage)
	default:
		return e.reply(ctx, sess, InvalidChoiceMessage)
	}
}

// handleIntakeAnswer treats the message as the answer to the current question,
// validating it and advancing or repeating the step.
func (e *Engine) handleIntakeAnswer(ctx context.Context, sess *Session, answer string) []string {
	// A completed sequence with no subject means a previous save failed;
	// answers were preserved, so any message retries the save.
	if sess.SequenceComplete() {
		return e.completeIntake(ctx, sess)
	}

	field := sess.Fields()[sess.Step]
	value, ferr := validation.CheckField(field, answer)
	if ferr != nil {
		slog.Debug("Engine intake answer rejected", "field", field, "reason", ferr.Reason)
		replies := e.reply(ctx, sess, ferr.Message)
		return append(replies, e.reply(ctx, sess, sess.Questions[sess.Step])...)
	}

	sess.Answers[field] = value
	sess.Step++

	if !sess.SequenceComplete() {
		return e.reply(ctx, sess, sess.Questions[sess.Step])
	}
	return e.completeIntake(ctx, sess)
}

// completeIntake runs the authoritative whole-record validation and persists
// the subject. Record-level failure restarts the sequence from scratch; a
// persistence failure preserves the answers so the next message retries.
func (e *Engine) completeIntake(ctx context.Context, sess *Session) []string {
	kind := sess.Kind.SubjectKind()

	if errs := validation.CheckRecord(kind, sess.Answers); len(errs) > 0 {
		slog.Warn("Engine record validation failed", "kind", kind, "field", errs[0].Field, "reason", errs[0].Reason)
		replies := e.reply(ctx, sess, "Invalid input: "+errs[0].Message)
		sess.Step = 0
		sess.Answers = make(map[string]string)
		return append(replies, e.reply(ctx, sess, sess.Questions[0])...)
	}

	var (
		subjectID string
		saved     string
		err       error
	)
	if kind == models.SubjectOrganization {
		var org models.Organization
		org, err = e.store.CreateOrganization(ctx, sess.Answers[validation.FieldName], sess.Answers[validation.FieldContact], sess.Answers[validation.FieldEmail])
		subjectID, saved = org.ID, OrganizationSavedMessage
	} else {
		var farmer models.Farmer
		farmer, err = e.store.CreateFarmer(ctx, sess.Answers[validation.FieldName], sess.Answers[validation.FieldContact])
		subjectID, saved = farmer.ID, FarmerSavedMessage
	}
	if err != nil {
		slog.Error("Engine failed to persist intake record", "error", err, "kind", kind)
		return e.reply(ctx, sess, SaveErrorMessage)
	}

	sess.Subject = &models.SubjectRef{ID: subjectID, Kind: kind}
	slog.Info("Engine intake completed", "kind", kind, "subjectID", subjectID)

	replies := e.reply(ctx, sess, saved)
	replies = append(replies, e.reply(ctx, sess, FollowUpMessage)...)

	sess.Kind = KindGeneral
	sess.Step = 0
	sess.Answers = make(map[string]string)
	return replies
}

// handleGeneral forwards the raw message to the connection's AI responder.
// Responder failures are logged and surfaced as a fixed fallback reply.
func (e *Engine) handleGeneral(ctx context.Context, connectionID string, sess *Session, raw string) []string {
	rsp, ok := e.registry.Responder(connectionID)
	if !ok {
		slog.Warn("Engine responder missing for connection", "connectionID", connectionID)
		return e.reply(ctx, sess, AIErrorMessage)
	}

	askCtx, cancel := context.WithTimeout(ctx, e.askTimeout)
	defer cancel()

	answer, err := rsp.Ask(askCtx, raw)
	if err != nil {
		slog.Error("Engine AI responder call failed", "error", err, "connectionID", connectionID)
		return e.reply(ctx, sess, AIErrorMessage)
	}
	if answer == "" {
		return e.reply(ctx, sess, AIEmptyMessage)
	}
	return e.reply(ctx, sess, answer)
}

// Reset archives a non-empty transcript and reinitializes the session.
func (e *Engine) Reset(ctx context.Context, connectionID string) string {
	sess, ok := e.registry.Reset(connectionID)
	if !ok {
		slog.Warn("Engine reset for unknown connection", "connectionID", connectionID)
		return ""
	}
	slog.Info("Engine conversation reset", "connectionID", connectionID)
	e.record(ctx, sess, models.SenderAI, ResetMessage)
	return ResetMessage
}

// History returns the durable chat history for the connection's subject, or
// an empty list when no subject exists yet. Store failures degrade to an
// empty list.
func (e *Engine) History(ctx context.Context, connectionID string) []models.ChatMessage {
	sess, ok := e.registry.Session(connectionID)
	if !ok || sess.Subject == nil {
		return []models.ChatMessage{}
	}
	msgs, err := e.store.GetHistory(ctx, sess.Subject.ID)
	if err != nil {
		slog.Warn("Engine failed to fetch chat history", "error", err, "subjectID", sess.Subject.ID)
		return []models.ChatMessage{}
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs
}

// ArchivedSessions exposes the archived transcripts for a connection.
func (e *Engine) ArchivedSessions(connectionID string) [][]models.ChatMessage {
	return e.registry.ArchivedSessions(connectionID)
}

// reply records an outbound AI message and returns it as a single-element
// reply slice for easy chaining.
func (e *Engine) reply(ctx context.Context, sess *Session, text string) []string {
	e.record(ctx, sess, models.SenderAI, text)
	return []string{text}
}

// record appends a message to the live transcript and, once a subject exists,
// best-effort persists it to the durable chat history. Persistence failures
// are logged and ignored: transcript completeness is not guaranteed under
// store failure.
func (e *Engine) record(ctx context.Context, sess *Session, sender models.Sender, text string) {
	msg := models.ChatMessage{Sender: sender, Text: text, Ts: time.Now().UTC()}
	sess.Transcript = append(sess.Transcript, msg)

	if sess.Subject == nil {
		return
	}
	if err := e.store.AppendMessage(ctx, sess.Subject.ID, sess.Subject.Kind, msg); err != nil {
		slog.Warn("Engine failed to persist chat message", "error", err, "subjectID", sess.Subject.ID)
	}
}
