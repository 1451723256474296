// Package flow implements the per-connection conversation state machine.
//
// Each live connection owns exactly one Session. A session starts with no
// selected role, runs the scripted intake question sequence once a role is
// chosen, and collapses into free-form AI conversation when intake completes.
package flow

import (
	"github.com/cropgen/agrichat/internal/models"
	"github.com/cropgen/agrichat/internal/validation"
)

// Kind is the active conversation mode for a connection.
type Kind string

const (
	// KindUnset means no role has been selected yet.
	KindUnset Kind = ""
	// KindOrganization runs the organization intake question sequence.
	KindOrganization Kind = "organization"
	// KindFarmer runs the farmer intake question sequence.
	KindFarmer Kind = "farmer"
	// KindGeneral is free-form AI-assisted conversation, terminal until reset.
	KindGeneral Kind = "general"
)

var organizationQuestions = []string{
	"What is the name of your organization?",
	"What is the contact number of your organization?",
	"What is the email address of your organization?",
}

var farmerQuestions = []string{
	"What is your name?",
	"What is your contact number?",
}

// Session holds all per-connection conversation state. It is owned
// exclusively by the connection's handler goroutine; the state machine relies
// on serial, in-order message delivery per connection.
type Session struct {
	Kind      Kind
	Step      int
	Answers   map[string]string
	Questions []string
	// Transcript mirrors every message exchanged in this live session, in
	// arrival order.
	Transcript []models.ChatMessage
	// Subject references the durable record once intake has completed.
	Subject *models.SubjectRef
}

// NewSession returns an empty session awaiting role selection.
func NewSession() *Session {
	return &Session{
		Answers: make(map[string]string),
	}
}

// SubjectKind maps an intake kind to its persisted record kind.
func (k Kind) SubjectKind() models.SubjectKind {
	if k == KindOrganization {
		return models.SubjectOrganization
	}
	return models.SubjectFarmer
}

// Fields returns the ordered field names collected by the session's active
// question sequence.
func (s *Session) Fields() []string {
	return validation.FieldsForKind(s.Kind.SubjectKind())
}

// SequenceComplete reports whether every question in the active sequence has
// been answered. Step never exceeds the sequence length.
func (s *Session) SequenceComplete() bool {
	return len(s.Questions) > 0 && s.Step >= len(s.Questions)
}
