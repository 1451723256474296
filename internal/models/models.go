// Package models defines the core data structures for AgriChat.
//
// It includes the persisted subject records (Farmer, Organization), the chat
// message and history types, and the shared API response envelope.
package models

import (
	"errors"
	"time"
)

// SubjectKind identifies which kind of persisted record owns a chat history.
type SubjectKind string

const (
	// SubjectFarmer marks records created through the farmer intake flow.
	SubjectFarmer SubjectKind = "Farmer"
	// SubjectOrganization marks records created through the organization intake flow.
	SubjectOrganization SubjectKind = "Organization"
)

// IsValidSubjectKind checks if the given subject kind is supported.
func IsValidSubjectKind(k SubjectKind) bool {
	switch k {
	case SubjectFarmer, SubjectOrganization:
		return true
	default:
		return false
	}
}

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Error variables for better error handling and testability
var (
	ErrInvalidSubjectKind = errors.New("subject kind must be Farmer or Organization")
	ErrInvalidSender      = errors.New("sender must be user or ai")
	ErrEmptyMessageText   = errors.New("message text cannot be empty")
)

// Farmer is a persisted record created by the farmer intake flow.
// Immutable once created except for its association with chat history.
type Farmer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	CreatedAt time.Time `json:"created_at"`
}

// Organization is a persisted record created by the organization intake flow.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SubjectRef points at the durable record a live connection belongs to once
// its intake sequence has completed.
type SubjectRef struct {
	ID   string      `json:"id"`
	Kind SubjectKind `json:"kind"`
}

// ChatMessage is a single transcript entry, mirrored between the in-memory
// session transcript and the persisted chat history.
type ChatMessage struct {
	Sender Sender    `json:"sender"`
	Text   string    `json:"text"`
	Ts     time.Time `json:"ts"`
}

// Validate checks a chat message before it is persisted.
func (m ChatMessage) Validate() error {
	if m.Sender != SenderUser && m.Sender != SenderAI {
		return ErrInvalidSender
	}
	if m.Text == "" {
		return ErrEmptyMessageText
	}
	return nil
}

// ChatHistory is the durable, append-only message record for one subject.
type ChatHistory struct {
	SubjectID   string        `json:"subject_id"`
	SubjectKind SubjectKind   `json:"subject_kind"`
	Messages    []ChatMessage `json:"messages"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// API Response types for consistent JSON responses

// APIStatus represents the status field of an API response.
type APIStatus string

const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with the given message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
