// Package store provides storage backends for AgriChat.
//
// It persists the two subject record kinds (Farmer, Organization) and their
// append-only chat histories, with SQLite and PostgreSQL implementations.
package store

import (
	"context"
	"errors"

	"github.com/cropgen/agrichat/internal/models"
)

// Sentinel errors returned by all Store implementations.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrValidation indicates the fields failed storage-level constraints.
	ErrValidation = errors.New("record failed validation")
)

// Store is the persistence gateway used by the conversation flow and the HTTP
// surface. Deleting a subject cascades to its chat history.
type Store interface {
	CreateFarmer(ctx context.Context, name, contact string) (models.Farmer, error)
	GetFarmer(ctx context.Context, id string) (models.Farmer, error)
	DeleteFarmer(ctx context.Context, id string) (models.Farmer, error)
	ListFarmers(ctx context.Context) ([]models.Farmer, error)

	CreateOrganization(ctx context.Context, name, contact, email string) (models.Organization, error)
	GetOrganization(ctx context.Context, id string) (models.Organization, error)
	DeleteOrganization(ctx context.Context, id string) (models.Organization, error)
	ListOrganizations(ctx context.Context) ([]models.Organization, error)

	// AppendMessage upserts the chat history for (subjectID, kind) and appends
	// the message. Duplicate calls append duplicate entries.
	AppendMessage(ctx context.Context, subjectID string, kind models.SubjectKind, msg models.ChatMessage) error
	// GetHistory returns the ordered message sequence for a subject, or an
	// empty slice if no history exists.
	GetHistory(ctx context.Context, subjectID string) ([]models.ChatMessage, error)
	// GetChat returns the full history record for (subjectID, kind), or
	// ErrNotFound if no messages exist.
	GetChat(ctx context.Context, subjectID string, kind models.SubjectKind) (models.ChatHistory, error)
	// DeleteHistory removes the chat history for (subjectID, kind). Returns
	// ErrNotFound if there was nothing to delete.
	DeleteHistory(ctx context.Context, subjectID string, kind models.SubjectKind) error

	Close() error
}

// Opts holds common configuration for store constructors.
type Opts struct {
	DSN string
}

// Option configures a store constructor.
type Option func(*Opts)

// WithDSN sets the database DSN (file path for SQLite, URL for Postgres).
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}
