package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/cropgen/agrichat/internal/models"
	"github.com/cropgen/agrichat/internal/validation"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore implements Store on a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}

// CreateFarmer validates and inserts a new farmer record.
func (s *SQLiteStore) CreateFarmer(ctx context.Context, name, contact string) (models.Farmer, error) {
	fields := map[string]string{validation.FieldName: name, validation.FieldContact: contact}
	if errs := validation.CheckRecord(models.SubjectFarmer, fields); len(errs) > 0 {
		slog.Warn("SQLiteStore CreateFarmer rejected by storage validation", "field", errs[0].Field, "reason", errs[0].Reason)
		return models.Farmer{}, fmt.Errorf("%w: %s", ErrValidation, errs[0].Message)
	}

	f := models.Farmer{ID: uuid.NewString(), Name: name, Contact: contact, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx, `INSERT INTO farmers (id, name, contact, created_at) VALUES (?, ?, ?, ?)`,
		f.ID, f.Name, f.Contact, f.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateFarmer failed", "error", err)
		return models.Farmer{}, fmt.Errorf("failed to insert farmer: %w", err)
	}
	slog.Debug("SQLiteStore CreateFarmer succeeded", "id", f.ID)
	return f, nil
}

// GetFarmer retrieves a farmer by ID.
func (s *SQLiteStore) GetFarmer(ctx context.Context, id string) (models.Farmer, error) {
	var f models.Farmer
	err := s.db.QueryRowContext(ctx, `SELECT id, name, contact, created_at FROM farmers WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.Contact, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Farmer{}, ErrNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetFarmer failed", "error", err, "id", id)
		return models.Farmer{}, fmt.Errorf("failed to query farmer %s: %w", id, err)
	}
	return f, nil
}

// DeleteFarmer removes a farmer and cascades to their chat history.
func (s *SQLiteStore) DeleteFarmer(ctx context.Context, id string) (models.Farmer, error) {
	f, err := s.GetFarmer(ctx, id)
	if err != nil {
		return models.Farmer{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM farmers WHERE id = ?`, id); err != nil {
		slog.Error("SQLiteStore DeleteFarmer failed", "error", err, "id", id)
		return models.Farmer{}, fmt.Errorf("failed to delete farmer %s: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE subject_id = ? AND subject_kind = ?`, id, models.SubjectFarmer); err != nil {
		slog.Error("SQLiteStore DeleteFarmer history cascade failed", "error", err, "id", id)
		return models.Farmer{}, fmt.Errorf("failed to cascade delete farmer chat %s: %w", id, err)
	}
	slog.Debug("SQLiteStore DeleteFarmer succeeded", "id", id)
	return f, nil
}

// ListFarmers returns all farmers ordered by creation time, newest first.
func (s *SQLiteStore) ListFarmers(ctx context.Context) ([]models.Farmer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, contact, created_at FROM farmers ORDER BY created_at DESC`)
	if err != nil {
		slog.Error("SQLiteStore ListFarmers query failed", "error", err)
		return nil, fmt.Errorf("failed to query farmers: %w", err)
	}
	defer rows.Close()

	var farmers []models.Farmer
	for rows.Next() {
		var f models.Farmer
		if err := rows.Scan(&f.ID, &f.Name, &f.Contact, &f.CreatedAt); err != nil {
			slog.Error("SQLiteStore ListFarmers scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan farmer row: %w", err)
		}
		farmers = append(farmers, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate farmer rows: %w", err)
	}
	return farmers, nil
}

// CreateOrganization validates and inserts a new organization record.
func (s *SQLiteStore) CreateOrganization(ctx context.Context, name, contact, email string) (models.Organization, error) {
	fields := map[string]string{
		validation.FieldName:    name,
		validation.FieldContact: contact,
		validation.FieldEmail:   email,
	}
	if errs := validation.CheckRecord(models.SubjectOrganization, fields); len(errs) > 0 {
		slog.Warn("SQLiteStore CreateOrganization rejected by storage validation", "field", errs[0].Field, "reason", errs[0].Reason)
		return models.Organization{}, fmt.Errorf("%w: %s", ErrValidation, errs[0].Message)
	}

	o := models.Organization{ID: uuid.NewString(), Name: name, Contact: contact, Email: email, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx, `INSERT INTO organizations (id, name, contact, email, created_at) VALUES (?, ?, ?, ?, ?)`,
		o.ID, o.Name, o.Contact, o.Email, o.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateOrganization failed", "error", err)
		return models.Organization{}, fmt.Errorf("failed to insert organization: %w", err)
	}
	slog.Debug("SQLiteStore CreateOrganization succeeded", "id", o.ID)
	return o, nil
}

// GetOrganization retrieves an organization by ID.
func (s *SQLiteStore) GetOrganization(ctx context.Context, id string) (models.Organization, error) {
	var o models.Organization
	err := s.db.QueryRowContext(ctx, `SELECT id, name, contact, email, created_at FROM organizations WHERE id = ?`, id).
		Scan(&o.ID, &o.Name, &o.Contact, &o.Email, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Organization{}, ErrNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetOrganization failed", "error", err, "id", id)
		return models.Organization{}, fmt.Errorf("failed to query organization %s: %w", id, err)
	}
	return o, nil
}

// DeleteOrganization removes an organization and cascades to their chat history.
func (s *SQLiteStore) DeleteOrganization(ctx context.Context, id string) (models.Organization, error) {
	o, err := s.GetOrganization(ctx, id)
	if err != nil {
		return models.Organization{}, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id); err != nil {
		slog.Error("SQLiteStore DeleteOrganization failed", "error", err, "id", id)
		return models.Organization{}, fmt.Errorf("failed to delete organization %s: %w", id, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE subject_id = ? AND subject_kind = ?`, id, models.SubjectOrganization); err != nil {
		slog.Error("SQLiteStore DeleteOrganization history cascade failed", "error", err, "id", id)
		return models.Organization{}, fmt.Errorf("failed to cascade delete organization chat %s: %w", id, err)
	}
	slog.Debug("SQLiteStore DeleteOrganization succeeded", "id", id)
	return o, nil
}

// ListOrganizations returns all organizations ordered by creation time, newest first.
func (s *SQLiteStore) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, contact, email, created_at FROM organizations ORDER BY created_at DESC`)
	if err != nil {
		slog.Error("SQLiteStore ListOrganizations query failed", "error", err)
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	var orgs []models.Organization
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.Contact, &o.Email, &o.CreatedAt); err != nil {
			slog.Error("SQLiteStore ListOrganizations scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan organization row: %w", err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate organization rows: %w", err)
	}
	return orgs, nil
}

// AppendMessage appends a message to a subject's chat history, creating the
// history implicitly on first insert.
func (s *SQLiteStore) AppendMessage(ctx context.Context, subjectID string, kind models.SubjectKind, msg models.ChatMessage) error {
	if !models.IsValidSubjectKind(kind) {
		return fmt.Errorf("%w: %s", models.ErrInvalidSubjectKind, kind)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO chat_messages (subject_id, subject_kind, sender, text, ts) VALUES (?, ?, ?, ?, ?)`,
		subjectID, kind, msg.Sender, msg.Text, msg.Ts)
	if err != nil {
		slog.Error("SQLiteStore AppendMessage failed", "error", err, "subjectID", subjectID, "kind", kind)
		return fmt.Errorf("failed to append chat message for %s: %w", subjectID, err)
	}
	return nil
}

// GetHistory returns the ordered messages for a subject, empty if none exist.
func (s *SQLiteStore) GetHistory(ctx context.Context, subjectID string) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sender, text, ts FROM chat_messages WHERE subject_id = ? ORDER BY id`, subjectID)
	if err != nil {
		slog.Error("SQLiteStore GetHistory query failed", "error", err, "subjectID", subjectID)
		return nil, fmt.Errorf("failed to query chat history for %s: %w", subjectID, err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

// GetChat returns the full chat history record for (subjectID, kind).
func (s *SQLiteStore) GetChat(ctx context.Context, subjectID string, kind models.SubjectKind) (models.ChatHistory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sender, text, ts FROM chat_messages WHERE subject_id = ? AND subject_kind = ? ORDER BY id`, subjectID, kind)
	if err != nil {
		slog.Error("SQLiteStore GetChat query failed", "error", err, "subjectID", subjectID, "kind", kind)
		return models.ChatHistory{}, fmt.Errorf("failed to query chat for %s: %w", subjectID, err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return models.ChatHistory{}, err
	}
	if len(msgs) == 0 {
		return models.ChatHistory{}, ErrNotFound
	}
	return models.ChatHistory{
		SubjectID:   subjectID,
		SubjectKind: kind,
		Messages:    msgs,
		UpdatedAt:   msgs[len(msgs)-1].Ts,
	}, nil
}

// DeleteHistory removes all chat messages for (subjectID, kind).
func (s *SQLiteStore) DeleteHistory(ctx context.Context, subjectID string, kind models.SubjectKind) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE subject_id = ? AND subject_kind = ?`, subjectID, kind)
	if err != nil {
		slog.Error("SQLiteStore DeleteHistory failed", "error", err, "subjectID", subjectID, "kind", kind)
		return fmt.Errorf("failed to delete chat history for %s: %w", subjectID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	slog.Debug("SQLiteStore DeleteHistory succeeded", "subjectID", subjectID, "kind", kind, "deleted", affected)
	return nil
}
