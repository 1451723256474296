package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cropgen/agrichat/internal/models"
	"github.com/cropgen/agrichat/internal/validation"
	"github.com/google/uuid"
)

type historyKey struct {
	subjectID string
	kind      models.SubjectKind
}

// InMemoryStore is a map-backed Store implementation.
type InMemoryStore struct {
	mu        sync.Mutex
	farmers   map[string]models.Farmer
	orgs      map[string]models.Organization
	histories map[historyKey][]models.ChatMessage
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		farmers:   make(map[string]models.Farmer),
		orgs:      make(map[string]models.Organization),
		histories: make(map[historyKey][]models.ChatMessage),
	}
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

func (s *InMemoryStore) CreateFarmer(ctx context.Context, name, contact string) (models.Farmer, error) {
	fields := map[string]string{validation.FieldName: name, validation.FieldContact: contact}
	if errs := validation.CheckRecord(models.SubjectFarmer, fields); len(errs) > 0 {
		return models.Farmer{}, fmt.Errorf("%w: %s", ErrValidation, errs[0].Message)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f := models.Farmer{ID: uuid.NewString(), Name: name, Contact: contact, CreatedAt: time.Now().UTC()}
	s.farmers[f.ID] = f
	return f, nil
}

func (s *InMemoryStore) GetFarmer(ctx context.Context, id string) (models.Farmer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.farmers[id]
	if !ok {
		return models.Farmer{}, ErrNotFound
	}
	return f, nil
}

func (s *InMemoryStore) DeleteFarmer(ctx context.Context, id string) (models.Farmer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.farmers[id]
	if !ok {
		return models.Farmer{}, ErrNotFound
	}
	delete(s.farmers, id)
	delete(s.histories, historyKey{subjectID: id, kind: models.SubjectFarmer})
	return f, nil
}

func (s *InMemoryStore) ListFarmers(ctx context.Context) ([]models.Farmer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	farmers := make([]models.Farmer, 0, len(s.farmers))
	for _, f := range s.farmers {
		farmers = append(farmers, f)
	}
	sortByCreatedDesc(farmers, func(f models.Farmer) time.Time { return f.CreatedAt })
	return farmers, nil
}

func (s *InMemoryStore) CreateOrganization(ctx context.Context, name, contact, email string) (models.Organization, error) {
	fields := map[string]string{
		validation.FieldName:    name,
		validation.FieldContact: contact,
		validation.FieldEmail:   email,
	}
	if errs := validation.CheckRecord(models.SubjectOrganization, fields); len(errs) > 0 {
		return models.Organization{}, fmt.Errorf("%w: %s", ErrValidation, errs[0].Message)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o := models.Organization{ID: uuid.NewString(), Name: name, Contact: contact, Email: email, CreatedAt: time.Now().UTC()}
	s.orgs[o.ID] = o
	return o, nil
}

func (s *InMemoryStore) GetOrganization(ctx context.Context, id string) (models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return models.Organization{}, ErrNotFound
	}
	return o, nil
}

func (s *InMemoryStore) DeleteOrganization(ctx context.Context, id string) (models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return models.Organization{}, ErrNotFound
	}
	delete(s.orgs, id)
	delete(s.histories, historyKey{subjectID: id, kind: models.SubjectOrganization})
	return o, nil
}

func (s *InMemoryStore) ListOrganizations(ctx context.Context) ([]models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orgs := make([]models.Organization, 0, len(s.orgs))
	for _, o := range s.orgs {
		orgs = append(orgs, o)
	}
	sortByCreatedDesc(orgs, func(o models.Organization) time.Time { return o.CreatedAt })
	return orgs, nil
}

func (s *InMemoryStore) AppendMessage(ctx context.Context, subjectID string, kind models.SubjectKind, msg models.ChatMessage) error {
	if !models.IsValidSubjectKind(kind) {
		return fmt.Errorf("%w: %s", models.ErrInvalidSubjectKind, kind)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := historyKey{subjectID: subjectID, kind: kind}
	s.histories[key] = append(s.histories[key], msg)
	return nil
}

func (s *InMemoryStore) GetHistory(ctx context.Context, subjectID string) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, msgs := range s.histories {
		if key.subjectID == subjectID {
			out := make([]models.ChatMessage, len(msgs))
			copy(out, msgs)
			return out, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) GetChat(ctx context.Context, subjectID string, kind models.SubjectKind) (models.ChatHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, ok := s.histories[historyKey{subjectID: subjectID, kind: kind}]
	if !ok || len(msgs) == 0 {
		return models.ChatHistory{}, ErrNotFound
	}
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return models.ChatHistory{
		SubjectID:   subjectID,
		SubjectKind: kind,
		Messages:    out,
		UpdatedAt:   out[len(out)-1].Ts,
	}, nil
}

func (s *InMemoryStore) DeleteHistory(ctx context.Context, subjectID string, kind models.SubjectKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := historyKey{subjectID: subjectID, kind: kind}
	if _, ok := s.histories[key]; !ok {
		return ErrNotFound
	}
	delete(s.histories, key)
	return nil
}

// sortByCreatedDesc orders records newest first, matching the SQL backends.
func sortByCreatedDesc[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}
