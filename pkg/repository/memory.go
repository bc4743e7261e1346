package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/beq-project/beq/pkg/models"
)

// MemoryStore is an in-memory Store for tests and database-less development.
// A single mutex guards all tables, which makes the brick cascade delete
// atomic with respect to concurrent callers.
type MemoryStore struct {
	mu        sync.RWMutex
	clock     models.Clock
	bricks    map[string]*models.Brick
	quantas   map[string]*models.Quanta
	messages  map[string][]*models.Message // keyed by conversation id
	resources []*models.Resource
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(clock models.Clock) *Store {
	m := &MemoryStore{
		clock:    clock,
		bricks:   make(map[string]*models.Brick),
		quantas:  make(map[string]*models.Quanta),
		messages: make(map[string][]*models.Message),
	}
	return &Store{
		Bricks:    (*memoryBricks)(m),
		Quantas:   (*memoryQuantas)(m),
		Messages:  (*memoryMessages)(m),
		Resources: (*memoryResources)(m),
	}
}

type memoryBricks MemoryStore

func (r *memoryBricks) Create(_ context.Context, req models.CreateBrickRequest) (*models.Brick, error) {
	now := r.clock.Now()
	brick := &models.Brick{
		ID:                       models.NewID(),
		UserID:                   req.UserID,
		Title:                    req.Title,
		Description:              req.Description,
		Category:                 req.Category,
		Priority:                 req.Priority,
		Status:                   models.StatusNotStarted,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		TargetDate:               req.TargetDate,
		Deadline:                 req.Deadline,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := brick.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bricks[brick.ID] = brick
	cp := *brick
	return &cp, nil
}

func (r *memoryBricks) Get(_ context.Context, userID, brickID string) (*models.Brick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getLocked(userID, brickID)
}

func (r *memoryBricks) getLocked(userID, brickID string) (*models.Brick, error) {
	b, ok := r.bricks[brickID]
	if !ok || b.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memoryBricks) Update(_ context.Context, userID, brickID string, req models.UpdateBrickRequest) (*models.Brick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bricks[brickID]
	if !ok || b.UserID != userID {
		return nil, ErrNotFound
	}

	updated := *b
	if req.Title != nil {
		updated.Title = *req.Title
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Status != nil {
		updated.Status = *req.Status
	}
	if req.Priority != nil {
		updated.Priority = *req.Priority
	}
	updated.UpdatedAt = r.clock.Now()

	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	r.bricks[brickID] = &updated
	cp := updated
	return &cp, nil
}

func (r *memoryBricks) Delete(_ context.Context, userID, brickID string, cascade bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bricks[brickID]
	if !ok || b.UserID != userID {
		return ErrNotFound
	}

	var owned []string
	for id, q := range r.quantas {
		if q.BrickID == brickID {
			owned = append(owned, id)
		}
	}
	if len(owned) > 0 && !cascade {
		return NewValidationError("delete_quantas", fmt.Sprintf("brick has %d quantas; pass delete_quantas=true to cascade", len(owned)))
	}
	for _, id := range owned {
		delete(r.quantas, id)
	}
	delete(r.bricks, brickID)
	return nil
}

func (r *memoryBricks) List(_ context.Context, userID string, filters models.BrickFilters) ([]*models.Brick, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Brick
	for _, b := range r.bricks {
		if b.UserID != userID {
			continue
		}
		if filters.Status != "" && b.Status != filters.Status {
			continue
		}
		if filters.Category != "" && b.Category != filters.Category {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

type memoryQuantas MemoryStore

func (r *memoryQuantas) Create(_ context.Context, userID string, req models.CreateQuantaRequest) (*models.Quanta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bricks[req.BrickID]
	if !ok || b.UserID != userID {
		return nil, fmt.Errorf("%w: brick %s", ErrNotFound, req.BrickID)
	}

	now := r.clock.Now()
	quanta := &models.Quanta{
		ID:                       models.NewID(),
		BrickID:                  req.BrickID,
		Title:                    req.Title,
		Description:              req.Description,
		Status:                   models.StatusNotStarted,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		OrderIndex:               req.OrderIndex,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := quanta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	r.quantas[quanta.ID] = quanta
	cp := *quanta
	return &cp, nil
}

func (r *memoryQuantas) Get(_ context.Context, userID, quantaID string) (*models.Quanta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.getLocked(userID, quantaID)
}

func (r *memoryQuantas) getLocked(userID, quantaID string) (*models.Quanta, error) {
	q, ok := r.quantas[quantaID]
	if !ok {
		return nil, ErrNotFound
	}
	b, ok := r.bricks[q.BrickID]
	if !ok || b.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *memoryQuantas) Update(_ context.Context, userID, quantaID string, req models.UpdateQuantaRequest) (*models.Quanta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.getLocked(userID, quantaID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.Title != nil {
		updated.Title = *req.Title
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.Status != nil {
		updated.Status = *req.Status
	}
	if req.EstimatedDurationMinutes != nil {
		updated.EstimatedDurationMinutes = *req.EstimatedDurationMinutes
	}
	if req.OrderIndex != nil {
		updated.OrderIndex = *req.OrderIndex
	}
	updated.UpdatedAt = r.clock.Now()

	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	r.quantas[quantaID] = &updated
	cp := updated
	return &cp, nil
}

func (r *memoryQuantas) Delete(_ context.Context, userID, quantaID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.getLocked(userID, quantaID); err != nil {
		return err
	}
	delete(r.quantas, quantaID)
	return nil
}

func (r *memoryQuantas) List(_ context.Context, userID string, filters models.QuantaFilters) ([]*models.Quanta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Quanta
	for _, q := range r.quantas {
		b, ok := r.bricks[q.BrickID]
		if !ok || b.UserID != userID {
			continue
		}
		if filters.BrickID != "" && q.BrickID != filters.BrickID {
			continue
		}
		if filters.Status != "" && q.Status != filters.Status {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BrickID == out[j].BrickID {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].BrickID < out[j].BrickID
	})
	return out, nil
}

type memoryMessages MemoryStore

func (r *memoryMessages) Create(_ context.Context, req models.CreateMessageRequest) (*models.Message, error) {
	if req.ConversationID == "" {
		return nil, NewValidationError("conversation_id", "required")
	}
	if req.UserID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if req.Role == "" {
		return nil, NewValidationError("role", "required")
	}
	if req.Content == "" {
		return nil, NewValidationError("content", "required")
	}

	msg := &models.Message{
		ID:             models.NewID(),
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		Role:           req.Role,
		Content:        req.Content,
		ToolCallID:     req.ToolCallID,
		CreatedAt:      r.clock.Now(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[req.ConversationID] = append(r.messages[req.ConversationID], msg)
	cp := *msg
	return &cp, nil
}

func (r *memoryMessages) ListConversation(_ context.Context, conversationID string) ([]*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.messages[conversationID]
	out := make([]*models.Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}

type memoryResources MemoryStore

// SeedResources loads resources into an in-memory store. Test helper.
func SeedResources(store *Store, resources ...*models.Resource) {
	mr, ok := store.Resources.(*memoryResources)
	if !ok {
		return
	}
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.resources = append(mr.resources, resources...)
}

func (r *memoryResources) List(_ context.Context, filters models.ResourceFilters) ([]*models.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Resource
	for _, res := range r.resources {
		if filters.Topic != "" && res.Topic != filters.Topic {
			continue
		}
		if filters.Query != "" {
			q := strings.ToLower(filters.Query)
			if !strings.Contains(strings.ToLower(res.Title), q) &&
				!strings.Contains(strings.ToLower(res.Summary), q) {
				continue
			}
		}
		cp := *res
		out = append(out, &cp)
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}
