package submission

import (
	"context"
	"sync"
	"time"

	"gradevault.org/internal/ids"
)

// Memory implements Store in process memory. Development and tests only.
type Memory struct {
	mu     sync.Mutex
	subs   map[string]*Submission
	grades map[string]*Grade // keyed by submission id
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		subs:   make(map[string]*Submission),
		grades: make(map[string]*Grade),
	}
}

func (m *Memory) Create(ctx context.Context, sub *Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == "" {
		sub.ID = ids.New()
	}
	sub.CreatedAt = time.Now().UTC()
	cp := *sub
	m.subs[sub.ID] = &cp
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (m *Memory) ListByOwner(ctx context.Context, ownerID string) ([]Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Submission
	for _, sub := range m.subs {
		if sub.OwnerID == ownerID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return ErrNotFound
	}
	delete(m.subs, id)
	delete(m.grades, id)
	return nil
}

func (m *Memory) UpsertGrade(ctx context.Context, g *Grade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := m.grades[g.SubmissionID]; ok {
		g.CreatedAt = prev.CreatedAt
	} else {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	cp := *g
	m.grades[g.SubmissionID] = &cp
	return nil
}

func (m *Memory) GetGrade(ctx context.Context, submissionID string) (*Grade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grades[submissionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}
