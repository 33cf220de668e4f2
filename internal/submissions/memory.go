package submissions

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps submissions in process memory. It lives and dies with the
// process; it exists for environments without a configured durable backend.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Submission
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Submission), now: time.Now}
}

func (m *MemoryStore) Append(ctx context.Context, s Submission) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	prepareForAppend(&s, m.now())

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[s.ID]; exists {
		return "", ErrDuplicateID
	}
	m.items[s.ID] = cloneSubmission(s)
	return s.ID, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.items[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return cloneSubmission(s), nil
}

func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]Submission, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	items := make([]Submission, 0, len(m.items))
	for _, s := range m.items {
		if filter.matches(s) {
			items = append(items, cloneSubmission(s))
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(items)
	total := int64(len(items))
	return paginate(items, filter.Limit, filter.Offset), total, nil
}

func (m *MemoryStore) Patch(ctx context.Context, id string, u Update) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.items[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	u.apply(&s, m.now())
	m.items[id] = s
	return cloneSubmission(s), nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneSubmission(s Submission) Submission {
	if s.Read != nil {
		read := *s.Read
		s.Read = &read
	}
	return s
}
