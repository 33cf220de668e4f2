package dashboard

import (
	"context"
	"errors"
	"sync"

	"portfolio-backend/internal/submissions"
)

// API is the slice of the admin API the board drives.
type API interface {
	List(ctx context.Context, q Query) ([]submissions.Submission, int64, error)
	Patch(ctx context.Context, id string, fields map[string]interface{}) (submissions.Submission, error)
}

// refreshLimit is the largest page the admin list serves.
const refreshLimit = 200

// Filter narrows what the board shows. Zero values show everything.
type Filter struct {
	Type   submissions.Type
	Read   *bool
	Status submissions.Status
}

func (f Filter) match(s submissions.Submission) bool {
	if f.Type != "" && s.Type != f.Type {
		return false
	}
	if f.Read != nil && (s.Type != submissions.TypeMessage || s.IsRead() != *f.Read) {
		return false
	}
	if f.Status != "" && (s.Type != submissions.TypeBooking || s.Status != f.Status) {
		return false
	}
	return true
}

// Groups is the board split the way the operator reads it.
type Groups struct {
	Unread   []submissions.Submission
	Read     []submissions.Submission
	ByStatus map[submissions.Status][]submissions.Submission
}

// Board is the operator's local view of the submissions. Mutations are
// applied locally first and reconciled with the server answer; a failed
// mutation restores the previous record and records an inline error.
type Board struct {
	api      API
	loginURL string

	mu       sync.Mutex
	items    []submissions.Submission
	inline   map[string]string
	banner   string
	redirect string
}

func NewBoard(api API, loginURL string) *Board {
	return &Board{api: api, loginURL: loginURL, inline: make(map[string]string)}
}

// Refresh replaces local state with the server list. On failure the prior
// list stays visible.
func (b *Board) Refresh(ctx context.Context) error {
	items, _, err := b.api.List(ctx, Query{Limit: refreshLimit})
	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.fail("", err)
		return err
	}
	b.items = items
	b.banner = ""
	return nil
}

func (b *Board) Items(f Filter) []submissions.Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]submissions.Submission, 0, len(b.items))
	for _, s := range b.items {
		if f.match(s) {
			out = append(out, s)
		}
	}
	return out
}

func (b *Board) Groups() Groups {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := Groups{ByStatus: make(map[submissions.Status][]submissions.Submission)}
	for _, s := range b.items {
		switch s.Type {
		case submissions.TypeMessage:
			if s.IsRead() {
				g.Read = append(g.Read, s)
			} else {
				g.Unread = append(g.Unread, s)
			}
		case submissions.TypeBooking:
			g.ByStatus[s.Status] = append(g.ByStatus[s.Status], s)
		}
	}
	return g
}

func (b *Board) MarkRead(ctx context.Context, id string, read bool) error {
	return b.apply(ctx, id, map[string]interface{}{"read": read}, func(s *submissions.Submission) {
		s.Read = &read
	})
}

func (b *Board) SetStatus(ctx context.Context, id string, status submissions.Status) error {
	return b.apply(ctx, id, map[string]interface{}{"status": status}, func(s *submissions.Submission) {
		s.Status = status
	})
}

func (b *Board) Reschedule(ctx context.Context, id, date, clock string) error {
	return b.apply(ctx, id, map[string]interface{}{"date": date, "time": clock}, func(s *submissions.Submission) {
		s.Date = date
		s.Time = clock
	})
}

func (b *Board) apply(ctx context.Context, id string, fields map[string]interface{}, local func(*submissions.Submission)) error {
	b.mu.Lock()
	idx := b.index(id)
	if idx < 0 {
		b.mu.Unlock()
		return submissions.ErrNotFound
	}
	prior := cloneRecord(b.items[idx])
	optimistic := cloneRecord(prior)
	local(&optimistic)
	b.items[idx] = optimistic
	delete(b.inline, id)
	b.mu.Unlock()

	updated, err := b.api.Patch(ctx, id, fields)

	b.mu.Lock()
	defer b.mu.Unlock()
	idx = b.index(id)
	if err != nil {
		if idx >= 0 {
			b.items[idx] = prior
		}
		b.fail(id, err)
		return err
	}
	if idx >= 0 {
		b.items[idx] = updated
	}
	return nil
}

// fail records err for display. Callers hold b.mu.
func (b *Board) fail(id string, err error) {
	if errors.Is(err, ErrUnauthorized) {
		b.redirect = b.loginURL
		return
	}
	if id == "" {
		b.banner = err.Error()
		return
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		b.inline[id] = apiErr.Message
		return
	}
	b.inline[id] = err.Error()
}

func (b *Board) index(id string) int {
	for i, s := range b.items {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// InlineError is the message shown next to a record after a failed action.
func (b *Board) InlineError(id string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inline[id]
}

func (b *Board) Banner() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.banner
}

// Redirect is the login entry point once the API has answered 401.
func (b *Board) Redirect() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.redirect
}

func cloneRecord(s submissions.Submission) submissions.Submission {
	if s.Read != nil {
		read := *s.Read
		s.Read = &read
	}
	return s
}
