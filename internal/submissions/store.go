package submissions

import (
	"context"
	"sort"
	"time"
)

// Store persists submissions. Implementations must never overwrite an
// existing id on Append and must return records newest first from List.
type Store interface {
	Append(ctx context.Context, s Submission) (string, error)
	Get(ctx context.Context, id string) (Submission, error)
	List(ctx context.Context, filter ListFilter) ([]Submission, int64, error)
	Patch(ctx context.Context, id string, u Update) (Submission, error)
	Ping(ctx context.Context) error
}

func sortNewestFirst(items []Submission) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Timestamp.Equal(items[j].Timestamp) {
			return items[i].ID > items[j].ID
		}
		return items[i].Timestamp.After(items[j].Timestamp)
	})
}

func paginate(items []Submission, limit, offset int64) []Submission {
	if offset >= int64(len(items)) {
		return []Submission{}
	}
	items = items[offset:]
	if limit > 0 && limit < int64(len(items)) {
		items = items[:limit]
	}
	return items
}

// prepareForAppend assigns the server-side id and timestamps when missing.
func prepareForAppend(s *Submission, now time.Time) {
	if s.ID == "" {
		s.ID = newID(s.Type)
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = stamp(now)
	}
	if s.UpdatedAt.Before(s.Timestamp) {
		s.UpdatedAt = s.Timestamp
	}
}

// stamp normalises instants to what every backend can store losslessly.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
