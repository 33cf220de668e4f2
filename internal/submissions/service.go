package submissions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio-backend/internal/cache"
	"portfolio-backend/internal/httpx"
	"portfolio-backend/internal/metrics"
	"portfolio-backend/internal/schedule"
	"portfolio-backend/internal/validation"
)

const listCachePrefix = "submissions:list:"

var ErrMalformed = errors.New("malformed submission payload")

// immutableFields may never appear in a patch body.
var immutableFields = []string{"id", "type", "timestamp", "updatedAt"}

var patchableFields = map[Type]map[string]struct{}{
	TypeMessage: {"read": {}},
	TypeBooking: {"status": {}, "date": {}, "time": {}},
}

type Notifier interface {
	SendSubmissionNotification(ctx context.Context, s Submission) (string, error)
}

// Receipt is what the visitor gets back after a successful submission.
type Receipt struct {
	ID         string
	Message    string
	Submission Submission
}

type rescheduleRequest struct {
	Date string `json:"date" validate:"required,date,notpast"`
	Time string `json:"time" validate:"required,clock,slot"`
}

type Service struct {
	store    Store
	val      *validation.Validator
	cache    cache.Cache
	cacheTTL time.Duration
	notifier Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, val *validation.Validator, opts ...Option) *Service {
	s := &Service{
		store: store,
		val:   val,
		cache: cache.NewNoop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewNoop()
	}
	return s
}

// Submit accepts an untyped JSON payload, narrows it by its "type" field,
// validates it and appends it to the store. It is not idempotent.
func (s *Service) Submit(ctx context.Context, payload []byte) (Receipt, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.metrics.SubmissionRejected("malformed")
		return Receipt{}, ErrMalformed
	}
	var rawType string
	if err := json.Unmarshal(envelope["type"], &rawType); err != nil {
		s.metrics.SubmissionRejected("type")
		return Receipt{}, ErrInvalidType
	}
	kind, ok := ParseType(rawType)
	if !ok {
		s.metrics.SubmissionRejected("type")
		return Receipt{}, ErrInvalidType
	}

	switch kind {
	case TypeMessage:
		var req MessageRequest
		if err := httpx.DecodeJSON(bytes.NewReader(payload), &req); err != nil {
			s.metrics.SubmissionRejected("malformed")
			return Receipt{}, ErrMalformed
		}
		return s.SubmitMessage(ctx, req)
	default:
		var req BookingRequest
		if err := httpx.DecodeJSON(bytes.NewReader(payload), &req); err != nil {
			s.metrics.SubmissionRejected("malformed")
			return Receipt{}, ErrMalformed
		}
		return s.SubmitBooking(ctx, req)
	}
}

func (s *Service) SubmitMessage(ctx context.Context, req MessageRequest) (Receipt, error) {
	req.normalize()
	if err := s.val.Struct(req); err != nil {
		s.metrics.SubmissionRejected("validation")
		return Receipt{}, &ValidationError{Fields: s.val.Details(err)}
	}
	return s.append(ctx, req.toSubmission())
}

func (s *Service) SubmitBooking(ctx context.Context, req BookingRequest) (Receipt, error) {
	req.normalize()
	if err := s.val.Struct(req); err != nil {
		s.metrics.SubmissionRejected("validation")
		return Receipt{}, &ValidationError{Fields: s.val.Details(err)}
	}
	return s.append(ctx, req.toSubmission())
}

func (s *Service) append(ctx context.Context, sub Submission) (Receipt, error) {
	prepareForAppend(&sub, s.now())
	id, err := s.store.Append(ctx, sub)
	if err != nil {
		return Receipt{}, err
	}
	s.invalidate(ctx)
	s.metrics.SubmissionCreated(string(sub.Type))

	return Receipt{
		ID:         id,
		Message:    confirmation(sub),
		Submission: sub,
	}, nil
}

// Notify tells the operator about a new submission. A nil notifier is a no-op.
func (s *Service) Notify(ctx context.Context, sub Submission) error {
	if s.notifier == nil {
		return nil
	}
	_, err := s.notifier.SendSubmissionNotification(ctx, sub)
	return err
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Submission, int64, error) {
	if err := checkFilter(filter); err != nil {
		return nil, 0, err
	}

	key := listCacheKey(filter)
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var cached cachedList
		if json.Unmarshal(raw, &cached) == nil {
			return cached.Items, cached.Total, nil
		}
	}

	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if raw, err := json.Marshal(cachedList{Items: items, Total: total}); err == nil {
		_ = s.cache.Set(ctx, key, raw, s.cacheTTL)
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, id string) (Submission, error) {
	return s.store.Get(ctx, strings.TrimSpace(id))
}

// Patch applies an admin partial update given as raw JSON fields. Immutable
// fields are rejected outright; other fields must belong to the record's
// variant.
func (s *Service) Patch(ctx context.Context, id string, fields map[string]json.RawMessage) (Submission, error) {
	id = strings.TrimSpace(id)
	for _, f := range immutableFields {
		if _, ok := fields[f]; ok {
			return Submission{}, fmt.Errorf("%w: %s", ErrForbiddenField, f)
		}
	}
	if len(fields) == 0 {
		return Submission{}, fieldError("update", "must contain at least one field")
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}

	update, err := s.parseUpdate(current, fields)
	if err != nil {
		return Submission{}, err
	}

	if update.Status != nil {
		next := *update.Status
		if next == current.Status {
			update.Status = nil
		} else if !CanTransition(current.Status, next) {
			return Submission{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
		}
	}
	if update.IsEmpty() {
		return current, nil
	}

	updated, err := s.store.Patch(ctx, id, update)
	if err != nil {
		return Submission{}, err
	}
	s.invalidate(ctx)
	s.metrics.SubmissionPatched(string(updated.Type))
	return updated, nil
}

func (s *Service) parseUpdate(current Submission, fields map[string]json.RawMessage) (Update, error) {
	allowed := patchableFields[current.Type]
	details := map[string]string{}
	for name := range fields {
		if _, ok := allowed[name]; !ok {
			details[name] = fmt.Sprintf("cannot be changed on a %s", current.Type)
		}
	}
	if len(details) > 0 {
		return Update{}, &ValidationError{Fields: details}
	}

	var update Update
	if raw, ok := fields["read"]; ok {
		var read bool
		if isNull(raw) || json.Unmarshal(raw, &read) != nil {
			return Update{}, fieldError("read", validation.Reason("boolean", ""))
		}
		update.Read = &read
	}

	if raw, ok := fields["status"]; ok {
		var status Status
		if err := json.Unmarshal(raw, &status); err != nil || !IsValidStatus(status) {
			return Update{}, fieldError("status", validation.Reason("oneof", "pending confirmed cancelled completed"))
		}
		update.Status = &status
	}

	rawDate, hasDate := fields["date"]
	rawTime, hasTime := fields["time"]
	if hasDate || hasTime {
		var req rescheduleRequest
		if hasDate && (isNull(rawDate) || json.Unmarshal(rawDate, &req.Date) != nil) {
			return Update{}, fieldError("date", validation.Reason("date", ""))
		}
		if hasTime && (isNull(rawTime) || json.Unmarshal(rawTime, &req.Time) != nil) {
			return Update{}, fieldError("time", validation.Reason("clock", ""))
		}
		req.Date = strings.TrimSpace(req.Date)
		req.Time = strings.TrimSpace(req.Time)
		if err := s.val.Struct(req); err != nil {
			return Update{}, &ValidationError{Fields: s.val.Details(err)}
		}
		update.Date = &req.Date
		update.Time = &req.Time
	}

	return update, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	_ = s.cache.DeletePrefix(ctx, listCachePrefix)
}

type cachedList struct {
	Items []Submission `json:"items"`
	Total int64        `json:"total"`
}

func checkFilter(filter ListFilter) error {
	if filter.Read != nil && filter.Type != "" && filter.Type != TypeMessage {
		return fieldError("read", "only applies to messages")
	}
	if filter.Status != "" {
		if !IsValidStatus(filter.Status) {
			return fieldError("status", validation.Reason("oneof", "pending confirmed cancelled completed"))
		}
		if filter.Type != "" && filter.Type != TypeBooking {
			return fieldError("status", "only applies to bookings")
		}
	}
	if filter.Read != nil && filter.Status != "" {
		return fieldError("status", "cannot be combined with read")
	}
	return nil
}

func listCacheKey(f ListFilter) string {
	read := "any"
	if f.Read != nil {
		read = fmt.Sprint(*f.Read)
	}
	return fmt.Sprintf("%s%s:%s:%s:%d:%d", listCachePrefix, f.Type, read, f.Status, f.Limit, f.Offset)
}

func confirmation(s Submission) string {
	if s.Type == TypeBooking {
		return fmt.Sprintf("Call booked for %s at %s. See you then!", humanDate(s.Date), s.Time)
	}
	return "Message sent successfully! I'll reply within 24 hours."
}

func humanDate(date string) string {
	d, err := time.Parse(schedule.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2, 2006")
}
