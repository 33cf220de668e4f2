package submissions

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Type string

const (
	TypeMessage Type = "message"
	TypeBooking Type = "booking"
)

func ParseType(raw string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeMessage:
		return TypeMessage, true
	case TypeBooking:
		return TypeBooking, true
	default:
		return "", false
	}
}

// Submission is the stored record for both variants. Variant fields are only
// set for their own type: Read for messages, Status/Date/Time for bookings.
// Check Type before reading them.
type Submission struct {
	ID        string    `bson:"_id" json:"id"`
	Type      Type      `bson:"type" json:"type"`
	FullName  string    `bson:"fullName" json:"fullName"`
	Email     string    `bson:"email" json:"email"`
	Plan      string    `bson:"plan,omitempty" json:"plan,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	Subject string `bson:"subject,omitempty" json:"subject,omitempty"`
	Body    string `bson:"body,omitempty" json:"body,omitempty"`
	Read    *bool  `bson:"read,omitempty" json:"read,omitempty"`

	Company string `bson:"company,omitempty" json:"company,omitempty"`
	Date    string `bson:"date,omitempty" json:"date,omitempty"`
	Time    string `bson:"time,omitempty" json:"time,omitempty"`
	Notes   string `bson:"notes,omitempty" json:"notes,omitempty"`
	Status  Status `bson:"status,omitempty" json:"status,omitempty"`
}

func (s Submission) IsRead() bool {
	return s.Read != nil && *s.Read
}

// MessageRequest is the public contact form payload.
type MessageRequest struct {
	Type     string `json:"type"`
	FullName string `json:"fullName" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Subject  string `json:"subject" validate:"required,min=5,max=100"`
	Body     string `json:"body" validate:"required,min=10,max=500"`
	Plan     string `json:"plan" validate:"omitempty,max=50"`
}

// BookingRequest is the public call booking payload.
type BookingRequest struct {
	Type     string `json:"type"`
	FullName string `json:"fullName" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Company  string `json:"company" validate:"omitempty,max=100"`
	Date     string `json:"date" validate:"required,date,notpast"`
	Time     string `json:"time" validate:"required,clock,slot"`
	Notes    string `json:"notes" validate:"omitempty,max=1000"`
	Plan     string `json:"plan" validate:"required,max=50"`
}

func (r *MessageRequest) normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Body = strings.TrimSpace(r.Body)
	r.Plan = strings.TrimSpace(r.Plan)
}

func (r *BookingRequest) normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.TrimSpace(r.Email)
	r.Company = strings.TrimSpace(r.Company)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Notes = strings.TrimSpace(r.Notes)
	r.Plan = strings.TrimSpace(r.Plan)
}

func (r MessageRequest) toSubmission() Submission {
	unread := false
	return Submission{
		Type:     TypeMessage,
		FullName: r.FullName,
		Email:    r.Email,
		Plan:     r.Plan,
		Subject:  r.Subject,
		Body:     r.Body,
		Read:     &unread,
	}
}

func (r BookingRequest) toSubmission() Submission {
	return Submission{
		Type:     TypeBooking,
		FullName: r.FullName,
		Email:    r.Email,
		Plan:     r.Plan,
		Company:  r.Company,
		Date:     r.Date,
		Time:     r.Time,
		Notes:    r.Notes,
		Status:   StatusPending,
	}
}

// Update is a validated partial change. Nil fields are left untouched.
type Update struct {
	Read   *bool
	Status *Status
	Date   *string
	Time   *string
}

func (u Update) IsEmpty() bool {
	return u.Read == nil && u.Status == nil && u.Date == nil && u.Time == nil
}

// apply merges u into s and stamps UpdatedAt, keeping it >= Timestamp.
func (u Update) apply(s *Submission, now time.Time) {
	if u.Read != nil {
		read := *u.Read
		s.Read = &read
	}
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.Date != nil && u.Time != nil {
		s.Date = *u.Date
		s.Time = *u.Time
	}
	now = stamp(now)
	if now.Before(s.Timestamp) {
		now = s.Timestamp
	}
	s.UpdatedAt = now
}

// ListFilter narrows a listing. Zero values match everything.
type ListFilter struct {
	Type   Type
	Read   *bool
	Status Status
	Limit  int64
	Offset int64
}

func (f ListFilter) matches(s Submission) bool {
	if f.Type != "" && s.Type != f.Type {
		return false
	}
	if f.Read != nil && (s.Type != TypeMessage || s.IsRead() != *f.Read) {
		return false
	}
	if f.Status != "" && (s.Type != TypeBooking || s.Status != f.Status) {
		return false
	}
	return true
}

func newID(t Type) string {
	return string(t) + "_" + primitive.NewObjectID().Hex()
}
