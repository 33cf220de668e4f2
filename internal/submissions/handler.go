package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"portfolio-backend/internal/auth"
	"portfolio-backend/internal/httpx"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/transport"
	"portfolio-backend/internal/validation"

	"github.com/go-chi/chi/v5"
)

const (
	msgInvalidBody   = "Invalid request body."
	msgInvalidType   = `Invalid submission type. Expected "message" or "booking".`
	msgValidation    = "Please correct the highlighted fields."
	msgUnavailable   = "We couldn't process your request right now. Please try again later."
	msgNotFound      = "Submission not found."
	msgForbidden     = "Fields id, type, timestamp and updatedAt cannot be changed."
	msgTransition    = "That status change is not allowed."
	msgUpdated       = "Submission updated."
	defaultListLimit = 50
	maxListLimit     = 200
)

type Handler struct {
	service      *Service
	log          *slog.Logger
	exposeErrors bool
}

// NewHandler builds the HTTP layer. exposeErrors adds backend error text to
// 5xx responses and must stay off in production.
func NewHandler(service *Service, log *slog.Logger, exposeErrors bool) *Handler {
	return &Handler{
		service:      service,
		log:          log,
		exposeErrors: exposeErrors,
	}
}

type createResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type listResponse struct {
	Success     bool         `json:"success"`
	Submissions []Submission `json:"submissions"`
	Total       int64        `json:"total"`
	Limit       int64        `json:"limit"`
	Offset      int64        `json:"offset"`
}

type patchResponse struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	Submission Submission `json:"submission"`
}

type schemaResponse struct {
	Success bool                            `json:"success"`
	Types   map[Type][]validation.FieldRule `json:"types"`
	Status  map[Status][]Status             `json:"statusTransitions"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	payload, err := httpx.ReadBody(r.Body)
	if err != nil {
		log.Warn("submissions create: unreadable body", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	receipt, err := h.service.Submit(ctx, payload)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.Is(err, ErrMalformed):
			log.Warn("submissions create: invalid json")
			transport.WriteError(w, http.StatusBadRequest, msgInvalidBody, nil)
		case errors.Is(err, ErrInvalidType):
			log.Warn("submissions create: invalid type")
			transport.WriteError(w, http.StatusBadRequest, msgInvalidType, nil)
		case errors.As(err, &verr):
			log.Warn("submissions create: validation error", slog.Int("fields", len(verr.Fields)))
			transport.WriteError(w, http.StatusBadRequest, msgValidation, verr.Fields)
		default:
			log.Error("submissions create: store error", slog.String("error", err.Error()))
			h.writeServerError(w, err)
		}
		return
	}

	go func(created Submission) {
		notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer notifyCancel()
		if err := h.service.Notify(notifyCtx, created); err != nil {
			h.log.Warn("submissions create: notification failed",
				slog.String("submission_id", created.ID),
				slog.String("error", err.Error()),
			)
		}
	}(receipt.Submission)

	log.Info("submissions create: stored",
		slog.String("submission_id", receipt.ID),
		slog.String("type", string(receipt.Submission.Type)),
	)
	transport.WriteJSON(w, http.StatusCreated, createResponse{
		Success: true,
		Message: receipt.Message,
		ID:      receipt.ID,
	})
}

// Schema serves the field rules the client mirrors for instant feedback.
func (h *Handler) Schema(w http.ResponseWriter, r *http.Request) {
	transitions := make(map[Status][]Status, 4)
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted} {
		transitions[s] = Next(s)
	}
	transport.WriteJSON(w, http.StatusOK, schemaResponse{
		Success: true,
		Types: map[Type][]validation.FieldRule{
			TypeMessage: validation.Describe(MessageRequest{}),
			TypeBooking: validation.Describe(BookingRequest{}),
		},
		Status: transitions,
	})
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	query := r.URL.Query()

	limit, offset, err := httpx.ParseLimitOffset(query, defaultListLimit, maxListLimit)
	if err != nil {
		log.Warn("admin submissions list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := ListFilter{Limit: limit, Offset: offset}
	if raw := strings.TrimSpace(query.Get("type")); raw != "" {
		kind, ok := ParseType(raw)
		if !ok {
			log.Warn("admin submissions list: invalid type", slog.String("type", raw))
			transport.WriteError(w, http.StatusBadRequest, msgInvalidType, nil)
			return
		}
		filter.Type = kind
	}
	read, err := httpx.ParseOptionalBool(query.Get("read"))
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid query", map[string]string{"read": validation.Reason("boolean", "")})
		return
	}
	filter.Read = read
	filter.Status = Status(strings.ToLower(strings.TrimSpace(query.Get("status"))))

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.List(ctx, filter)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			transport.WriteError(w, http.StatusBadRequest, "invalid query", verr.Fields)
			return
		}
		log.Error("admin submissions list: store error", slog.String("error", err.Error()))
		h.writeServerError(w, err)
		return
	}

	log.Info("admin submissions list: ok", slog.Int("count", len(items)), slog.String("principal", principalName(r)))
	transport.WriteJSON(w, http.StatusOK, listResponse{
		Success:     true,
		Submissions: items,
		Total:       total,
		Limit:       limit,
		Offset:      offset,
	})
}

func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := submissionID(r)
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("admin submissions get: not found", slog.String("submission_id", id))
			transport.WriteError(w, http.StatusNotFound, msgNotFound, nil)
			return
		}
		log.Error("admin submissions get: store error", slog.String("error", err.Error()))
		h.writeServerError(w, err)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"submission": item,
	})
}

func (h *Handler) AdminPatch(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := submissionID(r)
	if id == "" {
		log.Warn("admin submissions patch: missing id")
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	raw, err := httpx.ReadBody(r.Body)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		log.Warn("admin submissions patch: invalid json")
		transport.WriteError(w, http.StatusBadRequest, msgInvalidBody, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.service.Patch(ctx, id, fields)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.Is(err, ErrForbiddenField):
			log.Warn("admin submissions patch: immutable field", slog.String("submission_id", id), slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusBadRequest, msgForbidden, nil)
		case errors.Is(err, ErrNotFound):
			log.Warn("admin submissions patch: not found", slog.String("submission_id", id))
			transport.WriteError(w, http.StatusNotFound, msgNotFound, nil)
		case errors.Is(err, ErrInvalidTransition):
			log.Warn("admin submissions patch: transition refused", slog.String("submission_id", id), slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusConflict, msgTransition, nil)
		case errors.As(err, &verr):
			log.Warn("admin submissions patch: validation error", slog.String("submission_id", id))
			transport.WriteError(w, http.StatusBadRequest, msgValidation, verr.Fields)
		default:
			log.Error("admin submissions patch: store error", slog.String("error", err.Error()))
			h.writeServerError(w, err)
		}
		return
	}

	log.Info("admin submissions patch: ok",
		slog.String("submission_id", id),
		slog.String("principal", principalName(r)),
	)
	transport.WriteJSON(w, http.StatusOK, patchResponse{
		Success:    true,
		Message:    msgUpdated,
		Submission: updated,
	})
}

func (h *Handler) writeServerError(w http.ResponseWriter, err error) {
	var details map[string]string
	if h.exposeErrors {
		details = map[string]string{"store": err.Error()}
	}
	status := http.StatusInternalServerError
	if errors.Is(err, ErrUnavailable) {
		status = http.StatusServiceUnavailable
	}
	transport.WriteError(w, status, msgUnavailable, details)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}

// submissionID accepts both /admin/submissions/{id} and ?id=.
func submissionID(r *http.Request) string {
	if id := strings.TrimSpace(chi.URLParam(r, "id")); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("id"))
}

func principalName(r *http.Request) string {
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		return p.Subject
	}
	return ""
}
