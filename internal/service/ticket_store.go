package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/events"
	"github.com/spec-kit/smart-resolve/internal/notify"
	"github.com/spec-kit/smart-resolve/internal/observability"
	"github.com/spec-kit/smart-resolve/internal/repository"
	"github.com/spec-kit/smart-resolve/internal/session"
	apperrors "github.com/spec-kit/smart-resolve/pkg/util"
)

// ErrNoSession is returned when a ticket is created without a signed-in user.
var ErrNoSession = apperrors.NewUnauthorized("user not authenticated")

// TicketDraft is the caller-supplied part of a new ticket.
type TicketDraft struct {
	Description  string
	Category     domain.TicketCategory
	Priority     domain.TicketPriority
	AssignedTeam string
}

// TicketStoreDependencies bundles collaborators of a TicketStore.
type TicketStoreDependencies struct {
	TicketRepo repository.TicketRepository
	Notifier   notify.Notifier
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// TicketStore reads and writes tickets for one session and keeps the latest
// known list in memory. It is not shared across sessions.
type TicketStore struct {
	deps TicketStoreDependencies
	sess *session.Session

	mu       sync.RWMutex
	cache    []domain.Ticket
	disposed bool
}

// NewTicketStore creates a store bound to a session.
func NewTicketStore(sess *session.Session, deps TicketStoreDependencies) *TicketStore {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &TicketStore{deps: deps, sess: sess, cache: []domain.Ticket{}}
}

// Fetch loads tickets newest first, optionally limited to one owner, and
// replaces the cache with the result. Callers pass an owner for non-admins.
func (s *TicketStore) Fetch(ctx context.Context, ownerID *string) ([]domain.Ticket, error) {
	tickets, err := s.deps.TicketRepo.List(ctx, repository.TicketFilter{UserID: ownerID})
	if err != nil {
		s.deps.Logger.Error("fetch tickets", zap.Error(err))
		s.notifyError(ctx, "Failed to fetch tickets")
		return nil, apperrors.MapError(err)
	}

	s.mu.Lock()
	if !s.disposed {
		s.cache = tickets
	}
	s.mu.Unlock()
	return cloneTickets(tickets), nil
}

// Rebind points the store at the latest view of its session, such as after a
// profile edit. The session id must not change.
func (s *TicketStore) Rebind(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess != nil && (s.sess == nil || sess.ID == s.sess.ID) {
		s.sess = sess
	}
}

func (s *TicketStore) session() *session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

// Create persists a ticket owned by the session user and prepends it to the cache.
func (s *TicketStore) Create(ctx context.Context, draft TicketDraft) (*domain.Ticket, error) {
	sess := s.session()
	if !sess.Authenticated() {
		s.notifyError(ctx, "Failed to create ticket")
		return nil, ErrNoSession
	}
	description := strings.TrimSpace(draft.Description)
	if description == "" {
		s.notifyError(ctx, "Failed to create ticket")
		return nil, apperrors.NewValidationError("description required", nil)
	}

	ticket := &domain.Ticket{
		UserID:      sess.UserID(),
		Description: description,
		Category:    draft.Category,
		Priority:    draft.Priority,
		Status:      domain.TicketStatusRegistered,
		Owner:       sess.Profile,
	}
	if !ticket.Category.Valid() {
		ticket.Category = domain.TicketCategoryGeneral
	}
	if !ticket.Priority.Valid() {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if team := strings.TrimSpace(draft.AssignedTeam); team != "" {
		ticket.AssignedTeam = &team
	}

	if err := s.deps.TicketRepo.Create(ctx, ticket); err != nil {
		s.deps.Logger.Error("create ticket", zap.String("user_id", ticket.UserID), zap.Error(err))
		s.notifyError(ctx, "Failed to create ticket")
		return nil, apperrors.MapError(err)
	}

	s.mu.Lock()
	if !s.disposed {
		s.cache = append([]domain.Ticket{*ticket}, s.cache...)
	}
	s.mu.Unlock()

	s.deps.Metrics.RecordTicketCreated()
	s.notifySuccess(ctx, "Ticket created successfully")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Category:     ticket.Category,
			Priority:     ticket.Priority,
			AssignedTeam: ticket.Team(),
		},
	})
	return ticket, nil
}

// UpdateStatus persists the new status, then patches the cached entry with
// the status and the server's update timestamp. A ticket missing from the
// cache is left alone until the next Fetch.
func (s *TicketStore) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	if !status.Valid() {
		s.notifyError(ctx, "Failed to update ticket status")
		return apperrors.NewValidationError("invalid status", map[string]any{"status": status})
	}

	updatedAt, err := s.deps.TicketRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		s.deps.Logger.Error("update ticket status", zap.String("ticket_id", id), zap.Error(err))
		s.notifyError(ctx, "Failed to update ticket status")
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return apperrors.MapError(err)
	}

	var oldStatus domain.TicketStatus
	s.mu.Lock()
	if !s.disposed {
		for i := range s.cache {
			if s.cache[i].ID == id {
				oldStatus = s.cache[i].Status
				s.cache[i].Status = status
				s.cache[i].UpdatedAt = updatedAt
				break
			}
		}
	}
	s.mu.Unlock()

	s.notifySuccess(ctx, "Ticket status updated successfully")
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Payload:  events.TicketStatusChangedPayload{OldStatus: oldStatus, NewStatus: status},
	})
	return nil
}

// Get returns a ticket from the cache, falling back to the repository.
func (s *TicketStore) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	s.mu.RLock()
	for i := range s.cache {
		if s.cache[i].ID == id {
			ticket := s.cache[i]
			s.mu.RUnlock()
			return &ticket, nil
		}
	}
	s.mu.RUnlock()

	ticket, err := s.deps.TicketRepo.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		s.notifyError(ctx, "Failed to fetch ticket")
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// Cached returns a copy of the in-memory list without touching the backend.
func (s *TicketStore) Cached() []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTickets(s.cache)
}

// Close disposes the store; results of requests still in flight are dropped.
func (s *TicketStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.cache = nil
}

func (s *TicketStore) notifyError(ctx context.Context, message string) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Error(ctx, s.session().ID, "Error", message)
	}
}

func (s *TicketStore) notifySuccess(ctx context.Context, message string) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Success(ctx, s.session().ID, "Success", message)
	}
}

func (s *TicketStore) publish(ctx context.Context, event events.Event) {
	if s.deps.Dispatcher == nil {
		return
	}
	sess := s.session()
	event.SessionID = sess.ID
	event.UserID = sess.UserID()
	if err := s.deps.Dispatcher.Publish(ctx, event); err != nil {
		s.deps.Logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func cloneTickets(in []domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, len(in))
	copy(out, in)
	return out
}
