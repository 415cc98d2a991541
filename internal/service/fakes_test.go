package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/notify"
	"github.com/spec-kit/smart-resolve/internal/repository"
	"github.com/spec-kit/smart-resolve/internal/session"
)

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
	seq     int
	now     time.Time
	err     error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: map[string]domain.Ticket{},
		now:     time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (r *fakeTicketRepo) tick() time.Time {
	r.now = r.now.Add(time.Minute)
	return r.now
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.seq++
	ticket.ID = fmt.Sprintf("t-%d", r.seq)
	ticket.CreatedAt = r.tick()
	ticket.UpdatedAt = ticket.CreatedAt
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return time.Time{}, r.err
	}
	t, ok := r.tickets[id]
	if !ok {
		return time.Time{}, pgx.ErrNoRows
	}
	t.Status = status
	t.UpdatedAt = r.tick()
	r.tickets[id] = t
	return t.UpdatedAt, nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := []domain.Ticket{}
	for _, t := range r.tickets {
		if filter.UserID != nil && t.UserID != *filter.UserID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (n *fakeNotifier) Success(_ context.Context, _, title, message string) {
	n.add(notify.Notice{Level: notify.LevelSuccess, Title: title, Message: message})
}

func (n *fakeNotifier) Error(_ context.Context, _, title, message string) {
	n.add(notify.Notice{Level: notify.LevelError, Title: title, Message: message})
}

func (n *fakeNotifier) add(notice notify.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *fakeNotifier) last() notify.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return notify.Notice{}
	}
	return n.notices[len(n.notices)-1]
}

type fakeAccounts struct {
	byEmail map[string]*domain.Credential
	seq     int
	err     error
}

func (a *fakeAccounts) CreateAccount(_ context.Context, credential *domain.Credential, profile *domain.Profile) error {
	if a.err != nil {
		return a.err
	}
	if _, ok := a.byEmail[credential.Email]; ok {
		return repository.ErrEmailTaken
	}
	a.seq++
	credential.ID = fmt.Sprintf("u-%d", a.seq)
	profile.ID = credential.ID
	a.byEmail[credential.Email] = credential
	return nil
}

func (a *fakeAccounts) GetCredentialByEmail(_ context.Context, email string) (*domain.Credential, error) {
	if a.err != nil {
		return nil, a.err
	}
	c, ok := a.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

type fakeProfiles struct {
	byID map[string]*domain.Profile
	err  error
}

func (p *fakeProfiles) GetByID(_ context.Context, id string) (*domain.Profile, error) {
	if p.err != nil {
		return nil, p.err
	}
	profile, ok := p.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *profile
	return &cp, nil
}

func (p *fakeProfiles) Update(_ context.Context, profile *domain.Profile) error {
	if p.err != nil {
		return p.err
	}
	if _, ok := p.byID[profile.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *profile
	p.byID[profile.ID] = &cp
	return nil
}

type fakeSessionStore struct {
	records map[string]string
	err     error
}

func (s *fakeSessionStore) Save(_ context.Context, sessionID, userID string, _ time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.records[sessionID] = userID
	return nil
}

func (s *fakeSessionStore) Lookup(_ context.Context, sessionID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	userID, ok := s.records[sessionID]
	if !ok {
		return "", session.ErrNotFound
	}
	return userID, nil
}

func (s *fakeSessionStore) Delete(_ context.Context, sessionID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.records, sessionID)
	return nil
}
