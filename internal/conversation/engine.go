// Package conversation drives one session's chat with the assistant and
// escalates conversations into support tickets.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/smart-resolve/internal/classifier"
	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/observability"
	"github.com/spec-kit/smart-resolve/internal/service"
)

const (
	GreetingText         = "Hello! I'm here to help you with your complaints and questions. Please describe your issue, and I'll either provide assistance or create a support ticket for you."
	ApologyText          = "I apologize, but I'm having trouble processing your request right now. Let me create a support ticket for you so our team can assist you directly."
	CreationFailedText   = "I apologize, but there was an error creating your support ticket. Please try again or contact our support team directly."
	confirmationTemplate = `I've created a support ticket for you!

Ticket ID: %s
Category: %s
Priority: %s
Assigned Team: %s

Our %s team will review your ticket and get back to you soon. You can track the progress in your dashboard.`
)

var (
	// ErrEmptyMessage rejects blank submissions.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy rejects a submission while the previous one is still running.
	ErrBusy = errors.New("a message is already being processed")
	// ErrClosed is returned once the engine has been torn down.
	ErrClosed = errors.New("conversation closed")
)

// TicketCreator persists tickets for the conversation's owner.
type TicketCreator interface {
	Create(ctx context.Context, draft service.TicketDraft) (*domain.Ticket, error)
}

// Health is the last known state of the assistant service.
type Health string

const (
	HealthUnknown Health = "unknown"
	HealthOnline  Health = "online"
	HealthOffline Health = "offline"
)

// Config tunes the prompt sent with every turn.
type Config struct {
	SystemPrompt  string
	HistoryWindow int
	// EscalationTimeout bounds categorization and persistence separately.
	EscalationTimeout time.Duration
}

// Dependencies bundles the engine's collaborators.
type Dependencies struct {
	Classifier classifier.Client
	Tickets    TicketCreator
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// Engine is a per-session conversation. Submissions are strictly sequential
// and at most one ticket creation runs at a time; a trigger arriving while one
// is running is dropped.
type Engine struct {
	owner string
	cfg   Config
	deps  Dependencies

	busy     atomic.Bool
	creating atomic.Bool
	health   atomic.Value

	mu      sync.Mutex
	history []domain.ChatMessage
	closed  bool
}

// New starts a conversation for owner (the session's user id) with the
// assistant greeting already in the history. An empty owner never creates tickets.
func New(owner string, cfg Config, deps Dependencies) *Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 5
	}
	if cfg.EscalationTimeout <= 0 {
		cfg.EscalationTimeout = 10 * time.Second
	}
	e := &Engine{owner: owner, cfg: cfg, deps: deps}
	e.health.Store(HealthUnknown)
	e.history = []domain.ChatMessage{e.message(domain.SenderAssistant, GreetingText)}
	return e
}

// Submit sends one user message and returns the messages it appended: the
// user turn, the assistant reply or apology, and a ticket confirmation or
// failure notice when the turn escalated.
func (e *Engine) Submit(ctx context.Context, text string) ([]domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer e.busy.Store(false)

	userMsg := e.message(domain.SenderUser, text)
	prompt, err := e.appendUserTurn(userMsg)
	if err != nil {
		return nil, err
	}
	appended := []domain.ChatMessage{userMsg}

	var escalate bool
	reply, genErr := e.deps.Classifier.GenerateResponse(ctx, prompt)
	if genErr != nil {
		e.deps.Logger.Warn("assistant reply failed, escalating", zap.String("owner", e.owner), zap.Error(genErr))
		reply = ApologyText
		escalate = true
	} else {
		escalate = ShouldCreateTicket(text, reply)
	}

	replyMsg := e.message(domain.SenderAssistant, reply)
	if !e.append(replyMsg) {
		return appended, ErrClosed
	}
	appended = append(appended, replyMsg)

	if escalate {
		if msg, ok := e.CreateTicket(ctx, text); ok {
			appended = append(appended, msg)
		}
	}
	return appended, nil
}

// CreateTicket categorizes description, persists it and appends the outcome
// message. It reports false when nothing was appended: no owner, a creation
// already in flight, or the engine closed meanwhile.
func (e *Engine) CreateTicket(ctx context.Context, description string) (domain.ChatMessage, bool) {
	if e.owner == "" {
		return domain.ChatMessage{}, false
	}
	if !e.creating.CompareAndSwap(false, true) {
		e.deps.Metrics.RecordCreationDropped()
		e.deps.Logger.Debug("ticket creation already in flight, dropping trigger", zap.String("owner", e.owner))
		return domain.ChatMessage{}, false
	}
	defer e.creating.Store(false)

	if e.isClosed() {
		return domain.ChatMessage{}, false
	}

	classifyCtx, cancelClassify := e.escalationContext(ctx)
	classification := e.deps.Classifier.CategorizeTicket(classifyCtx, description)
	cancelClassify()

	persistCtx, cancelPersist := e.escalationContext(ctx)
	defer cancelPersist()
	ticket, err := e.deps.Tickets.Create(persistCtx, service.TicketDraft{
		Description:  description,
		Category:     classification.Category,
		Priority:     classification.Priority,
		AssignedTeam: classification.AssignedTeam,
	})

	var msg domain.ChatMessage
	if err != nil {
		e.deps.Logger.Error("ticket creation failed", zap.String("owner", e.owner), zap.Error(err))
		msg = e.message(domain.SenderAssistant, CreationFailedText)
	} else {
		msg = e.message(domain.SenderAssistant, Confirmation(ticket.ID, classification))
	}
	if !e.append(msg) {
		return domain.ChatMessage{}, false
	}
	return msg, true
}

// escalationContext keeps ctx's values but not its deadline: a reply that
// failed because the request ran out of time must still be able to file a ticket.
func (e *Engine) escalationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), e.cfg.EscalationTimeout)
}

// Confirmation renders the message announcing a created ticket.
func Confirmation(ticketID string, c domain.Classification) string {
	return fmt.Sprintf(confirmationTemplate, ticketID, c.Category, c.Priority, c.AssignedTeam, c.AssignedTeam)
}

// History returns a copy of the conversation so far.
func (e *Engine) History() []domain.ChatMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.ChatMessage, len(e.history))
	copy(out, e.history)
	return out
}

// Busy reports whether a submission is in flight.
func (e *Engine) Busy() bool {
	return e.busy.Load()
}

// CreatingTicket reports whether a ticket creation is in flight.
func (e *Engine) CreatingTicket() bool {
	return e.creating.Load()
}

// RefreshHealth probes the assistant service and records the result.
func (e *Engine) RefreshHealth(ctx context.Context) Health {
	h := HealthOffline
	if e.deps.Classifier.CheckHealth(ctx) {
		h = HealthOnline
	}
	e.health.Store(h)
	return h
}

// ServiceHealth returns the last probe result without probing.
func (e *Engine) ServiceHealth() Health {
	return e.health.Load().(Health)
}

// Close discards the conversation. In-flight calls finish but their results
// are not recorded.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.history = nil
}

// appendUserTurn builds the prompt from the system prompt, the last N
// messages before this turn and the new user message, then records the turn.
func (e *Engine) appendUserTurn(msg domain.ChatMessage) ([]classifier.Message, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	window := e.history
	if len(window) > e.cfg.HistoryWindow {
		window = window[len(window)-e.cfg.HistoryWindow:]
	}

	prompt := make([]classifier.Message, 0, len(window)+2)
	if e.cfg.SystemPrompt != "" {
		prompt = append(prompt, classifier.Message{Role: classifier.RoleSystem, Content: e.cfg.SystemPrompt})
	}
	for _, m := range window {
		role := classifier.RoleAssistant
		if m.Sender == domain.SenderUser {
			role = classifier.RoleUser
		}
		prompt = append(prompt, classifier.Message{Role: role, Content: m.Content})
	}
	prompt = append(prompt, classifier.Message{Role: classifier.RoleUser, Content: msg.Content})

	e.history = append(e.history, msg)
	return prompt, nil
}

func (e *Engine) append(msg domain.ChatMessage) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.history = append(e.history, msg)
	return true
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) message(sender domain.ChatSender, content string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		Timestamp: e.deps.Now().UTC(),
	}
}
