// Package workspace keeps the in-process state of each live session: its
// conversation and its ticket cache. Nothing here is shared between sessions.
package workspace

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/smart-resolve/internal/classifier"
	"github.com/spec-kit/smart-resolve/internal/config"
	"github.com/spec-kit/smart-resolve/internal/conversation"
	"github.com/spec-kit/smart-resolve/internal/events"
	"github.com/spec-kit/smart-resolve/internal/notify"
	"github.com/spec-kit/smart-resolve/internal/observability"
	"github.com/spec-kit/smart-resolve/internal/repository"
	"github.com/spec-kit/smart-resolve/internal/service"
	"github.com/spec-kit/smart-resolve/internal/session"
)

// Workspace is one session's conversation and ticket store.
type Workspace struct {
	SessionID    string
	Conversation *conversation.Engine
	Tickets      *service.TicketStore

	mu       sync.Mutex
	lastUsed time.Time
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastUsed = now
	w.mu.Unlock()
}

// LastUsed returns when the workspace was last handed out.
func (w *Workspace) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

func (w *Workspace) close() {
	w.Conversation.Close()
	w.Tickets.Close()
}

// Dependencies bundles what every workspace is built from.
type Dependencies struct {
	Classifier classifier.Client
	TicketRepo repository.TicketRepository
	Notifier   notify.Notifier
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// Registry owns the workspaces keyed by session id.
type Registry struct {
	cfg  config.ClassifierConfig
	deps Dependencies

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry builds an empty registry.
func NewRegistry(cfg config.ClassifierConfig, deps Dependencies) *Registry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Registry{cfg: cfg, deps: deps, workspaces: make(map[string]*Workspace)}
}

// RegisterHandlers tears workspaces down when their session ends.
func (r *Registry) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventSessionEnded, func(_ context.Context, event events.Event) error {
		r.Remove(event.SessionID)
		return nil
	})
}

// For returns the session's workspace, creating it on first use. The session
// must be authenticated.
func (r *Registry) For(sess *session.Session) *Workspace {
	now := r.deps.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if ws, ok := r.workspaces[sess.ID]; ok {
		ws.touch(now)
		ws.Tickets.Rebind(sess)
		return ws
	}

	tickets := service.NewTicketStore(sess, service.TicketStoreDependencies{
		TicketRepo: r.deps.TicketRepo,
		Notifier:   r.deps.Notifier,
		Dispatcher: r.deps.Dispatcher,
		Metrics:    r.deps.Metrics,
		Logger:     r.deps.Logger,
	})
	engine := conversation.New(sess.UserID(), conversation.Config{
		SystemPrompt:      r.cfg.SystemPrompt,
		HistoryWindow:     r.cfg.HistoryWindow,
		EscalationTimeout: r.cfg.EscalationTimeout(),
	}, conversation.Dependencies{
		Classifier: r.deps.Classifier,
		Tickets:    tickets,
		Metrics:    r.deps.Metrics,
		Logger:     r.deps.Logger.With(zap.String("session_id", sess.ID)),
	})

	ws := &Workspace{SessionID: sess.ID, Conversation: engine, Tickets: tickets, lastUsed: now}
	r.workspaces[sess.ID] = ws
	r.deps.Logger.Debug("workspace created", zap.String("session_id", sess.ID))
	return ws
}

// Remove closes and forgets the session's workspace, if any.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	ws, ok := r.workspaces[sessionID]
	delete(r.workspaces, sessionID)
	r.mu.Unlock()

	if ok {
		ws.close()
		r.deps.Logger.Debug("workspace closed", zap.String("session_id", sessionID))
	}
}

// EvictIdle closes workspaces unused for longer than maxIdle and returns how
// many were removed.
func (r *Registry) EvictIdle(maxIdle time.Duration) int {
	cutoff := r.deps.Now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*Workspace
	for id, ws := range r.workspaces {
		if ws.LastUsed().Before(cutoff) {
			stale = append(stale, ws)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()

	for _, ws := range stale {
		ws.close()
	}
	return len(stale)
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}
