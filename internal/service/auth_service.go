package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/smart-resolve/internal/auth"
	"github.com/spec-kit/smart-resolve/internal/config"
	"github.com/spec-kit/smart-resolve/internal/domain"
	"github.com/spec-kit/smart-resolve/internal/events"
	"github.com/spec-kit/smart-resolve/internal/repository"
	"github.com/spec-kit/smart-resolve/internal/session"
	apperrors "github.com/spec-kit/smart-resolve/pkg/util"
)

// ErrInvalidSession means the token is malformed, expired or revoked.
var ErrInvalidSession = errors.New("invalid session")

// AuthResult is returned by sign-up and login.
type AuthResult struct {
	Session   *session.Session
	Token     string
	ExpiresAt time.Time
}

// AuthService is the identity provider: it signs users up, logs them in and
// out, and resolves bearer tokens into sessions.
type AuthService struct {
	accounts   repository.AccountRepository
	profiles   repository.ProfileRepository
	sessions   session.Store
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	minPwLen   int
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	AccountRepo  repository.AccountRepository
	ProfileRepo  repository.ProfileRepository
	SessionStore session.Store
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:   deps.AccountRepo,
		profiles:   deps.ProfileRepo,
		sessions:   deps.SessionStore,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		minPwLen:   cfg.MinPasswordLength,
	}
}

// SignUp creates the credential and its user-role profile, then starts a session.
func (s *AuthService) SignUp(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, apperrors.NewValidationError("Please fill in all fields", nil)
	}
	if err := auth.CheckPasswordPolicy(password, s.minPwLen); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	credential := &domain.Credential{Email: email, PasswordHash: hash}
	profile := &domain.Profile{Name: name, Email: email, Role: domain.RoleUser}
	if err := s.accounts.CreateAccount(ctx, credential, profile); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.NewConflict("User already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("account created", zap.String("user_id", credential.ID))

	return s.startSession(ctx, credential, profile)
}

// Login authenticates with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Please fill in all fields", nil)
	}

	credential, err := s.accounts.GetCredentialByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("Invalid login credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(credential.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("Invalid login credentials")
	}

	return s.startSession(ctx, credential, s.loadProfile(ctx, credential.ID))
}

// Logout revokes the session and announces its end so per-session state is torn down.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	if !sess.Authenticated() {
		return apperrors.NewUnauthorized("not signed in")
	}
	if err := s.sessions.Delete(ctx, sess.ID); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.Event{Type: events.EventSessionEnded, SessionID: sess.ID, UserID: sess.UserID()})
	s.logger.Info("session ended", zap.String("session_id", sess.ID))
	return nil
}

// Resolve turns a bearer token into a session. A backend outage while
// checking the session yields a Loading session rather than an anonymous one,
// and a profile that cannot be read yet leaves Profile nil.
func (s *AuthService) Resolve(ctx context.Context, token string) (*session.Session, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidSession
	}

	userID, err := s.sessions.Lookup(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		s.logger.Warn("session lookup failed", zap.String("session_id", claims.ID), zap.Error(err))
		return session.Loading(), nil
	}
	if userID != claims.Subject {
		return nil, ErrInvalidSession
	}

	sess := &session.Session{
		ID:      claims.ID,
		User:    &session.User{ID: claims.Subject, Email: claims.Email},
		Profile: s.loadProfile(ctx, claims.Subject),
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// UpdateProfile edits the session user's name and email.
func (s *AuthService) UpdateProfile(ctx context.Context, sess *session.Session, name, email string) (*domain.Profile, error) {
	if !sess.Authenticated() {
		return nil, apperrors.NewUnauthorized("not signed in")
	}
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}

	profile, err := s.profiles.GetByID(ctx, sess.UserID())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	profile.Name = name
	profile.Email = email
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, apperrors.MapError(err)
	}
	sess.Profile = profile
	return profile, nil
}

func (s *AuthService) startSession(ctx context.Context, credential *domain.Credential, profile *domain.Profile) (*AuthResult, error) {
	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokenMgr.GenerateToken(sessionID, credential.ID, credential.Email)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.sessions.Save(ctx, sessionID, credential.ID, s.tokenMgr.TTL()); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	sess := &session.Session{
		ID:        sessionID,
		User:      &session.User{ID: credential.ID, Email: credential.Email},
		Profile:   profile,
		ExpiresAt: expiresAt,
	}
	s.publish(ctx, events.Event{Type: events.EventSessionStarted, SessionID: sessionID, UserID: credential.ID})
	return &AuthResult{Session: sess, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) loadProfile(ctx context.Context, userID string) *domain.Profile {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("profile not available", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return profile
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
