package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petnice/clinic-dashboard/internal/auth"
	"github.com/petnice/clinic-dashboard/internal/clinicapi"
	"github.com/petnice/clinic-dashboard/internal/domain"
	"github.com/petnice/clinic-dashboard/internal/events"
	"github.com/petnice/clinic-dashboard/internal/session"
	apperrors "github.com/petnice/clinic-dashboard/pkg/util"
)

// AuthService is the auth context: it restores, opens and closes sessions. One instance
// is built at startup and handed to the middleware and handlers that need it.
type AuthService struct {
	api        *clinicapi.Client
	sessions   *session.Store
	decoder    *auth.TokenDecoder
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	API        *clinicapi.Client
	Sessions   *session.Store
	Decoder    *auth.TokenDecoder
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	return &AuthService{
		api:        deps.API,
		sessions:   deps.Sessions,
		decoder:    deps.Decoder,
		dispatcher: dispatcher,
		logger:     logger.Named("auth"),
		now:        time.Now,
	}
}

// Restore derives the auth state of a request from the session store. An expired or
// undecodable stored token has already been cleared by the store when this returns.
// Storage failures are logged and yield an unauthenticated principal.
func (s *AuthService) Restore(ctx context.Context, sessionID string) *auth.Principal {
	principal := &auth.Principal{SessionID: sessionID}
	if sessionID == "" {
		return principal
	}

	sess, err := s.sessions.Load(ctx, sessionID)
	switch {
	case err == nil:
		principal.Token = sess.Token
		principal.Identity = sess.Identity()
	case errors.Is(err, session.ErrSessionExpired):
		s.publish(ctx, events.EventSessionExpired, events.Actor{}, events.SessionPayload{Reason: "token expired"})
	case errors.Is(err, session.ErrSessionRejected):
		s.publish(ctx, events.EventSessionRejected, events.Actor{}, events.SessionPayload{Reason: "token could not be decoded"})
	case errors.Is(err, session.ErrNoSession):
	default:
		s.logger.Error("session restore failed", zap.Error(err))
	}
	return principal
}

// Login exchanges credentials for a token and makes it the current token of the session.
// Nothing is stored unless the API accepted the credentials and returned a token that
// decodes and has not expired.
func (s *AuthService) Login(ctx context.Context, sessionID, email, password string) (*domain.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewAuthenticationError("email and password are required")
	}

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	claims, err := s.decoder.Decode(resp.Token)
	if err != nil {
		s.logger.Warn("login returned an undecodable token", zap.Error(err))
		return nil, apperrors.NewAuthenticationError("")
	}
	if session.IsExpired(claims, s.now()) {
		s.logger.Warn("login returned an expired token", zap.Time("exp", claims.Expiry()))
		return nil, apperrors.NewAuthenticationError("")
	}

	profile := profileOf(resp.User)
	if err := s.sessions.SaveWithProfile(ctx, sessionID, resp.Token, profile); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	identity := (&session.Session{Token: resp.Token, Claims: claims, Profile: profile}).Identity()
	s.publish(ctx, events.EventSessionStarted, events.ActorFrom(identity), nil)
	return identity, nil
}

// Register creates an account. The caller is not signed in afterwards.
func (s *AuthService) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return apperrors.NewRegistrationError("name, email and password are required")
	}

	if err := s.api.Register(ctx, name, email, password); err != nil {
		return err
	}
	s.publish(ctx, events.EventAccountRegistered, events.Actor{}, events.RegistrationPayload{Email: email})
	return nil
}

// Logout clears the session unconditionally. It never fails; storage errors are logged.
func (s *AuthService) Logout(ctx context.Context, principal *auth.Principal) {
	if principal == nil {
		return
	}
	if err := s.sessions.Clear(ctx, principal.SessionID); err != nil {
		s.logger.Error("clear session on logout", zap.Error(err))
	}
	s.publish(ctx, events.EventSessionEnded, events.ActorFrom(principal.Identity), nil)
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, actor events.Actor, payload interface{}) {
	if err := s.dispatcher.Publish(ctx, events.New(eventType, actor, payload)); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

// profileOf keeps the login response user so later requests can fill identity fields the
// token does not carry.
func profileOf(user *clinicapi.LoginUser) *session.Profile {
	if user == nil {
		return nil
	}
	return &session.Profile{
		ID:    user.ID,
		Name:  user.DisplayName(),
		Email: user.Email,
		Role:  user.Role,
	}
}
