package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/petnice/clinic-dashboard/internal/auth"
	"github.com/petnice/clinic-dashboard/internal/domain"
)

const keyPrefix = "dashboard:session:"

var (
	// ErrNoSession means there is no usable session for the id.
	ErrNoSession = errors.New("no session")
	// ErrSessionExpired is an ErrNoSession caused by an elapsed token.
	ErrSessionExpired = fmt.Errorf("%w: token expired", ErrNoSession)
	// ErrSessionRejected is an ErrNoSession caused by a token that could not be decoded.
	ErrSessionRejected = fmt.Errorf("%w: token could not be decoded", ErrNoSession)
	// ErrEmptyToken is returned by Save for an empty token.
	ErrEmptyToken = errors.New("session token is empty")
)

// Profile is the user record returned alongside the token at login. It is derived data:
// it only fills identity fields the claims lack and is cleared with the token.
type Profile struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// entry is the stored value of a session.
type entry struct {
	Token   string   `json:"token"`
	Profile *Profile `json:"profile,omitempty"`
}

// Session is the current token of a browser session with its decoded claims.
type Session struct {
	Token   string
	Claims  *auth.Claims
	Profile *Profile
}

// Identity projects the claims of the session, completed from the login profile.
func (s *Session) Identity() *domain.Identity {
	if s == nil || s.Claims == nil {
		return nil
	}
	identity := s.Claims.Identity()
	if p := s.Profile; p != nil {
		if identity.ID == "" {
			identity.ID = p.ID
		}
		if identity.Name == "" {
			identity.Name = p.Name
		}
		if identity.Email == "" {
			identity.Email = p.Email
		}
		if identity.Role == "" {
			identity.Role = domain.Role(strings.ToUpper(p.Role))
		}
	}
	return identity
}

// Store persists at most one current token per session id and derives identity from it.
type Store struct {
	backend     Backend
	sealer      Sealer
	decoder     *auth.TokenDecoder
	fallbackTTL time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSealer protects tokens at rest.
func WithSealer(sealer Sealer) Option {
	return func(s *Store) { s.sealer = sealer }
}

// WithFallbackTTL bounds storage of tokens whose expiry is unknown or already past.
func WithFallbackTTL(ttl time.Duration) Option {
	return func(s *Store) { s.fallbackTTL = ttl }
}

// NewStore builds a store over a backend.
func NewStore(backend Backend, decoder *auth.TokenDecoder, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		backend:     backend,
		sealer:      plainSealer{},
		decoder:     decoder,
		fallbackTTL: time.Hour,
		now:         time.Now,
		logger:      logger.Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend exposes the underlying storage, used by the sweeper.
func (s *Store) Backend() Backend {
	return s.backend
}

// Save writes the token as the current one for sessionID, replacing any previous token.
func (s *Store) Save(ctx context.Context, sessionID, token string) error {
	return s.SaveWithProfile(ctx, sessionID, token, nil)
}

// SaveWithProfile is Save keeping the login profile next to the token.
func (s *Store) SaveWithProfile(ctx context.Context, sessionID, token string, profile *Profile) error {
	if token == "" {
		return ErrEmptyToken
	}

	ttl := s.fallbackTTL
	if claims, err := s.decoder.Decode(token); err == nil {
		if remaining := claims.Expiry().Sub(s.now()); remaining > 0 {
			ttl = remaining
		}
	}

	value, err := json.Marshal(entry{Token: token, Profile: profile})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	sealed, err := s.sealer.Seal(string(value))
	if err != nil {
		return fmt.Errorf("seal session token: %w", err)
	}
	if err := s.backend.Set(ctx, storageKey(sessionID), sealed, ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the current session. A token that is absent yields ErrNoSession; one
// that cannot be decoded or has expired is cleared first and yields ErrSessionRejected
// or ErrSessionExpired. Storage failures are returned as-is and leave storage intact.
func (s *Store) Load(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}

	stored, err := s.backend.Get(ctx, storageKey(sessionID))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	opened, err := s.sealer.Open(stored)
	if err != nil {
		s.discard(ctx, sessionID, "unsealable", err)
		return nil, ErrSessionRejected
	}
	current, err := parseEntry(opened)
	if err != nil {
		s.discard(ctx, sessionID, "unreadable", err)
		return nil, ErrSessionRejected
	}

	claims, err := s.decoder.Decode(current.Token)
	if err != nil {
		s.discard(ctx, sessionID, "undecodable", err)
		return nil, ErrSessionRejected
	}

	if IsExpired(claims, s.now()) {
		s.discard(ctx, sessionID, "expired", nil)
		return nil, ErrSessionExpired
	}

	return &Session{Token: current.Token, Claims: claims, Profile: current.Profile}, nil
}

// IsExpired reports whether the claims' exp is at or before now.
func (s *Store) IsExpired(claims *auth.Claims) bool {
	return IsExpired(claims, s.now())
}

// Clear removes the token for sessionID. Clearing a missing session is not an error.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.backend.Delete(ctx, storageKey(sessionID)); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) discard(ctx context.Context, sessionID, reason string, cause error) {
	fields := []zap.Field{zap.String("reason", reason)}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	s.logger.Debug("discarding stored session", fields...)
	if err := s.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("failed to clear discarded session", zap.Error(err))
	}
}

// IsExpired compares the exp claim (seconds since epoch) with now.
// Claims without an expiry are treated as expired.
func IsExpired(claims *auth.Claims, now time.Time) bool {
	exp := claims.Expiry()
	if exp.IsZero() {
		return true
	}
	return !exp.After(now)
}

// parseEntry reads a stored value. Values written before profiles were kept hold the
// bare token.
func parseEntry(value string) (entry, error) {
	if !strings.HasPrefix(strings.TrimSpace(value), "{") {
		return entry{Token: value}, nil
	}
	var e entry
	if err := json.Unmarshal([]byte(value), &e); err != nil {
		return entry{}, err
	}
	return e, nil
}

func storageKey(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return keyPrefix + hex.EncodeToString(sum[:])
}
