// Package bridge exchanges verified Firebase credentials for minted sessions.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/driveboard/driveboard/internal/firebase"
	"github.com/driveboard/driveboard/internal/session"
	"github.com/driveboard/driveboard/internal/users"
)

// Stage failure kinds. Each exchange error wraps exactly one of these plus
// the originating component error.
var (
	ErrVerifyFailed = errors.New("token verification failed")
	ErrStoreFailed  = errors.New("user store failed")
	ErrMintFailed   = errors.New("session mint failed")
)

// Verifier validates a raw identity token and returns the normalized identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (firebase.Identity, error)
}

// Store finds-or-creates the user row for a verified identity.
type Store interface {
	Upsert(ctx context.Context, identity firebase.Identity) (users.User, error)
}

// Minter signs a session token over the stored user row.
type Minter interface {
	Mint(user users.User, ttl time.Duration) (session.Session, error)
}

// Envelope is the exchange response. Session duplicates the token fields for
// callers expecting a nested session object.
type Envelope struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
	ExpiresAt   int64      `json:"expires_at"`
	User        users.User `json:"user"`
	Session     Nested     `json:"session"`
}

// Nested mirrors the top-level token fields inside the envelope.
type Nested struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int64      `json:"expires_in"`
	ExpiresAt   int64      `json:"expires_at"`
	User        users.User `json:"user"`
}

// Service runs the verify, upsert, mint pipeline.
type Service struct {
	verifier Verifier
	store    Store
	minter   Minter
	ttl      time.Duration
	logger   *slog.Logger
}

// NewService creates the bridge orchestrator with the given collaborators
// and session lifetime.
func NewService(log *slog.Logger, verifier Verifier, store Store, minter Minter, ttl time.Duration) *Service {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		verifier: verifier,
		store:    store,
		minter:   minter,
		ttl:      ttl,
		logger:   log.With(slog.String("service", "bridge")),
	}
}

// Exchange trades a raw identity-provider token for a minted session. The
// operation is all-or-nothing: any stage failure aborts with that stage's
// error kind and no envelope is produced.
func (s *Service) Exchange(ctx context.Context, rawToken string) (Envelope, error) {
	if s.verifier == nil || s.store == nil || s.minter == nil {
		return Envelope{}, errors.New("bridge not configured")
	}

	identity, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrVerifyFailed, err)
	}

	user, err := s.store.Upsert(ctx, identity)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrStoreFailed, err)
	}

	sess, err := s.minter.Mint(user, s.ttl)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMintFailed, err)
	}

	s.logger.Info("session exchanged",
		slog.String("user_id", user.ID),
		slog.String("user_type", user.UserType),
	)

	return Envelope{
		AccessToken: sess.AccessToken,
		TokenType:   sess.TokenType,
		ExpiresIn:   sess.ExpiresIn,
		ExpiresAt:   sess.ExpiresAt,
		User:        user,
		Session: Nested{
			AccessToken: sess.AccessToken,
			TokenType:   sess.TokenType,
			ExpiresIn:   sess.ExpiresIn,
			ExpiresAt:   sess.ExpiresAt,
			User:        user,
		},
	}, nil
}
