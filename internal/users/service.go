// Package users provides the persistent user store keyed by Firebase identity.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driveboard/driveboard/internal/db"
	"github.com/driveboard/driveboard/internal/firebase"
)

// Errors returned by user store operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidRole  = errors.New("invalid role")
	ErrSelfDemotion = errors.New("cannot demote own role")
)

// Service provides user persistence over PostgreSQL.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a new users service.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "users")),
	}
}

const userColumns = "id, firebase_uid, email, full_name, user_type, email_verified, created_at, updated_at"

// The conflict clause deliberately leaves user_type alone: the role is
// assigned at insert time and changed only through UpdateRole.
const upsertQuery = `
INSERT INTO users (firebase_uid, email, full_name, user_type, email_verified)
VALUES ($1, $2, $3, 'CLIENT', $4)
ON CONFLICT (firebase_uid) DO UPDATE SET
    email = EXCLUDED.email,
    full_name = EXCLUDED.full_name,
    email_verified = EXCLUDED.email_verified,
    updated_at = now()
RETURNING ` + userColumns

// Upsert inserts or refreshes the row for the given verified identity and
// returns the authoritative post-upsert row. Concurrent calls for the same
// identity are serialized by the database conflict resolution.
func (s *Service) Upsert(ctx context.Context, identity firebase.Identity) (User, error) {
	if s.pool == nil {
		return User{}, errors.New("user store not configured")
	}
	uid := strings.TrimSpace(identity.UID)
	if uid == "" {
		return User{}, errors.New("firebase uid is required")
	}
	fullName := strings.TrimSpace(identity.DisplayName)
	if fullName == "" {
		fullName = identity.Email
	}

	row := s.pool.QueryRow(ctx, upsertQuery, uid, identity.Email, fullName, identity.EmailVerified)
	user, err := scanUser(row)
	if err != nil {
		return User{}, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

// Get returns a user by internal id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if s.pool == nil {
		return User{}, errors.New("user store not configured")
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return User{}, err
	}
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", pgID)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return user, nil
}

// List returns all users ordered by creation time.
func (s *Service) List(ctx context.Context) ([]User, error) {
	if s.pool == nil {
		return nil, errors.New("user store not configured")
	}
	rows, err := s.pool.Query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, user)
	}
	return items, rows.Err()
}

// Count returns the number of user rows.
func (s *Service) Count(ctx context.Context) (int64, error) {
	if s.pool == nil {
		return 0, errors.New("user store not configured")
	}
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CreateAdmin inserts a bootstrap admin row for the given identity.
func (s *Service) CreateAdmin(ctx context.Context, firebaseUID, email, fullName string) (User, error) {
	if s.pool == nil {
		return User{}, errors.New("user store not configured")
	}
	firebaseUID = strings.TrimSpace(firebaseUID)
	if firebaseUID == "" {
		return User{}, errors.New("firebase uid is required")
	}
	if strings.TrimSpace(fullName) == "" {
		fullName = email
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (firebase_uid, email, full_name, user_type, email_verified)
		 VALUES ($1, $2, $3, 'ADMIN', TRUE)
		 RETURNING `+userColumns,
		firebaseUID, email, fullName)
	user, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, fmt.Errorf("%w: firebase uid %s", ErrUserExists, firebaseUID)
		}
		return User{}, fmt.Errorf("create admin: %w", err)
	}
	return user, nil
}

// UpdateRole changes the target user's role tier. The actor (taken from the
// caller's session claims) may not lower its own tier.
func (s *Service) UpdateRole(ctx context.Context, targetID, newRole, actorID, actorRole string) (User, error) {
	role, err := NormalizeRole(newRole)
	if err != nil {
		return User{}, err
	}
	if targetID == actorID && roleRank(role) < roleRank(actorRole) {
		return User{}, ErrSelfDemotion
	}
	if s.pool == nil {
		return User{}, errors.New("user store not configured")
	}
	pgID, err := db.ParseUUID(targetID)
	if err != nil {
		return User{}, err
	}
	row := s.pool.QueryRow(ctx,
		"UPDATE users SET user_type = $2, updated_at = now() WHERE id = $1 RETURNING "+userColumns,
		pgID, role)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	s.logger.Info("role updated",
		slog.String("user_id", user.ID),
		slog.String("user_type", user.UserType),
		slog.String("actor_id", actorID),
	)
	return user, nil
}

// NormalizeRole validates and canonicalizes a role tier.
func NormalizeRole(raw string) (string, error) {
	role := strings.ToUpper(strings.TrimSpace(raw))
	switch role {
	case RoleClient, RoleManager, RoleAdmin:
		return role, nil
	case "":
		return RoleClient, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidRole, raw)
	}
}

func roleRank(role string) int {
	switch strings.ToUpper(strings.TrimSpace(role)) {
	case RoleAdmin:
		return 2
	case RoleManager:
		return 1
	default:
		return 0
	}
}

func scanUser(row pgx.Row) (User, error) {
	var (
		id            pgtype.UUID
		firebaseUID   string
		email         string
		fullName      string
		userType      string
		emailVerified bool
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)
	if err := row.Scan(&id, &firebaseUID, &email, &fullName, &userType, &emailVerified, &createdAt, &updatedAt); err != nil {
		return User{}, err
	}
	return User{
		ID:            db.UUIDToString(id),
		FirebaseUID:   firebaseUID,
		Email:         email,
		FullName:      fullName,
		UserType:      userType,
		EmailVerified: emailVerified,
		CreatedAt:     db.TimeFromPg(createdAt),
		UpdatedAt:     db.TimeFromPg(updatedAt),
	}, nil
}
