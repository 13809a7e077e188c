package users_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/driveboard/driveboard/internal/firebase"
	"github.com/driveboard/driveboard/internal/users"
)

func setupUsersIntegrationTest(t *testing.T) (*pgxpool.Pool, *users.Service, func()) {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("skip integration test: TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip integration test: cannot connect to database: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test: database ping failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := users.NewService(logger, pool)

	return pool, svc, func() { pool.Close() }
}

func testIdentity() firebase.Identity {
	return firebase.Identity{
		UID:           "it-" + uuid.NewString(),
		Email:         "integration@x.com",
		DisplayName:   "Integration User",
		EmailVerified: true,
	}
}

func TestIntegrationUpsertPreservesRoleAcrossSignIns(t *testing.T) {
	_, svc, cleanup := setupUsersIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	identity := testIdentity()

	first, err := svc.Upsert(ctx, identity)
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if first.UserType != users.RoleClient {
		t.Fatalf("expected first upsert to assign %s, got %s", users.RoleClient, first.UserType)
	}
	if first.ID == "" {
		t.Fatal("expected upsert to return the row id")
	}

	actorID := uuid.NewString()
	promoted, err := svc.UpdateRole(ctx, first.ID, users.RoleManager, actorID, users.RoleAdmin)
	if err != nil {
		t.Fatalf("update role failed: %v", err)
	}
	if promoted.UserType != users.RoleManager {
		t.Fatalf("expected role %s after update, got %s", users.RoleManager, promoted.UserType)
	}

	// updated_at comes from now() in the conflict clause; give it room to move.
	time.Sleep(25 * time.Millisecond)

	identity.Email = "renamed@x.com"
	identity.DisplayName = "Renamed User"
	second, err := svc.Upsert(ctx, identity)
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same row id, got %s and %s", first.ID, second.ID)
	}
	if second.UserType != users.RoleManager {
		t.Fatalf("expected conflict update to preserve %s, got %s", users.RoleManager, second.UserType)
	}
	if second.Email != "renamed@x.com" || second.FullName != "Renamed User" {
		t.Fatalf("expected identity fields to refresh, got %+v", second)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: first=%v second=%v", first.UpdatedAt, second.UpdatedAt)
	}
}

func TestIntegrationUpdateRoleUnknownTarget(t *testing.T) {
	_, svc, cleanup := setupUsersIntegrationTest(t)
	defer cleanup()

	_, err := svc.UpdateRole(context.Background(), uuid.NewString(), users.RoleManager, uuid.NewString(), users.RoleAdmin)
	if !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestIntegrationConcurrentUpsertsSingleRow(t *testing.T) {
	pool, svc, cleanup := setupUsersIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	identity := testIdentity()

	const workers = 8
	results := make([]users.User, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Upsert(ctx, identity)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("upsert %d failed: %v", i, errs[i])
		}
		if results[i].ID != results[0].ID {
			t.Fatalf("expected one row id, got %s and %s", results[0].ID, results[i].ID)
		}
	}

	var count int64
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM users WHERE firebase_uid = $1", identity.UID).Scan(&count); err != nil {
		t.Fatalf("count rows failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one row for the uid, got %d", count)
	}
}

func TestIntegrationCreateAdminRejectsDuplicate(t *testing.T) {
	_, svc, cleanup := setupUsersIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	firebaseUID := "it-admin-" + uuid.NewString()

	admin, err := svc.CreateAdmin(ctx, firebaseUID, "admin@x.com", "Admin")
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if admin.UserType != users.RoleAdmin {
		t.Fatalf("expected %s, got %s", users.RoleAdmin, admin.UserType)
	}

	if _, err := svc.CreateAdmin(ctx, firebaseUID, "admin@x.com", "Admin"); !errors.Is(err, users.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}
