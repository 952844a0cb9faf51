// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/taskflow/taskflow/internal/migrate"
	"github.com/taskflow/taskflow/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 737373

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema rolls every migration back and applies them again, leaving
// empty tables.
func ResetSchema(ctx context.Context, databaseURL string) error {
	db, err := migrate.Open(databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrate.Reset(ctx, db, nil)
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ProjectRoot returns the project root directory.
func ProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to resolve testutil path")
	}
	root := filepath.Clean(filepath.Join(filepath.Dir(filename), "..", ".."))
	return root, nil
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return UniqueID(prefix) + "@example.com"
}

func base(ownerID string) model.Base {
	return model.NewBase(uuid.NewString(), ownerID, time.Now().UTC())
}

// NewTestUser creates a user with a unique email.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	now := time.Now().UTC()
	return &model.User{
		ID:        uuid.NewString(),
		Name:      "Test User",
		Email:     UniqueEmail("user"),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestTask creates a task owned by ownerID with sensible defaults.
func NewTestTask(t testing.TB, ownerID string) *model.Task {
	t.Helper()
	return &model.Task{
		Base:        base(ownerID),
		Title:       "Test task",
		Description: "Something to do",
		Priority:    model.PriorityMedium,
		Deadline:    model.DateOf(time.Now().AddDate(0, 0, 7)),
		Category:    model.CategoryWork,
	}
}

// NewTestBudget creates a budget over [start, end].
func NewTestBudget(t testing.TB, ownerID string, category model.BudgetCategory, start, end model.Date) *model.Budget {
	t.Helper()
	return &model.Budget{
		Base:      base(ownerID),
		Category:  category,
		Amount:    model.Money(50000),
		Period:    model.PeriodMonthly,
		StartDate: start,
		EndDate:   end,
	}
}

// NewTestTransaction creates a transaction of amount cents.
func NewTestTransaction(t testing.TB, ownerID string, typ model.TransactionType, category model.BudgetCategory, date model.Date, cents int64) *model.Transaction {
	t.Helper()
	return &model.Transaction{
		Base:     base(ownerID),
		Title:    "Test transaction",
		Amount:   model.Money(cents),
		Type:     typ,
		Date:     date,
		Category: category,
	}
}
