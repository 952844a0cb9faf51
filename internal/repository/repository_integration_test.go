//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/testutil"
)

// ============================================================================
// PostgreSQL Store Integration Tests
// ============================================================================

func newTestRepo(t *testing.T) (context.Context, *Repository) {
	t.Helper()

	databaseURL := testutil.RequireEnv(t, "DATABASE_URL")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	repo, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := testutil.ResetSchema(ctx, databaseURL); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	return ctx, repo
}

func newUser(ctx context.Context, t *testing.T, repo *Repository) *model.User {
	t.Helper()
	u := testutil.NewTestUser(t)
	if err := repo.Users().Create(ctx, u, "$argon2id$test"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestIntegrationUsers_UniqueEmailAndCredential(t *testing.T) {
	ctx, repo := newTestRepo(t)
	u := newUser(ctx, t, repo)

	dup := testutil.NewTestUser(t)
	dup.Email = u.Email
	if err := repo.Users().Create(ctx, dup, "x"); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	cred, err := repo.Users().Credential(ctx, u.Email)
	if err != nil {
		t.Fatalf("Credential failed: %v", err)
	}
	if cred.UserID != u.ID || cred.PasswordHash != "$argon2id$test" {
		t.Errorf("unexpected credential %+v", cred)
	}

	if _, err := repo.Users().GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIntegrationUsers_EscapedNameStored(t *testing.T) {
	ctx, repo := newTestRepo(t)

	u := testutil.NewTestUser(t)
	u.Name = "Tom &amp; Jerry &amp; Friends &amp; Co"
	if err := repo.Users().Create(ctx, u, "$argon2id$test"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	got, err := repo.Users().GetByEmail(ctx, u.Email)
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.Name != u.Name {
		t.Errorf("name = %q, want %q", got.Name, u.Name)
	}
}

func TestIntegrationTasks_CRUDAndOrdering(t *testing.T) {
	ctx, repo := newTestRepo(t)
	u := newUser(ctx, t, repo)
	other := newUser(ctx, t, repo)

	var ids []string
	for i := 0; i < 3; i++ {
		task := testutil.NewTestTask(t, u.ID)
		task.UpdatedAt = task.UpdatedAt.Add(time.Duration(i) * time.Minute)
		if err := repo.Tasks().Insert(ctx, task); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		ids = append(ids, task.ID)
	}
	if err := repo.Tasks().Insert(ctx, testutil.NewTestTask(t, other.ID)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	items, total, err := repo.Tasks().List(ctx, u.ID, ListOptions{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("got %d items of %d, want 2 of 3", len(items), total)
	}
	if items[0].ID != ids[2] || items[1].ID != ids[1] {
		t.Errorf("list not ordered by updated_at desc")
	}

	task, err := repo.Tasks().Get(ctx, ids[0])
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	task.MarkComplete(time.Now())
	task.Title = "Renamed"
	if err := repo.Tasks().Update(ctx, task); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.Tasks().Get(ctx, ids[0])
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != "Renamed" || !got.Completed || got.CompletedAt == nil {
		t.Errorf("update not persisted: %+v", got)
	}

	// Deleting through the wrong owner touches nothing.
	if err := repo.Tasks().Delete(ctx, other.ID, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	n, err := repo.DeleteCompletedTasks(ctx, u.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteCompletedTasks = %d, %v; want 1", n, err)
	}
	if _, err := repo.Tasks().Get(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestIntegrationFinance_ExactSums(t *testing.T) {
	ctx, repo := newTestRepo(t)
	u := newUser(ctx, t, repo)

	start := model.NewDate(2025, time.May, 1)
	end := model.NewDate(2025, time.May, 31)

	budget := testutil.NewTestBudget(t, u.ID, model.BudgetFood, start, end)
	if err := repo.Budgets().Insert(ctx, budget); err != nil {
		t.Fatalf("Insert budget failed: %v", err)
	}

	txs := []*model.Transaction{
		testutil.NewTestTransaction(t, u.ID, model.TransactionExpense, model.BudgetFood, start, 1010),
		testutil.NewTestTransaction(t, u.ID, model.TransactionExpense, model.BudgetFood, end, 2020),
		testutil.NewTestTransaction(t, u.ID, model.TransactionExpense, model.BudgetFood, model.NewDate(2025, time.June, 1), 9999),
		testutil.NewTestTransaction(t, u.ID, model.TransactionIncome, model.BudgetFood, start, 50000),
		testutil.NewTestTransaction(t, u.ID, model.TransactionExpense, model.BudgetTransport, start, 700),
	}
	for _, tx := range txs {
		if err := repo.Transactions().Insert(ctx, tx); err != nil {
			t.Fatalf("Insert transaction failed: %v", err)
		}
	}

	spent, err := repo.SumExpenses(ctx, u.ID, model.BudgetFood, start, end)
	if err != nil {
		t.Fatalf("SumExpenses failed: %v", err)
	}
	if spent != model.Money(3030) {
		t.Errorf("spent = %s, want 30.30", spent)
	}

	covering, err := repo.BudgetsCovering(ctx, u.ID, model.BudgetFood, end)
	if err != nil {
		t.Fatalf("BudgetsCovering failed: %v", err)
	}
	if len(covering) != 1 || covering[0].ID != budget.ID {
		t.Errorf("expected the May budget to cover %s, got %d budgets", end, len(covering))
	}
}

func TestIntegrationInTx_RollsBack(t *testing.T) {
	ctx, repo := newTestRepo(t)
	u := newUser(ctx, t, repo)

	boom := errors.New("boom")
	task := testutil.NewTestTask(t, u.ID)

	err := repo.InTx(ctx, func(tx Store) error {
		if err := tx.Tasks().Insert(ctx, task); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := repo.Tasks().Get(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("insert survived a rolled back transaction: %v", err)
	}
}
