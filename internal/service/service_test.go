package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/cache"
	"github.com/taskflow/taskflow/internal/metrics"
	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository/memstore"
	"github.com/taskflow/taskflow/internal/validation"
)

const (
	alice = "user-alice"
	bob   = "user-bob"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store   *memstore.Store
	clock   *fakeClock
	metrics *metrics.InMemoryRecorder
	deps    Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:   memstore.New(),
		clock:   &fakeClock{t: time.Date(2025, time.May, 10, 9, 0, 0, 0, time.UTC)},
		metrics: metrics.NewInMemory(),
	}
	f.deps = Deps{
		Store:     f.store,
		Validator: validation.New(),
		Metrics:   f.metrics,
		Now:       f.clock.Now,
	}
	return f
}

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()

	var verr *validation.Error
	require.True(t, errors.As(err, &verr), "expected *validation.Error, got %v", err)
	return verr.Fields
}

func taskBody(title string) []byte {
	return []byte(fmt.Sprintf(`{"title":%q,"description":"write it","priority":"HIGH","deadline":"2025-06-01","category":"WORK"}`, title))
}

func TestTask_CreateTitleLength(t *testing.T) {
	f := newFixture(t)
	svc := NewTaskService(f.deps)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, taskBody("ab"))
	fields := fieldErrors(t, err)
	require.Contains(t, fields, "title")
	assert.Equal(t, []string{"Length must be between 3 and 30."}, fields["title"])

	page, err := svc.List(ctx, alice, 1, 0)
	require.NoError(t, err)
	assert.Zero(t, page.Total, "a rejected payload must not be persisted")

	task, err := svc.Create(ctx, alice, taskBody("abc"))
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, alice, task.UserID)
	assert.Equal(t, model.PriorityHigh, task.Priority)

	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.ValidationFailures["task"])
	assert.Equal(t, uint64(1), snap.Mutations["task.create"])
}

func TestTask_UnknownFieldRejected(t *testing.T) {
	f := newFixture(t)
	svc := NewTaskService(f.deps)
	ctx := context.Background()

	body := []byte(`{"title":"abc","description":"d","priority":"LOW","deadline":"2025-06-01","category":"WORK","user_id":"user-bob"}`)
	_, err := svc.Create(ctx, alice, body)
	fields := fieldErrors(t, err)
	assert.Equal(t, []string{validation.MsgUnknownField}, fields["user_id"])

	task, err := svc.Create(ctx, alice, taskBody("abc"))
	require.NoError(t, err)

	_, err = svc.Edit(ctx, alice, task.ID, []byte(`{"completed":true}`))
	fieldErrors(t, err)

	got, err := svc.Get(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.False(t, got.Completed)
}

func TestTask_TextIsEscaped(t *testing.T) {
	f := newFixture(t)
	svc := NewTaskService(f.deps)

	task, err := svc.Create(context.Background(), alice, taskBody("<b>hi</b>"))
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;hi&lt;/b&gt;", task.Title)
	assert.NotContains(t, task.Title, "<")
	assert.Equal(t, model.CategoryWork, task.Category)
}

func TestOwnership_MaskedAsNotFound(t *testing.T) {
	f := newFixture(t)
	svc := NewNoteService(f.deps)
	ctx := context.Background()

	note, err := svc.Create(ctx, alice, []byte(`{"title":"mine","content":"secret"}`))
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, note.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, alice, "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Edit(ctx, bob, note.ID, []byte(`{"title":"pwned"}`))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, bob, note.ID), ErrNotFound)

	// Ownership is checked before the payload.
	_, err = svc.Edit(ctx, bob, note.ID, []byte(`{"bogus":1}`))
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.Get(ctx, alice, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)

	page, err := svc.List(ctx, bob, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestDelete_RepeatedIsNotFound(t *testing.T) {
	f := newFixture(t)
	svc := NewNoteService(f.deps)
	ctx := context.Background()

	note, err := svc.Create(ctx, alice, []byte(`{"title":"x","content":"y"}`))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, alice, note.ID))
	assert.ErrorIs(t, svc.Delete(ctx, alice, note.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, alice, note.ID), ErrNotFound)
}

func TestEdit_PartialKeepsAbsentFields(t *testing.T) {
	f := newFixture(t)
	svc := NewHabitService(f.deps)
	ctx := context.Background()

	habit, err := svc.Create(ctx, alice, []byte(`{"title":"Run","frequency":"DAILY","target_count":1,"priority":"LOW","category":"HEALTH","background_color":"BLUE"}`))
	require.NoError(t, err)
	assert.True(t, habit.IsActive)
	created := habit.UpdatedAt

	f.clock.Advance(time.Minute)
	edited, err := svc.Edit(ctx, alice, habit.ID, []byte(`{"target_count":3,"description":null}`))
	require.NoError(t, err)
	assert.Equal(t, 3, edited.TargetCount)
	assert.Equal(t, "Run", edited.Title)
	require.NotNil(t, edited.BackgroundColor)
	assert.Equal(t, model.ColorBlue, *edited.BackgroundColor)
	assert.True(t, edited.UpdatedAt.After(created))

	_, err = svc.Edit(ctx, alice, habit.ID, []byte(`{"title":null}`))
	assert.Equal(t, []string{validation.MsgNull}, fieldErrors(t, err)["title"])
}

func TestList_PaginationOrderedByUpdate(t *testing.T) {
	f := newFixture(t)
	svc := NewNoteService(f.deps)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 10; i++ {
		n, err := svc.Create(ctx, alice, []byte(fmt.Sprintf(`{"title":"n%d","content":"c"}`, i)))
		require.NoError(t, err)
		ids = append(ids, n.ID)
		f.clock.Advance(time.Second)
	}

	page, err := svc.List(ctx, alice, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, DefaultPlannerPage, page.PerPage)
	require.Len(t, page.Items, 8)
	assert.Equal(t, ids[9], page.Items[0].ID)

	// Editing moves a note to the front.
	_, err = svc.Edit(ctx, alice, ids[0], []byte(`{"content":"fresh"}`))
	require.NoError(t, err)
	page, err = svc.List(ctx, alice, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, ids[0], page.Items[0].ID)
	assert.Equal(t, 4, page.Pages)

	page, err = svc.List(ctx, alice, 2, 500)
	require.NoError(t, err)
	assert.Equal(t, MaxPerPage, page.PerPage)
	assert.Empty(t, page.Items)
}

func TestTask_CompleteAndDeleteCompleted(t *testing.T) {
	f := newFixture(t)
	svc := NewTaskService(f.deps)
	ctx := context.Background()

	_, err := svc.DeleteCompleted(ctx, alice)
	assert.ErrorIs(t, err, ErrNoCompletedTasks)

	a, err := svc.Create(ctx, alice, taskBody("one"))
	require.NoError(t, err)
	b, err := svc.Create(ctx, alice, taskBody("two"))
	require.NoError(t, err)

	done, err := svc.Complete(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)

	undone, err := svc.Incomplete(ctx, alice, a.ID)
	require.NoError(t, err)
	assert.False(t, undone.Completed)
	assert.Nil(t, undone.CompletedAt)

	_, err = svc.Complete(ctx, bob, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Complete(ctx, alice, b.ID)
	require.NoError(t, err)
	n, err := svc.DeleteCompleted(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.Get(ctx, alice, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(ctx, alice, a.ID)
	assert.NoError(t, err)
}

func TestTask_Analytics(t *testing.T) {
	f := newFixture(t)
	svc := NewTaskService(f.deps)
	ctx := context.Background()

	a, err := svc.Create(ctx, alice, taskBody("one"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, []byte(`{"title":"two","description":"d","priority":"LOW","deadline":"2025-06-01","category":"STUDY"}`))
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, taskBody("bobs"))
	require.NoError(t, err)
	_, err = svc.Complete(ctx, alice, a.ID)
	require.NoError(t, err)

	got, err := svc.Analytics(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Completed)
	assert.Equal(t, 1, got.Unfinished)
	assert.Equal(t, 1, got.Priorities["HIGH"])
	assert.Equal(t, 1, got.Priorities["LOW"])
	assert.Equal(t, 0, got.Priorities["CRITICAL"])
	assert.Len(t, got.Categories, len(model.Category("").Options()))
	assert.Equal(t, 1, got.Categories["STUDY"])
}

func habitBody() []byte {
	return []byte(`{"title":"Read","frequency":"DAILY","target_count":1,"priority":"MEDIUM","category":"STUDY"}`)
}

func TestHabit_CompleteStreak(t *testing.T) {
	f := newFixture(t)
	svc := NewHabitService(f.deps)
	ctx := context.Background()

	habit, err := svc.Create(ctx, alice, habitBody())
	require.NoError(t, err)

	h, err := svc.Complete(ctx, alice, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, h.CurrentStreak)

	// Same day fails and changes nothing.
	before, err := svc.Get(ctx, alice, habit.ID)
	require.NoError(t, err)
	f.clock.Advance(3 * time.Hour)
	_, err = svc.Complete(ctx, alice, habit.ID)
	assert.ErrorIs(t, err, ErrHabitAlreadyCompleted)
	after, err := svc.Get(ctx, alice, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	f.clock.Advance(24 * time.Hour)
	h, err = svc.Complete(ctx, alice, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, h.CurrentStreak)
	assert.Equal(t, 2, h.LongestStreak)

	f.clock.Advance(72 * time.Hour)
	h, err = svc.Complete(ctx, alice, habit.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, h.CurrentStreak)
	assert.Equal(t, 2, h.LongestStreak)

	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(3), snap.HabitCompletions["completed"])
	assert.Equal(t, uint64(1), snap.HabitCompletions["duplicate"])
}

func TestHabit_TodayFollowsLocation(t *testing.T) {
	f := newFixture(t)
	f.deps.Location = time.FixedZone("JST", 9*60*60)
	// 2025-05-10 20:00 UTC is already 2025-05-11 in Tokyo.
	f.clock.t = time.Date(2025, time.May, 10, 20, 0, 0, 0, time.UTC)

	svc := NewHabitService(f.deps)
	ctx := context.Background()
	habit, err := svc.Create(ctx, alice, habitBody())
	require.NoError(t, err)

	h, err := svc.Complete(ctx, alice, habit.ID)
	require.NoError(t, err)
	require.NotNil(t, h.LastCompleted)
	assert.Equal(t, "2025-05-11", h.LastCompleted.String())
}

func TestHabit_Analytics(t *testing.T) {
	f := newFixture(t)
	svc := NewHabitService(f.deps)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, habitBody())
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, []byte(`{"title":"Gym","frequency":"WEEKLY","target_count":3,"priority":"HIGH","category":"HEALTH","is_active":false}`))
	require.NoError(t, err)

	got, err := svc.Analytics(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Active)
	assert.Equal(t, 1, got.Inactive)
	assert.Equal(t, 1, got.Frequencies["WEEKLY"])
	assert.Equal(t, 0, got.Frequencies["MONTHLY"])
}

func txBody(amount, typ, date, category string) []byte {
	return []byte(fmt.Sprintf(`{"title":"t","amount":%s,"type":%q,"date":%q,"category":%q}`, amount, typ, date, category))
}

func TestBudget_SpentIsExactSum(t *testing.T) {
	f := newFixture(t)
	budgets := NewBudgetService(f.deps)
	txs := NewTransactionService(f.deps)
	ctx := context.Background()

	// An expense before the budget exists is counted on creation.
	_, err := txs.Create(ctx, alice, txBody("0.10", "EXPENSE", "2025-05-02", "FOOD"))
	require.NoError(t, err)

	budget, err := budgets.Create(ctx, alice, []byte(`{"category":"FOOD","amount":"300.00","period":"MONTHLY","start_date":"2025-05-01","end_date":"2025-05-31"}`))
	require.NoError(t, err)
	assert.Equal(t, model.Money(10), budget.Spent)

	_, err = txs.Create(ctx, alice, txBody("0.20", "EXPENSE", "2025-05-31", "FOOD"))
	require.NoError(t, err)
	// Outside the range, other category, income, other user: not counted.
	_, err = txs.Create(ctx, alice, txBody("5", "EXPENSE", "2025-06-01", "FOOD"))
	require.NoError(t, err)
	_, err = txs.Create(ctx, alice, txBody("5", "EXPENSE", "2025-05-03", "TRANSPORT"))
	require.NoError(t, err)
	_, err = txs.Create(ctx, alice, txBody("5", "INCOME", "2025-05-03", "FOOD"))
	require.NoError(t, err)
	_, err = txs.Create(ctx, bob, txBody("5", "EXPENSE", "2025-05-03", "FOOD"))
	require.NoError(t, err)

	got, err := budgets.Get(ctx, alice, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Money(30), got.Spent)
	assert.Equal(t, "0.30", got.Spent.String())
}

func TestBudget_FollowsTransactionEditsAndDeletes(t *testing.T) {
	f := newFixture(t)
	budgets := NewBudgetService(f.deps)
	txs := NewTransactionService(f.deps)
	ctx := context.Background()

	food, err := budgets.Create(ctx, alice, []byte(`{"category":"FOOD","amount":100,"period":"MONTHLY","start_date":"2025-05-01","end_date":"2025-05-31"}`))
	require.NoError(t, err)
	rent, err := budgets.Create(ctx, alice, []byte(`{"category":"HOUSING","amount":900,"period":"MONTHLY","start_date":"2025-05-01","end_date":"2025-05-31"}`))
	require.NoError(t, err)

	tx, err := txs.Create(ctx, alice, txBody("12.34", "EXPENSE", "2025-05-05", "FOOD"))
	require.NoError(t, err)

	spent := func(id string) model.Money {
		b, err := budgets.Get(ctx, alice, id)
		require.NoError(t, err)
		return b.Spent
	}
	assert.Equal(t, model.Money(1234), spent(food.ID))

	// Moving the transaction refreshes both the old and the new budget.
	_, err = txs.Edit(ctx, alice, tx.ID, []byte(`{"category":"HOUSING"}`))
	require.NoError(t, err)
	assert.Equal(t, model.Money(0), spent(food.ID))
	assert.Equal(t, model.Money(1234), spent(rent.ID))

	require.NoError(t, txs.Delete(ctx, alice, tx.ID))
	assert.Equal(t, model.Money(0), spent(rent.ID))
}

func TestBudget_CrossUserPatchLeavesBudgetUnchanged(t *testing.T) {
	f := newFixture(t)
	budgets := NewBudgetService(f.deps)
	ctx := context.Background()

	budget, err := budgets.Create(ctx, alice, []byte(`{"category":"FOOD","amount":"50","period":"WEEKLY","start_date":"2025-05-01","end_date":"2025-05-07"}`))
	require.NoError(t, err)

	_, err = budgets.Edit(ctx, bob, budget.ID, []byte(`{"amount":"1"}`))
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := budgets.Get(ctx, alice, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, budget, got)
}

func TestBudget_DateRangeAndRecalculate(t *testing.T) {
	f := newFixture(t)
	budgets := NewBudgetService(f.deps)
	ctx := context.Background()

	_, err := budgets.Create(ctx, alice, []byte(`{"category":"FOOD","amount":"50","period":"WEEKLY","start_date":"2025-05-07","end_date":"2025-05-01"}`))
	assert.Contains(t, fieldErrors(t, err), "end_date")

	budget, err := budgets.Create(ctx, alice, []byte(`{"category":"FOOD","amount":"50","period":"WEEKLY","start_date":"2025-05-01","end_date":"2025-05-07"}`))
	require.NoError(t, err)

	_, err = budgets.Edit(ctx, alice, budget.ID, []byte(`{"end_date":"2025-04-01"}`))
	assert.Contains(t, fieldErrors(t, err), "end_date")

	// A row changed behind the service's back is repaired by Recalculate.
	stale, err := f.store.Budgets().Get(ctx, budget.ID)
	require.NoError(t, err)
	stale.Spent = 999
	require.NoError(t, f.store.Budgets().Update(ctx, stale))

	fixed, err := budgets.Recalculate(ctx, alice, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Money(0), fixed.Spent)

	_, err = budgets.Recalculate(ctx, bob, budget.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMoney_RejectsSubCent(t *testing.T) {
	f := newFixture(t)
	txs := NewTransactionService(f.deps)

	_, err := txs.Create(context.Background(), alice, txBody("1.005", "EXPENSE", "2025-05-05", "FOOD"))
	assert.Contains(t, fieldErrors(t, err), "amount")
}

func TestMoney_UpperBound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txs := NewTransactionService(f.deps)
	budgets := NewBudgetService(f.deps)

	_, err := txs.Create(ctx, alice, txBody("1000000000000", "EXPENSE", "2025-05-05", "FOOD"))
	assert.Equal(t, []string{"Must be less than or equal to 999999999999.99."}, fieldErrors(t, err)["amount"])

	_, err = budgets.Create(ctx, alice, []byte(`{"category":"FOOD","amount":"1e12","period":"MONTHLY","start_date":"2025-05-01","end_date":"2025-05-31"}`))
	assert.Contains(t, fieldErrors(t, err), "amount")

	_, err = txs.Create(ctx, alice, txBody("999999999999.99", "EXPENSE", "2025-05-05", "FOOD"))
	assert.NoError(t, err)
}

func TestTransaction_Analytics(t *testing.T) {
	f := newFixture(t)
	txs := NewTransactionService(f.deps)
	ctx := context.Background()

	_, err := txs.Create(ctx, alice, txBody("10.10", "EXPENSE", "2025-05-05", "FOOD"))
	require.NoError(t, err)
	_, err = txs.Create(ctx, alice, txBody("0.20", "EXPENSE", "2025-05-06", "FOOD"))
	require.NoError(t, err)
	_, err = txs.Create(ctx, alice, txBody("2000", "INCOME", "2025-05-01", "SALARY"))
	require.NoError(t, err)

	got, err := txs.Analytics(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 2, got.Expense)
	assert.Equal(t, 1, got.Income)
	assert.Equal(t, 2, got.Categories["FOOD"])
	assert.Equal(t, model.Money(1030), got.Totals["EXPENSE"])
	assert.Equal(t, model.Money(200000), got.Totals["INCOME"])
}

func TestAnalytics_CachedAndInvalidated(t *testing.T) {
	f := newFixture(t)
	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f.deps.Cache = cache.NewWithClient(client)
	f.deps.AnalyticsTTL = time.Minute
	svc := NewTaskService(f.deps)
	ctx := context.Background()

	_, err = svc.Create(ctx, alice, taskBody("one"))
	require.NoError(t, err)

	first, err := svc.Analytics(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Total)
	second, err := svc.Analytics(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.AnalyticsCacheMiss)
	assert.Equal(t, uint64(1), snap.AnalyticsCacheHits)

	_, err = svc.Create(ctx, alice, taskBody("two"))
	require.NoError(t, err)
	third, err := svc.Analytics(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Total)
}

func newAuth(t *testing.T, f *fixture) *AuthService {
	t.Helper()

	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hasher := auth.NewHasher(auth.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	return NewAuthService(f.deps, hasher, cache.NewWithClient(client), AuthConfig{SessionTTL: time.Hour, RememberTTL: 24 * time.Hour})
}

func TestAuth_SignupLoginLogout(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(t, f)
	ctx := context.Background()

	user, grant, err := svc.Signup(ctx, []byte(`{"name":"Alice","email":"Alice@Example.com","password":"hunter22","confirm_password":"hunter22"}`))
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.False(t, grant.Persistent)

	p, err := svc.Authenticate(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)

	_, _, err = svc.Signup(ctx, []byte(`{"name":"Alice","email":"alice@example.com","password":"hunter22","confirm_password":"hunter22"}`))
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = svc.Login(ctx, []byte(`{"email":"alice@example.com","password":"wrong-pass"}`))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, []byte(`{"email":"nobody@example.com","password":"hunter22"}`))
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, login, err := svc.Login(ctx, []byte(`{"email":"ALICE@example.com","password":"hunter22","remember":true}`))
	require.NoError(t, err)
	assert.True(t, login.Persistent)
	assert.WithinDuration(t, login.Session.CreatedAt.Add(24*time.Hour), login.Session.ExpiresAt, time.Second)

	require.NoError(t, svc.Logout(ctx, login.Token))
	_, err = svc.Authenticate(ctx, login.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)

	snap := f.metrics.Snapshot()
	assert.Equal(t, uint64(2), snap.Auth["login.failure"])
	assert.Equal(t, uint64(1), snap.Auth["login.success"])
}

func TestAuth_SignupValidation(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(t, f)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, []byte(`{"name":"Al","email":"not-an-email","password":"123","confirm_password":"123"}`))
	fields := fieldErrors(t, err)
	assert.Contains(t, fields, "name")
	assert.Equal(t, []string{validation.MsgEmail}, fields["email"])
	assert.Contains(t, fields, "password")

	_, _, err = svc.Signup(ctx, []byte(`{"name":"Alice","email":"a@example.com","password":"hunter22","confirm_password":"hunter23"}`))
	assert.Equal(t, []string{"Passwords do not match."}, fieldErrors(t, err)["confirm_password"])

	user, _, err := svc.Signup(ctx, []byte(`{"name":"<i>Al</i>","email":"b@example.com","password":"hunter22","confirm_password":"hunter22"}`))
	require.NoError(t, err)
	assert.False(t, strings.ContainsAny(user.Name, "<>"))
}

func TestAuth_RegisterEscapedNameMayExceedInputLength(t *testing.T) {
	f := newFixture(t)
	svc := newAuth(t, f)
	ctx := context.Background()

	user, err := svc.Register(ctx, []byte(`{"name":"Tom & Jerry & Friends & Co","email":"tom@example.com","password":"hunter22","confirm_password":"hunter22"}`))
	require.NoError(t, err)
	assert.Equal(t, "Tom &amp; Jerry &amp; Friends &amp; Co", user.Name)
	assert.Greater(t, utf8.RuneCountInString(user.Name), 30)

	stored, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Name, stored.Name)
}
