package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository"
)

var t0 = time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

func newNote(id, owner string, updated time.Time) *model.Note {
	n := &model.Note{Base: model.NewBase(id, owner, t0), Title: "t", Content: "c"}
	n.Touch(updated)
	return n
}

func TestTable_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := New()

	n := newNote("n1", "u1", t0)
	require.NoError(t, s.Notes().Insert(ctx, n))

	n.Title = "mutated after insert"
	got, err := s.Notes().Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "t", got.Title)

	got.Title = "mutated after get"
	again, err := s.Notes().Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "t", again.Title)
}

func TestTable_OwnerScopedWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Notes().Insert(ctx, newNote("n1", "u1", t0)))

	foreign := newNote("n1", "u2", t0)
	assert.ErrorIs(t, s.Notes().Update(ctx, foreign), repository.ErrNotFound)
	assert.ErrorIs(t, s.Notes().Delete(ctx, "u2", "n1"), repository.ErrNotFound)

	require.NoError(t, s.Notes().Delete(ctx, "u1", "n1"))
	assert.ErrorIs(t, s.Notes().Delete(ctx, "u1", "n1"), repository.ErrNotFound)
	_, err := s.Notes().Get(ctx, "n1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTable_ListOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	s := New()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Notes().Insert(ctx, newNote(fmt.Sprintf("n%d", i), "u1", t0.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, s.Notes().Insert(ctx, newNote("other", "u2", t0.Add(time.Hour))))

	page, total, err := s.Notes().List(ctx, "u1", repository.ListOptions{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "n4", page[0].ID)
	assert.Equal(t, "n3", page[1].ID)

	page, _, err = s.Notes().List(ctx, "u1", repository.ListOptions{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "n0", page[0].ID)

	page, total, err = s.Notes().List(ctx, "u1", repository.ListOptions{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Notes().Insert(ctx, newNote("keep", "u1", t0)))

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Notes().Insert(ctx, newNote("new", "u1", t0)))
		require.NoError(t, tx.Notes().Delete(ctx, "u1", "keep"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Notes().Get(ctx, "keep")
	assert.NoError(t, err)
	_, err = s.Notes().Get(ctx, "new")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInTx_RollbackKeepsEarlierTables(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Notes().Insert(ctx, newNote("keep", "u1", t0)))

	notes := s.Notes()
	err := s.InTx(ctx, func(tx repository.Store) error {
		require.NoError(t, tx.Notes().Insert(ctx, newNote("new", "u1", t0)))
		return errors.New("boom")
	})
	require.Error(t, err)

	// Rows written after the rollback are visible through a table taken before it.
	require.NoError(t, s.Notes().Insert(ctx, newNote("later", "u1", t0)))
	_, total, err := notes.List(ctx, "u1", repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	_, err = notes.Get(ctx, "new")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInTx_ConcurrentRollbacksAndReads(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Notes().Insert(ctx, newNote("keep", "u1", t0)))

	boom := errors.New("boom")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := s.InTx(ctx, func(tx repository.Store) error {
				if err := tx.Notes().Insert(ctx, newNote(fmt.Sprintf("tmp%d", i), "u1", t0)); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)
		}()
		go func() {
			defer wg.Done()
			_, total, err := s.Notes().List(ctx, "u1", repository.ListOptions{Limit: 10})
			assert.NoError(t, err)
			assert.Equal(t, 1, total)
			_, err = s.Notes().Get(ctx, "keep")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, total, err := s.Notes().List(ctx, "u1", repository.ListOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestInTx_Commits(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.InTx(ctx, func(tx repository.Store) error {
		return tx.Notes().Insert(ctx, newNote("n1", "u1", t0))
	})
	require.NoError(t, err)

	_, err = s.Notes().Get(ctx, "n1")
	assert.NoError(t, err)
}

func TestSumExpensesAndCoverage(t *testing.T) {
	ctx := context.Background()
	s := New()
	may1 := model.NewDate(2025, time.May, 1)

	txs := []*model.Transaction{
		{Base: model.NewBase("a", "u1", t0), Amount: 1050, Type: model.TransactionExpense, Category: model.BudgetFood, Date: may1},
		{Base: model.NewBase("b", "u1", t0), Amount: 1999, Type: model.TransactionExpense, Category: model.BudgetFood, Date: may1.AddDays(30)},
		{Base: model.NewBase("c", "u1", t0), Amount: 5000, Type: model.TransactionIncome, Category: model.BudgetFood, Date: may1},
		{Base: model.NewBase("d", "u1", t0), Amount: 700, Type: model.TransactionExpense, Category: model.BudgetTransport, Date: may1},
		{Base: model.NewBase("e", "u1", t0), Amount: 300, Type: model.TransactionExpense, Category: model.BudgetFood, Date: may1.AddDays(31)},
		{Base: model.NewBase("f", "u2", t0), Amount: 400, Type: model.TransactionExpense, Category: model.BudgetFood, Date: may1},
	}
	for _, tx := range txs {
		require.NoError(t, s.Transactions().Insert(ctx, tx))
	}

	sum, err := s.SumExpenses(ctx, "u1", model.BudgetFood, may1, may1.AddDays(30))
	require.NoError(t, err)
	assert.Equal(t, model.Money(3049), sum)

	budget := &model.Budget{Base: model.NewBase("b1", "u1", t0), Category: model.BudgetFood, StartDate: may1, EndDate: may1.AddDays(30)}
	require.NoError(t, s.Budgets().Insert(ctx, budget))

	covering, err := s.BudgetsCovering(ctx, "u1", model.BudgetFood, may1.AddDays(3))
	require.NoError(t, err)
	require.Len(t, covering, 1)
	assert.Equal(t, "b1", covering[0].ID)

	covering, err = s.BudgetsCovering(ctx, "u1", model.BudgetFood, may1.AddDays(31))
	require.NoError(t, err)
	assert.Empty(t, covering)
}

func TestUsers_EmailUnique(t *testing.T) {
	ctx := context.Background()
	s := New()

	u := &model.User{ID: "u1", Name: "Jane", Email: "jane@example.com"}
	require.NoError(t, s.Users().Create(ctx, u, "hash"))

	dup := &model.User{ID: "u2", Name: "Jane", Email: "JANE@example.com"}
	assert.ErrorIs(t, s.Users().Create(ctx, dup, "hash"), repository.ErrEmailExists)

	cred, err := s.Users().Credential(ctx, "Jane@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", cred.UserID)
	assert.Equal(t, "hash", cred.PasswordHash)
}
