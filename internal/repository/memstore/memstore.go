// Package memstore is an in-process implementation of repository.Store.
//
// It backs STORAGE_DRIVER=memory and the service and handler tests. Rows
// are stored by value so callers never share memory with the store.
// Transactions hold the store lock for their whole duration and restore a
// snapshot when the callback fails. The table maps are created once and
// never swapped, so accessors may read them without the lock.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository"
)

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

type userRecord struct {
	user model.User
	hash string
}

type data struct {
	tasks        map[string]model.Task
	habits       map[string]model.Habit
	notes        map[string]model.Note
	budgets      map[string]model.Budget
	transactions map[string]model.Transaction
	users        map[string]userRecord
}

func (d *data) clone() *data {
	return &data{
		tasks:        maps.Clone(d.tasks),
		habits:       maps.Clone(d.habits),
		notes:        maps.Clone(d.notes),
		budgets:      maps.Clone(d.budgets),
		transactions: maps.Clone(d.transactions),
		users:        maps.Clone(d.users),
	}
}

// restore copies snap back into d without replacing any map, so tables
// handed out earlier keep seeing the live rows.
func (d *data) restore(snap *data) {
	reset(d.tasks, snap.tasks)
	reset(d.habits, snap.habits)
	reset(d.notes, snap.notes)
	reset(d.budgets, snap.budgets)
	reset(d.transactions, snap.transactions)
	reset(d.users, snap.users)
}

func reset[K comparable, V any](dst, src map[K]V) {
	clear(dst)
	maps.Copy(dst, src)
}

// Store keeps every table in memory.
type Store struct {
	mu   *sync.Mutex
	lock sync.Locker
	data *data
	inTx bool
}

var _ repository.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	mu := &sync.Mutex{}
	return &Store{
		mu:   mu,
		lock: mu,
		data: &data{
			tasks:        make(map[string]model.Task),
			habits:       make(map[string]model.Habit),
			notes:        make(map[string]model.Note),
			budgets:      make(map[string]model.Budget),
			transactions: make(map[string]model.Transaction),
			users:        make(map[string]userRecord),
		},
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// InTx serialises fn against all other access and rolls back on error.
func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &Store{mu: s.mu, lock: noLock{}, data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		s.data.restore(snapshot)
		return err
	}
	return nil
}

func (s *Store) Tasks() repository.Table[*model.Task] {
	return &table[model.Task, *model.Task]{lock: s.lock, rows: s.data.tasks}
}

func (s *Store) Habits() repository.Table[*model.Habit] {
	return &table[model.Habit, *model.Habit]{lock: s.lock, rows: s.data.habits}
}

func (s *Store) Notes() repository.Table[*model.Note] {
	return &table[model.Note, *model.Note]{lock: s.lock, rows: s.data.notes}
}

func (s *Store) Budgets() repository.Table[*model.Budget] {
	return &table[model.Budget, *model.Budget]{lock: s.lock, rows: s.data.budgets}
}

func (s *Store) Transactions() repository.Table[*model.Transaction] {
	return &table[model.Transaction, *model.Transaction]{lock: s.lock, rows: s.data.transactions}
}

func (s *Store) Users() repository.UserTable {
	return &users{lock: s.lock, rows: s.data.users}
}

func (s *Store) DeleteCompletedTasks(ctx context.Context, ownerID string) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	n := 0
	for id, t := range s.data.tasks {
		if t.UserID == ownerID && t.Completed {
			delete(s.data.tasks, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) SumExpenses(ctx context.Context, ownerID string, category model.BudgetCategory, from, to model.Date) (model.Money, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var total model.Money
	for _, t := range s.data.transactions {
		if t.UserID == ownerID && t.IsExpense() && t.Category == category && t.Date.Within(from, to) {
			total += t.Amount
		}
	}
	return total, nil
}

func (s *Store) BudgetsCovering(ctx context.Context, ownerID string, category model.BudgetCategory, date model.Date) ([]*model.Budget, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var out []*model.Budget
	for _, b := range s.data.budgets {
		if b.UserID == ownerID && b.Covers(category, date) {
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// table stores values of T and hands out copies as E (*T).
type table[T any, E interface {
	*T
	model.Entity
}] struct {
	lock sync.Locker
	rows map[string]T
}

func (t *table[T, E]) Get(ctx context.Context, id string) (E, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	row, ok := t.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return E(&row), nil
}

func (t *table[T, E]) Insert(ctx context.Context, e E) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if _, ok := t.rows[e.EntityID()]; ok {
		return fmt.Errorf("duplicate id %s", e.EntityID())
	}
	t.rows[e.EntityID()] = *e
	return nil
}

func (t *table[T, E]) Update(ctx context.Context, e E) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	existing, ok := t.rows[e.EntityID()]
	if !ok || E(&existing).OwnerID() != e.OwnerID() {
		return repository.ErrNotFound
	}
	t.rows[e.EntityID()] = *e
	return nil
}

func (t *table[T, E]) Delete(ctx context.Context, ownerID, id string) error {
	t.lock.Lock()
	defer t.lock.Unlock()

	existing, ok := t.rows[id]
	if !ok || E(&existing).OwnerID() != ownerID {
		return repository.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func (t *table[T, E]) List(ctx context.Context, ownerID string, opts repository.ListOptions) ([]E, int, error) {
	all, err := t.All(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}

	total := len(all)
	start := min(opts.Offset, total)
	end := total
	if opts.Limit > 0 {
		end = min(start+opts.Limit, total)
	}
	return all[start:end], total, nil
}

func (t *table[T, E]) All(ctx context.Context, ownerID string) ([]E, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	out := make([]E, 0)
	for _, row := range t.rows {
		row := row
		e := E(&row)
		if e.OwnerID() == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ui, uj := out[i].LastModified(), out[j].LastModified()
		if !ui.Equal(uj) {
			return ui.After(uj)
		}
		return out[i].EntityID() > out[j].EntityID()
	})
	return out, nil
}

type users struct {
	lock sync.Locker
	rows map[string]userRecord
}

func (u *users) Create(ctx context.Context, user *model.User, passwordHash string) error {
	u.lock.Lock()
	defer u.lock.Unlock()

	for _, rec := range u.rows {
		if strings.EqualFold(rec.user.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}
	u.rows[user.ID] = userRecord{user: *user, hash: passwordHash}
	return nil
}

func (u *users) GetByID(ctx context.Context, id string) (*model.User, error) {
	u.lock.Lock()
	defer u.lock.Unlock()

	rec, ok := u.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := rec.user
	return &user, nil
}

func (u *users) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	rec, err := u.byEmail(email)
	if err != nil {
		return nil, err
	}
	user := rec.user
	return &user, nil
}

func (u *users) Credential(ctx context.Context, email string) (model.Credential, error) {
	rec, err := u.byEmail(email)
	if err != nil {
		return model.Credential{}, err
	}
	return model.Credential{UserID: rec.user.ID, PasswordHash: rec.hash}, nil
}

func (u *users) byEmail(email string) (userRecord, error) {
	u.lock.Lock()
	defer u.lock.Unlock()

	for _, rec := range u.rows {
		if strings.EqualFold(rec.user.Email, email) {
			return rec, nil
		}
	}
	return userRecord{}, repository.ErrNotFound
}
