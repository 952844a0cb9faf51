package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taskflow/taskflow/internal/model"
)

// baseColumns lead every resource table in this order.
var baseColumns = []string{"id", "user_id", "created_at", "updated_at"}

// tableSpec describes how one entity maps onto its table.
type tableSpec[E model.Entity] struct {
	name    string
	columns []string // including baseColumns first
	scan    func(row pgx.Row) (E, error)
	values  func(e E) []any // same order as columns
}

type table[E model.Entity] struct {
	q    querier
	spec tableSpec[E]
}

func newTable[E model.Entity](q querier, spec tableSpec[E]) *table[E] {
	return &table[E]{q: q, spec: spec}
}

func (t *table[E]) selectList() string {
	return strings.Join(t.spec.columns, ", ")
}

// Get retrieves an entity by ID regardless of owner.
func (t *table[E]) Get(ctx context.Context, id string) (E, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, t.selectList(), t.spec.name)

	e, err := t.spec.scan(t.q.QueryRow(ctx, query, id))
	if err != nil {
		var zero E
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("failed to get %s: %w", t.spec.name, err)
	}

	return e, nil
}

// Insert stores a new entity.
func (t *table[E]) Insert(ctx context.Context, e E) error {
	placeholders := make([]string, len(t.spec.columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		t.spec.name, t.selectList(), strings.Join(placeholders, ", "))

	if _, err := t.q.Exec(ctx, query, t.spec.values(e)...); err != nil {
		return fmt.Errorf("failed to insert %s: %w", t.spec.name, err)
	}

	return nil
}

// Update rewrites every mutable column of an owned entity.
func (t *table[E]) Update(ctx context.Context, e E) error {
	vals := t.spec.values(e)

	// id and user_id select the row; created_at never changes.
	args := []any{vals[0], vals[1]}
	sets := make([]string, 0, len(t.spec.columns)-3)
	for i := 3; i < len(t.spec.columns); i++ {
		args = append(args, vals[i])
		sets = append(sets, fmt.Sprintf("%s = $%d", t.spec.columns[i], len(args)))
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $1 AND user_id = $2`,
		t.spec.name, strings.Join(sets, ", "))

	result, err := t.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", t.spec.name, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes an owned entity.
func (t *table[E]) Delete(ctx context.Context, ownerID, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, t.spec.name)

	result, err := t.q.Exec(ctx, query, id, ownerID)
	if err != nil {
		if isInvalidText(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", t.spec.name, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// List returns one page of an owner's entities and the owner's total.
func (t *table[E]) List(ctx context.Context, ownerID string, opts ListOptions) ([]E, int, error) {
	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE user_id = $1`, t.spec.name)
	if err := t.q.QueryRow(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", t.spec.name, err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, t.selectList(), t.spec.name)

	items, err := t.query(ctx, query, ownerID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// All returns every entity of an owner.
func (t *table[E]) All(ctx context.Context, ownerID string) ([]E, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1 ORDER BY updated_at DESC, id DESC`,
		t.selectList(), t.spec.name)
	return t.query(ctx, query, ownerID)
}

func (t *table[E]) query(ctx context.Context, query string, args ...any) ([]E, error) {
	rows, err := t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.spec.name, err)
	}
	defer rows.Close()

	items := make([]E, 0)
	for rows.Next() {
		e, err := t.spec.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.spec.name, err)
		}
		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", t.spec.name, err)
	}

	return items, nil
}
