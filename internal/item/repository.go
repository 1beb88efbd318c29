package item

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/msto63/itemdb/internal/boundary"
	"github.com/msto63/itemdb/internal/session"
)

// Units of work
var (
	OpCreate = boundary.Op{Name: "create_item", Resource: "Item"}
	OpGet    = boundary.Op{Name: "get_item", Resource: "Item"}
	OpList   = boundary.Op{Name: "get_items", Resource: "Item"}
	OpUpdate = boundary.Op{Name: "update_item", Resource: "Item"}
	OpDelete = boundary.Op{Name: "delete_item", Resource: "Item"}
)

const itemColumns = `id, name, description, version, created_at, updated_at`

// Repository runs item statements on a caller supplied session. Every method
// is a unit of work behind the boundary and returns only domain errors.
// Methods never commit; the session's owner decides.
type Repository struct {
	boundary *boundary.Boundary
	clock    clockwork.Clock
	dialect  Dialect
}

// NewRepository creates a repository. A nil clock uses the real clock.
func NewRepository(b *boundary.Boundary, clock clockwork.Clock, dialect Dialect) *Repository {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Repository{boundary: b, clock: clock, dialect: dialect}
}

// Create inserts a new item with version 1
func (r *Repository) Create(ctx context.Context, sess session.Session, p CreateParams) (*Item, error) {
	return boundary.Run(ctx, r.boundary, OpCreate, sess, p, r.create)
}

// Get loads an item by id
func (r *Repository) Get(ctx context.Context, sess session.Session, id int64) (*Item, error) {
	return boundary.Run(ctx, r.boundary, OpGet, sess, id, r.get)
}

// List loads all items ordered by id
func (r *Repository) List(ctx context.Context, sess session.Session) ([]*Item, error) {
	return boundary.Run(ctx, r.boundary, OpList, sess, struct{}{}, r.list)
}

// Update changes an item. A version mismatch fails with an optimistic lock
// error.
func (r *Repository) Update(ctx context.Context, sess session.Session, p UpdateParams) (*Item, error) {
	return boundary.Run(ctx, r.boundary, OpUpdate, sess, p, r.update)
}

// Delete removes an item by id
func (r *Repository) Delete(ctx context.Context, sess session.Session, id int64) error {
	return boundary.Exec(ctx, r.boundary, OpDelete, sess, id, r.delete)
}

func (r *Repository) create(ctx context.Context, sess session.Session, p CreateParams) (*Item, error) {
	now := r.clock.Now().UTC()
	item := &Item{
		Name:        p.Name,
		Description: p.Description,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `INSERT INTO items (name, description, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	args := []any{item.Name, item.Description, item.Version, item.CreatedAt, item.UpdatedAt}

	if r.dialect.returning() {
		err := sess.QueryRowContext(ctx, r.dialect.rebind(query+` RETURNING id`), args...).Scan(&item.ID)
		if err != nil {
			return nil, err
		}
		return item, nil
	}

	result, err := sess.ExecContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	if item.ID, err = result.LastInsertId(); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repository) get(ctx context.Context, sess session.Session, id int64) (*Item, error) {
	row := sess.QueryRowContext(ctx, r.dialect.rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	return scanItem(row)
}

func (r *Repository) list(ctx context.Context, sess session.Session, _ struct{}) ([]*Item, error) {
	rows, err := sess.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) update(ctx context.Context, sess session.Session, p UpdateParams) (*Item, error) {
	item, err := r.get(ctx, sess, p.ID)
	if err != nil {
		return nil, err
	}
	if p.Version != 0 && p.Version != item.Version {
		return nil, fmt.Errorf("item %d has version %d, not %d: %w", p.ID, item.Version, p.Version, session.ErrStaleData)
	}

	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	item.UpdatedAt = r.clock.Now().UTC()

	result, err := sess.ExecContext(ctx, r.dialect.rebind(
		`UPDATE items SET name = ?, description = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`),
		item.Name, item.Description, item.UpdatedAt, item.ID, item.Version)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("item %d changed concurrently: %w", p.ID, session.ErrStaleData)
	}

	item.Version++
	return item, nil
}

func (r *Repository) delete(ctx context.Context, sess session.Session, id int64) error {
	result, err := sess.ExecContext(ctx, r.dialect.rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return session.ErrNoRows
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Version, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}
