package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ivanyeors/ai-analytics-platform/internal/model"
)

// Tables is the transaction-scoped view of the category and data point tables.
// Obtain one through Store.Atomic; it must not be retained after the callback returns.
type Tables struct {
	ctx context.Context
	tx  *sql.Tx
}

// Categories returns the category table bound to this transaction.
func (t *Tables) Categories() *CategoryTable {
	return &CategoryTable{ctx: t.ctx, tx: t.tx}
}

// DataPoints returns the data point table bound to this transaction.
func (t *Tables) DataPoints() *DataPointTable {
	return &DataPointTable{ctx: t.ctx, tx: t.tx}
}

// CategoryTable holds Category rows keyed by name.
type CategoryTable struct {
	ctx context.Context
	tx  *sql.Tx
}

// Get returns the category with the given name.
// The boolean is false if no such row exists.
func (c *CategoryTable) Get(name string) (model.Category, bool, error) {
	var cat model.Category
	err := c.tx.QueryRowContext(c.ctx, `
		SELECT name, description, color FROM categories WHERE name = ?
	`, name).Scan(&cat.Name, &cat.Description, &cat.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Category{}, false, nil
	}
	if err != nil {
		return model.Category{}, false, fmt.Errorf("get category: %w", err)
	}
	return cat, true, nil
}

// Upsert creates the category, or overwrites description and color of an
// existing row with the same name. The name of an existing row never changes.
func (c *CategoryTable) Upsert(name, description, color string) error {
	_, err := c.tx.ExecContext(c.ctx, `
		INSERT INTO categories (name, description, color)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			color = excluded.color
	`, name, description, color)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

// Delete removes the category and reports whether a row existed.
// No cascade is performed; dependent data points must be resolved first or
// the foreign key constraint rejects the delete.
func (c *CategoryTable) Delete(name string) (bool, error) {
	result, err := c.tx.ExecContext(c.ctx, `DELETE FROM categories WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete category: rows affected: %w", err)
	}
	return n > 0, nil
}

// List returns every category ordered by name.
func (c *CategoryTable) List() ([]model.Category, error) {
	rows, err := c.tx.QueryContext(c.ctx, `
		SELECT name, description, color FROM categories
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return scanCategories(rows)
}

// DataPointTable holds DataPoint rows keyed by id.
type DataPointTable struct {
	ctx context.Context
	tx  *sql.Tx
}

// Get returns the data point with the given id.
// The boolean is false if no such row exists.
func (d *DataPointTable) Get(id uint64) (model.DataPoint, bool, error) {
	row := d.tx.QueryRowContext(d.ctx, `
		SELECT id, timestamp, category, value FROM data_points WHERE id = ?
	`, encodeID(id))
	dp, err := scanDataPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DataPoint{}, false, nil
	}
	if err != nil {
		return model.DataPoint{}, false, fmt.Errorf("get data point: %w", err)
	}
	return dp, true, nil
}

// Insert adds a new data point. The id must not already exist.
func (d *DataPointTable) Insert(dp model.DataPoint) error {
	_, err := d.tx.ExecContext(d.ctx, `
		INSERT INTO data_points (id, timestamp, category, value)
		VALUES (?, ?, ?, ?)
	`, encodeID(dp.ID), encodeTime(dp.Timestamp), dp.Category, dp.Value)
	if err != nil {
		return fmt.Errorf("insert data point: %w", err)
	}
	return nil
}

// Update replaces the stored row with the value returned by mutate.
//
// mutate receives a copy of the current row. The id and timestamp of the
// replacement are forced back to the stored values, so only category and
// value can change. Returns false without calling mutate if id is absent.
func (d *DataPointTable) Update(id uint64, mutate func(model.DataPoint) model.DataPoint) (bool, error) {
	current, ok, err := d.Get(id)
	if err != nil || !ok {
		return false, err
	}

	next := mutate(current)
	next.ID = current.ID
	next.Timestamp = current.Timestamp

	_, err = d.tx.ExecContext(d.ctx, `
		UPDATE data_points SET category = ?, value = ? WHERE id = ?
	`, next.Category, next.Value, encodeID(id))
	if err != nil {
		return false, fmt.Errorf("update data point: %w", err)
	}
	return true, nil
}

// Delete removes the data point and reports whether a row existed.
func (d *DataPointTable) Delete(id uint64) (bool, error) {
	result, err := d.tx.ExecContext(d.ctx, `DELETE FROM data_points WHERE id = ?`, encodeID(id))
	if err != nil {
		return false, fmt.Errorf("delete data point: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete data point: rows affected: %w", err)
	}
	return n > 0, nil
}

// Iterate returns a snapshot of every data point in primary key order.
// The snapshot is fully read before returning, so callers may mutate the
// table while walking it.
func (d *DataPointTable) Iterate() ([]model.DataPoint, error) {
	rows, err := d.tx.QueryContext(d.ctx, `
		SELECT id, timestamp, category, value FROM data_points
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("iterate data points: %w", err)
	}
	return scanDataPoints(rows)
}

// ByCategory returns a snapshot of the data points in one category, in primary key order.
func (d *DataPointTable) ByCategory(category string) ([]model.DataPoint, error) {
	rows, err := d.tx.QueryContext(d.ctx, `
		SELECT id, timestamp, category, value FROM data_points
		WHERE category = ?
		ORDER BY id ASC
	`, category)
	if err != nil {
		return nil, fmt.Errorf("data points by category: %w", err)
	}
	return scanDataPoints(rows)
}

// Snapshot reads both tables in one read transaction.
// Categories are ordered by name, data points by primary key.
func (s *Store) Snapshot(ctx context.Context) ([]model.Category, []model.DataPoint, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback()

	t := &Tables{ctx: ctx, tx: tx}
	categories, err := t.Categories().List()
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: %w", err)
	}
	points, err := t.DataPoints().Iterate()
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: %w", err)
	}
	return categories, points, nil
}
