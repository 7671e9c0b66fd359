package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ivanyeors/ai-analytics-platform/internal/model"
)

// encodeID converts a uint64 id to the int64 stored in SQLite.
// The conversion is bit-preserving; go-sqlite3 rejects uint64 values with the
// high bit set, so ids are never bound as uint64 directly.
func encodeID(id uint64) int64 {
	return int64(id)
}

// decodeID reverses encodeID.
func decodeID(v int64) uint64 {
	return uint64(v)
}

// encodeTime stores timestamps as unix microseconds.
func encodeTime(t time.Time) int64 {
	return t.UnixMicro()
}

// decodeTime reverses encodeTime, always in UTC.
func decodeTime(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDataPoint scans id, timestamp, category, value into a DataPoint.
func scanDataPoint(row rowScanner) (model.DataPoint, error) {
	var (
		dp       model.DataPoint
		id, ts   int64
		category string
	)
	if err := row.Scan(&id, &ts, &category, &dp.Value); err != nil {
		return model.DataPoint{}, err
	}
	dp.ID = decodeID(id)
	dp.Timestamp = decodeTime(ts)
	dp.Category = category
	return dp, nil
}

// scanDataPoints drains rows into a slice and closes them.
// Returns an empty slice (not nil) when there are no rows.
func scanDataPoints(rows *sql.Rows) ([]model.DataPoint, error) {
	defer rows.Close()

	points := []model.DataPoint{}
	for rows.Next() {
		dp, err := scanDataPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan data point: %w", err)
		}
		points = append(points, dp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate data points: %w", err)
	}
	return points, nil
}

// scanCategories drains rows into a slice and closes them.
// Returns an empty slice (not nil) when there are no rows.
func scanCategories(rows *sql.Rows) ([]model.Category, error) {
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.Name, &c.Description, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// marshalArgs serializes reducer arguments for the call log.
// A nil map is stored as an empty object.
func marshalArgs(args map[string]any) (string, error) {
	if args == nil {
		return "{}", nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// marshalResult serializes a reducer result for the call log.
// A nil result is stored as JSON null.
func marshalResult(result any) (string, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs deserializes reducer arguments from the call log.
func unmarshalArgs(s string) (map[string]any, error) {
	args := map[string]any{}
	if err := json.Unmarshal([]byte(s), &args); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return args, nil
}

// unmarshalResult deserializes a reducer result from the call log.
func unmarshalResult(s string) (any, error) {
	var result any
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return result, nil
}
