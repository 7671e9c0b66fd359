package query

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ivanyeors/ai-analytics-platform/internal/model"
)

// coerce converts a caller-supplied filter value into the storage encoding
// of col. Strings are parsed, so values arriving from flags or JSON work for
// every column type.
func coerce(col Column, v any) (any, error) {
	var (
		out any
		err error
	)
	switch col.Type {
	case TypeU64:
		var id uint64
		id, err = toU64(v)
		out = int64(id) // same bit-preserving encoding as the store
	case TypeF64:
		out, err = toF64(v)
	case TypeTimestamp:
		var ts time.Time
		ts, err = toTime(v)
		out = ts.UnixMicro()
	case TypeString:
		s, ok := v.(string)
		if !ok {
			err = fmt.Errorf("want string, got %T", v)
		}
		if col.normalize {
			s = model.NormalizeName(s)
		}
		out = s
	default:
		err = fmt.Errorf("column type %s", col.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, col.Name, err)
	}
	return out, nil
}

func toU64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case uint:
		return uint64(n), nil
	case int:
		if n < 0 {
			return 0, fmt.Errorf("negative id %d", n)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("negative id %d", n)
		}
		return uint64(n), nil
	case float64:
		if n < 0 || n != math.Trunc(n) || n >= math.MaxUint64 {
			return 0, fmt.Errorf("%v is not a u64", n)
		}
		return uint64(n), nil
	case string:
		return strconv.ParseUint(n, 10, 64)
	default:
		return 0, fmt.Errorf("want u64, got %T", v)
	}
}

func toF64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("want f64, got %T", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case int64:
		return time.UnixMicro(t), nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	default:
		return time.Time{}, fmt.Errorf("want RFC3339 timestamp, got %T", v)
	}
}

// decode converts a scanned storage value back to the public type of col.
func decode(col Column, v any) (any, error) {
	switch col.Type {
	case TypeU64:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("column %s: scanned %T", col.Name, v)
		}
		return uint64(n), nil
	case TypeTimestamp:
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("column %s: scanned %T", col.Name, v)
		}
		return time.UnixMicro(n).UTC(), nil
	case TypeF64:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		}
		return nil, fmt.Errorf("column %s: scanned %T", col.Name, v)
	case TypeString:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
		return nil, fmt.Errorf("column %s: scanned %T", col.Name, v)
	default:
		return nil, fmt.Errorf("column %s: type %s", col.Name, col.Type)
	}
}
