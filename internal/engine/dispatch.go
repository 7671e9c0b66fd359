package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/ivanyeors/ai-analytics-platform/internal/model"
)

var (
	// ErrUnknownReducer is returned by Call for a name outside Reducers().
	ErrUnknownReducer = errors.New("unknown reducer")

	// ErrInvalidArgs is returned by Call when arguments are missing,
	// unexpected or of the wrong type.
	ErrInvalidArgs = errors.New("invalid reducer arguments")
)

// reducerDef describes how Call decodes arguments for one reducer.
type reducerDef struct {
	params []string
	invoke func(ctx context.Context, e *Engine, a args) (any, error)
}

var reducers = map[string]reducerDef{
	model.ReducerAddDataPoint: {
		params: []string{"category", "value"},
		invoke: func(ctx context.Context, e *Engine, a args) (any, error) {
			category, err := a.str("category")
			if err != nil {
				return nil, err
			}
			value, err := a.float("value")
			if err != nil {
				return nil, err
			}
			return e.AddDataPoint(ctx, category, value)
		},
	},
	model.ReducerAddCategory: {
		params: []string{"name", "description", "color"},
		invoke: func(ctx context.Context, e *Engine, a args) (any, error) {
			name, err := a.str("name")
			if err != nil {
				return nil, err
			}
			description, err := a.str("description")
			if err != nil {
				return nil, err
			}
			color, err := a.str("color")
			if err != nil {
				return nil, err
			}
			return nil, e.AddCategory(ctx, name, description, color)
		},
	},
	model.ReducerUpdateDataPoint: {
		params: []string{"id", "category", "value"},
		invoke: func(ctx context.Context, e *Engine, a args) (any, error) {
			id, err := a.id("id")
			if err != nil {
				return nil, err
			}
			category, err := a.optionalStr("category")
			if err != nil {
				return nil, err
			}
			value, err := a.optionalFloat("value")
			if err != nil {
				return nil, err
			}
			return e.UpdateDataPoint(ctx, id, category, value)
		},
	},
	model.ReducerDeleteDataPoint: {
		params: []string{"id"},
		invoke: func(ctx context.Context, e *Engine, a args) (any, error) {
			id, err := a.id("id")
			if err != nil {
				return nil, err
			}
			return e.DeleteDataPoint(ctx, id)
		},
	},
	model.ReducerDeleteCategory: {
		params: []string{"name", "reassign_to"},
		invoke: func(ctx context.Context, e *Engine, a args) (any, error) {
			name, err := a.str("name")
			if err != nil {
				return nil, err
			}
			reassignTo, err := a.optionalStr("reassign_to")
			if err != nil {
				return nil, err
			}
			return e.DeleteCategory(ctx, name, reassignTo)
		},
	},
	model.ReducerGenerateSampleData: {
		params: []string{"num_points"},
		invoke: func(ctx context.Context, e *Engine, a args) (any, error) {
			n, err := a.id("num_points")
			if err != nil {
				return nil, err
			}
			if n > math.MaxUint32 {
				return nil, fmt.Errorf("%w: num_points %d exceeds u32", ErrInvalidArgs, n)
			}
			return nil, e.GenerateSampleData(ctx, uint32(n))
		},
	},
}

// Reducers returns the reducer names accepted by Call, sorted.
func Reducers() []string {
	names := make([]string, 0, len(reducers))
	for name := range reducers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes a reducer by its logged name with loosely typed arguments, as
// decoded from JSON or YAML.
//
// The result is the reducer's return value: uint64 for add_data_point, bool
// for update_data_point, delete_data_point and delete_category, nil otherwise.
// Ids may be given as integers, integral floats, json.Number or decimal
// strings. An absent or null optional argument means "not provided".
func (e *Engine) Call(ctx context.Context, reducer string, raw map[string]any) (any, error) {
	def, ok := reducers[reducer]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReducer, reducer)
	}

	allowed := make(map[string]bool, len(def.params))
	for _, p := range def.params {
		allowed[p] = true
	}
	for key := range raw {
		if !allowed[key] {
			return nil, fmt.Errorf("%s: %w: unexpected argument %q", reducer, ErrInvalidArgs, key)
		}
	}

	result, err := def.invoke(ctx, e, args(raw))
	if errors.Is(err, ErrInvalidArgs) {
		return nil, fmt.Errorf("%s: %w", reducer, err)
	}
	return result, err
}

// args decodes loosely typed reducer arguments.
type args map[string]any

func (a args) lookup(key string) (any, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (a args) str(key string) (string, error) {
	v, ok := a.lookup(key)
	if !ok {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArgs, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidArgs, key, v)
	}
	return s, nil
}

func (a args) optionalStr(key string) (*string, error) {
	if _, ok := a.lookup(key); !ok {
		return nil, nil
	}
	s, err := a.str(key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (a args) float(key string) (float64, error) {
	v, ok := a.lookup(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidArgs, key)
	}
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
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrInvalidArgs, key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidArgs, key, v)
	}
}

func (a args) optionalFloat(key string) (*float64, error) {
	if _, ok := a.lookup(key); !ok {
		return nil, nil
	}
	f, err := a.float(key)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (a args) id(key string) (uint64, error) {
	v, ok := a.lookup(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", ErrInvalidArgs, key)
	}

	var (
		id  uint64
		err error
	)
	switch n := v.(type) {
	case uint64:
		id = n
	case uint32:
		id = uint64(n)
	case int:
		if n < 0 {
			err = fmt.Errorf("negative value %d", n)
		}
		id = uint64(n)
	case int64:
		if n < 0 {
			err = fmt.Errorf("negative value %d", n)
		}
		id = uint64(n)
	case float64:
		if n < 0 || n != math.Trunc(n) || n >= math.MaxUint64 {
			err = fmt.Errorf("%v is not an unsigned integer", n)
		}
		id = uint64(n)
	case json.Number:
		id, err = strconv.ParseUint(n.String(), 10, 64)
	case string:
		id, err = strconv.ParseUint(n, 10, 64)
	default:
		err = fmt.Errorf("must be an unsigned integer, got %T", v)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidArgs, key, err)
	}
	return id, nil
}
