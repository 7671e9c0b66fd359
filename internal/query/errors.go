package query

import "errors"

var (
	// ErrUnknownTable is returned for a table name outside the catalog.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownColumn is returned for a filter on a column the table lacks.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidValue is returned when a filter value cannot be coerced to
	// the column's type.
	ErrInvalidValue = errors.New("invalid filter value")

	// ErrInvalidPaging is returned for a negative limit or offset.
	ErrInvalidPaging = errors.New("invalid limit or offset")
)
