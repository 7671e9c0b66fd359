package model

import (
	"fmt"
	"time"

	"golang.org/x/text/unicode/norm"
)

// DefaultColor is the palette entry given to auto-created categories.
const DefaultColor = "#1f77b4"

// Table names as exposed by the read surface.
const (
	TableCategory  = "Category"
	TableDataPoint = "DataPoint"
)

// Category groups data points and carries display metadata.
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// DataPoint is a single timestamped measurement within a category.
// The id is encoded in JSON as a decimal string; JSON numbers lose precision
// above 2^53.
type DataPoint struct {
	ID        uint64    `json:"id,string"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Value     float64   `json:"value"`
}

// AutoDescription returns the description given to a category that was
// created implicitly by a write referencing it.
func AutoDescription(name string) string {
	return fmt.Sprintf("Auto-created category for %s", name)
}

// NormalizeName returns the canonical form of a category name.
//
// Names are NFC-normalised so that visually identical names composed from
// different code point sequences resolve to the same row. No trimming or
// case folding is applied.
func NormalizeName(name string) string {
	return norm.NFC.String(name)
}
