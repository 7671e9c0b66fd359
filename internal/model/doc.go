// Package model defines the record types held by the analytics store.
//
// This package contains type definitions and naming helpers only. Every other
// internal package imports model; model imports nothing internal.
//
// Key design constraints:
//   - Category.Name is the identity of a category; renaming is delete+insert
//   - DataPoint.ID and DataPoint.Timestamp are assigned by the engine, never by callers
//   - All JSON tags use snake_case
//   - Category names are compared after NFC normalisation (see NormalizeName)
package model
