package models

import "github.com/guregu/null/v6"

// NullFloat is the nullable number used across snapshots and API payloads.
// It marshals to JSON null when invalid and scans from SQL NULL.
type NullFloat = null.Float

// FloatOf returns a valid NullFloat.
func FloatOf(v float64) NullFloat { return null.FloatFrom(v) }

// NoFloat returns an invalid (null) NullFloat.
func NoFloat() NullFloat { return null.Float{} }
