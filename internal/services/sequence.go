package services

import (
	"strings"

	"gorm.io/gorm"
)

// Work orders and quotes number independently, each restarting at 1 every
// calendar year. Allocation is read-max-then-insert inside the caller's
// transaction; a composite unique index on (sequence_number, year) in each
// stream table turns a lost race into a constraint error, and callers retry
// the whole transaction a bounded number of times. Numbers freed by deletes
// are never reused.

// Stream names a numbering series; the value is the backing table.
type Stream string

const (
	StreamWorkOrder Stream = "work_orders"
	StreamQuote     Stream = "quotes"
)

const sequenceRetries = 3

// nextSequence returns max(sequence_number)+1 for the stream and year, or 1
// when the year has no documents yet. Must run inside the same transaction
// that inserts the record.
func nextSequence(tx *gorm.DB, stream Stream, year int) (int, error) {
	var current int64
	err := tx.Table(string(stream)).
		Where("year = ?", year).
		Select("COALESCE(MAX(sequence_number), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return int(current) + 1, nil
}

// isUniqueViolation detects duplicate-key errors from both supported
// drivers (sqlite and postgres) without importing either.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "SQLSTATE 23505")
}
