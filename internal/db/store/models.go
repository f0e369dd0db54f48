package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// Question mirrors a row of the questions table.
type Question struct {
	ID         int64
	Question   string
	Answer     string
	Category   pgtype.Int8
	Difficulty int32
}

// Category mirrors a row of the categories table. Type holds the display label.
type Category struct {
	ID   int64
	Type string
}

type InsertQuestionParams struct {
	Question   string
	Answer     string
	Category   pgtype.Int8
	Difficulty int32
}

var (
	// ErrConstraint wraps driver errors raised by foreign key, not-null or check constraints.
	ErrConstraint = errors.New("constraint violation")

	// The kind-specific errors all match ErrConstraint with errors.Is.
	ErrForeignKey = fmt.Errorf("foreign key %w", ErrConstraint)
	ErrNotNull    = fmt.Errorf("not-null %w", ErrConstraint)
	ErrCheck      = fmt.Errorf("check %w", ErrConstraint)
)
