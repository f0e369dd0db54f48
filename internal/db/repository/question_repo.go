package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gokatarajesh/trivia-api/internal/db/store"
)

// Difficulty bounds enforced by the questions table.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

type questionStore interface {
	ListQuestions(ctx context.Context) ([]store.Question, error)
	ListCategories(ctx context.Context) ([]store.Category, error)
	InsertQuestion(ctx context.Context, arg store.InsertQuestionParams) (store.Question, error)
	DeleteQuestion(ctx context.Context, id int64) (int64, error)
	UpsertCategory(ctx context.Context, label string) (store.Category, error)
}

// QuestionRepository is the record store for questions and categories.
// It normalises driver failures into ErrNotFound and *ValidationError.
type QuestionRepository struct {
	store questionStore
}

func NewQuestionRepository(store questionStore) *QuestionRepository {
	return &QuestionRepository{store: store}
}

// AllQuestions returns every question ordered by id.
func (r *QuestionRepository) AllQuestions(ctx context.Context) ([]store.Question, error) {
	return r.store.ListQuestions(ctx)
}

// AllCategories returns every category ordered by id.
func (r *QuestionRepository) AllCategories(ctx context.Context) ([]store.Category, error) {
	return r.store.ListCategories(ctx)
}

// InsertQuestion validates and stores a new question.
func (r *QuestionRepository) InsertQuestion(ctx context.Context, params store.InsertQuestionParams) (store.Question, error) {
	if err := validateQuestion(params); err != nil {
		return store.Question{}, err
	}

	row, err := r.store.InsertQuestion(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrForeignKey):
			return store.Question{}, &ValidationError{
				Field:   "category",
				Message: fmt.Sprintf("category %d does not exist", params.Category.Int64),
				Err:     err,
			}
		case errors.Is(err, store.ErrConstraint):
			return store.Question{}, &ValidationError{
				Message: "question violates a store constraint",
				Err:     err,
			}
		}
		return store.Question{}, err
	}
	return row, nil
}

// DeleteQuestion removes a question, returning ErrNotFound when nothing was deleted.
func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id int64) error {
	n, err := r.store.DeleteQuestion(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return nil
}

// FindOrCreateCategory resolves a category by label, creating it when missing.
func (r *QuestionRepository) FindOrCreateCategory(ctx context.Context, label string) (store.Category, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return store.Category{}, &ValidationError{Field: "category", Message: "category label is required"}
	}
	return r.store.UpsertCategory(ctx, label)
}

func validateQuestion(p store.InsertQuestionParams) error {
	if strings.TrimSpace(p.Question) == "" {
		return &ValidationError{Field: "question", Message: "question text is required"}
	}
	if strings.TrimSpace(p.Answer) == "" {
		return &ValidationError{Field: "answer", Message: "answer is required"}
	}
	if p.Category.Valid && p.Category.Int64 <= 0 {
		return &ValidationError{Field: "category", Message: "category must be a positive id"}
	}
	if p.Difficulty < MinDifficulty || p.Difficulty > MaxDifficulty {
		return &ValidationError{
			Field:   "difficulty",
			Message: fmt.Sprintf("difficulty must be between %d and %d", MinDifficulty, MaxDifficulty),
		}
	}
	return nil
}
