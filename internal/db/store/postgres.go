package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Queries runs the trivia statements against Postgres.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

const listQuestions = `
SELECT id, question, answer, category, difficulty
FROM questions
ORDER BY id
`

func (q *Queries) ListQuestions(ctx context.Context) ([]Question, error) {
	rows, err := q.db.Query(ctx, listQuestions)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var items []Question
	for rows.Next() {
		var i Question
		if err := rows.Scan(&i.ID, &i.Question, &i.Answer, &i.Category, &i.Difficulty); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return items, nil
}

const listCategories = `
SELECT id, type
FROM categories
ORDER BY id
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(&i.ID, &i.Type); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return items, nil
}

const insertQuestion = `
INSERT INTO questions (question, answer, category, difficulty)
VALUES ($1, $2, $3, $4)
RETURNING id, question, answer, category, difficulty
`

func (q *Queries) InsertQuestion(ctx context.Context, arg InsertQuestionParams) (Question, error) {
	var i Question
	err := q.db.QueryRow(ctx, insertQuestion, arg.Question, arg.Answer, arg.Category, arg.Difficulty).
		Scan(&i.ID, &i.Question, &i.Answer, &i.Category, &i.Difficulty)
	if err != nil {
		return Question{}, pgError("insert question", err)
	}
	return i, nil
}

const deleteQuestion = `DELETE FROM questions WHERE id = $1`

// DeleteQuestion returns the number of rows removed.
func (q *Queries) DeleteQuestion(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteQuestion, id)
	if err != nil {
		return 0, fmt.Errorf("delete question: %w", err)
	}
	return tag.RowsAffected(), nil
}

const upsertCategory = `
INSERT INTO categories (type)
VALUES ($1)
ON CONFLICT (type) DO UPDATE SET type = EXCLUDED.type
RETURNING id, type
`

func (q *Queries) UpsertCategory(ctx context.Context, label string) (Category, error) {
	var i Category
	if err := q.db.QueryRow(ctx, upsertCategory, label).Scan(&i.ID, &i.Type); err != nil {
		return Category{}, pgError("upsert category", err)
	}
	return i, nil
}

func pgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		var kind error
		switch pgErr.Code {
		case "23502":
			kind = ErrNotNull
		case "23503":
			kind = ErrForeignKey
		case "23514":
			kind = ErrCheck
		}
		if kind != nil {
			return fmt.Errorf("%s: %w: %s", op, kind, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
