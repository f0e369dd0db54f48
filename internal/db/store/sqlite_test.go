package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-api/db"
)

func openMemory(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLite_InsertListDelete(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	science, err := db.UpsertCategory(ctx, "Science")
	require.NoError(t, err)

	again, err := db.UpsertCategory(ctx, "Science")
	require.NoError(t, err)
	assert.Equal(t, science.ID, again.ID, "upsert must not duplicate labels")

	q, err := db.InsertQuestion(ctx, InsertQuestionParams{
		Question:   "What is the heaviest organ in the human body?",
		Answer:     "The Liver",
		Category:   pgtype.Int8{Int64: science.ID, Valid: true},
		Difficulty: 4,
	})
	require.NoError(t, err)
	assert.NotZero(t, q.ID)
	assert.Equal(t, science.ID, q.Category.Int64)

	questions, err := db.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, q, questions[0])

	categories, err := db.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Category{{ID: science.ID, Type: "Science"}}, categories)

	n, err := db.DeleteQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = db.DeleteQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestSQLite_InsertUnknownCategory(t *testing.T) {
	db := openMemory(t)

	_, err := db.InsertQuestion(context.Background(), InsertQuestionParams{
		Question:   "Who discovered penicillin?",
		Answer:     "Alexander Fleming",
		Category:   pgtype.Int8{Int64: 999, Valid: true},
		Difficulty: 3,
	})
	assert.ErrorIs(t, err, ErrForeignKey)
	assert.ErrorIs(t, err, ErrConstraint)
}

func TestSQLite_InsertDifficultyOutOfRange(t *testing.T) {
	db := openMemory(t)

	_, err := db.InsertQuestion(context.Background(), InsertQuestionParams{
		Question:   "What is the heaviest organ in the human body?",
		Answer:     "The Liver",
		Difficulty: 9,
	})
	assert.ErrorIs(t, err, ErrCheck)
	assert.False(t, errors.Is(err, ErrForeignKey))
}

func TestSQLite_InsertNullCategory(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	q, err := db.InsertQuestion(ctx, InsertQuestionParams{
		Question:   "Hematology is a branch of medicine involving the study of what?",
		Answer:     "Blood",
		Difficulty: 4,
	})
	require.NoError(t, err)
	assert.False(t, q.Category.Valid)
}

func TestSQLite_SeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	lite := openMemory(t)

	seeded, err := lite.SeedIfEmpty(ctx, db.SeedSQL)
	require.NoError(t, err)
	assert.True(t, seeded)

	questions, err := lite.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Len(t, questions, 19)
	assert.Equal(t, "Whose autobiography is entitled 'I Know Why the Caged Bird Sings'?", questions[0].Question)

	cats, err := lite.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 6)
	assert.Equal(t, Category{ID: 6, Type: "Sports"}, cats[5])

	again, err := lite.SeedIfEmpty(ctx, db.SeedSQL)
	require.NoError(t, err)
	assert.False(t, again)

	// new categories continue after the seeded ids
	created, err := lite.UpsertCategory(ctx, "Mythology")
	require.NoError(t, err)
	assert.EqualValues(t, 7, created.ID)
}

func TestSQLite_SeedSkipsPopulatedDatabase(t *testing.T) {
	ctx := context.Background()
	lite := openMemory(t)

	_, err := lite.UpsertCategory(ctx, "Science")
	require.NoError(t, err)

	seeded, err := lite.SeedIfEmpty(ctx, db.SeedSQL)
	require.NoError(t, err)
	assert.False(t, seeded)

	questions, err := lite.ListQuestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestGooseUpStatements(t *testing.T) {
	migration := `-- +goose Up
-- sample rows
INSERT INTO categories (id, type) VALUES
    (1, 'Science');

SELECT setval('categories_id_seq', 1);
INSERT INTO questions (question, answer, category, difficulty) VALUES ('Q?', 'A', 1, 1);

-- +goose Down
DELETE FROM questions;
`
	stmts, err := gooseUpStatements(migration)
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Equal(t, "INSERT INTO categories (id, type) VALUES\n    (1, 'Science');", stmts[0])
	assert.Equal(t, "SELECT setval('categories_id_seq', 1);", stmts[1])

	_, err = gooseUpStatements("DELETE FROM questions;")
	assert.Error(t, err)
}
