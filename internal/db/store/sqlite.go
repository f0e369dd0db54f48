package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// SQLite is the file-backed store used for local runs without Postgres.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema exists.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer, and :memory: databases are per-connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL UNIQUE
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			question TEXT NOT NULL CHECK (question <> ''),
			answer TEXT NOT NULL CHECK (answer <> ''),
			category INTEGER REFERENCES categories(id) ON DELETE SET NULL,
			difficulty INTEGER NOT NULL CHECK (difficulty BETWEEN 1 AND 5)
		)
	`)
	return err
}

// SeedIfEmpty replays the Up section of a goose seed migration when the
// database holds no categories and no questions. Postgres sequence calls are
// skipped since SQLite tracks AUTOINCREMENT itself.
func (s *SQLite) SeedIfEmpty(ctx context.Context, migration string) (bool, error) {
	var rows int
	err := s.db.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM categories) + (SELECT COUNT(*) FROM questions)`).Scan(&rows)
	if err != nil {
		return false, fmt.Errorf("count rows: %w", err)
	}
	if rows > 0 {
		return false, nil
	}

	stmts, err := gooseUpStatements(migration)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if strings.HasPrefix(strings.ToUpper(stmt), "SELECT SETVAL") {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return false, sqliteError("seed", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed: %w", err)
	}
	return true, nil
}

// gooseUpStatements splits the Up section of a goose SQL migration into
// statements. A statement ends at a line ending in ';'.
func gooseUpStatements(migration string) ([]string, error) {
	const upMarker, downMarker = "-- +goose Up", "-- +goose Down"

	start := strings.Index(migration, upMarker)
	if start < 0 {
		return nil, errors.New("migration has no goose Up section")
	}
	body := migration[start+len(upMarker):]
	if end := strings.Index(body, downMarker); end >= 0 {
		body = body[:end]
	}

	var (
		stmts []string
		cur   strings.Builder
	)
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			stmts = append(stmts, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		stmts = append(stmts, rest)
	}
	return stmts, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) ListQuestions(ctx context.Context) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, question, answer, category, difficulty FROM questions ORDER BY id`)
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

func (s *SQLite) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type FROM categories ORDER BY id`)
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

func (s *SQLite) InsertQuestion(ctx context.Context, arg InsertQuestionParams) (Question, error) {
	var i Question
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO questions (question, answer, category, difficulty)
		VALUES (?, ?, ?, ?)
		RETURNING id, question, answer, category, difficulty
	`, arg.Question, arg.Answer, arg.Category, arg.Difficulty).
		Scan(&i.ID, &i.Question, &i.Answer, &i.Category, &i.Difficulty)
	if err != nil {
		return Question{}, sqliteError("insert question", err)
	}
	return i, nil
}

func (s *SQLite) DeleteQuestion(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete question: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLite) UpsertCategory(ctx context.Context, label string) (Category, error) {
	var i Category
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (type)
		VALUES (?)
		ON CONFLICT (type) DO UPDATE SET type = excluded.type
		RETURNING id, type
	`, label).Scan(&i.ID, &i.Type)
	if err != nil {
		return Category{}, sqliteError("upsert category", err)
	}
	return i, nil
}

func sqliteError(op string, err error) error {
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
		kind := ErrConstraint
		switch sqlErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			kind = ErrForeignKey
		case sqlite3.ErrConstraintNotNull:
			kind = ErrNotNull
		case sqlite3.ErrConstraintCheck:
			kind = ErrCheck
		}
		return fmt.Errorf("%s: %w: %s", op, kind, sqlErr.Error())
	}
	return fmt.Errorf("%s: %w", op, err)
}
