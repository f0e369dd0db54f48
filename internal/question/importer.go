package question

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	"github.com/gokatarajesh/trivia-api/internal/db/store"
	"github.com/gokatarajesh/trivia-api/internal/question/external"
)

// Import sources.
const (
	SourceOpenTDB   = "opentdb"
	SourceTriviaAPI = "triviaapi"
)

const defaultMaxImport = 50

// OpenTDBProvider fetches questions from the Open Trivia DB.
type OpenTDBProvider interface {
	Fetch(ctx context.Context, amount int, category, difficulty string) ([]external.OpenTDBQuestion, error)
}

// TriviaProvider fetches questions from the Trivia API.
type TriviaProvider interface {
	Fetch(ctx context.Context, amount int, category, difficulty string) ([]external.TriviaAPIQuestion, error)
}

type importStore interface {
	InsertQuestion(ctx context.Context, params store.InsertQuestionParams) (store.Question, error)
	FindOrCreateCategory(ctx context.Context, label string) (store.Category, error)
}

// ImportRequest asks for Amount questions from Source. Category and
// Difficulty are passed to the provider untouched.
type ImportRequest struct {
	Source     string `json:"source"`
	Amount     int    `json:"amount"`
	Category   string `json:"category,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type ImportResult struct {
	Source   string
	Fetched  int
	Inserted int
	Skipped  int
}

type ImporterOptions struct {
	MaxAmount int
	// Notifier hears one "imported" change per batch that inserted rows,
	// carrying the last inserted id.
	Notifier BankNotifier
}

// Importer copies questions from public trivia APIs into the record store.
type Importer struct {
	store     importStore
	cache     CategoryCache
	opentdb   OpenTDBProvider
	triviaAPI TriviaProvider
	maxAmount int
	notifier  BankNotifier
	logger    zerolog.Logger
}

func NewImporter(store importStore, cache CategoryCache, opentdb OpenTDBProvider, trivia TriviaProvider, opts ImporterOptions, logger zerolog.Logger) *Importer {
	if cache == nil {
		cache = NopCache{}
	}
	maxAmount := opts.MaxAmount
	if maxAmount <= 0 {
		maxAmount = defaultMaxImport
	}
	return &Importer{
		store:     store,
		cache:     cache,
		opentdb:   opentdb,
		triviaAPI: trivia,
		maxAmount: maxAmount,
		notifier:  opts.Notifier,
		logger:    logger.With().Str("component", "question_importer").Logger(),
	}
}

// Validate checks req without contacting any provider.
func (im *Importer) Validate(req ImportRequest) error {
	switch req.Source {
	case SourceOpenTDB:
		if im.opentdb == nil {
			return fmt.Errorf("%w: source %q is not configured", ErrInvalidArgument, req.Source)
		}
	case SourceTriviaAPI:
		if im.triviaAPI == nil {
			return fmt.Errorf("%w: source %q is not configured", ErrInvalidArgument, req.Source)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidArgument, req.Source)
	}
	if req.Amount < 1 || req.Amount > im.maxAmount {
		return fmt.Errorf("%w: amount must be between 1 and %d", ErrInvalidArgument, im.maxAmount)
	}
	return nil
}

type fetchedQuestion struct {
	text       string
	answer     string
	category   string
	difficulty int32
}

// Import fetches questions and inserts them. Rows the store rejects as
// invalid are skipped; any other store error aborts the import.
func (im *Importer) Import(ctx context.Context, req ImportRequest) (ImportResult, error) {
	if err := im.Validate(req); err != nil {
		return ImportResult{}, err
	}

	fetched, err := im.fetch(ctx, req)
	if err != nil {
		return ImportResult{}, fmt.Errorf("fetch from %s: %w", req.Source, err)
	}

	result := ImportResult{Source: req.Source, Fetched: len(fetched)}
	categoryIDs := make(map[string]int64)
	var lastID int64
	defer func() {
		if result.Inserted > 0 && im.notifier != nil {
			im.notifier.NotifyBankChange("imported", lastID)
		}
		if len(categoryIDs) == 0 {
			return
		}
		if err := im.cache.Invalidate(ctx); err != nil {
			im.logger.Warn().Err(err).Msg("category cache invalidation failed")
		}
	}()

	for _, fq := range fetched {
		var category pgtype.Int8
		if fq.category != "" {
			id, ok := categoryIDs[fq.category]
			if !ok {
				row, err := im.store.FindOrCreateCategory(ctx, fq.category)
				if err != nil {
					return result, fmt.Errorf("resolve category %q: %w", fq.category, err)
				}
				id = row.ID
				categoryIDs[fq.category] = id
			}
			category = pgtype.Int8{Int64: id, Valid: true}
		}

		row, err := im.store.InsertQuestion(ctx, store.InsertQuestionParams{
			Question:   fq.text,
			Answer:     fq.answer,
			Category:   category,
			Difficulty: fq.difficulty,
		})
		if err != nil {
			var vErr *repository.ValidationError
			if errors.As(err, &vErr) {
				im.logger.Debug().Str("field", vErr.Field).Str("question", fq.text).Msg("imported question rejected")
				result.Skipped++
				continue
			}
			return result, err
		}
		lastID = row.ID
		result.Inserted++
	}
	return result, nil
}

func (im *Importer) fetch(ctx context.Context, req ImportRequest) ([]fetchedQuestion, error) {
	var out []fetchedQuestion
	switch req.Source {
	case SourceOpenTDB:
		qs, err := im.opentdb.Fetch(ctx, req.Amount, req.Category, req.Difficulty)
		if err != nil {
			return nil, err
		}
		for _, q := range qs {
			out = append(out, fetchedQuestion{
				text:       q.Question,
				answer:     q.CorrectAnswer,
				category:   q.Category,
				difficulty: difficultyScore(q.Difficulty),
			})
		}
	case SourceTriviaAPI:
		qs, err := im.triviaAPI.Fetch(ctx, req.Amount, req.Category, req.Difficulty)
		if err != nil {
			return nil, err
		}
		for _, q := range qs {
			out = append(out, fetchedQuestion{
				text:       q.Question,
				answer:     q.Correct,
				category:   q.Category,
				difficulty: difficultyScore(q.Difficulty),
			})
		}
	}
	return out, nil
}

func difficultyScore(level string) int32 {
	switch strings.ToLower(level) {
	case "easy":
		return 1
	case "hard":
		return 3
	default:
		return 2
	}
}
