package question

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	"github.com/gokatarajesh/trivia-api/internal/db/store"
)

// Store is the record store the service reads from and writes through.
// Errors it returns are passed to callers unchanged.
type Store interface {
	AllQuestions(ctx context.Context) ([]store.Question, error)
	AllCategories(ctx context.Context) ([]store.Category, error)
	InsertQuestion(ctx context.Context, params store.InsertQuestionParams) (store.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
}

type ServiceOptions struct {
	// Intn returns a value in [0, n). Defaults to math/rand/v2.IntN.
	Intn    func(n int) int
	Metrics *Metrics
}

// Service answers listing, search and quiz requests over the question bank.
// It keeps no state between calls.
type Service struct {
	store   Store
	cache   CategoryCache
	intn    func(n int) int
	metrics *Metrics
	logger  zerolog.Logger
}

func NewService(store Store, cache CategoryCache, opts ServiceOptions, logger zerolog.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	intn := opts.Intn
	if intn == nil {
		intn = rand.IntN
	}
	return &Service{
		store:   store,
		cache:   cache,
		intn:    intn,
		metrics: opts.Metrics,
		logger:  logger.With().Str("component", "question_service").Logger(),
	}
}

// ListQuestions returns a page of all questions along with the category labels.
func (s *Service) ListQuestions(ctx context.Context, page int) (Listing, error) {
	if err := checkPage(page); err != nil {
		return Listing{}, err
	}
	all, err := s.allQuestions(ctx)
	if err != nil {
		return Listing{}, err
	}
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return Listing{}, err
	}

	listing := s.paginate(all, page, ListingAll)
	listing.Categories = labels(categories)
	return listing, nil
}

// SearchQuestions returns a page of questions whose text contains term.
// A blank term is rejected with ErrInvalidArgument.
func (s *Service) SearchQuestions(ctx context.Context, term string, page int) (Listing, error) {
	if strings.TrimSpace(term) == "" {
		return Listing{}, fmt.Errorf("%w: search term is required", ErrInvalidArgument)
	}
	if err := checkPage(page); err != nil {
		return Listing{}, err
	}
	all, err := s.allQuestions(ctx)
	if err != nil {
		return Listing{}, err
	}
	return s.paginate(SearchByText(all, term), page, ListingSearch), nil
}

// ListByCategory returns a page of the questions in categoryID. Unknown
// categories produce an empty listing, not an error.
func (s *Service) ListByCategory(ctx context.Context, categoryID int64, page int) (Listing, error) {
	if err := checkPage(page); err != nil {
		return Listing{}, err
	}
	all, err := s.allQuestions(ctx)
	if err != nil {
		return Listing{}, err
	}
	listing := s.paginate(ByCategory(all, categoryID), page, ListingCategory)
	listing.CurrentCategory = &categoryID
	return listing, nil
}

// DrawQuizQuestion deals one question from categoryID (or AllCategories)
// that is not in seen. The outcome is Exhausted when none remain.
func (s *Service) DrawQuizQuestion(ctx context.Context, categoryID int64, seen SeenSet) (DrawOutcome, error) {
	if categoryID < 0 {
		return DrawOutcome{}, fmt.Errorf("%w: category id must not be negative, got %d", ErrInvalidArgument, categoryID)
	}
	pool, err := s.allQuestions(ctx)
	if err != nil {
		return DrawOutcome{}, err
	}
	if categoryID != AllCategories {
		pool = ByCategory(pool, categoryID)
	}

	q, ok := Draw(pool, seen, s.intn)
	s.metrics.observeDraw(!ok)
	if !ok {
		return DrawOutcome{Exhausted: true}, nil
	}
	return DrawOutcome{Question: q}, nil
}

// ListCategories returns every category, served from the cache when possible.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	if cached, err := s.cache.Get(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("category cache read failed")
	} else if cached != nil {
		return cached, nil
	}

	rows, err := s.store.AllCategories(ctx)
	if err != nil {
		return nil, err
	}
	categories := make([]Category, len(rows))
	for i, row := range rows {
		categories[i] = Category{ID: row.ID, Label: row.Type}
	}

	if err := s.cache.Set(ctx, categories); err != nil {
		s.logger.Warn().Err(err).Msg("category cache write failed")
	}
	return categories, nil
}

// CreateQuestion stores a new question. Store validation errors are returned as is.
func (s *Service) CreateQuestion(ctx context.Context, nq NewQuestion) (Question, error) {
	// the store column is int32; wider values must not wrap into range
	if nq.Difficulty < math.MinInt32 || nq.Difficulty > math.MaxInt32 {
		return Question{}, &repository.ValidationError{
			Field:   "difficulty",
			Message: fmt.Sprintf("difficulty must be between %d and %d", repository.MinDifficulty, repository.MaxDifficulty),
		}
	}
	row, err := s.store.InsertQuestion(ctx, store.InsertQuestionParams{
		Question:   nq.Text,
		Answer:     nq.Answer,
		Category:   pgtype.Int8{Int64: nq.CategoryID, Valid: true},
		Difficulty: int32(nq.Difficulty),
	})
	if err != nil {
		return Question{}, err
	}
	return toDomain(row), nil
}

// DeleteQuestion removes a question by id.
func (s *Service) DeleteQuestion(ctx context.Context, id int64) error {
	return s.store.DeleteQuestion(ctx, id)
}

func (s *Service) allQuestions(ctx context.Context) ([]Question, error) {
	rows, err := s.store.AllQuestions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Question, len(rows))
	for i, row := range rows {
		out[i] = toDomain(row)
	}
	return out, nil
}

func (s *Service) paginate(filtered []Question, page int, kind string) Listing {
	questions := Paginate(filtered, page, QuestionsPerPage)
	s.metrics.observeListing(kind, len(questions))
	return Listing{
		Questions: questions,
		Total:     len(filtered),
		Page:      page,
	}
}

func checkPage(page int) error {
	if page < 1 {
		return fmt.Errorf("%w: page must be at least 1, got %d", ErrInvalidArgument, page)
	}
	return nil
}

func labels(categories []Category) map[int64]string {
	m := make(map[int64]string, len(categories))
	for _, c := range categories {
		m[c.ID] = c.Label
	}
	return m
}

func toDomain(row store.Question) Question {
	q := Question{
		ID:         row.ID,
		Text:       row.Question,
		Answer:     row.Answer,
		Difficulty: int(row.Difficulty),
	}
	if row.Category.Valid {
		id := row.Category.Int64
		q.CategoryID = &id
	}
	return q
}
