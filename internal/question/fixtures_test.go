package question

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	"github.com/gokatarajesh/trivia-api/internal/db/store"
)

// memStore is an in-memory questionStore used behind a real repository.
type memStore struct {
	mu         sync.Mutex
	questions  []store.Question
	categories []store.Category
	nextID     int64
	listErr    error
	listCalls  int
	catCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		questions:  seedQuestions(),
		categories: seedCategories(),
		nextID:     20,
	}
}

func (m *memStore) ListQuestions(context.Context) ([]store.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]store.Question(nil), m.questions...), nil
}

func (m *memStore) ListCategories(context.Context) ([]store.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catCalls++
	return append([]store.Category(nil), m.categories...), nil
}

func (m *memStore) InsertQuestion(_ context.Context, arg store.InsertQuestionParams) (store.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if arg.Category.Valid && !m.hasCategory(arg.Category.Int64) {
		return store.Question{}, fmt.Errorf("insert question: %w", store.ErrForeignKey)
	}
	q := store.Question{
		ID:         m.nextID,
		Question:   arg.Question,
		Answer:     arg.Answer,
		Category:   arg.Category,
		Difficulty: arg.Difficulty,
	}
	m.nextID++
	m.questions = append(m.questions, q)
	return q, nil
}

func (m *memStore) DeleteQuestion(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, q := range m.questions {
		if q.ID == id {
			m.questions = append(m.questions[:i], m.questions[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memStore) UpsertCategory(_ context.Context, label string) (store.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Type == label {
			return c, nil
		}
	}
	c := store.Category{ID: int64(len(m.categories) + 1), Type: label}
	m.categories = append(m.categories, c)
	return c, nil
}

func (m *memStore) hasCategory(id int64) bool {
	for _, c := range m.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.questions)
}

func newRepo(m *memStore) *repository.QuestionRepository {
	return repository.NewQuestionRepository(m)
}

// memCache is an in-memory CategoryCache.
type memCache struct {
	mu         sync.Mutex
	categories []Category
	getErr     error
	sets       int
	invalidate int
}

func (c *memCache) Get(context.Context) ([]Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.categories, nil
}

func (c *memCache) Set(_ context.Context, categories []Category) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.categories = categories
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidate++
	c.categories = nil
	return nil
}

var errStoreDown = errors.New("store down")

func seedCategories() []store.Category {
	return []store.Category{
		{ID: 1, Type: "Science"},
		{ID: 2, Type: "Art"},
		{ID: 3, Type: "Geography"},
		{ID: 4, Type: "History"},
		{ID: 5, Type: "Entertainment"},
		{ID: 6, Type: "Sports"},
	}
}

// seedQuestions returns 19 questions: Science 3, Art 4, Geography 3,
// History 4, Entertainment 3, Sports 2.
func seedQuestions() []store.Question {
	rows := []struct {
		text, answer string
		category     int64
		difficulty   int32
	}{
		{"Whose autobiography is entitled 'I Know Why the Caged Bird Sings'?", "Maya Angelou", 4, 2},
		{"What boxer's original name is Cassius Clay?", "Muhammad Ali", 4, 1},
		{"What movie earned Tom Hanks his third straight Oscar nomination, in 1996?", "Apollo 13", 5, 4},
		{"What actor did author Anne Rice first denounce, then praise in the role of her beloved Lestat?", "Tom Cruise", 5, 4},
		{"What was the title of the 1990 fantasy directed by Tim Burton?", "Edward Scissorhands", 5, 3},
		{"Which is the only team to play in every soccer World Cup tournament?", "Brazil", 6, 3},
		{"Which country won the first ever soccer World Cup in 1930?", "Uruguay", 6, 4},
		{"Who invented Peanut Butter?", "George Washington Carver", 4, 2},
		{"What is the largest lake in Africa?", "Lake Victoria", 3, 2},
		{"In which royal palace would you find the Hall of Mirrors?", "The Palace of Versailles", 3, 3},
		{"The Taj Mahal is located in which Indian city?", "Agra", 3, 2},
		{"Which Dutch graphic artist was a creator of optical illusions?", "Escher", 2, 1},
		{"La Giaconda is better known as what?", "Mona Lisa", 2, 3},
		{"How many paintings did Van Gogh sell in his lifetime?", "One", 2, 4},
		{"Which American artist was a pioneer of Abstract Expressionism?", "Jackson Pollock", 2, 2},
		{"What is the heaviest organ in the human body?", "The Liver", 1, 4},
		{"Who discovered penicillin?", "Alexander Fleming", 1, 3},
		{"Hematology is a branch of medicine involving the study of what?", "Blood", 1, 4},
		{"Which dung beetle was worshipped by the ancient Egyptians?", "Scarab", 4, 4},
	}
	out := make([]store.Question, len(rows))
	for i, r := range rows {
		out[i] = store.Question{
			ID:         int64(i + 1),
			Question:   r.text,
			Answer:     r.answer,
			Category:   pgtype.Int8{Int64: r.category, Valid: true},
			Difficulty: r.difficulty,
		}
	}
	return out
}

func domainQuestions(rows []store.Question) []Question {
	out := make([]Question, len(rows))
	for i, r := range rows {
		out[i] = toDomain(r)
	}
	return out
}

func ids(qs []Question) []int64 {
	out := make([]int64, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
