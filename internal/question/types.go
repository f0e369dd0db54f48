package question

import (
	"errors"
)

// QuestionsPerPage is the fixed page size for every listing.
const QuestionsPerPage = 10

// AllCategories selects the full question set when drawing quiz questions.
const AllCategories int64 = 0

// ErrInvalidArgument marks input the service cannot interpret.
var ErrInvalidArgument = errors.New("invalid argument")

// Question is the formatted payload delivered to clients.
type Question struct {
	ID         int64  `json:"id"`
	Text       string `json:"question"`
	Answer     string `json:"answer"`
	CategoryID *int64 `json:"category"`
	Difficulty int    `json:"difficulty"`
}

// InCategory reports whether the question belongs to categoryID.
func (q Question) InCategory(categoryID int64) bool {
	return q.CategoryID != nil && *q.CategoryID == categoryID
}

type Category struct {
	ID    int64  `json:"id"`
	Label string `json:"type"`
}

// NewQuestion carries the fields required to create a question.
type NewQuestion struct {
	Text       string
	Answer     string
	CategoryID int64
	Difficulty int
}

// Listing is one page of a (possibly filtered) question set.
// Total is the filtered count before pagination.
type Listing struct {
	Questions       []Question
	Total           int
	Page            int
	Categories      map[int64]string
	CurrentCategory *int64
}

// SeenSet holds the question ids already shown in a quiz session.
type SeenSet map[int64]struct{}

func NewSeenSet(ids ...int64) SeenSet {
	s := make(SeenSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s SeenSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

func (s SeenSet) Add(id int64) {
	s[id] = struct{}{}
}

// DrawOutcome is either a drawn question or Exhausted.
type DrawOutcome struct {
	Question  Question
	Exhausted bool
}
