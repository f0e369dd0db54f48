package question

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	"github.com/gokatarajesh/trivia-api/internal/logging"
	httperrors "github.com/gokatarajesh/trivia-api/pkg/http/errors"
)

const maxBodyBytes = 1 << 20

// BankNotifier is told when questions are created or deleted.
type BankNotifier interface {
	NotifyBankChange(action string, questionID int64)
}

// HTTPHandlers provides the REST endpoints for questions, categories and quizzes.
type HTTPHandlers struct {
	service  *Service
	imports  *ImportWorker
	notifier BankNotifier
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHTTPHandlers creates the question handlers. imports and notifier may be nil.
func NewHTTPHandlers(service *Service, imports *ImportWorker, notifier BankNotifier, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service:  service,
		imports:  imports,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger.With().Str("component", "question_http").Logger(),
	}
}

// Register mounts the routes on mux. Paths without a method answer 405.
func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/categories", h.ListCategories)
	mux.HandleFunc("GET /v1/categories/{id}/questions", h.ListByCategory)
	mux.HandleFunc("GET /v1/questions", h.ListQuestions)
	mux.HandleFunc("POST /v1/questions", h.CreateQuestion)
	mux.HandleFunc("DELETE /v1/questions/{id}", h.DeleteQuestion)
	mux.HandleFunc("POST /v1/questions/search", h.SearchQuestions)
	mux.HandleFunc("POST /v1/quizzes", h.PlayQuiz)
	mux.HandleFunc("POST /v1/imports", h.EnqueueImport)

	for _, path := range []string{
		"/v1/categories",
		"/v1/categories/{id}/questions",
		"/v1/questions",
		"/v1/questions/{id}",
		"/v1/quizzes",
		"/v1/imports",
	} {
		mux.HandleFunc(path, methodNotAllowed)
	}
}

// CreateQuestionRequest is the body of POST /v1/questions.
type CreateQuestionRequest struct {
	Question   string `json:"question" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
	Category   int64  `json:"category" validate:"required,gt=0"`
	Difficulty int    `json:"difficulty" validate:"required,min=1,max=5"`
}

// SearchRequest is the body of POST /v1/questions/search.
type SearchRequest struct {
	SearchTerm string `json:"searchTerm" validate:"required"`
}

// PlayQuizRequest is the body of POST /v1/quizzes. Category id 0 means all categories.
type PlayQuizRequest struct {
	PreviousQuestions []int64 `json:"previous_questions"`
	QuizCategory      struct {
		ID   int64  `json:"id" validate:"gte=0"`
		Type string `json:"type"`
	} `json:"quiz_category"`
}

// ListCategories handles GET /v1/categories
func (h *HTTPHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"categories": labels(categories),
	})
}

// ListQuestions handles GET /v1/questions?page=N
func (h *HTTPHandlers) ListQuestions(w http.ResponseWriter, r *http.Request) {
	listing, err := h.service.ListQuestions(r.Context(), parsePage(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"questions":        listing.Questions,
		"total_questions":  listing.Total,
		"categories":       listing.Categories,
		"current_category": nil,
		"page":             listing.Page,
	})
}

// SearchQuestions handles POST /v1/questions/search?page=N
func (h *HTTPHandlers) SearchQuestions(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	listing, err := h.service.SearchQuestions(r.Context(), req.SearchTerm, parsePage(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"questions":        listing.Questions,
		"total_questions":  listing.Total,
		"current_category": nil,
		"page":             listing.Page,
	})
}

// ListByCategory handles GET /v1/categories/{id}/questions?page=N
func (h *HTTPHandlers) ListByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidArgument, "category id must be an integer")
		return
	}

	listing, err := h.service.ListByCategory(r.Context(), categoryID, parsePage(r))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"questions":        listing.Questions,
		"total_questions":  listing.Total,
		"current_category": listing.CurrentCategory,
		"page":             listing.Page,
	})
}

// CreateQuestion handles POST /v1/questions
func (h *HTTPHandlers) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	q, err := h.service.CreateQuestion(r.Context(), NewQuestion{
		Text:       req.Question,
		Answer:     req.Answer,
		CategoryID: req.Category,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyBankChange("created", q.ID)
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"created":  q.ID,
		"question": q,
	})
}

// DeleteQuestion handles DELETE /v1/questions/{id}
func (h *HTTPHandlers) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidArgument, "question id must be an integer")
		return
	}

	if err := h.service.DeleteQuestion(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyBankChange("deleted", id)
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"deleted": id,
	})
}

// PlayQuiz handles POST /v1/quizzes
func (h *HTTPHandlers) PlayQuiz(w http.ResponseWriter, r *http.Request) {
	var req PlayQuizRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	outcome, err := h.service.DrawQuizQuestion(r.Context(), req.QuizCategory.ID, NewSeenSet(req.PreviousQuestions...))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if outcome.Exhausted {
		h.respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"exhausted": true,
			"question":  nil,
		})
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"exhausted": false,
		"question":  outcome.Question,
	})
}

// EnqueueImport handles POST /v1/imports
func (h *HTTPHandlers) EnqueueImport(w http.ResponseWriter, r *http.Request) {
	if h.imports == nil {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeImportDisabled, "question import is disabled")
		return
	}

	var req ImportRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.imports.Enqueue(req); err != nil {
		if errors.Is(err, ErrImportQueueFull) {
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeImportQueueFull, err.Error())
			return
		}
		h.respondServiceError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"queued":  req,
	})
}

func (h *HTTPHandlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			details := make(map[string]interface{}, len(fieldErrs))
			for _, fe := range fieldErrs {
				details[fe.Field()] = fe.Tag()
			}
			httperrors.RespondErrorWithDetails(w, http.StatusBadRequest, httperrors.ErrCodeValidationFailed,
				fieldErrs[0].Field()+" failed "+fieldErrs[0].Tag()+" validation", details)
			return false
		}
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, err.Error())
		return false
	}
	return true
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *repository.ValidationError
	switch {
	case errors.Is(err, ErrInvalidArgument):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidArgument, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, err.Error())
	case errors.As(err, &vErr):
		httperrors.RespondUnprocessable(w, httperrors.ErrCodeValidationFailed, vErr.Message, vErr.Field)
	default:
		logger := logging.FromContextOr(r.Context(), h.logger)
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		httperrors.RespondInternalError(w, "internal server error")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	httperrors.RespondMethodNotAllowed(w)
}

// parsePage reads ?page=. Missing or non-numeric values fall back to page 1;
// numeric values below 1 are passed through so the service can reject them.
func parsePage(r *http.Request) int {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return page
}
