package ws

import "encoding/json"

// MessageType constants for the play socket.
const (
	// Client -> Server
	TypeDrawQuestion = "draw_question"
	TypePing         = "ping"

	// Server -> Client
	TypeQuizQuestion       = "quiz_question"
	TypeQuizExhausted      = "quiz_exhausted"
	TypeQuestionBankUpdate = "question_bank_update"
	TypeError              = "error"
	TypePong               = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage encodes payload into a Message of the given type.
func NewMessage(msgType, requestID string, payload interface{}) (Message, error) {
	msg := Message{Type: msgType, RequestID: requestID}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = data
	return msg, nil
}

// Client Messages (incoming)

type QuizCategory struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

type DrawQuestionPayload struct {
	QuizCategory      QuizCategory `json:"quiz_category"`
	PreviousQuestions []int64      `json:"previous_questions"`
}

// Server Messages (outgoing)

type QuizQuestionPayload struct {
	ID         int64  `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   *int64 `json:"category"`
	Difficulty int    `json:"difficulty"`
}

type QuizExhaustedPayload struct {
	CategoryID int64 `json:"category_id"`
	Seen       int   `json:"seen"`
}

type QuestionBankUpdatePayload struct {
	Action     string `json:"action"` // "created", "deleted" or "imported"
	QuestionID int64  `json:"question_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
