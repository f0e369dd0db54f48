package question

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/trivia-api/pkg/http/errors"
	ws "github.com/gokatarajesh/trivia-api/pkg/http/ws"
)

const drawTimeout = 5 * time.Second

// PlayHandler serves quiz draws over a WebSocket. The client keeps the seen
// set and sends it with every draw, exactly as with POST /v1/quizzes.
type PlayHandler struct {
	service  *Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewPlayHandler(service *Service, hub *ws.Hub, upgrader websocket.Upgrader, logger zerolog.Logger) *PlayHandler {
	return &PlayHandler{
		service:  service,
		hub:      hub,
		upgrader: upgrader,
		logger:   logger.With().Str("component", "play_ws").Logger(),
	}
}

// HandleWebSocket upgrades GET /ws/play and serves the connection until it closes.
func (h *PlayHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	h.HandleConnection(r.Context(), conn)
}

// HandleConnection registers conn with the hub and pumps messages.
func (h *PlayHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	connID := uuid.New()
	logger := h.logger.With().Str("conn_id", connID.String()).Logger()

	wsConn := ws.NewConnection(conn, logger)
	h.hub.RegisterConnection(connID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(ctx, wsConn, msg)
	})

	h.hub.UnregisterConnection(connID)
}

// NotifyBankChange broadcasts a question_bank_update to every open connection.
func (h *PlayHandler) NotifyBankChange(action string, questionID int64) {
	msg, err := ws.NewMessage(ws.TypeQuestionBankUpdate, "", ws.QuestionBankUpdatePayload{
		Action:     action,
		QuestionID: questionID,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("encode bank update")
		return
	}
	if err := h.hub.BroadcastAll(msg); err != nil {
		h.logger.Warn().Err(err).Msg("bank update broadcast incomplete")
	}
}

func (h *PlayHandler) handleMessage(ctx context.Context, conn *ws.Connection, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeDrawQuestion:
		return h.handleDraw(ctx, conn, msg)
	case ws.TypePing:
		return h.send(conn, ws.TypePong, msg.RequestID, nil)
	default:
		return h.sendError(conn, msg.RequestID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *PlayHandler) handleDraw(ctx context.Context, conn *ws.Connection, msg ws.Message) error {
	var req ws.DrawQuestionPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid draw_question payload")
	}

	ctx, cancel := context.WithTimeout(ctx, drawTimeout)
	defer cancel()

	outcome, err := h.service.DrawQuizQuestion(ctx, req.QuizCategory.ID, NewSeenSet(req.PreviousQuestions...))
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidArgument, err.Error())
		}
		h.logger.Error().Err(err).Int64("category_id", req.QuizCategory.ID).Msg("draw failed")
		return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInternalError, "draw failed")
	}

	if outcome.Exhausted {
		return h.send(conn, ws.TypeQuizExhausted, msg.RequestID, ws.QuizExhaustedPayload{
			CategoryID: req.QuizCategory.ID,
			Seen:       len(req.PreviousQuestions),
		})
	}
	q := outcome.Question
	return h.send(conn, ws.TypeQuizQuestion, msg.RequestID, ws.QuizQuestionPayload{
		ID:         q.ID,
		Question:   q.Text,
		Answer:     q.Answer,
		Category:   q.CategoryID,
		Difficulty: q.Difficulty,
	})
}

func (h *PlayHandler) send(conn *ws.Connection, msgType, requestID string, payload interface{}) error {
	out, err := ws.NewMessage(msgType, requestID, payload)
	if err != nil {
		return err
	}
	return conn.Send(out)
}

func (h *PlayHandler) sendError(conn *ws.Connection, requestID, code, message string) error {
	return h.send(conn, ws.TypeError, requestID, ws.ErrorPayload{Code: code, Message: message})
}
