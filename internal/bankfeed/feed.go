package bankfeed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/gokatarajesh/trivia-api/pkg/http/ws"
)

// DefaultChannel carries question bank changes between API instances.
const DefaultChannel = "trivia:bank-updates"

const publishTimeout = 2 * time.Second

// Publisher announces question bank changes on Redis Pub/Sub.
type Publisher struct {
	redis   *redis.Client
	channel string
	logger  zerolog.Logger
}

func NewPublisher(redis *redis.Client, channel string, logger zerolog.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		redis:   redis,
		channel: channel,
		logger:  logger.With().Str("component", "bank_publisher").Logger(),
	}
}

// NotifyBankChange publishes the change. Failures are logged and dropped.
func (p *Publisher) NotifyBankChange(action string, questionID int64) {
	data, err := json.Marshal(ws.QuestionBankUpdatePayload{Action: action, QuestionID: questionID})
	if err != nil {
		p.logger.Error().Err(err).Msg("encode bank update")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.redis.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Warn().Err(err).Str("action", action).Int64("question_id", questionID).Msg("publish bank update failed")
	}
}

// Broadcaster listens for bank updates and forwards them to every local play connection.
type Broadcaster struct {
	redis   *redis.Client
	hub     *ws.Hub
	channel string
	logger  zerolog.Logger
}

func NewBroadcaster(redis *redis.Client, hub *ws.Hub, channel string, logger zerolog.Logger) *Broadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Broadcaster{
		redis:   redis,
		hub:     hub,
		channel: channel,
		logger:  logger.With().Str("component", "bank_broadcaster").Logger(),
	}
}

// Run subscribes to the update channel and blocks until the context is cancelled.
func (b *Broadcaster) Run(ctx context.Context) error {
	if b.redis == nil || b.hub == nil {
		return nil
	}

	sub := b.redis.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.forward(msg.Payload)
		}
	}
}

func (b *Broadcaster) forward(payload string) {
	var evt ws.QuestionBankUpdatePayload
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		b.logger.Warn().Err(err).Msg("failed to decode bank update payload")
		return
	}

	msg, err := ws.NewMessage(ws.TypeQuestionBankUpdate, "", evt)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to encode bank update message")
		return
	}
	if err := b.hub.BroadcastAll(msg); err != nil {
		b.logger.Warn().Err(err).Msg("failed to broadcast bank update")
	}
}
