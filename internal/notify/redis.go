package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/engine"
)

// RedisConfig configures the announcement channel.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisNotifier publishes announcements to a Redis pub/sub channel. Notify
// never blocks: messages go through a buffered queue drained by a single
// worker, and overflow or publish failures are logged and dropped. When Redis
// is unreachable at construction time the notifier falls back to the given
// fallback sink entirely.
type RedisNotifier struct {
	client   *redis.Client
	channel  string
	logger   zerolog.Logger
	fallback engine.Notifier

	queue  chan engine.Notification
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type wireNotification struct {
	SlotID  string `json:"slot_id"`
	UserID  string `json:"user_id,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
	At      int64  `json:"at"`
}

// NewRedisNotifier connects to Redis and starts the publish worker. A nil
// return with no error never happens; when the ping fails the returned
// notifier only forwards to fallback.
func NewRedisNotifier(cfg RedisConfig, logger zerolog.Logger, fallback engine.Notifier) *RedisNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &RedisNotifier{
		channel:  cfg.Channel,
		logger:   logger,
		fallback: fallback,
		queue:    make(chan engine.Notification, 256),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, announcements go to log only")
		_ = client.Close()
		close(n.done)
		return n
	}

	n.client = client
	go n.run()
	return n
}

func (n *RedisNotifier) Notify(note engine.Notification) {
	if n.fallback != nil {
		n.fallback.Notify(note)
	}
	if n.client == nil {
		return
	}
	select {
	case n.queue <- note:
	default:
		n.logger.Warn().Str("slot", note.SlotID).Msg("announcement queue full, dropping")
	}
}

func (n *RedisNotifier) run() {
	defer close(n.done)
	for {
		select {
		case <-n.ctx.Done():
			return
		case note := <-n.queue:
			n.publish(note)
		}
	}
}

func (n *RedisNotifier) publish(note engine.Notification) {
	payload, err := json.Marshal(wireNotification{
		SlotID:  note.SlotID,
		UserID:  note.UserID,
		Kind:    string(note.Kind),
		Message: note.Message,
		At:      time.Now().Unix(),
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(n.ctx, 3*time.Second)
	defer cancel()
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		n.logger.Warn().Err(err).Str("slot", note.SlotID).Msg("publish announcement failed")
	}
}

// Close stops the worker and closes the connection. Queued announcements not
// yet published are dropped; they are best effort by contract.
func (n *RedisNotifier) Close() {
	n.cancel()
	<-n.done
	if n.client != nil {
		_ = n.client.Close()
	}
}
