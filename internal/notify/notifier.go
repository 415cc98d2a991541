// Package notify is the user-visible notification channel: short success and
// error notices queued per session and drained by the client.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Level is the severity of a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a single toast-style message.
type Notice struct {
	Level     Level     `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier publishes notices for a session.
type Notifier interface {
	Success(ctx context.Context, sessionID, title, message string)
	Error(ctx context.Context, sessionID, title, message string)
}

// RedisNotifier queues notices in a capped Redis list per session.
type RedisNotifier struct {
	client     redis.Cmdable
	logger     *zap.Logger
	ttl        time.Duration
	maxNotices int
	now        func() time.Time
}

// NewRedisNotifier builds the notifier.
func NewRedisNotifier(client redis.Cmdable, logger *zap.Logger, ttl time.Duration, maxNotices int) *RedisNotifier {
	if maxNotices <= 0 {
		maxNotices = 50
	}
	return &RedisNotifier{client: client, logger: logger, ttl: ttl, maxNotices: maxNotices, now: time.Now}
}

// Key returns the Redis list holding a session's notices.
func Key(sessionID string) string {
	return "notices:" + sessionID
}

func (n *RedisNotifier) Success(ctx context.Context, sessionID, title, message string) {
	n.push(ctx, sessionID, Notice{Level: LevelSuccess, Title: title, Message: message})
}

func (n *RedisNotifier) Error(ctx context.Context, sessionID, title, message string) {
	n.push(ctx, sessionID, Notice{Level: LevelError, Title: title, Message: message})
}

// push never fails the caller; a lost notice is only logged.
func (n *RedisNotifier) push(ctx context.Context, sessionID string, notice Notice) {
	if sessionID == "" {
		return
	}
	notice.CreatedAt = n.now().UTC()
	payload, err := json.Marshal(notice)
	if err != nil {
		n.logger.Warn("encode notice", zap.Error(err))
		return
	}

	key := Key(sessionID)
	if err := n.client.RPush(ctx, key, payload).Err(); err != nil {
		n.logger.Warn("queue notice", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if err := n.client.LTrim(ctx, key, int64(-n.maxNotices), -1).Err(); err != nil {
		n.logger.Warn("trim notices", zap.String("session_id", sessionID), zap.Error(err))
	}
	if err := n.client.Expire(ctx, key, n.ttl).Err(); err != nil {
		n.logger.Warn("expire notices", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Drain returns the queued notices oldest first and clears the queue.
func (n *RedisNotifier) Drain(ctx context.Context, sessionID string) ([]Notice, error) {
	key := Key(sessionID)
	raw, err := n.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return []Notice{}, nil
	}
	if err := n.client.Del(ctx, key).Err(); err != nil {
		return nil, err
	}

	notices := make([]Notice, 0, len(raw))
	for _, item := range raw {
		var notice Notice
		if err := json.Unmarshal([]byte(item), &notice); err != nil {
			n.logger.Warn("skip malformed notice", zap.Error(err))
			continue
		}
		notices = append(notices, notice)
	}
	return notices, nil
}

// Discard drops all pending notices for a session.
func (n *RedisNotifier) Discard(ctx context.Context, sessionID string) error {
	return n.client.Del(ctx, Key(sessionID)).Err()
}
