package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxExchanges = 10
	defaultHistoryTTL   = 7 * 24 * time.Hour
)

// Exchange is one question and its answer.
type Exchange struct {
	Question string    `json:"q"`
	Answer   string    `json:"a"`
	At       time.Time `json:"at"`
}

// History keeps a bounded per-user conversation log.
type History interface {
	// Recent returns up to n exchanges, oldest first.
	Recent(ctx context.Context, userID string, n int) ([]Exchange, error)
	Append(ctx context.Context, userID string, e Exchange) error
	Clear(ctx context.Context, userID string) error
}

// RedisHistory stores exchanges in a capped Redis list per user.
type RedisHistory struct {
	Client       *redis.Client
	Prefix       string
	MaxExchanges int
	TTL          time.Duration
}

// NewRedisHistory constructs a RedisHistory with default limits.
func NewRedisHistory(client *redis.Client) *RedisHistory {
	return &RedisHistory{
		Client:       client,
		Prefix:       "teamsync:chat",
		MaxExchanges: defaultMaxExchanges,
		TTL:          defaultHistoryTTL,
	}
}

func (h *RedisHistory) key(userID string) string {
	return fmt.Sprintf("%s:%s", h.Prefix, userID)
}

func (h *RedisHistory) Recent(ctx context.Context, userID string, n int) ([]Exchange, error) {
	if n <= 0 {
		return nil, nil
	}
	raw, err := h.Client.LRange(ctx, h.key(userID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]Exchange, 0, len(raw))
	// LPUSH keeps newest first.
	for i := len(raw) - 1; i >= 0; i-- {
		var e Exchange
		if err := json.Unmarshal([]byte(raw[i]), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (h *RedisHistory) Append(ctx context.Context, userID string, e Exchange) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	limit := h.MaxExchanges
	if limit <= 0 {
		limit = defaultMaxExchanges
	}
	key := h.key(userID)
	_, err = h.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, int64(limit-1))
		if h.TTL > 0 {
			pipe.Expire(ctx, key, h.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (h *RedisHistory) Clear(ctx context.Context, userID string) error {
	return h.Client.Del(ctx, h.key(userID)).Err()
}

// MemoryHistory is an in-process History.
type MemoryHistory struct {
	mu           sync.Mutex
	MaxExchanges int
	data         map[string][]Exchange
}

// NewMemoryHistory constructs a MemoryHistory.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{MaxExchanges: defaultMaxExchanges, data: make(map[string][]Exchange)}
}

func (h *MemoryHistory) Recent(ctx context.Context, userID string, n int) ([]Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	all := h.data[userID]
	if n < len(all) {
		all = all[len(all)-n:]
	}
	return append([]Exchange(nil), all...), nil
}

func (h *MemoryHistory) Append(ctx context.Context, userID string, e Exchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	limit := h.MaxExchanges
	if limit <= 0 {
		limit = defaultMaxExchanges
	}
	list := append(h.data[userID], e)
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	h.data[userID] = list
	return nil
}

func (h *MemoryHistory) Clear(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.data, userID)
	return nil
}

var (
	_ History = (*RedisHistory)(nil)
	_ History = (*MemoryHistory)(nil)
)
