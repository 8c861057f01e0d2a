package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

// StandingBus publishes high-value standing events so connectors (leaderboard
// announcements, raid bots) can react without polling the store.
type StandingBus interface {
	Publish(ctx context.Context, ev types.StandingEvent) error
	Subscribe(ctx context.Context, onEvent func(ev types.StandingEvent)) error
	Close() error
}

type standingBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewStandingBus(log *logger.Logger) (StandingBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_STANDING_CHANNEL"))
	if ch == "" {
		ch = "standing"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &standingBus{
		log:     log.With("service", "RedisStandingBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *standingBus) Publish(ctx context.Context, ev types.StandingEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("standing bus not initialized")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *standingBus) Subscribe(ctx context.Context, onEvent func(ev types.StandingEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("standing bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev types.StandingEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad standing payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()

	return nil
}

func (b *standingBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
