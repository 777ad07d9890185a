// Package redis keeps sessions in Redis, letting key expiry enforce the
// session lifetime.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/dom/account-market/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "market:session:"

// Connect opens a client and verifies it with a PING.
func Connect(addr, password string, db int) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

type sessionRepository struct {
	client *goredis.Client
	prefix string
}

func NewSessionRepository(client *goredis.Client) *sessionRepository {
	return &sessionRepository{client: client, prefix: defaultKeyPrefix}
}

func (r *sessionRepository) key(id string) string {
	return r.prefix + id
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("create session: already expired")
	}

	data, err := json.Marshal(record{
		UserID:    session.UserID.String(),
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt.UnixNano(),
		CreatedAt: session.CreatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	return wrapErr("create session", r.client.Set(ctx, r.key(session.ID), data, ttl).Err())
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		return nil, wrapErr("get session", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return rec.toSession(id)
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	return wrapErr("delete session", r.client.Del(ctx, r.key(id)).Err())
}

// DeleteExpired is a no-op: Redis drops expired keys on its own.
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

func (r *sessionRepository) Ping(ctx context.Context) error {
	return wrapErr("ping", r.client.Ping(ctx).Err())
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, goredis.Nil) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, goredis.ErrClosed) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
