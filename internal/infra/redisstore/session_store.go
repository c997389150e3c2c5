// Package redisstore backs registration sessions with Redis so several bot
// replicas can share one conversation state.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/usecase"
)

type SessionStore struct {
	client      *redis.Client
	idleTimeout time.Duration
}

// NewSessionStore wraps an existing client. A non-zero idleTimeout becomes
// the key TTL, so abandoned sessions expire server-side.
func NewSessionStore(client *redis.Client, idleTimeout time.Duration) *SessionStore {
	return &SessionStore{client: client, idleTimeout: idleTimeout}
}

func sessionKey(chatID int64) string {
	return fmt.Sprintf("session:%d", chatID)
}

func (s *SessionStore) Get(ctx context.Context, chatID int64) (usecase.Session, bool, error) {
	data, err := s.client.Get(ctx, sessionKey(chatID)).Bytes()
	if err == redis.Nil {
		return usecase.Session{}, false, nil
	}
	if err != nil {
		return usecase.Session{}, false, fmt.Errorf("session get: %w", err)
	}
	var sess usecase.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// An unreadable value is as good as no session; drop it.
		_ = s.client.Del(ctx, sessionKey(chatID)).Err()
		return usecase.Session{}, false, nil
	}
	return sess, true, nil
}

func (s *SessionStore) Put(ctx context.Context, chatID int64, sess usecase.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(chatID), data, s.idleTimeout).Err(); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, sessionKey(chatID)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}
