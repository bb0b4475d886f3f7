package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/account-recovery/internal/domain"
)

// busyTTL bounds how long a crashed submit can hold a session.
const busyTTL = 30 * time.Second

// KV is the ephemeral store recovery sessions live in.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// SessionStore keeps RecoverySessions as JSON in a KV with a sliding TTL.
type SessionStore struct {
	kv  KV
	ttl time.Duration
}

func NewSessionStore(kv KV, ttl time.Duration) *SessionStore {
	return &SessionStore{kv: kv, ttl: ttl}
}

func sessionKey(id string) string { return "recovery:session:" + id }
func busyKey(id string) string    { return "recovery:busy:" + id }

func (s *SessionStore) Load(ctx context.Context, id string) (*domain.RecoverySession, error) {
	raw, ok, err := s.kv.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("recovery session not found or expired: %w", domain.ErrNotFound)
	}
	var sess domain.RecoverySession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode recovery session: %w", err)
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, sess *domain.RecoverySession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode recovery session: %w", err)
	}
	return s.kv.Set(ctx, sessionKey(sess.ID), raw, s.ttl)
}

// Lock sets the busy flag. It reports false when a submit is already in flight.
func (s *SessionStore) Lock(ctx context.Context, id string) (bool, error) {
	return s.kv.SetNX(ctx, busyKey(id), []byte("1"), busyTTL)
}

func (s *SessionStore) Unlock(ctx context.Context, id string) error {
	return s.kv.Del(ctx, busyKey(id))
}
