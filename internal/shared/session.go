package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionManager resolves bearer tokens to identities backed by Redis.
// Token issuance happens at login, which lives outside this core; the
// manager only needs Issue for that boundary plus Resolve for every request.
type SessionManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type sessionPayload struct {
	UserID   int64 `json:"user_id"`
	TenantID int64 `json:"tenant_id"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, prefix string, ttl time.Duration) *SessionManager {
	if prefix == "" {
		prefix = "samudra_session"
	}
	return &SessionManager{client: client, prefix: prefix, ttl: ttl}
}

// Issue creates a new session token for the given identity.
func (sm *SessionManager) Issue(ctx context.Context, id Identity) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	payload, err := json.Marshal(sessionPayload{UserID: id.UserID, TenantID: id.TenantID})
	if err != nil {
		return "", err
	}
	if err := sm.client.Set(ctx, sm.redisKey(token), payload, sm.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve looks up the token carried by the request and returns its identity.
func (sm *SessionManager) Resolve(ctx context.Context, r *http.Request) (Identity, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return Identity{}, ErrSessionMissing
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Identity{}, ErrSessionExpired
		}
		return Identity{}, err
	}
	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return Identity{}, err
	}
	// Sliding expiry keeps active operators logged in.
	_ = sm.client.Expire(ctx, sm.redisKey(token), sm.ttl).Err()
	return Identity{UserID: stored.UserID, TenantID: stored.TenantID}, nil
}

// Revoke removes a session token.
func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	return sm.client.Del(ctx, sm.redisKey(token)).Err()
}

func (sm *SessionManager) redisKey(token string) string {
	return sm.prefix + ":" + token
}

func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if strings.HasPrefix(auth, "Bearer ") {
			return strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return r.Header.Get("X-Session-Token")
}
