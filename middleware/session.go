package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionCookie is the name of the browser cookie carrying the session id.
// The cookie holds only a random id; all values live server-side.
const SessionCookie = "omakase_session"

// Session keys used by the customer workflow and authentication.
const (
	SessionKeyRestaurantID   = "restaurant_id"
	SessionKeyCurrentOrderID = "current_order_id"
	SessionKeyCurrTableNum   = "curr_table_num"
	SessionKeyTempCustomerID = "temp_customer_id"
	SessionKeyUserID         = "user_id"
)

const sessionContextKey = "session"

// SessionStore is the server-side key/value store backing browser sessions.
type SessionStore interface {
	Get(ctx context.Context, id string) (map[string]string, error)
	Save(ctx context.Context, id string, values map[string]string) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. Used in development and
// tests; sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]map[string]string)}
}

// Get returns a copy of the session's values, or an empty map for an
// unknown session id.
func (s *MemoryStore) Get(_ context.Context, id string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string]string, len(s.sessions[id]))
	for k, v := range s.sessions[id] {
		values[k] = v
	}
	return values, nil
}

// Save stores a copy of the session's values.
func (s *MemoryStore) Save(_ context.Context, id string, values map[string]string) error {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = copied
	return nil
}

// Delete removes the session.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// RedisStore keeps sessions in Redis as JSON blobs with a TTL, so sessions
// survive restarts and are shared across instances.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, TTL: ttl}
}

func (s *RedisStore) key(id string) string {
	return "session:" + id
}

// Get returns the session's values, or an empty map for an unknown id.
func (s *RedisStore) Get(ctx context.Context, id string) (map[string]string, error) {
	raw, err := s.Client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	values := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}

// Save stores the session's values and refreshes the TTL.
func (s *RedisStore) Save(ctx context.Context, id string, values map[string]string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.key(id), raw, s.TTL).Err()
}

// Delete removes the session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, s.key(id)).Err()
}

// Session is the request-scoped view of one browser session.
type Session struct {
	ID     string
	values map[string]string
	dirty  bool
}

// Get returns the value for a session key.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// GetUint returns the value for a session key parsed as an unsigned id.
func (s *Session) GetUint(key string) (uint, bool) {
	v, ok := s.values[key]
	if !ok {
		return 0, false
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(parsed), true
}

// Set stores a value under a session key.
func (s *Session) Set(key, value string) {
	s.values[key] = value
	s.dirty = true
}

// SetUint stores an unsigned id under a session key.
func (s *Session) SetUint(key string, value uint) {
	s.Set(key, strconv.FormatUint(uint64(value), 10))
}

// Pop removes a session key.
func (s *Session) Pop(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// Clear removes all session values.
func (s *Session) Clear() {
	if len(s.values) > 0 {
		s.values = make(map[string]string)
		s.dirty = true
	}
}

// Sessions returns middleware that loads the request's session from the
// store and writes it back after the handler when it changed. A request
// without a session cookie gets a fresh random session id.
func Sessions(store SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
			c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
		}

		values, err := store.Get(c.Request.Context(), id)
		if err != nil {
			log.Printf("failed to load session %s: %v", id, err)
			values = map[string]string{}
		}

		session := &Session{ID: id, values: values}
		c.Set(sessionContextKey, session)

		c.Next()

		if session.dirty {
			if err := store.Save(context.Background(), id, session.values); err != nil {
				log.Printf("failed to save session %s: %v", id, err)
			}
		}
	}
}

// GetSession returns the request's session. It is only valid below the
// Sessions middleware.
func GetSession(c *gin.Context) *Session {
	v, exists := c.Get(sessionContextKey)
	if !exists {
		// Misconfigured route; fail open with a detached session so the
		// handler can still respond
		return &Session{ID: "", values: map[string]string{}}
	}
	return v.(*Session)
}

// abortUnauthenticated writes the standard 401 envelope.
func abortUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
