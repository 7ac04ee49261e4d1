// Package session provides Valkey-backed browser sessions for shops that
// open the app outside of the embedded admin, plus short-lived OAuth state
// nonces. Sessions are identified by a secure cookie and stored as JSON in
// Valkey with automatic TTL expiry.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "ss_session"

	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// StateTTL bounds the time between starting OAuth and its callback.
	StateTTL = 10 * time.Minute

	keyPrefix   = "session:"
	shopPrefix  = "shop_sessions:"
	statePrefix = "oauth_state:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// ErrInvalidState is returned when an OAuth state nonce is unknown, expired
// or was issued for a different shop.
var ErrInvalidState = errors.New("invalid oauth state")

// Data holds the session payload stored in Valkey.
type Data struct {
	Shop      string    `json:"shop"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// When secure is true cookies are marked Secure and SameSite=None so they
// survive inside the Shopify admin iframe.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// Create generates a new session, stores it in Valkey, indexes it under
// the shop and sets the session cookie on the response. Returns the
// session ID.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	data.CreatedAt = time.Now()

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("session marshal: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyPrefix+id, payload, s.ttl)
	pipe.SAdd(ctx, shopPrefix+data.Shop, id)
	pipe.Expire(ctx, shopPrefix+data.Shop, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("session store: %w", err)
	}

	sameSite := http.SameSiteLaxMode
	if s.secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: sameSite,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return id, nil
}

// Get retrieves session data from Valkey using the session ID from the
// request cookie. Returns nil if no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}

	return &data, nil
}

// Destroy removes the session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	if err := s.client.Del(ctx, keyPrefix+cookie.Value).Err(); err != nil {
		return fmt.Errorf("session destroy: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return nil
}

// DestroyShop removes every browser session that belongs to shop. Returns
// the number of sessions removed.
func (s *Store) DestroyShop(ctx context.Context, shop string) (int, error) {
	ids, err := s.client.SMembers(ctx, shopPrefix+shop).Result()
	if err != nil {
		return 0, fmt.Errorf("session list shop: %w", err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, keyPrefix+id)
	}
	keys = append(keys, shopPrefix+shop)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("session destroy shop: %w", err)
	}
	return len(ids), nil
}

// NewState issues a one-time OAuth state nonce bound to shop.
func (s *Store) NewState(ctx context.Context, shop string) (string, error) {
	state, err := generateID()
	if err != nil {
		return "", fmt.Errorf("state create: %w", err)
	}
	if err := s.client.Set(ctx, statePrefix+state, shop, StateTTL).Err(); err != nil {
		return "", fmt.Errorf("state store: %w", err)
	}
	return state, nil
}

// ConsumeState deletes the nonce and checks it was issued for shop.
func (s *Store) ConsumeState(ctx context.Context, state, shop string) error {
	if state == "" {
		return ErrInvalidState
	}
	bound, err := s.client.GetDel(ctx, statePrefix+state).Result()
	if err == redis.Nil {
		return ErrInvalidState
	}
	if err != nil {
		return fmt.Errorf("state consume: %w", err)
	}
	if bound != shop {
		return ErrInvalidState
	}
	return nil
}

// generateID creates a cryptographically random identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
