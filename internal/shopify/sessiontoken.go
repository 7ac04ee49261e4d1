package shopify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSessionToken is returned for any session token that fails
// verification. The cause is wrapped for logging.
var ErrInvalidSessionToken = errors.New("shopify: invalid session token")

// sessionTokenLeeway absorbs clock skew between Shopify and this host.
const sessionTokenLeeway = 5 * time.Second

// sessionClaims is the payload App Bridge signs into an embedded app's
// bearer token.
type sessionClaims struct {
	jwt.RegisteredClaims
	Dest string `json:"dest"`
	SID  string `json:"sid,omitempty"`
}

// SessionTokenVerifier validates App Bridge session tokens (HS256 signed
// with the app's API secret, audience = API key).
type SessionTokenVerifier struct {
	apiKey    string
	apiSecret string
	now       func() time.Time
}

// NewSessionTokenVerifier creates a verifier for the app credentials. now
// defaults to time.Now.
func NewSessionTokenVerifier(apiKey, apiSecret string, now func() time.Time) *SessionTokenVerifier {
	if now == nil {
		now = time.Now
	}
	return &SessionTokenVerifier{apiKey: apiKey, apiSecret: apiSecret, now: now}
}

// Verify checks the token and returns the shop domain it was issued for.
func (v *SessionTokenVerifier) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidSessionToken)
	}
	if v.apiKey == "" || v.apiSecret == "" {
		return "", errors.New("session token verifier is not configured")
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(v.apiSecret), nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithAudience(v.apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(sessionTokenLeeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionToken, err)
	}

	dest, err := url.Parse(claims.Dest)
	if err != nil || !ValidShopDomain(dest.Host) {
		return "", fmt.Errorf("%w: bad dest %q", ErrInvalidSessionToken, claims.Dest)
	}
	iss, err := url.Parse(claims.Issuer)
	if err != nil || iss.Host != dest.Host {
		return "", fmt.Errorf("%w: issuer %q does not match dest", ErrInvalidSessionToken, claims.Issuer)
	}

	return dest.Host, nil
}
