// Package token is the single source of truth for credential material: the
// long-lived site cookie, derived per-client secrets, and the short-lived
// JWTs handed to API callers.
package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	// TokenTTL is how long an issued JWT stays valid. Tokens are re-minted on
	// demand by the clients, there is no refresh flow.
	TokenTTL = 15 * time.Minute

	ClientWeb       = "web"
	ClientWordPress = "wordpress"

	// PrefixWordPress feeds DeriveClientSecret. New external integrations get
	// their own prefix constant and a branch in ResolveClient.
	PrefixWordPress = "wordpress"
)

var (
	ErrServerMisconfigured = fmt.Errorf("secure token material is not configured")
	ErrInvalidFormat       = fmt.Errorf("cookie is not in value:timestamp form")
	ErrHashMismatch        = fmt.Errorf("cookie token hash does not match")
	ErrExpired             = fmt.Errorf("cookie is past its max age")
	ErrInvalidSecret       = fmt.Errorf("secret does not match any known client")
	ErrSigningFailed       = fmt.Errorf("token signing failed")
	ErrInvalidToken        = fmt.Errorf("token is invalid")
	ErrExpiredToken        = fmt.Errorf("token is expired")
)

// Secrets is the process-wide immutable credential configuration. Hash must
// be the lowercase sha256 hex of Token; the two are held separately so cookie
// validation never touches the raw secret.
type Secrets struct {
	Token string
	Hash  string
}

// Claims is the payload carried by every issued JWT.
type Claims struct {
	Client string `json:"client"`
	jwt.RegisteredClaims
}

type Codec struct {
	secrets      Secrets
	cookieMaxAge time.Duration
	now          func() time.Time
}

func NewCodec(secrets Secrets, cookieMaxAge time.Duration) *Codec {
	return &Codec{
		secrets:      secrets,
		cookieMaxAge: cookieMaxAge,
		now:          time.Now,
	}
}

// HashToken returns the lowercase sha256 hex digest of value.
func HashToken(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// DeriveClientSecret computes the credential handed to an external
// integration: sha256 of "<prefix>-<base>", truncated to 32 hex chars. Never
// stored, always recomputed.
func DeriveClientSecret(prefix, base string) string {
	return HashToken(prefix + "-" + base)[:32]
}

// VerifySiteCookie checks a raw siteAuth cookie value. The misconfiguration
// check comes first: a server without the stored hash cannot honestly accept
// or reject anything.
func (c *Codec) VerifySiteCookie(cookieValue string) error {
	if c.secrets.Hash == "" {
		return ErrServerMisconfigured
	}

	pts := strings.Split(cookieValue, ":")
	if len(pts) != 2 {
		return ErrInvalidFormat
	}

	if subtle.ConstantTimeCompare([]byte(HashToken(pts[0])), []byte(c.secrets.Hash)) != 1 {
		return ErrHashMismatch
	}

	if !c.cookieCurrent(cookieValue) {
		return ErrExpired
	}

	return nil
}

// cookieCurrent is the freshness check. It takes the whole cookie value and
// does its own parse so hash validity and freshness stay independently
// observable. A non-numeric timestamp counts as stale, not malformed.
func (c *Codec) cookieCurrent(cookieValue string) bool {
	pts := strings.Split(cookieValue, ":")
	if len(pts) != 2 {
		return false
	}

	ms, err := strconv.ParseInt(pts[1], 10, 64)
	if err != nil {
		return false
	}

	return c.now().Sub(time.UnixMilli(ms)) <= c.cookieMaxAge
}

// VerifySitePassword checks a candidate site password against the stored
// hash. Used by the login flow before it mints a cookie.
func (c *Codec) VerifySitePassword(password string) error {
	if c.secrets.Hash == "" {
		return ErrServerMisconfigured
	}

	if subtle.ConstantTimeCompare([]byte(HashToken(password)), []byte(c.secrets.Hash)) != 1 {
		return ErrHashMismatch
	}

	return nil
}

// ResolveClient maps a presented shared secret to the client id it
// identifies: the raw secret is the first-party web client, the wordpress
// derivation is the wordpress client.
func (c *Codec) ResolveClient(secret string) (string, error) {
	if c.secrets.Token == "" || c.secrets.Hash == "" {
		return "", ErrServerMisconfigured
	}

	if subtle.ConstantTimeCompare([]byte(secret), []byte(c.secrets.Token)) == 1 {
		return ClientWeb, nil
	}

	if subtle.ConstantTimeCompare([]byte(secret), []byte(DeriveClientSecret(PrefixWordPress, c.secrets.Token))) == 1 {
		return ClientWordPress, nil
	}

	return "", ErrInvalidSecret
}

// IssueJWT signs a fresh 15-minute token for the given client id.
func (c *Codec) IssueJWT(client string) (string, error) {
	if c.secrets.Token == "" {
		return "", ErrServerMisconfigured
	}

	now := c.now()
	claims := Claims{
		Client: client,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secrets.Token))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}

	return signed, nil
}

// VerifyJWT checks signature and expiry. Claims validation is done against
// the codec's own clock rather than the library's, so expiry stays testable
// without global state.
func (c *Codec) VerifyJWT(tokenstr string) (*Claims, error) {
	if c.secrets.Token == "" {
		return nil, ErrServerMisconfigured
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenstr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unsupported signing method: %v", t.Header["alg"])
		}
		return []byte(c.secrets.Token), nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.ExpiresAt == nil || c.now().After(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}

	return &claims, nil
}
