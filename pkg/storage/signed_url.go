package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token parsing errors.
var (
	ErrTokenFormat    = errors.New("invalid token format")
	ErrTokenSignature = errors.New("invalid token signature")
	ErrTokenExpired   = errors.New("token expired")
)

// HandleClaims is the payload carried by an attachment handle token.
type HandleClaims struct {
	HandleID  string
	Path      string
	MimeType  string
	ExpiresAt time.Time
}

// SignedURLSigner creates and validates signed attachment handle tokens.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL reports how long generated tokens stay valid.
func (s *SignedURLSigner) TTL() time.Duration {
	return s.ttl
}

// Generate returns a signed token for the handle and its expiry.
func (s *SignedURLSigner) Generate(handleID, relPath, mimeType string) (string, time.Time, error) {
	if handleID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("handleID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	parts := []string{
		handleID,
		strconv.FormatInt(expiresAt.Unix(), 10),
		base64.RawURLEncoding.EncodeToString([]byte(relPath)),
		base64.RawURLEncoding.EncodeToString([]byte(mimeType)),
	}
	parts = append(parts, s.sign(parts))
	return strings.Join(parts, "."), expiresAt, nil
}

// Parse validates a token and returns the embedded claims. When allowExpired
// is true the expiry check is skipped so releases still work on stale links.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (*HandleClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 5 {
		return nil, ErrTokenFormat
	}
	if !hmac.Equal([]byte(s.sign(parts[:4])), []byte(parts[4])) {
		return nil, ErrTokenSignature
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, ErrTokenFormat
	}
	rawPath, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: path", ErrTokenFormat)
	}
	rawMime, err := base64.RawURLEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, fmt.Errorf("%w: mime type", ErrTokenFormat)
	}
	claims := &HandleClaims{
		HandleID:  parts[0],
		Path:      string(rawPath),
		MimeType:  string(rawMime),
		ExpiresAt: time.Unix(expUnix, 0),
	}
	if !allowExpired && s.now().After(claims.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

func (s *SignedURLSigner) sign(parts []string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}
