package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"kimora-storefront/internal/apperr"
)

const schemaVersion = 1

// ErrInvalid is the single opaque rejection for every verification failure.
// Callers must not learn whether a token was malformed, forged or expired.
var ErrInvalid = apperr.Authentication("invalid or expired link")

type claims struct {
	Email     string `json:"email"`
	ExpiresAt int64  `json:"exp"`
	Version   int    `json:"v"`
}

// Service issues and verifies stateless magic-link tokens. A token is
// base64url(claims JSON) + "." + base64url(HMAC-SHA256 over the encoded
// claims); the token itself is the credential, nothing is stored.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret string, ttl time.Duration) (*Service, error) {
	if secret == "" {
		return nil, apperr.Configuration("missing SESSION_SECRET")
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// NormalizeEmail is applied on issuance and after verification so lookups
// keyed by email agree with what the reconciler stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) sign(body string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(body))
	return mac.Sum(nil)
}

func (s *Service) Issue(email string) (string, error) {
	payload, err := json.Marshal(claims{
		Email:     NormalizeEmail(email),
		ExpiresAt: s.now().Add(s.ttl).Unix(),
		Version:   schemaVersion,
	})
	if err != nil {
		return "", err
	}

	body := base64.RawURLEncoding.EncodeToString(payload)
	sig := base64.RawURLEncoding.EncodeToString(s.sign(body))
	return body + "." + sig, nil
}

// Verify returns the normalized email bound to a valid, unexpired token.
// All rejection paths return ErrInvalid.
func (s *Service) Verify(token string) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", ErrInvalid
	}

	// Compare in the encoded domain: decoding the presented signature first
	// would discard the unused bits of its final base64url character and
	// leave them mutable.
	expected := base64.RawURLEncoding.EncodeToString(s.sign(parts[0]))
	if !hmac.Equal([]byte(parts[1]), []byte(expected)) {
		return "", ErrInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", ErrInvalid
	}

	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return "", ErrInvalid
	}
	if c.Email == "" || c.Version != schemaVersion {
		return "", ErrInvalid
	}
	if s.now().Unix() > c.ExpiresAt {
		return "", ErrInvalid
	}

	return NormalizeEmail(c.Email), nil
}
