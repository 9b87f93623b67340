package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidToken = errors.New("invalid auth token")

var encoding = base64.RawURLEncoding

// HMACStrategy issues bearer tokens of the form payload.signature where the
// payload carries the caller id and expiry.
type HMACStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACStrategy builds HMACStrategy with provided secret and options.
func NewHMACStrategy(secret string, opts Options) *HMACStrategy {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &HMACStrategy{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueToken generates signed auth token for the user.
func (s *HMACStrategy) IssueToken(userID int64) (string, error) {
	expires := s.now().Add(s.ttl).Unix()
	payload := strconv.FormatInt(userID, 10) + "." + strconv.FormatInt(expires, 10)
	encoded := encoding.EncodeToString([]byte(payload))
	return encoded + "." + s.sign(encoded), nil
}

// ParseToken validates token and returns encoded user ID.
func (s *HMACStrategy) ParseToken(token string) (int64, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(s.sign(encoded))) {
		return 0, ErrInvalidToken
	}

	raw, err := encoding.DecodeString(encoded)
	if err != nil {
		return 0, ErrInvalidToken
	}
	idPart, expPart, ok := strings.Cut(string(raw), ".")
	if !ok {
		return 0, ErrInvalidToken
	}

	userID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	expires, err := strconv.ParseInt(expPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !s.now().Before(time.Unix(expires, 0)) {
		return 0, ErrInvalidToken
	}

	return userID, nil
}

func (s *HMACStrategy) Name() string {
	return "hmac"
}

func (s *HMACStrategy) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return encoding.EncodeToString(mac.Sum(nil))
}
