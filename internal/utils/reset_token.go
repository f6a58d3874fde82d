package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	resetSubject     = "password-reset"
	resetSalt        = ":password-reset-salt"
	DefaultResetTTL  = time.Hour
	fingerprintBytes = 8
)

var (
	ErrTokenInvalid = errors.New("reset token invalid")
	ErrTokenExpired = errors.New("reset token expired")
)

type ResetClaims struct {
	Email       string `json:"email"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// ResetTokens signs and verifies time-limited password reset tokens bound to an
// email address. Tokens also carry a fingerprint of the password hash they were
// issued against, so they stop verifying once the password changes.
type ResetTokens struct {
	Secret string
	TTL    time.Duration
	Now    func() time.Time
}

func (r ResetTokens) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r ResetTokens) ttl() time.Duration {
	if r.TTL <= 0 {
		return DefaultResetTTL
	}
	return r.TTL
}

func (r ResetTokens) key() []byte {
	return []byte(r.Secret + resetSalt)
}

func (r ResetTokens) Issue(email, passwordHash string) (string, error) {
	now := r.now()
	claims := ResetClaims{
		Email:       email,
		Fingerprint: PasswordFingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   resetSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl())),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.key())
}

// Verify checks signature and expiry. It returns ErrTokenExpired for a well
// signed token past its window and ErrTokenInvalid for anything else.
func (r ResetTokens) Verify(tokenStr string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &ResetClaims{}, func(t *jwt.Token) (interface{}, error) {
		return r.key(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
		jwt.WithSubject(resetSubject),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// PasswordFingerprint is a short digest of a password hash.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:fingerprintBytes])
}
