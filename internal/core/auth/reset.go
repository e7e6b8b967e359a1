package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TypeReset = "reset"

var ErrResetMismatch = errors.New("reset token does not match user")

type resetClaims struct {
	UID         string `json:"uid"`
	Type        string `json:"typ"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// ResetTokens issues single-use password reset tokens. A token embeds a
// fingerprint of the password hash it was issued against, so it stops
// verifying as soon as the password changes.
type ResetTokens struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func (r *ResetTokens) Make(uid, passwordHash string) (string, error) {
	now := time.Now()
	claims := resetClaims{
		UID:         uid,
		Type:        TypeReset,
		Fingerprint: fingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    r.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.Secret)
}

// Check verifies token against the user's current state.
func (r *ResetTokens) Check(token, uid, passwordHash string) error {
	c := &resetClaims{}
	_, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return r.Secret, nil
	}, jwt.WithIssuer(r.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if c.Type != TypeReset {
		return ErrWrongType
	}
	if c.UID != uid || c.Fingerprint != fingerprint(passwordHash) {
		return ErrResetMismatch
	}
	return nil
}

func fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func EncodeUID(uid string) string { return base64.RawURLEncoding.EncodeToString([]byte(uid)) }

func DecodeUID(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
