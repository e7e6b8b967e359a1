package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongType    = errors.New("wrong token type")
)

type Claims struct {
	UID      string `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

// Identity is what gets embedded in every session token.
type Identity struct {
	UID      string
	Username string
	Email    string
	IsAdmin  bool
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type JWTer struct {
	Secret     []byte
	Issuer     string
	TTL        time.Duration // access
	RefreshTTL time.Duration
}

func (j *JWTer) Issue(id Identity) (string, error) {
	return j.sign(id, TypeAccess, j.TTL)
}

func (j *JWTer) IssueRefresh(id Identity) (string, error) {
	return j.sign(id, TypeRefresh, j.RefreshTTL)
}

func (j *JWTer) IssuePair(id Identity) (Pair, error) {
	access, err := j.Issue(id)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := j.IssueRefresh(id)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (j *JWTer) sign(id Identity, typ string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UID:      id.UID,
		Username: id.Username,
		Email:    id.Email,
		IsAdmin:  id.IsAdmin,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    j.Issuer,
			Subject:   id.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

func (j *JWTer) Parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return j.Secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithLeeway(60*time.Second), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, ErrInvalidToken
}

// ParseAs parses and checks the token type.
func (j *JWTer) ParseAs(tokenStr, typ string) (*Claims, error) {
	c, err := j.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if c.Type != typ {
		return nil, ErrWrongType
	}
	return c, nil
}
