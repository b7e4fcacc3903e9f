package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SubjectStaff is the only subject type issued. Tokens naming any other
// subject type are rejected.
const SubjectStaff = "staff"

type Claims struct {
	jwt.RegisteredClaims
	Role        string `json:"role"`
	SubjectType string `json:"sub_type"`
}

// Token is an issued access token.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	ID          string    `json:"-"`
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(key []byte, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: key, issuer: issuer, ttl: ttl, now: time.Now}
}

func (ti *TokenIssuer) TTL() time.Duration { return ti.ttl }

// IssueStaff returns a token for a staff member with the given role.
func (ti *TokenIssuer) IssueStaff(staffID uuid.UUID, role string) (*Token, error) {
	now := ti.now()
	exp := now.Add(ti.ttl)
	jti := uuid.New().String()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   staffID.String(),
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role:        role,
		SubjectType: SubjectStaff,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.key)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: exp, ID: jti}, nil
}

// Parse verifies the signature, issuer and time claims of tokenStr.
func (ti *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	}
	if ti.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ti.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return ti.key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ID == "" {
		return nil, errors.New("token has no jti")
	}
	return claims, nil
}

// ActorFromClaims converts verified claims into an Actor.
func ActorFromClaims(c *Claims) (Actor, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Actor{}, fmt.Errorf("invalid subject: %w", err)
	}
	if c.SubjectType != SubjectStaff {
		return Actor{}, fmt.Errorf("unknown subject type %q", c.SubjectType)
	}
	if !StaffRoles[c.Role] {
		return Actor{}, fmt.Errorf("unknown staff role %q", c.Role)
	}
	return Actor{StaffID: id, Role: c.Role, TokenID: c.ID}, nil
}
