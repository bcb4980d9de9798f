package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
)

// ErrInvalidToken is returned for tokens that are malformed, expired or
// rejected by the issuer.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload issued by the user service. Tokens from the
// hosted auth service carry the user id in sub instead of user_id.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()),
	}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return domain.Identity{}, fmt.Errorf("%w: no user id claim", ErrInvalidToken)
	}
	return domain.Identity{UserID: userID, Email: claims.Email}, nil
}
