package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"canopy-realtime/domain"
)

// CookieName is the transport-level credential holder checked on upgrade.
const CookieName = "canopy-token"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// TokenMaker signs and validates the HS256 tokens used to authenticate
// websocket connections. The secret comes from configuration, never from
// the binary.
type TokenMaker struct {
	secret []byte
}

func NewTokenMaker(secret string) *TokenMaker {
	return &TokenMaker{secret: []byte(secret)}
}

// Generate creates a signed JWT for a specific user.
func (m *TokenMaker) Generate(user domain.User, duration time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID: user.ID,
		Name:   user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "canopy-realtime",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and validates the signature and expiration of a JWT string,
// returning the identity it carries.
func (m *TokenMaker) Validate(tokenString string) (domain.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return domain.User{}, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return domain.User{}, jwt.ErrTokenInvalidClaims
	}
	return domain.User{ID: claims.UserID, Name: claims.Name}, nil
}
