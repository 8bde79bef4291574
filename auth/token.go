package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

const issuer = "qleon"

// Claims defines the session data stored inside the JWT.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and checks session tokens with a shared secret.
type TokenIssuer struct {
	secret   []byte
	duration time.Duration
	clock    clockwork.Clock
}

func NewTokenIssuer(secret string, duration time.Duration, clock clockwork.Clock) TokenIssuer {
	return TokenIssuer{secret: []byte(secret), duration: duration, clock: clock}
}

// GenerateToken creates a signed HS256 JWT for a user.
func (i TokenIssuer) GenerateToken(userID, username string) (string, error) {
	now := i.clock.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ValidateToken parses a JWT string and checks its signature, issuer and expiration.
func (i TokenIssuer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
