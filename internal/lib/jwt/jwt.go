package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const PurposePasswordReset = "password-reset"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongPurpose = errors.New("token issued for another purpose")
)

// UserClaims is the claim set of a session credential.
type UserClaims struct {
	UserID  int64  `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"isAdmin"`
	// Purpose is always empty for sessions; it is decoded only to reject
	// single-purpose tokens presented as a session.
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// ResetClaims is the claim set of a password-reset credential.
type ResetClaims struct {
	UserID  int64  `json:"userId"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func NewToken(claims UserClaims, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()

	claims.Purpose = ""
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	return sign(claims, secret)
}

// NewResetToken issues a password-reset credential. id becomes the jti claim and lets
// callers mark the token as used.
func NewResetToken(userID int64, email, id string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()

	claims := ResetClaims{
		UserID:  userID,
		Email:   email,
		Purpose: PurposePasswordReset,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return sign(claims, secret)
}

func ParseToken(tokenStr string, secret []byte) (*UserClaims, error) {
	const op = "jwt.ParseToken"

	claims := &UserClaims{}
	if err := parse(tokenStr, claims, secret); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if claims.Purpose != "" {
		return nil, fmt.Errorf("%s: %w", op, ErrWrongPurpose)
	}

	return claims, nil
}

func ParseResetToken(tokenStr string, secret []byte) (*ResetClaims, error) {
	const op = "jwt.ParseResetToken"

	claims := &ResetClaims{}
	if err := parse(tokenStr, claims, secret); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if claims.Purpose != PurposePasswordReset {
		return nil, fmt.Errorf("%s: %w", op, ErrWrongPurpose)
	}

	return claims, nil
}

func sign(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(secret)
}

func parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	if tokenStr == "" {
		return ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !parsed.Valid {
		return ErrInvalidToken
	}

	return nil
}
