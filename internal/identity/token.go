package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"portal/authgate/internal/model"
)

// SessionClaims is the claim set embedded in provider access tokens.
type SessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionFromToken builds a Session from a provider access token.
// Signature and issuer are verified; expiry is NOT enforced here so
// the validator can apply its own grace-window rule.
func SessionFromToken(secret, issuer, tokenString string) (*model.Session, error) {
	claims := &SessionClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, model.NewFault(model.FaultInvalid, err)
	}
	if !token.Valid {
		return nil, model.NewFault(model.FaultInvalid, jwt.ErrTokenInvalidClaims)
	}
	if issuer != "" {
		if iss, issErr := claims.GetIssuer(); issErr != nil || iss != issuer {
			return nil, model.NewFault(model.FaultInvalid, jwt.ErrTokenInvalidIssuer)
		}
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}

	session := &model.Session{
		UserID:      userID,
		AccessToken: tokenString,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// NewSessionToken mints an access token for a session. Production
// tokens come from the provider; this exists for fixtures and the dev
// sign-in flow.
func NewSessionToken(secret, issuer, userID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
