// Package auth verifies bearer access tokens and carries the caller's user id
// through the request context.
package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// Issuer is the iss claim of access tokens.
	Issuer = "todoc"
	// KeyID is the kid header of access tokens.
	KeyID = "v1"
	// AccessTokenDuration is the lifetime of tokens minted by GenerateAccessToken.
	AccessTokenDuration = 24 * time.Hour
)

// ErrUnauthenticated is returned for a missing, malformed or expired token.
var ErrUnauthenticated = errors.New("authentication required")

type contextKey int

// UserIDContextKey is the context key of the authenticated user id.
const UserIDContextKey contextKey = iota

// ClaimsMessage is the JWT payload of an access token. Subject is the user id.
type ClaimsMessage struct {
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an HS256 token for userID.
// 仅用于测试和开发环境，生产环境的签发不在本服务内。
func GenerateAccessToken(userID int32, expirationTime time.Time, secret []byte) (string, error) {
	claims := &ClaimsMessage{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   Issuer,
			Subject:  strconv.Itoa(int(userID)),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if !expirationTime.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expirationTime)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = KeyID
	return token.SignedString(secret)
}

// Authenticator verifies access tokens with a shared secret.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator for secret.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authenticate parses an "Authorization: Bearer <token>" header value and
// returns the user id in its subject.
func (a *Authenticator) Authenticate(authHeader string) (int32, error) {
	token, ok := extractBearerToken(authHeader)
	if !ok {
		return 0, ErrUnauthenticated
	}

	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if kid, ok := t.Header["kid"].(string); ok && kid != KeyID {
			return nil, errors.Errorf("unexpected kid %q", kid)
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return 0, errors.Wrap(ErrUnauthenticated, err.Error())
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 32)
	if err != nil || userID <= 0 {
		return 0, errors.Wrapf(ErrUnauthenticated, "invalid subject %q", claims.Subject)
	}
	return int32(userID), nil
}

func extractBearerToken(authHeader string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID int32) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// GetUserID returns the authenticated user id, or 0.
func GetUserID(ctx context.Context) int32 {
	userID, _ := ctx.Value(UserIDContextKey).(int32)
	return userID
}
