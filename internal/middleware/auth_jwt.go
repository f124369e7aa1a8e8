package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims identifies a requester. The subject becomes the job requester id.
type TokenClaims struct {
	Locale string `json:"locale,omitempty"`
	jwt.RegisteredClaims
}

type userKey string

const (
	userIDKey userKey = "user_id"
)

var ErrInvalidToken = errors.New("invalid token")

// SignJWT issues an HS256 token. Callers set ExpiresAt; tokens without it never expire.
func SignJWT(secret string, claims TokenClaims) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret is required")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyJWT parses token and checks its signature and time claims.
func VerifyJWT(secret, token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(5*time.Second))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// AuthJWT requires a bearer token signed with secret and stores its subject and
// locale on the request context.
func AuthJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing authorization")
				return
			}
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				unauthorized(w, "invalid authorization")
				return
			}
			claims, err := VerifyJWT(secret, strings.TrimSpace(token))
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			ctx := ContextWithUserID(r.Context(), claims.Subject)
			if locale := normalizeLocale(claims.Locale); locale != "" {
				ctx = context.WithValue(ctx, LocaleKey, locale)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "unauthorized", "message": msg},
	})
}

func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}
