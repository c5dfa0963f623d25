package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey      contextKey = "user_id"
	TokenIDKey     contextKey = "token_id"
	TokenExpiryKey contextKey = "token_expiry"
)

// RevocationList reports whether a token id was revoked by logout.
type RevocationList interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type JWTAuth struct {
	Secret  []byte
	TTL     time.Duration
	Revoked RevocationList
}

func NewJWTAuth(secret string, ttl time.Duration, revoked RevocationList) *JWTAuth {
	return &JWTAuth{Secret: []byte(secret), TTL: ttl, Revoked: revoked}
}

// Claims carried by every access token.
type Claims struct {
	UserID uuid.UUID
	Role   string
	JTI    string
	Expiry time.Time
}

// GenerateToken signs an HS256 token carrying user_id, role and a unique jti.
func (j *JWTAuth) GenerateToken(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"jti":     uuid.NewString(),
		"exp":     now.Add(j.TTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Secret)
}

// ParseToken verifies the signature and expiry of tokenStr and returns its claims.
func (j *JWTAuth) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return j.Secret, nil
	})
	if err != nil {
		return nil, err
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	userIDStr, _ := mc["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, jwt.ErrTokenInvalidClaims
	}

	claims := &Claims{UserID: userID}
	claims.Role, _ = mc["role"].(string)
	claims.JTI, _ = mc["jti"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.Expiry = exp.Time
	}
	return claims, nil
}

// Middleware validates the bearer token and attaches user_id, jti and expiry to the context.
func (j *JWTAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header", r)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization format", r)
			return
		}

		claims, err := j.ParseToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token has expired", r)
			} else {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token", r)
			}
			return
		}

		if j.Revoked != nil && claims.JTI != "" {
			revoked, err := j.Revoked.IsRevoked(r.Context(), claims.JTI)
			if err != nil {
				// Fail open: the token signature is still valid.
				log.Printf("revocation check failed: %v", err)
			}
			if revoked {
				writeError(w, http.StatusUnauthorized, "TOKEN_REVOKED", "Token has been revoked", r)
				return
			}
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, TokenIDKey, claims.JTI)
		ctx = context.WithValue(ctx, TokenExpiryKey, claims.Expiry)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts user_id from request context
func GetUserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return id
}

// GetTokenID returns the jti and expiry of the token that authenticated the request.
func GetTokenID(ctx context.Context) (string, time.Time) {
	jti, _ := ctx.Value(TokenIDKey).(string)
	exp, _ := ctx.Value(TokenExpiryKey).(time.Time)
	return jti, exp
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	requestID := GetRequestID(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
		},
	})
}
