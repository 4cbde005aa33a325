package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/emilythestrangee/campus-qa/backend/internal/logger"
)

const userIDKey = "user_id"

type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// NewToken signs an HS256 token identifying userID for ttl.
func NewToken(secret []byte, ttl time.Duration, userID int64, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseToken(secret []byte, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == 0 {
		return nil, errors.New("token carries no user")
	}
	return claims, nil
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func setIdentity(c *gin.Context, claims *Claims) {
	c.Set(userIDKey, claims.UserID)
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{UserID: logger.Ptr(claims.UserID)})
	c.Request = c.Request.WithContext(ctx)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's user id in the gin context.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		claims, err := ParseToken(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := bearerToken(c); tokenStr != "" {
			if claims, err := ParseToken(secret, tokenStr); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated caller, if any.
func UserID(c *gin.Context) (int64, bool) {
	raw, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	id, ok := raw.(int64)
	return id, ok
}

// SetUserID is used by tests and trusted internal callers to inject an identity.
func SetUserID(c *gin.Context, id int64) {
	c.Set(userIDKey, id)
}
