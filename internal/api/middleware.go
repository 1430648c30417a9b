package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"peakform/coaching-platform/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextUserIDKey = "userID"
	ContextCapsKey   = "userCaps"
)

// jwtClaims defines the structure we expect in the JWT payload.
// Mirroring the structure used in authService.generateJWT
type jwtClaims struct {
	UserID       string   `json:"uid"`
	Capabilities []string `json:"caps"`
	jwt.RegisteredClaims
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}
		tokenString := parts[1]

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		if !token.Valid || claims.UserID == "" {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}

		caps := make(map[domain.Capability]bool, len(claims.Capabilities))
		for _, name := range claims.Capabilities {
			caps[domain.Capability(name)] = true
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextCapsKey, caps)
		c.Next()
	}
}

// RequireCapability creates middleware allowing only principals that carry at
// least one of the given capabilities. Must run AFTER AuthMiddleware.
func RequireCapability(required ...domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		caps, err := getCapsFromContext(c)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "User capabilities not found in context")
			return
		}

		for _, capability := range required {
			if caps[capability] {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, "Access denied: missing required capability")
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse(message))
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (primitive.ObjectID, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return primitive.NilObjectID, errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return primitive.NilObjectID, errors.New("invalid user ID type in context")
	}
	return primitive.ObjectIDFromHex(idStr)
}

func getCapsFromContext(c *gin.Context) (map[domain.Capability]bool, error) {
	capsRaw, exists := c.Get(ContextCapsKey)
	if !exists {
		return nil, errors.New("user capabilities not found in context")
	}
	caps, ok := capsRaw.(map[domain.Capability]bool)
	if !ok {
		return nil, errors.New("invalid user capability type in context")
	}
	return caps, nil
}
