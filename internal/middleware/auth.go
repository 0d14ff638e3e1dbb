package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/pkg/jwt"
	"github.com/gin-gonic/gin"
)

// Context keys set by JWTAuth
const (
	ctxUserID   = "userID"
	ctxNickname = "nickname"
	ctxLevel    = "level"
)

// EditorLevel is the member level required to create and edit pages
const EditorLevel = 5

// JWTAuth JWT authentication middleware
func JWTAuth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "Missing or malformed authorization header", nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired", err)
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", err)
			}
			c.Abort()
			return
		}
		if claims.GetUserID() == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", common.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set(ctxUserID, claims.GetUserID())
		c.Set(ctxNickname, claims.GetUserName())
		c.Set(ctxLevel, claims.GetUserLevel())

		c.Next()
	}
}

// bearerToken reads "Authorization: Bearer <token>". Websocket clients
// cannot set headers and pass ?token= instead.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if c.IsWebsocket() {
			if token := c.Query("token"); token != "" {
				return token, true
			}
		}
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireLevel rejects members below minLevel. Use after JWTAuth.
func RequireLevel(minLevel int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserLevel(c) < minLevel {
			common.ErrorResponse(c, http.StatusForbidden, "편집 권한이 필요합니다", common.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return ""
	}
	if str, ok := userID.(string); ok {
		return str
	}
	return ""
}

// GetUserLevel extracts user level from context
func GetUserLevel(c *gin.Context) int {
	level, exists := c.Get(ctxLevel)
	if !exists {
		return 0
	}
	if lvl, ok := level.(int); ok {
		return lvl
	}
	return 0
}

// GetNickname extracts nickname from context
func GetNickname(c *gin.Context) string {
	nickname, exists := c.Get(ctxNickname)
	if !exists {
		return ""
	}
	if str, ok := nickname.(string); ok {
		return str
	}
	return ""
}
