package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the member token payload. Tokens issued by the community site
// carry mb_* fields; tokens issued here carry user_id/nickname/level.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Level    int    `json:"level,omitempty"`
	// community site format
	MbID    string `json:"mb_id,omitempty"`
	MbName  string `json:"mb_name,omitempty"`
	MbLevel int    `json:"mb_level,omitempty"`
}

// GetUserID returns the user ID, checking both formats
func (c *Claims) GetUserID() string {
	if c.MbID != "" {
		return c.MbID
	}
	return c.UserID
}

// GetUserLevel returns the user level, checking both formats
func (c *Claims) GetUserLevel() int {
	if c.MbLevel != 0 {
		return c.MbLevel
	}
	return c.Level
}

// GetUserName returns the user name, checking both formats
func (c *Claims) GetUserName() string {
	if c.MbName != "" {
		return c.MbName
	}
	return c.Nickname
}

// Manager issues and verifies HMAC-signed member tokens
type Manager struct {
	secretKey []byte
	expiresIn time.Duration
	refreshIn time.Duration
}

// NewManager creates a Manager; expiresIn and refreshIn are in seconds
func NewManager(secret string, expiresIn, refreshIn int) *Manager {
	return &Manager{
		secretKey: []byte(secret),
		expiresIn: time.Duration(expiresIn) * time.Second,
		refreshIn: time.Duration(refreshIn) * time.Second,
	}
}

// GenerateAccessToken issues a short-lived token for a member
func (m *Manager) GenerateAccessToken(userID, nickname string, level int) (string, error) {
	return m.sign(&Claims{
		UserID:   userID,
		Nickname: nickname,
		Level:    level,
	}, m.expiresIn)
}

// GenerateRefreshToken issues a long-lived token carrying only the member ID
func (m *Manager) GenerateRefreshToken(userID string) (string, error) {
	return m.sign(&Claims{UserID: userID}, m.refreshIn)
}

func (m *Manager) sign(claims *Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   claims.GetUserID(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// VerifyToken parses and validates a token
func (m *Manager) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
