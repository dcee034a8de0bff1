package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the profile the backend returns for an account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Blocked  bool   `json:"is_blocked"`
}

// Identity is the authenticated principal the client acts for.
// A nil *Identity means anonymous.
type Identity struct {
	UserID    string
	Username  string
	Email     string
	Role      string
	Token     string
	ExpiresAt time.Time
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Expired reports whether the access token is past its expiry at now.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// ParseIdentity reads the claims of an access token without checking the
// signature. The client never holds the signing key; the backend verifies
// every request it receives.
func ParseIdentity(tokenString string) (*Identity, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	id, err := claims.identity(tokenString)
	if err != nil {
		return nil, err
	}
	if id.Expired(time.Now()) {
		return nil, ErrExpiredToken
	}
	return id, nil
}

func (c *Claims) identity(token string) (*Identity, error) {
	userID := c.UserID
	if userID == "" {
		userID = c.Subject
	}
	if userID == "" || c.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	role := c.Role
	if role == "" {
		role = RoleUser
	}
	return &Identity{
		UserID:    userID,
		Username:  c.Username,
		Email:     c.Email,
		Role:      role,
		Token:     token,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
