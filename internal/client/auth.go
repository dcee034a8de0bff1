package client

import (
	"context"
	"net/http"
	"time"

	"github.com/example/storefront/internal/auth"
)

// Token is the login response of the backend.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        auth.User `json:"user"`
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*Token, error) {
	var tok Token
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{Username: username, Password: password}, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*Token, error) {
	var tok Token
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", credentials{Username: username, Email: email, Password: password}, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Me returns the profile of the account the current token belongs to.
func (c *Client) Me(ctx context.Context) (*auth.User, error) {
	var u auth.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
