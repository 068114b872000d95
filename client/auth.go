package client

import (
	"context"
	"net/http"

	"github.com/taskflowapp/taskflow/database"
)

// Login exchanges credentials for a token pair and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*database.User, error) {
	var resp struct {
		AccessToken  string        `json:"accessToken"`
		RefreshToken string        `json:"refreshToken"`
		User         database.User `json:"user"`
	}

	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &resp); err != nil {
		return nil, err
	}

	if err := c.tokens.SetTokens(resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*database.User, error) {
	var user database.User
	in := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout revokes the stored refresh token and clears the store.
func (c *Client) Logout(ctx context.Context) error {
	_, refresh := c.tokens.Tokens()
	if refresh != "" {
		in := map[string]string{"refreshToken": refresh}
		if err := c.do(ctx, http.MethodPost, "/auth/logout", in, nil); err != nil {
			return err
		}
	}
	return c.tokens.Clear()
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*database.User, error) {
	var user database.User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
