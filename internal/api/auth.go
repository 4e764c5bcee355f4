package api

import (
	"context"
	"fmt"
	"net/url"

	"fintrack/internal/core"
)

// LoginResult is the auth service's response to a successful login or
// registration. Token may be empty on register: some deployments return only
// a confirmation message and expect a follow-up login.
type LoginResult struct {
	Token   string     `json:"token"`
	User    *core.User `json:"user,omitempty"`
	Message string     `json:"message,omitempty"`
}

// Login authenticates with an email or username plus password. The caller
// decides whether to persist the returned session.
func (c *Client) Login(ctx context.Context, emailOrUsername, password string) (LoginResult, error) {
	body := map[string]string{
		"emailOrUsername": emailOrUsername,
		"password":        password,
	}
	var result LoginResult
	if err := c.post(ctx, c.authURL+"/login", body, &result); err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	return result, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, email, password string) (LoginResult, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	var result LoginResult
	if err := c.post(ctx, c.authURL+"/register", body, &result); err != nil {
		return LoginResult{}, fmt.Errorf("register: %w", err)
	}
	return result, nil
}

// SearchUsers looks up users by (partial) username, used by the lend/borrow
// form to pick a counterparty.
func (c *Client) SearchUsers(ctx context.Context, username string) ([]core.User, error) {
	endpoint := c.authURL + "/users/search?username=" + url.QueryEscape(username)
	var users []core.User
	if err := c.get(ctx, endpoint, &users); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// Friends lists the authenticated user's friends.
func (c *Client) Friends(ctx context.Context) ([]core.User, error) {
	var friends []core.User
	if err := c.get(ctx, c.authURL+"/friends", &friends); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return friends, nil
}

// AddFriend links another user to the authenticated user's friend list.
func (c *Client) AddFriend(ctx context.Context, userID string) error {
	body := map[string]string{"friendId": userID}
	if err := c.post(ctx, c.authURL+"/friends", body, nil); err != nil {
		return fmt.Errorf("add friend: %w", err)
	}
	return nil
}
