package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/userdeck/userdeck/pkg/types"
)

// ListUsers fetches one page of accounts, optionally filtered by a name
// fragment.
func (c *Client) ListUsers(ctx context.Context, page, size int, name string) (types.Page[types.User], error) {
	query := map[string]string{
		"page": strconv.Itoa(page),
		"size": strconv.Itoa(size),
	}
	if name != "" {
		query["name"] = name
	}
	return Get[types.Page[types.User]](ctx, c, "/users", query)
}

// GetUser fetches one account by id
func (c *Client) GetUser(ctx context.Context, id uint) (types.User, error) {
	return Get[types.User](ctx, c, fmt.Sprintf("/user/%d", id), nil)
}

// CreateUser adds a new account
func (c *Client) CreateUser(ctx context.Context, input types.UserInput) (types.User, error) {
	return Post[types.User](ctx, c, "/user", input)
}

// UpdateUser rewrites an account's writable fields
func (c *Client) UpdateUser(ctx context.Context, id uint, input types.UserInput) (types.User, error) {
	return Put[types.User](ctx, c, fmt.Sprintf("/user/%d", id), input)
}

// DeleteUser removes an account
func (c *Client) DeleteUser(ctx context.Context, id uint) (types.DeleteResult, error) {
	return Delete[types.DeleteResult](ctx, c, fmt.Sprintf("/user/%d", id), nil)
}

// Health probes the backend health endpoint
func (c *Client) Health(ctx context.Context) error {
	_, err := Get[map[string]interface{}](ctx, c, "/health", nil)
	return err
}
