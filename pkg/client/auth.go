package client

import (
	"context"
	"fmt"

	"github.com/terra-clan/academy-console/internal/models"
)

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	resp, err := c.doJSON(ctx, "POST", "/api/login", req)
	if err != nil {
		return nil, err
	}

	result, err := decodeOne[LoginResponse](resp)
	if err != nil {
		return nil, err
	}
	if result == nil || result.BearerToken() == "" {
		return nil, fmt.Errorf("login response carries no token")
	}
	return result, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	resp, err := c.doJSON(ctx, "POST", "/api/register", req)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.User](resp)
}

// Me returns the user owning the token in ctx
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/me", nil, "")
	if err != nil {
		return nil, err
	}
	return decodeOne[models.User](resp)
}
