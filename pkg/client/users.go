package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/terra-clan/academy-console/internal/models"
)

// ListUsers retrieves a page of users
func (c *Client) ListUsers(ctx context.Context, opts ListOptions) ([]models.User, Page, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/admin/users"+opts.query(), nil, "")
	if err != nil {
		return nil, Page{}, err
	}
	return decodeList[models.User](resp)
}

// CreateUser creates a user
func (c *Client) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	resp, err := c.doJSON(ctx, "POST", "/api/admin/users", in)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.User](resp)
}

// GetUser retrieves a user by ID
func (c *Client) GetUser(ctx context.Context, id int64) (*models.User, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/admin/users/%d", id), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeOne[models.User](resp)
}

// UpdateUser replaces a user's editable fields
func (c *Client) UpdateUser(ctx context.Context, id int64, in UserInput) (*models.User, error) {
	resp, err := c.doJSON(ctx, "PUT", fmt.Sprintf("/api/admin/users/%d", id), in)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.User](resp)
}

// DeactivateUser disables a user account
func (c *Client) DeactivateUser(ctx context.Context, id int64) error {
	_, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("/api/admin/users/deactivate/%d", id), nil, "")
	return err
}

// ActivateUser re-enables a user account
func (c *Client) ActivateUser(ctx context.Context, id int64) error {
	_, err := c.doRequest(ctx, "PATCH", fmt.Sprintf("/api/admin/users/activate/%d", id), nil, "")
	return err
}

// UploadAvatar uploads a profile picture and returns the updated user
func (c *Client) UploadAvatar(ctx context.Context, id int64, filename string, r io.Reader) (*models.User, error) {
	body, contentType, err := multipartBody("file", filename, r)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/admin/users/%d/avatar", id), body, contentType)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.User](resp)
}

// multipartBody wraps r as a single-file multipart form
func multipartBody(field, filename string, r io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}
