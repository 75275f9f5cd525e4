package client

import (
	"context"
	"fmt"

	"github.com/terra-clan/academy-console/internal/models"
)

const templatesPath = "/api/admin/student-evaluation-templates"

// ListTemplates retrieves all evaluation templates
func (c *Client) ListTemplates(ctx context.Context) ([]models.Template, error) {
	resp, err := c.doRequest(ctx, "GET", templatesPath, nil, "")
	if err != nil {
		return nil, err
	}
	items, _, err := decodeList[models.Template](resp)
	return items, err
}

// CreateTemplate persists a new evaluation template
func (c *Client) CreateTemplate(ctx context.Context, t models.Template) (*models.Template, error) {
	resp, err := c.doJSON(ctx, "POST", templatesPath, t)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Template](resp)
}

// UpdateTemplate replaces a persisted evaluation template
func (c *Client) UpdateTemplate(ctx context.Context, id int64, t models.Template) (*models.Template, error) {
	resp, err := c.doJSON(ctx, "PUT", fmt.Sprintf("%s/%d", templatesPath, id), t)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Template](resp)
}

// DeleteTemplate removes an evaluation template
func (c *Client) DeleteTemplate(ctx context.Context, id int64) error {
	_, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("%s/%d", templatesPath, id), nil, "")
	return err
}
