package client

import (
	"context"
	"fmt"
)

// Resource is a standard CRUD collection under a base path
type Resource[T any] struct {
	c        *Client
	basePath string
}

// NewResource binds a CRUD collection to basePath, e.g. "/api/tasks"
func NewResource[T any](c *Client, basePath string) *Resource[T] {
	return &Resource[T]{c: c, basePath: basePath}
}

// Tasks is the /api/tasks collection
func (c *Client) Tasks() *Resource[Task] {
	return NewResource[Task](c, "/api/tasks")
}

// Notifications is the /api/notifications collection
func (c *Client) Notifications() *Resource[Notification] {
	return NewResource[Notification](c, "/api/notifications")
}

// Leaves is the /api/leaves collection
func (c *Client) Leaves() *Resource[Leave] {
	return NewResource[Leave](c, "/api/leaves")
}

// TrainingReports is the /api/training-reports collection
func (c *Client) TrainingReports() *Resource[TrainingReport] {
	return NewResource[TrainingReport](c, "/api/training-reports")
}

// List retrieves a page of the collection
func (r *Resource[T]) List(ctx context.Context, opts ListOptions) ([]T, Page, error) {
	resp, err := r.c.doRequest(ctx, "GET", r.basePath+opts.query(), nil, "")
	if err != nil {
		return nil, Page{}, err
	}
	return decodeList[T](resp)
}

// Get retrieves one item
func (r *Resource[T]) Get(ctx context.Context, id int64) (*T, error) {
	resp, err := r.c.doRequest(ctx, "GET", fmt.Sprintf("%s/%d", r.basePath, id), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeOne[T](resp)
}

// Create adds an item
func (r *Resource[T]) Create(ctx context.Context, item T) (*T, error) {
	resp, err := r.c.doJSON(ctx, "POST", r.basePath, item)
	if err != nil {
		return nil, err
	}
	return decodeOne[T](resp)
}

// Update replaces an item
func (r *Resource[T]) Update(ctx context.Context, id int64, item T) (*T, error) {
	resp, err := r.c.doJSON(ctx, "PUT", fmt.Sprintf("%s/%d", r.basePath, id), item)
	if err != nil {
		return nil, err
	}
	return decodeOne[T](resp)
}

// Delete removes an item
func (r *Resource[T]) Delete(ctx context.Context, id int64) error {
	_, err := r.c.doRequest(ctx, "DELETE", fmt.Sprintf("%s/%d", r.basePath, id), nil, "")
	return err
}
