package client

import (
	"context"
	"fmt"
)

// ListSoldierIntakes retrieves a page of intake records
func (c *Client) ListSoldierIntakes(ctx context.Context, opts ListOptions) ([]SoldierIntake, Page, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/admin/soldier-intakes"+opts.query(), nil, "")
	if err != nil {
		return nil, Page{}, err
	}
	return decodeList[SoldierIntake](resp)
}

// GetSoldierIntake retrieves an intake record by ID
func (c *Client) GetSoldierIntake(ctx context.Context, id int64) (*SoldierIntake, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/admin/soldier-intakes/%d", id), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeOne[SoldierIntake](resp)
}

// UpdateSoldierIntake replaces an intake record
func (c *Client) UpdateSoldierIntake(ctx context.Context, id int64, in SoldierIntake) (*SoldierIntake, error) {
	resp, err := c.doJSON(ctx, "PUT", fmt.Sprintf("/api/admin/soldier-intakes/%d", id), in)
	if err != nil {
		return nil, err
	}
	return decodeOne[SoldierIntake](resp)
}

// DeleteSoldierIntake removes an intake record
func (c *Client) DeleteSoldierIntake(ctx context.Context, id int64) error {
	_, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("/api/admin/soldier-intakes/%d", id), nil, "")
	return err
}

// SoldierIntakeSummary retrieves aggregate intake counts
func (c *Client) SoldierIntakeSummary(ctx context.Context) (*IntakeSummary, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/admin/soldier-intakes-summary", nil, "")
	if err != nil {
		return nil, err
	}
	return decodeOne[IntakeSummary](resp)
}

// PublicIntakeStatus tells whether the public intake form is open.
// It needs no token.
func (c *Client) PublicIntakeStatus(ctx context.Context) (*IntakeStatus, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/public/soldier-intake/status", nil, "")
	if err != nil {
		return nil, err
	}
	status, err := decodeOne[IntakeStatus](resp)
	if err != nil {
		return nil, err
	}
	if status == nil {
		status = &IntakeStatus{}
	}
	return status, nil
}

// SetIntakeStatus opens or closes the public intake form
func (c *Client) SetIntakeStatus(ctx context.Context, open bool) (*IntakeStatus, error) {
	resp, err := c.doJSON(ctx, "PATCH", "/api/admin/soldier-intake/status", IntakeStatus{Open: open})
	if err != nil {
		return nil, err
	}
	status, err := decodeOne[IntakeStatus](resp)
	if err != nil {
		return nil, err
	}
	if status == nil {
		status = &IntakeStatus{Open: open}
	}
	return status, nil
}

// Ping checks that the API answers, using the public intake status endpoint
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/api/public/soldier-intake/status", nil, "")
	return err
}
