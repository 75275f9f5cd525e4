package client

import (
	"context"
	"fmt"
	"io"
	"mime"
)

// ListStudentEvaluations retrieves a page of student evaluations
func (c *Client) ListStudentEvaluations(ctx context.Context, opts ListOptions) ([]StudentEvaluation, Page, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/student-evaluations"+opts.query(), nil, "")
	if err != nil {
		return nil, Page{}, err
	}
	return decodeList[StudentEvaluation](resp)
}

// GetStudentEvaluation retrieves a student evaluation by ID
func (c *Client) GetStudentEvaluation(ctx context.Context, id int64) (*StudentEvaluation, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/student-evaluations/%d", id), nil, "")
	if err != nil {
		return nil, err
	}
	return decodeOne[StudentEvaluation](resp)
}

// UpdateStudentEvaluation replaces a student evaluation
func (c *Client) UpdateStudentEvaluation(ctx context.Context, id int64, ev StudentEvaluation) (*StudentEvaluation, error) {
	resp, err := c.doJSON(ctx, "PUT", fmt.Sprintf("/api/student-evaluations/%d", id), ev)
	if err != nil {
		return nil, err
	}
	return decodeOne[StudentEvaluation](resp)
}

// DeleteStudentEvaluation removes a student evaluation
func (c *Client) DeleteStudentEvaluation(ctx context.Context, id int64) error {
	_, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("/api/student-evaluations/%d", id), nil, "")
	return err
}

// ListEvaluations retrieves a page of service evaluations
func (c *Client) ListEvaluations(ctx context.Context, opts ListOptions) ([]Evaluation, Page, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/evaluations"+opts.query(), nil, "")
	if err != nil {
		return nil, Page{}, err
	}
	return decodeList[Evaluation](resp)
}

// ImportEvaluations uploads a spreadsheet of service evaluations
func (c *Client) ImportEvaluations(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	body, contentType, err := multipartBody("file", filename, r)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, "POST", "/api/evaluations/import", body, contentType)
	if err != nil {
		return nil, err
	}

	result, err := decodeOne[ImportResult](resp)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &ImportResult{}
	}
	if result.Message == "" {
		result.Message = decodeMessage(resp)
	}
	return result, nil
}

// Download is a streamed file response. The caller closes Body.
type Download struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
}

// DownloadEvaluationTemplate streams the blank import spreadsheet
func (c *Client) DownloadEvaluationTemplate(ctx context.Context) (*Download, error) {
	resp, err := c.send(ctx, "GET", "/api/evaluations/template/download", nil, "")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, newAPIError(resp.StatusCode, body)
	}

	filename := "evaluation-template.xlsx"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if name := params["filename"]; name != "" {
			filename = name
		}
	}

	return &Download{
		Body:        resp.Body,
		Filename:    filename,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
