package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Page describes the pagination of a list response
type Page struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Envelope is the response shape of the academy API.
// Every field is optional: Data may be missing, in which case the whole body
// is the payload.
type Envelope struct {
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Total      *int            `json:"total"`
	Page       *int            `json:"page"`
	PageSize   *int            `json:"pageSize"`
	TotalPages *int            `json:"totalPages"`
}

// ListOptions are the common list filters
type ListOptions struct {
	Page     int
	PageSize int
	Search   string
	Filters  map[string]string
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(o.PageSize))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	for k, v := range o.Filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func parseEnvelope(body []byte) (Envelope, json.RawMessage) {
	var env Envelope
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return env, nil
	}
	if trimmed[0] == '{' {
		var top map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &top); err == nil {
			if _, ok := top["data"]; ok {
				_ = json.Unmarshal(trimmed, &env)
				return env, env.Data
			}
			if msg, ok := top["message"]; ok {
				_ = json.Unmarshal(msg, &env.Message)
			}
		}
	}
	return env, json.RawMessage(trimmed)
}

// decodeOne decodes a single object payload
func decodeOne[T any](body []byte) (*T, error) {
	_, data := parseEnvelope(body)
	if isNull(data) {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &out, nil
}

// decodeList decodes a list payload: a bare array, or an object holding the
// array under items, content, rows or results.
func decodeList[T any](body []byte) ([]T, Page, error) {
	env, data := parseEnvelope(body)

	items := []T{}
	var inner Envelope
	if !isNull(data) {
		raw := bytes.TrimSpace(data)
		if raw[0] == '{' {
			var wrapper map[string]json.RawMessage
			if err := json.Unmarshal(raw, &wrapper); err != nil {
				return nil, Page{}, fmt.Errorf("failed to unmarshal response: %w", err)
			}
			_ = json.Unmarshal(raw, &inner)
			raw = nil
			for _, key := range []string{"items", "content", "rows", "results", "data"} {
				if v, ok := wrapper[key]; ok {
					raw = v
					break
				}
			}
		}
		if !isNull(raw) {
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, Page{}, fmt.Errorf("failed to unmarshal list: %w", err)
			}
		}
	}

	page := Page{
		Total:      firstInt(env.Total, inner.Total, len(items)),
		Page:       firstInt(env.Page, inner.Page, 1),
		PageSize:   firstInt(env.PageSize, inner.PageSize, len(items)),
		TotalPages: firstInt(env.TotalPages, inner.TotalPages, 0),
	}
	if page.TotalPages == 0 {
		page.TotalPages = 1
		if page.PageSize > 0 {
			page.TotalPages = (page.Total + page.PageSize - 1) / page.PageSize
		}
		if page.TotalPages == 0 {
			page.TotalPages = 1
		}
	}

	return items, page, nil
}

// decodeMessage returns the envelope message of a body, if any
func decodeMessage(body []byte) string {
	env, _ := parseEnvelope(body)
	return env.Message
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func firstInt(a, b *int, fallback int) int {
	if a != nil {
		return *a
	}
	if b != nil {
		return *b
	}
	return fallback
}
