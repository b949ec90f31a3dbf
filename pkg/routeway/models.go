package routeway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ListModels returns the models available through the API.
func (c *Client) ListModels(ctx context.Context) (*ModelList, error) {
	var list ModelList
	if err := c.getJSON(ctx, "models", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetModel retrieves a single model by identifier.
func (c *Client) GetModel(ctx context.Context, id string) (*Model, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "model", Message: "must be non-empty"}
	}

	var model Model
	if err := c.getJSON(ctx, "models/"+url.PathEscape(id), &model); err != nil {
		return nil, err
	}
	return &model, nil
}

// getJSON performs a GET through the retry layer and decodes the 2xx
// body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Message: "failed to read response body", Cause: err}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &DecodeError{
			Message: "malformed response",
			Raw:     truncate(string(raw), 512),
			Cause:   err,
		}
	}

	return nil
}
