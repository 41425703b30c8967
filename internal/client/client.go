package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/judica-dev/judica/internal/models"
)

const (
	judgePath  = "/api/judge"
	exportPath = "/api/export"
)

// Client talks to a Judica server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Reply is a decoded judge response. Payload is the whole JSON body.
type Reply struct {
	Status  int
	OK      bool
	Error   string
	Detail  string
	Result  json.RawMessage
	Payload json.RawMessage
}

// HasResult reports whether the reply carries a usable result, using the
// same rule as the web form: a missing, null, false, 0 or "" result does not count.
func (r *Reply) HasResult() bool {
	trimmed := strings.TrimSpace(string(r.Result))
	switch trimmed {
	case "", "null", "false", "0", `""`:
		return false
	}
	var n float64
	if err := json.Unmarshal([]byte(trimmed), &n); err == nil {
		return n != 0
	}
	return true
}

// New creates a client for the server at baseURL. A nil httpClient uses
// http.DefaultClient, so no timeout beyond the transport's is applied.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Evaluate posts one petition to the judge endpoint. A non-2xx status is
// not an error; the returned Reply carries it. Errors are transport
// failures or a body that is not JSON.
func (c *Client) Evaluate(ctx context.Context, req models.EvaluationRequest) (*Reply, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	status, data, err := c.post(ctx, judgePath, body)
	if err != nil {
		return nil, err
	}

	var fields struct {
		Error  string          `json:"error"`
		Detail string          `json:"detail"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", status, err)
	}

	return &Reply{
		Status:  status,
		OK:      status >= 200 && status < 300,
		Error:   fields.Error,
		Detail:  fields.Detail,
		Result:  fields.Result,
		Payload: json.RawMessage(data),
	}, nil
}

// Export posts a result object to the export endpoint and returns the workbook
func (c *Client) Export(ctx context.Context, result json.RawMessage) ([]byte, error) {
	body, err := json.Marshal(map[string]json.RawMessage{"result": result})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	status, data, err := c.post(ctx, exportPath, body)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		var errResp models.ErrorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("export failed (status %d): %s", status, errResp.Error)
		}
		return nil, fmt.Errorf("export failed with status %d", status)
	}

	return data, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, data, nil
}
