package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"loom/internal/config"
	"loom/internal/types"
)

const defaultBaseURL = "http://127.0.0.1:8700"

type Client struct {
	baseURL   string
	tokenPath string
	token     string
	http      *http.Client
}

func New() (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	tokenPath, err := config.TokenPath()
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   cfg.ServerBaseURL(),
		tokenPath: tokenPath,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	_ = c.loadToken()
	return c, nil
}

func NewWithBaseURL(baseURL, token string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]*types.PipelineSession, error) {
	var resp SessionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/pipeline/sessions", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*types.PipelineSession, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("session id is required")
	}
	var session types.PipelineSession
	if err := c.doJSON(ctx, http.MethodGet, "/v1/pipeline/sessions/"+id, nil, true, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) StartPipeline(ctx context.Context, req StartPipelineRequest) (*types.PipelineSession, error) {
	var session types.PipelineSession
	if err := c.doJSON(ctx, http.MethodPost, "/v1/pipeline/sessions", req, true, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SendMessage delivers free-form user input outside of a gate, for example
// an answer typed during the onboarding conversation.
func (c *Client) SendMessage(ctx context.Context, id, message string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("session id is required")
	}
	req := SendMessageRequest{Message: message}
	return c.doJSON(ctx, http.MethodPost, "/v1/pipeline/sessions/"+id+"/messages", req, true, nil)
}

// RespondToGate submits a gate response. The boolean reports whether the
// server accepted the response; a rejected response is not an error.
func (c *Client) RespondToGate(ctx context.Context, id string, response types.GateResponse) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, errors.New("session id is required")
	}
	var resp GateResponseResult
	path := "/v1/pipeline/sessions/" + id + "/gate"
	if err := c.doJSON(ctx, http.MethodPost, path, response, true, &resp); err != nil {
		if apiErr := AsAPIError(err); apiErr != nil && apiErr.StatusCode == http.StatusConflict {
			return false, nil
		}
		return false, err
	}
	return resp.Accepted, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, requireAuth bool, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requireAuth {
		if err := c.ensureToken(); err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	httpClient := c.http
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) ensureToken() error {
	if strings.TrimSpace(c.token) == "" {
		if err := c.loadToken(); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.token) == "" {
		return errors.New("token not found; run loom login or place a token at ~/.loom/token")
	}
	return nil
}

func (c *Client) loadToken() error {
	if c.tokenPath == "" {
		return nil
	}
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.token = ""
			return nil
		}
		return err
	}
	c.token = strings.TrimSpace(string(data))
	return nil
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error string `json:"error"`
	}
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	if payload.Error != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
