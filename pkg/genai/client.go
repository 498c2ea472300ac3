package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/gemobotics/gemo/internal/config"
	"github.com/gemobotics/gemo/internal/httpc"
	"github.com/gemobotics/gemo/pkg/command"
)

const (
	devEndpoint    = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
	vertexEndpoint = "https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent"

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// Client performs one-shot command requests against the Gemini REST
// API. It supports the developer API (key in query string) and Vertex
// AI (application default credentials).
type Client struct {
	creds  config.Credentials
	http   *http.Client
	tokens oauth2.TokenSource

	// baseURL overrides the endpoint, used by tests.
	baseURL string
}

// NewClient builds a client from resolved credentials. For Vertex,
// application default credentials must be available.
func NewClient(creds config.Credentials) (*Client, error) {
	c := &Client{
		creds: creds,
		http:  httpc.Client,
	}
	if creds.Vertex() {
		ts, err := google.DefaultTokenSource(context.Background(), cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("genai: vertex credentials: %w", err)
		}
		c.tokens = ts
	}
	return c, nil
}

// RequestCommand sends one JPEG frame and asks the model for a driving
// decision. A (nil, nil) return means the model answered without a
// tool call; the caller's policy turns that into the safe default.
func (c *Client) RequestCommand(ctx context.Context, model string, jpeg []byte) (*command.RawCall, error) {
	payload := map[string]any{
		"contents": []map[string]any{
			{
				"parts": []map[string]any{
					{"text": BasePrompt},
					{"inline_data": map[string]string{
						"mime_type": "image/jpeg",
						"data":      base64.StdEncoding.EncodeToString(jpeg),
					}},
				},
			},
		},
		"tools": []map[string]any{
			{"function_declarations": toolDeclarations()},
		},
		"generationConfig": map[string]any{
			"temperature":    0.2,
			"thinkingConfig": map[string]any{"thinkingBudget": thinkingBudget(model)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("genai: encode request: %w", err)
	}

	req, err := c.newRequest(ctx, model, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genai: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("genai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode, respBody)
	}
	return parseToolCall(respBody)
}

func (c *Client) newRequest(ctx context.Context, model string, body []byte) (*http.Request, error) {
	url := c.endpoint(model)
	if !c.creds.Vertex() && c.baseURL == "" {
		url += "?key=" + c.creds.APIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("genai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, &FatalError{Status: 401, Body: err.Error()}
		}
		tok.SetAuthHeader(req)
	}
	return req, nil
}

func (c *Client) endpoint(model string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	if c.creds.Vertex() {
		return fmt.Sprintf(vertexEndpoint,
			c.creds.VertexLocation, c.creds.VertexProject, c.creds.VertexLocation, model)
	}
	return fmt.Sprintf(devEndpoint, model)
}

// thinkingBudget disables thinking for flash-class models; the pro
// model gets a small budget, matching its minimum.
func thinkingBudget(model string) int {
	if model == "gemini-3-pro-preview" {
		return 128
	}
	return 0
}

// parseToolCall extracts the first function call from a
// generateContent response. Absent or text-only responses yield nil.
func parseToolCall(body []byte) (*command.RawCall, error) {
	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					FunctionCall *struct {
						Name string         `json:"name"`
						Args map[string]any `json:"args"`
					} `json:"functionCall"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("genai: decode response: %w (body: %s)", err, truncate(string(body), 200))
	}

	for _, cand := range result.Candidates {
		for _, part := range cand.Content.Parts {
			if part.FunctionCall != nil {
				return &command.RawCall{
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				}, nil
			}
		}
	}
	return nil, nil
}
