package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient is a direct HTTP client for the Gemini generateContent API.
type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiClient creates a Gemini API client for the given model.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// SetBaseURL overrides the API endpoint (used by tests).
func (g *GeminiClient) SetBaseURL(u string) {
	g.baseURL = u
}

// Name returns the provider name.
func (g *GeminiClient) Name() string {
	return "gemini"
}

// Complete sends the conversation and returns the model's reply.
func (g *GeminiClient) Complete(ctx context.Context, req Request) (*Reply, error) {
	payload, err := json.Marshal(g.buildRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("marshalling request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.baseURL, g.model, url.QueryEscape(g.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	var result geminiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return result.toReply(), nil
}

func (g *GeminiClient) buildRequestBody(req Request) map[string]any {
	contents := make([]map[string]any, 0, len(req.Messages))
	for _, msg := range req.Messages {
		var part map[string]any
		switch {
		case msg.FunctionCall != nil:
			part = map[string]any{"functionCall": map[string]any{
				"name": msg.FunctionCall.Name,
				"args": msg.FunctionCall.Args,
			}}
		case msg.FunctionResponse != nil:
			part = map[string]any{"functionResponse": map[string]any{
				"name":     msg.FunctionResponse.Name,
				"response": msg.FunctionResponse.Response,
			}}
		default:
			part = map[string]any{"text": msg.Text}
		}
		contents = append(contents, map[string]any{
			"role":  msg.Role,
			"parts": []map[string]any{part},
		})
	}

	body := map[string]any{"contents": contents}

	if req.System != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{{"text": req.System}},
		}
	}

	if len(req.Tools) > 0 {
		decls := make([]map[string]any, len(req.Tools))
		for i, t := range req.Tools {
			decls[i] = map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			}
		}
		body["tools"] = []map[string]any{{"functionDeclarations": decls}}
	}

	return body
}

// API response structures

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
			Role  string       `json:"role"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

type geminiPart struct {
	Text         string `json:"text,omitempty"`
	FunctionCall *struct {
		Name string         `json:"name"`
		Args map[string]any `json:"args"`
	} `json:"functionCall,omitempty"`
}

func (r *geminiResponse) toReply() *Reply {
	reply := &Reply{}
	if len(r.Candidates) == 0 {
		return reply
	}
	for _, part := range r.Candidates[0].Content.Parts {
		if part.Text != "" {
			reply.Text += part.Text
		}
		if part.FunctionCall != nil && reply.FunctionCall == nil {
			reply.FunctionCall = &FunctionCall{
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			}
		}
	}
	return reply
}
