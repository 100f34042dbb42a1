package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geminiTestServer(t *testing.T, respond any, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(respond))
	}))
}

func TestGeminiCompleteText(t *testing.T) {
	resp := map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": "Xin chào!"}},
			},
			"finishReason": "STOP",
		}},
	}

	var captured map[string]any
	srv := geminiTestServer(t, resp, &captured)
	defer srv.Close()

	c := NewGeminiClient("test-key", "gemini-2.5-flash")
	c.SetBaseURL(srv.URL)

	reply, err := c.Complete(context.Background(), Request{
		System: "system prompt",
		Messages: []Message{
			{Role: RoleUser, Text: "chào bạn"},
		},
		Tools: []Declaration{{
			Name:        "get_floors",
			Description: "floors",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Xin chào!", reply.Text)
	assert.Nil(t, reply.FunctionCall)

	// Request wire shape: systemInstruction, contents, one tools entry.
	assert.Contains(t, captured, "systemInstruction")
	tools := captured["tools"].([]any)
	require.Len(t, tools, 1)
	decls := tools[0].(map[string]any)["functionDeclarations"].([]any)
	require.Len(t, decls, 1)
	assert.Equal(t, "get_floors", decls[0].(map[string]any)["name"])
}

func TestGeminiCompleteFunctionCall(t *testing.T) {
	resp := map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role": "model",
				"parts": []any{map[string]any{
					"functionCall": map[string]any{
						"name": "calculate_service_fee",
						"args": map[string]any{"service_code": "MGMT_FEE", "quantity": 80},
					},
				}},
			},
		}},
	}

	srv := geminiTestServer(t, resp, nil)
	defer srv.Close()

	c := NewGeminiClient("test-key", "gemini-2.5-flash")
	c.SetBaseURL(srv.URL)

	reply, err := c.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Text: "tính phí"}},
	})
	require.NoError(t, err)
	require.NotNil(t, reply.FunctionCall)
	assert.Equal(t, "calculate_service_fee", reply.FunctionCall.Name)
	assert.Equal(t, "MGMT_FEE", reply.FunctionCall.Args["service_code"])
}

func TestGeminiAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewGeminiClient("test-key", "gemini-2.5-flash")
	c.SetBaseURL(srv.URL)

	_, err := c.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Text: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGeminiFunctionResponseOnWire(t *testing.T) {
	resp := map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": "done"}},
			},
		}},
	}

	var captured map[string]any
	srv := geminiTestServer(t, resp, &captured)
	defer srv.Close()

	c := NewGeminiClient("test-key", "gemini-2.5-flash")
	c.SetBaseURL(srv.URL)

	_, err := c.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleUser, Text: "tính phí"},
			{Role: RoleModel, FunctionCall: &FunctionCall{
				Name: "get_floors", Args: map[string]any{},
			}},
			{Role: RoleUser, FunctionResponse: &FunctionResponse{
				Name:     "get_floors",
				Response: map[string]any{"result": map[string]any{"success": true}},
			}},
		},
	})
	require.NoError(t, err)

	contents := captured["contents"].([]any)
	require.Len(t, contents, 3)
	parts := contents[2].(map[string]any)["parts"].([]any)
	fr := parts[0].(map[string]any)["functionResponse"].(map[string]any)
	assert.Equal(t, "get_floors", fr["name"])
}
