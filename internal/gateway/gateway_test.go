package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdn/towerdesk/internal/agent"
	"github.com/minhdn/towerdesk/internal/auth"
	"github.com/minhdn/towerdesk/internal/catalog"
	"github.com/minhdn/towerdesk/internal/config"
	"github.com/minhdn/towerdesk/internal/llm"
	"github.com/minhdn/towerdesk/internal/logging"
	"github.com/minhdn/towerdesk/internal/store"
	"github.com/minhdn/towerdesk/internal/tenant"
)

// testGateway wires a full gateway over a seeded store and the given
// model client, behind the real middleware chain.
func testGateway(t *testing.T, client llm.Client) (*httptest.Server, *agent.Registry) {
	t.Helper()
	log := logging.New(nil, "silent")

	st, err := store.Open(t.TempDir(), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Seed(tenant.Bind(context.Background(), "buildingA")))

	verifier, err := auth.NewVerifier(config.AuthConfig{AllowUnverified: true}, log)
	require.NoError(t, err)

	registry := agent.NewRegistry(log)
	runner := agent.NewRunner(agent.RunnerConfig{MaxDispatches: 3}, client, catalog.New(st), registry, log)

	cfg := config.Defaults()
	s := New(cfg, verifier, registry, runner, log)

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	srv := httptest.NewServer(withMiddleware(mux, verifier, log, cfg.Gateway.AllowedOrigins))
	t.Cleanup(srv.Close)
	return srv, registry
}

// buildingToken mints an unsigned-mode token carrying a building claim.
func buildingToken(t *testing.T, building string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         "resident-1",
		"building_id": building,
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func postJSON(t *testing.T, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestChatAnonymous(t *testing.T) {
	client := &llm.MockClient{CompleteFunc: func(_ context.Context, req llm.Request) (*llm.Reply, error) {
		// No catalog is advertised without a building binding.
		if len(req.Tools) != 0 {
			return &llm.Reply{Text: "unexpected tools"}, nil
		}
		return &llm.Reply{Text: "Vui lòng đăng nhập để xem dữ liệu."}, nil
	}}
	srv, _ := testGateway(t, client)

	resp, body := postJSON(t, srv.URL+"/chat", "", map[string]any{"message": "giá phí?"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Vui lòng đăng nhập để xem dữ liệu.", body["response"])
	assert.NotEmpty(t, body["session_id"])
	assert.Empty(t, body["function_calls"])
}

func TestChatAuthenticatedDispatch(t *testing.T) {
	client := &llm.ScriptedClient{Replies: []*llm.Reply{
		{FunctionCall: &llm.FunctionCall{Name: "get_floors", Args: map[string]any{}}},
		{Text: "Toà nhà có 4 tầng."},
	}}
	srv, _ := testGateway(t, client)

	resp, body := postJSON(t, srv.URL+"/chat", buildingToken(t, "buildingA"), map[string]any{
		"message": "có bao nhiêu tầng?",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Toà nhà có 4 tầng.", body["response"])

	calls := body["function_calls"].([]any)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_floors", calls[0].(map[string]any)["function"])
}

func TestChatContinuesSession(t *testing.T) {
	client := &llm.MockClient{CompleteFunc: func(_ context.Context, req llm.Request) (*llm.Reply, error) {
		return &llm.Reply{Text: "ok"}, nil
	}}
	srv, registry := testGateway(t, client)
	token := buildingToken(t, "buildingA")

	_, first := postJSON(t, srv.URL+"/chat", token, map[string]any{"message": "một"})
	id := first["session_id"].(string)

	_, second := postJSON(t, srv.URL+"/chat", token, map[string]any{
		"message": "hai", "session_id": id,
	})
	assert.Equal(t, id, second["session_id"])

	sess, err := registry.Get(id)
	require.NoError(t, err)
	assert.Len(t, sess.History, 4)
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	srv, _ := testGateway(t, &llm.MockClient{})

	resp, body := postJSON(t, srv.URL+"/chat", "", map[string]any{"message": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestChatModelMisbehaviorAnsweredNotErrored(t *testing.T) {
	// The model asks for an operation that does not exist; the caller
	// still gets a 200 with a fallback answer, not a 500.
	client := &llm.ScriptedClient{Replies: []*llm.Reply{
		{FunctionCall: &llm.FunctionCall{Name: "open_the_doors", Args: map[string]any{}}},
	}}
	srv, registry := testGateway(t, client)

	resp, body := postJSON(t, srv.URL+"/chat", buildingToken(t, "buildingA"), map[string]any{
		"message": "mở cửa",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "open_the_doors")
	assert.Contains(t, body["response"], "Xin lỗi")
	assert.Empty(t, body["function_calls"])

	// The transcript closes with an answer, no dangling user entry.
	sess, err := registry.Get(body["session_id"].(string))
	require.NoError(t, err)
	require.Len(t, sess.History, 2)
}

func TestChatBadCredentialDegradesToAnonymous(t *testing.T) {
	client := &llm.MockClient{CompleteFunc: func(_ context.Context, req llm.Request) (*llm.Reply, error) {
		return &llm.Reply{Text: "anon"}, nil
	}}
	srv, registry := testGateway(t, client)

	resp, body := postJSON(t, srv.URL+"/chat", "not.a.token", map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	sess, err := registry.Get(body["session_id"].(string))
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}

func TestSessionNew(t *testing.T) {
	srv, _ := testGateway(t, &llm.MockClient{})

	_, body := postJSON(t, srv.URL+"/session/new", buildingToken(t, "buildingA"), map[string]any{})
	assert.Equal(t, "buildingA", body["building_id"])
	assert.Equal(t, true, body["is_authenticated"])
	assert.NotEmpty(t, body["session_id"])
}

func TestSessionDeleteAndReset(t *testing.T) {
	srv, registry := testGateway(t, &llm.MockClient{})
	sess := registry.Create("buildingA")

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/session/"+sess.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Gone now: reset and delete both 404.
	resetResp, body := postJSON(t, srv.URL+"/session/"+sess.ID+"/reset", "", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resetResp.StatusCode)
	assert.Equal(t, "Session not found", body["error"])
}

func TestSessionListAndHealth(t *testing.T) {
	srv, registry := testGateway(t, &llm.MockClient{})
	registry.Create("buildingA")
	registry.Create("")

	resp, err := http.Get(srv.URL + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	var listing map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	assert.EqualValues(t, 2, listing["total_sessions"])

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	var status map[string]any
	require.NoError(t, json.NewDecoder(health.Body).Decode(&status))
	assert.Equal(t, "healthy", status["status"])
	assert.EqualValues(t, 2, status["active_sessions"])
}

func TestIndexBanner(t *testing.T) {
	srv, _ := testGateway(t, &llm.MockClient{})
	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["message"], "chung cư")
}

func TestRequestIDHeader(t *testing.T) {
	srv, _ := testGateway(t, &llm.MockClient{})
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestWebSocketChat(t *testing.T) {
	client := &llm.ScriptedClient{Replies: []*llm.Reply{
		{FunctionCall: &llm.FunctionCall{Name: "get_floors", Args: map[string]any{}}},
		{Text: "4 tầng."},
	}}
	srv, _ := testGateway(t, client)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{"Authorization": {"Bearer " + buildingToken(t, "buildingA")}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "chat", "message": "tầng?"}))

	var reply map[string]any
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "response", reply["type"])
	assert.Equal(t, true, reply["success"])
	assert.Equal(t, "4 tầng.", reply["response"])

	// Unknown frame types are answered, not dropped.
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "bogus"}))
	var errFrame map[string]any
	require.NoError(t, conn.ReadJSON(&errFrame))
	assert.Equal(t, "error", errFrame["type"])
}
