package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/angel-problem/api"
	"github.com/wricardo/angel-problem/game/config"
	"github.com/wricardo/angel-problem/game/engine"
	"github.com/wricardo/angel-problem/game/service"
	"github.com/wricardo/angel-problem/game/session"
)

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL + "/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}
	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type on request with body")
		}
		var body map[string]int
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"echo_x": body["x"], "path": r.URL.Path})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "POST", "/api/echo", map[string]int{"x": 7}, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["echo_x"].(float64) != 7 || response["path"] != "/api/echo" {
		t.Errorf("Unexpected response: %v", response)
	}
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable server", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
			t.Error("Expected error for unreachable server")
		}
	})

	t.Run("plain HTTP error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || !strings.Contains(err.Error(), "API error") {
			t.Errorf("Expected 'API error', got: %v", err)
		}
	})

	t.Run("JSON error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session zz: session not found"})
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		if err == nil || err.Error() != "session zz: session not found" {
			t.Errorf("Expected server error message, got: %v", err)
		}
	})
}

func TestIntArg(t *testing.T) {
	args := map[string]interface{}{
		"f": float64(-3),
		"i": 4,
		"n": json.Number("12"),
		"s": "5",
		"b": true,
	}

	tests := []struct {
		key    string
		want   int
		wantOK bool
	}{
		{"f", -3, true},
		{"i", 4, true},
		{"n", 12, true},
		{"s", 5, true},
		{"b", 0, false},
		{"missing", 0, false},
	}

	for _, tt := range tests {
		got, ok := intArg(args, tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("intArg(%q) = %d, %v; want %d, %v", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestClient_handleCreateSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}

		var opts service.CreateSessionOptions
		json.NewDecoder(r.Body).Decode(&opts)
		if opts.Preset != "blitz" || opts.Mode != engine.HumanVsAI || opts.Power != 3 {
			t.Errorf("Unexpected create options: %+v", opts)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.SessionInfo{
			ID:     "ab12",
			Preset: "blitz",
			State:  &engine.Snapshot{Power: 3, Turn: engine.TurnDemon, Mode: engine.HumanVsAI},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), callRequest("create_session", map[string]interface{}{
		"preset": "blitz",
		"mode":   "human_vs_ai",
		"power":  float64(3),
	}))
	if err != nil {
		t.Fatalf("handleCreateSession failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Created session: ab12") || !strings.Contains(text, "Preset: blitz") {
		t.Errorf("Unexpected result: %s", text)
	}
}

func TestClient_cellActionValidation(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing session", map[string]interface{}{"x": float64(1), "y": float64(0)}, "session_id is required"},
		{"missing y", map[string]interface{}{"session_id": "ab12", "x": float64(1)}, "x and y are required"},
		{"nil arguments", nil, "session_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := client.handlePlaceRoadblock(context.Background(), callRequest("place_roadblock", tt.args))
			if err != nil {
				t.Fatalf("Unexpected Go error: %v", err)
			}
			if !result.IsError {
				t.Error("Expected tool error result")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("Expected %q, got %q", tt.want, text)
			}
		})
	}
}

func TestFormatGameState(t *testing.T) {
	state := &engine.Snapshot{
		Angel:          engine.Position{X: 1, Y: 0},
		Obstacles:      []engine.Position{{X: 2, Y: 0}},
		LegalMoves:     []engine.Position{{X: 0, Y: 0}, {X: 1, Y: 1}},
		Power:          1,
		EscapeDistance: 25,
		Distance:       1,
		Turn:           engine.TurnDemon,
		Mode:           engine.HumanVsHuman,
		Active:         true,
		BlocksPlaced:   1,
		AngelMoves:     1,
		Message:        "Demon's turn.",
	}

	result := formatGameState(state)

	expectedFields := []string{
		"Angel: (1,0)",
		"Distance: 1/25",
		"Power: 1",
		"Turn: demon",
		"Blocks: 1",
		"Legal moves: 2",
		"Message: Demon's turn.",
	}
	for _, field := range expectedFields {
		if !strings.Contains(result, field) {
			t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
		}
	}

	// Radius 3 around (1,0): the row y=0 spans x=-2..4
	if !strings.Contains(result, "..oA#..") {
		t.Errorf("Expected the Angel's row with legal move and block, got:\n%s", result)
	}
}

func TestFormatGameState_Outcomes(t *testing.T) {
	tests := []struct {
		name  string
		state *engine.Snapshot
		want  string
	}{
		{"escape", &engine.Snapshot{Winner: engine.SideAngel, Turn: engine.TurnGameOver}, "😇 ANGEL ESCAPED!"},
		{"trap", &engine.Snapshot{Winner: engine.SideDemon, Turn: engine.TurnGameOver, ResetPending: true}, "⏳ Table resets shortly"},
		{"thinking", &engine.Snapshot{Turn: engine.TurnAngel, Active: true, AIThinking: true}, "🤖 AI is thinking..."},
		{"nil", nil, "No game state available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatGameState(tt.state); !strings.Contains(got, tt.want) {
				t.Errorf("Expected %q in %q", tt.want, got)
			}
		})
	}
}

func TestFormatActionResponse(t *testing.T) {
	accepted := formatActionResponse(&service.ActionResponse{
		Result: engine.ActionResult{
			Accepted: true,
			Actor:    engine.SideAngel,
			Target:   engine.Position{X: 25, Y: 3},
			Outcome:  engine.OutcomeEscaped,
		},
		State: &engine.Snapshot{},
	})
	if !strings.Contains(accepted, "✓ angel at (25,3) accepted") || !strings.Contains(accepted, "Angel escaped") {
		t.Errorf("Unexpected accepted output: %s", accepted)
	}

	refused := formatActionResponse(&service.ActionResponse{
		Result: engine.ActionResult{Reason: engine.ReasonOccupied},
		State:  &engine.Snapshot{},
	})
	if !strings.Contains(refused, "✗ Action refused (occupied)") {
		t.Errorf("Unexpected refused output: %s", refused)
	}
}

func TestFormatHistory(t *testing.T) {
	history := &service.HistoryResponse{
		Actions: []engine.HistoryEntry{
			{Number: 1, Actor: engine.SideDemon, Position: engine.Position{X: 1, Y: 0}},
			{Number: 2, Actor: engine.SideAngel, AI: true, Position: engine.Position{X: -2, Y: 2}},
			{Number: 3, Actor: engine.SideAngel, Position: engine.Position{X: -2, Y: 2}, Outcome: engine.OutcomeTrapped},
		},
		TotalActions: 3,
		Page:         1,
		TotalPages:   1,
	}

	result := formatHistory(history)
	for _, want := range []string{
		"Total: 3",
		"1. demon (human) blocked (1,0)",
		"2. angel (AI) moved to (-2,2)",
		"3. angel (human) trapped at (-2,2) [trapped]",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in history, got:\n%s", want, result)
		}
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callRequest("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{
		"Angel Problem - Complete Instructions",
		"GAME OBJECTIVE:",
		"TURN ORDER:",
		"POWER:",
		"MODES (<demon>_vs_<angel>):",
		"BOARD LEGEND (game_state):",
	} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}

// End-to-end through the real REST API

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	configs, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create preset manager: %v", err)
	}
	sessions := session.NewManager()
	t.Cleanup(sessions.CloseAll)

	server := httptest.NewServer(api.NewServer(service.NewGameService(sessions, configs), nil, nil))
	t.Cleanup(server.Close)
	return server
}

func TestClient_PlaysThroughRESTAPI(t *testing.T) {
	server := newAPIServer(t)
	client := NewClient(server.URL)
	ctx := context.Background()

	var created service.SessionInfo
	if err := client.apiCall(ctx, "POST", "/api/sessions", map[string]int{"power": 1}, &created); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	id := created.ID

	call := func(name string, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) string {
		t.Helper()
		args["session_id"] = id
		result, err := handler(ctx, callRequest(name, args))
		if err != nil {
			t.Fatalf("%s failed: %v", name, err)
		}
		text := resultText(t, result)
		if result.IsError {
			t.Fatalf("%s returned tool error: %s", name, text)
		}
		return text
	}

	if text := call("legal_moves", client.handleLegalMoves, map[string]interface{}{}); !strings.Contains(text, "Legal moves (8)") {
		t.Errorf("Expected 8 legal moves for K=1, got: %s", text)
	}

	if text := call("place_roadblock", client.handlePlaceRoadblock, map[string]interface{}{"x": float64(1), "y": float64(0), "intent": "wall east"}); !strings.Contains(text, "✓ demon at (1,0) accepted") {
		t.Errorf("Unexpected roadblock result: %s", text)
	}

	if text := call("move_angel", client.handleMoveAngel, map[string]interface{}{"x": float64(1), "y": float64(0)}); !strings.Contains(text, "✗ Action refused (unreachable)") {
		t.Errorf("Expected refused jump onto a block, got: %s", text)
	}

	if text := call("move_angel", client.handleMoveAngel, map[string]interface{}{"x": float64(-1), "y": float64(1)}); !strings.Contains(text, "Angel: (-1,1)") {
		t.Errorf("Expected the Angel at (-1,1), got: %s", text)
	}

	if text := call("set_power", client.handleSetPower, map[string]interface{}{"power": float64(3)}); !strings.Contains(text, "Power set to 3") {
		t.Errorf("Unexpected set_power result: %s", text)
	}

	if text := call("set_mode", client.handleSetMode, map[string]interface{}{"mode": "human_vs_human"}); !strings.Contains(text, "Mode set to human_vs_human") {
		t.Errorf("Unexpected set_mode result: %s", text)
	}

	if text := call("action_history", client.handleActionHistory, map[string]interface{}{"order": "asc"}); !strings.Contains(text, "1. demon (human) blocked (1,0)") {
		t.Errorf("Unexpected history: %s", text)
	}

	if text := call("game_state", client.handleGameState, map[string]interface{}{}); !strings.Contains(text, "Turn: demon") {
		t.Errorf("Unexpected state: %s", text)
	}

	if text := call("get_session", client.handleGetSession, map[string]interface{}{}); !strings.Contains(text, "Session: "+id) {
		t.Errorf("Unexpected session: %s", text)
	}

	if text := call("reset_game", client.handleReset, map[string]interface{}{}); !strings.Contains(text, "Game reset successfully") {
		t.Errorf("Unexpected reset result: %s", text)
	}

	result, err := client.handleListSessions(ctx, callRequest("list_sessions", map[string]interface{}{"sort": "created", "limit": float64(5)}))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, result); !strings.Contains(text, "Active Sessions (1)") || !strings.Contains(text, id) {
		t.Errorf("Unexpected session list: %s", text)
	}

	result, err = client.handleListPresets(ctx, callRequest("list_presets", map[string]interface{}{}))
	if err != nil {
		t.Fatal(err)
	}
	if text := resultText(t, result); !strings.HasPrefix(text, "Available Presets:") {
		t.Errorf("Unexpected preset list: %s", text)
	}

	// Unknown sessions come back as tool errors, not Go errors
	result, err = client.handleGameState(ctx, callRequest("game_state", map[string]interface{}{"session_id": "nope"}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError || !strings.Contains(resultText(t, result), "session not found") {
		t.Errorf("Expected session-not-found tool error")
	}
}
