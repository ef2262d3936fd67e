package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/angel-problem/game/engine"
	"github.com/wricardo/angel-problem/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Angel Problem",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Angel Problem - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
The Angel (power K) starts at the origin of an infinite grid. Each turn the
Demon blocks one cell, then the Angel jumps to any free cell within K steps in
both x and y. The Angel wins by reaching Chebyshev distance 25 (per preset);
the Demon wins when the Angel has no legal jump.

AVAILABLE TOOLS:
- create_session: Create a table (preset, mode, power)
- list_sessions / get_session: Inspect tables
- game_state: Board around the Angel, turn and message
- legal_moves: Every cell the Angel may jump to
- place_roadblock: Demon blocks a cell - requires intent explanation
- move_angel: Angel jumps to a cell - requires intent explanation
- reset_game, set_mode, set_power: Table controls
- action_history: Past blocks and jumps
- list_presets: Available rule presets
- game_instructions: Full rules and tips

NOTE: The 'intent' parameter on action tools serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func cellTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (any integer; origin is 0,0)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (any integer; origin is 0,0)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this action (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}
}

func sessionTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	modes := make([]string, 0, len(engine.Modes))
	for _, m := range engine.Modes {
		modes = append(modes, string(m))
	}

	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game table with optional preset, mode and power",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Preset ID to use (optional, see list_presets)",
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        modes,
					"description": "Who controls each side: <demon>_vs_<angel> (optional)",
				},
				"power": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Angel power K, %d to %d (optional)", engine.MinPower, engine.MaxPower),
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game tables",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"sort": map[string]interface{}{
					"type": "string",
					"enum": []string{"created", "accessed"},
				},
				"order": map[string]interface{}{
					"type": "string",
					"enum": []string{"asc", "desc"},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of sessions",
				},
			},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(sessionTool("get_session", "Get details of a specific session"), c.handleGetSession)

	// Table state
	c.mcpServer.AddTool(sessionTool("game_state", "Get the current game state with a board view around the Angel"), c.handleGameState)
	c.mcpServer.AddTool(sessionTool("legal_moves", "List every cell the Angel may jump to right now"), c.handleLegalMoves)

	// Table actions
	c.mcpServer.AddTool(cellTool("place_roadblock", "Demon turn: block a free cell that is not the Angel's"), c.handlePlaceRoadblock)
	c.mcpServer.AddTool(cellTool("move_angel", "Angel turn: jump to a free cell within the Angel's power"), c.handleMoveAngel)
	c.mcpServer.AddTool(sessionTool("reset_game", "Start a fresh game on the table"), c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_mode",
		Description: "Choose which sides the server AI plays",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        modes,
					"description": "<demon>_vs_<angel>, e.g. human_vs_ai lets the AI play the Angel",
				},
			},
			Required: []string{"session_id", "mode"},
		},
	}, c.handleSetMode)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_power",
		Description: "Change the Angel's power K for the current game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"power": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("%d to %d", engine.MinPower, engine.MaxPower),
				},
			},
			Required: []string{"session_id", "power"},
		},
	}, c.handleSetPower)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "action_history",
		Description: "Get the blocks and jumps of the current game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type": "string",
					"enum": []string{"asc", "desc"},
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleActionHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List available rule presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// intArg reads an integer argument; JSON numbers arrive as float64
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}
	return 0, false
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if preset, _ := args["preset"].(string); preset != "" {
		body["preset"] = preset
	}
	if mode, _ := args["mode"].(string); mode != "" {
		body["mode"] = mode
	}
	if power, ok := intArg(args, "power"); ok {
		body["power"] = power
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nPreset: %s\n\n%s", session.ID, session.Preset, formatGameState(session.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query := url.Values{}
	if sort, _ := args["sort"].(string); sort != "" {
		query.Set("sort", sort)
	}
	if order, _ := args["order"].(string); order != "" {
		query.Set("order", order)
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/sessions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Preset: %s, Created: %s", s.ID, s.Preset, s.CreatedAt.Format("15:04:05"))
		if s.State != nil {
			fmt.Fprintf(&b, ", Mode: %s, Turn: %s", s.State.Mode, s.State.Turn)
		}
		b.WriteString(")\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.Snapshot
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleLegalMoves(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/moves")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Count int               `json:"count"`
		Moves []engine.Position `json:"moves"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No legal moves: the Angel is trapped."), nil
	}

	cells := make([]string, 0, len(response.Moves))
	for _, p := range response.Moves {
		cells = append(cells, fmt.Sprintf("(%d,%d)", p.X, p.Y))
	}
	result := fmt.Sprintf("Legal moves (%d):\n%s", response.Count, strings.Join(cells, " "))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) cellAction(ctx context.Context, request mcp.CallToolRequest, suffix string) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, suffix)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_, _ = args["intent"].(string)

	var resp service.ActionResponse
	if err := c.apiCall(ctx, "POST", path, map[string]int{"x": x, "y": y}, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResponse(&resp)), nil
}

func (c *Client) handlePlaceRoadblock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.cellAction(ctx, request, "/roadblock")
}

func (c *Client) handleMoveAngel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.cellAction(ctx, request, "/angel")
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var response struct {
		Message string           `json:"message"`
		State   *engine.Snapshot `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSetMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/mode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, _ := args["mode"].(string)

	var state engine.Snapshot
	if err := c.apiCall(ctx, "PUT", path, map[string]string{"mode": mode}, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Mode set to %s\n\n%s", state.Mode, formatGameState(&state))), nil
}

func (c *Client) handleSetPower(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/power")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	power, ok := intArg(args, "power")
	if !ok {
		return mcp.NewToolResultError("power is required"), nil
	}

	var state engine.Snapshot
	if err := c.apiCall(ctx, "PUT", path, map[string]int{"power": power}, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Power set to %d\n\n%s", state.Power, formatGameState(&state))), nil
}

func (c *Client) handleActionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		query.Set("page", strconv.Itoa(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		query.Set("limit", strconv.Itoa(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		query.Set("order", order)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var presets []service.PresetInfo
	if err := c.apiCall(ctx, "GET", "/api/presets", nil, &presets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Presets:\n\n")
	for _, p := range presets {
		mode := p.Mode
		if mode == "" {
			mode = engine.HumanVsHuman
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Power: %d, Escape distance: %d, Mode: %s\n\n",
			p.PresetID, p.Name, p.Description, p.Power, p.EscapeDistance, mode)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `😇 Angel Problem - Complete Instructions

GAME OBJECTIVE:
Two players share an unbounded square grid. The Angel starts at (0,0).
The Angel wins by reaching the escape distance (default 25, measured as
max(|x|,|y|)). The Demon wins by leaving the Angel with no legal jump.

TURN ORDER:
• The Demon moves first, then the sides alternate.
• Demon turn: block any one free cell except the Angel's own cell.
  Blocks are permanent for the rest of the game.
• Angel turn: jump to any free cell (x+dx, y+dy) with -K <= dx, dy <= K,
  not staying put. Jumps ignore blocks in between; only the landing cell
  must be free.

POWER:
• K is the Angel's power, 1 to 10 (default 2). With K=2 the Angel has up to
  24 target cells each turn.
• set_power changes K for the current game; reset restores the preset's K.

MODES (<demon>_vs_<angel>):
• human_vs_human: you play both sides.
• human_vs_ai: you are the Demon, the server AI plays the Angel.
• ai_vs_human: the server AI blocks, you are the Angel.
• ai_vs_ai: watch the two AIs play.
AI turns are played automatically after a short delay; poll game_state.

BOARD LEGEND (game_state):
• A = Angel
• # = block
• o = a legal Angel jump
• + = origin
• . = free cell

AI BEHAVIOUR:
• The Demon AI blocks a random free cell close to the Angel.
• The Angel AI jumps to the legal cell farthest from every block.

STRATEGY TIPS:
• As the Demon, a single block never traps a K>=1 Angel; build walls ahead
  of the Angel's direction of travel rather than adjacent to it.
• As the Angel, keep moving outward; every turn spent near blocks lets the
  Demon close the ring.

AFTER THE GAME:
• An escape ends the game until reset_game.
• An entrapment resets the table automatically after a few seconds.

TOOLS:
• place_roadblock / move_angel take x, y and an intent
• legal_moves lists every current Angel target
• action_history shows the game so far

Good luck, Angel. Or Demon.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nPreset: %s\nCreated: %s\n\n%s",
		session.ID, session.Preset,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.State))
}

func formatGameState(state *engine.Snapshot) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	fmt.Fprintf(&result, "Angel: (%d,%d) | Distance: %d/%d | Power: %d | Turn: %s | Mode: %s\n",
		state.Angel.X, state.Angel.Y, state.Distance, state.EscapeDistance,
		state.Power, state.Turn, state.Mode)
	fmt.Fprintf(&result, "Blocks: %d | Angel moves: %d | Legal moves: %d\n\n",
		state.BlocksPlaced, state.AngelMoves, len(state.LegalMoves))

	result.WriteString(formatBoard(state))

	switch {
	case state.Winner == engine.SideAngel:
		result.WriteString("\n😇 ANGEL ESCAPED!")
	case state.Winner == engine.SideDemon:
		result.WriteString("\n😈 ANGEL TRAPPED!")
	case state.AIThinking:
		result.WriteString("\n🤖 AI is thinking...")
	}
	if state.ResetPending {
		result.WriteString("\n⏳ Table resets shortly")
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

// formatBoard draws the cells within power+2 of the Angel, north up
func formatBoard(state *engine.Snapshot) string {
	radius := state.Power + 2
	if radius < 3 {
		radius = 3
	}

	blocked := make(map[engine.Position]bool, len(state.Obstacles))
	for _, p := range state.Obstacles {
		blocked[p] = true
	}
	legal := make(map[engine.Position]bool, len(state.LegalMoves))
	for _, p := range state.LegalMoves {
		legal[p] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "x: %d..%d, y: %d..%d\n",
		state.Angel.X-radius, state.Angel.X+radius, state.Angel.Y+radius, state.Angel.Y-radius)
	for y := state.Angel.Y + radius; y >= state.Angel.Y-radius; y-- {
		for x := state.Angel.X - radius; x <= state.Angel.X+radius; x++ {
			p := engine.Position{X: x, Y: y}
			switch {
			case p == state.Angel:
				b.WriteString("A")
			case blocked[p]:
				b.WriteString("#")
			case legal[p]:
				b.WriteString("o")
			case x == 0 && y == 0:
				b.WriteString("+")
			default:
				b.WriteString(".")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatActionResponse(resp *service.ActionResponse) string {
	var b strings.Builder
	r := resp.Result
	if r.Accepted {
		fmt.Fprintf(&b, "✓ %s at (%d,%d) accepted\n", r.Actor, r.Target.X, r.Target.Y)
	} else {
		fmt.Fprintf(&b, "✗ Action refused (%s)\n", r.Reason)
	}
	switch r.Outcome {
	case engine.OutcomeEscaped:
		b.WriteString("Outcome: Angel escaped\n")
	case engine.OutcomeTrapped:
		b.WriteString("Outcome: Angel trapped")
		if r.AutoReset {
			b.WriteString(" (auto reset queued)")
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(resp.State))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalActions)

	for _, entry := range history.Actions {
		who := "human"
		if entry.AI {
			who = "AI"
		}
		verb := "blocked"
		switch {
		case entry.Outcome == engine.OutcomeTrapped:
			verb = "trapped at"
		case entry.Actor == engine.SideAngel:
			verb = "moved to"
		}
		fmt.Fprintf(&b, "%d. %s (%s) %s (%d,%d)", entry.Number, entry.Actor, who, verb, entry.Position.X, entry.Position.Y)
		if entry.Outcome != engine.OutcomeNone {
			fmt.Fprintf(&b, " [%s]", entry.Outcome)
		}
		b.WriteString("\n")
	}

	return b.String()
}
