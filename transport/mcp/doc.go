// Package mcp exposes Angel Problem tables to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a REST request against
// the api package, and the JSON reply is rendered as text for the agent.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state: header plus an ASCII board around the Angel
//     (A Angel, # block, o legal jump, + origin)
//   - legal_moves
//   - place_roadblock, move_angel: take x, y and a free-text intent
//   - reset_game, set_mode, set_power
//   - action_history
//   - list_presets
//   - game_instructions
//
// Refused game actions and unknown sessions are returned as tool results
// (IsError for the latter), never as protocol errors.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//
//	// Stdio mode
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	resp := client.GetMCPServer().HandleMessage(ctx, rawJSON)
package mcp
