// Package api provides the HTTP REST API for Angel Problem tables.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a table ({"preset", "mode", "power"}, all optional)
//   - GET /api/sessions - List tables (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Table info with current snapshot
//   - DELETE /api/sessions/{id} - Delete a table and cancel its timers
//
// Table state:
//   - GET /api/sessions/{id}/state - Current snapshot
//   - GET /api/sessions/{id}/moves - Angel's legal moves
//   - GET /api/sessions/{id}/history - Action log (?page=&limit=&order=)
//
// Table actions:
//   - POST /api/sessions/{id}/roadblock - {"x", "y"} Demon places a block
//   - POST /api/sessions/{id}/angel - {"x", "y"} Angel jumps
//   - POST /api/sessions/{id}/click - {"x", "y"} routed to the side to move
//   - POST /api/sessions/{id}/reset - Start a fresh game
//   - PUT /api/sessions/{id}/mode - {"mode": "human_vs_ai"}
//   - PUT /api/sessions/{id}/power - {"power": 3}
//
// Presets:
//   - GET /api/presets - List presets
//   - POST /api/presets - Save a preset (?id= overrides the derived ID)
//   - GET /api/presets/{name} - Load a preset
//   - POST /api/presets/refresh - Re-read presets from disk
//
// Other:
//   - GET /api/health - Liveness
//   - GET /ws?session={id} - WebSocket state stream
//
// Actions always answer 200 with an ActionResponse; a refused action has
// "accepted": false and a reason code. HTTP errors are reserved for bad
// requests and unknown resources:
//
//	{"error": "session ab12: session not found"}
//
// Unknown sessions and presets map to 404, invalid input to 400, mode or
// power changes after the game ended to 409.
package api
