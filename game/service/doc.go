// Package service provides the business logic layer between the transports
// (HTTP, WebSocket, MCP) and the game tables.
//
// GameService is the main interface. It creates tables from presets,
// forwards human actions to each table's scheduler, and reports the verdict
// together with the resulting snapshot. SessionManager stores tables and
// ConfigManager loads presets; both are interfaces so the service can be
// tested with mocks.
//
// Invalid game actions are not errors: they come back as an ActionResult
// with Accepted false and a reason. Errors are reserved for unknown
// sessions (ErrSessionNotFound), presets (ErrPresetNotFound,
// ErrInvalidPreset) and invalid settings (engine.ErrInvalidMode,
// engine.ErrInvalidPower), always wrapped so errors.Is works.
//
// Usage:
//
//	svc := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := svc.CreateSession(ctx, service.CreateSessionOptions{
//		Preset: "classic",
//		Mode:   engine.HumanVsAI,
//	})
//	if err != nil {
//		return err
//	}
//
//	resp, err := svc.PlaceRoadblock(ctx, info.ID, 1, 0)
//	fmt.Println(resp.Result.Accepted, resp.State.Message)
package service
