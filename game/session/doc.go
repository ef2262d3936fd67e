// Package session provides in-memory session management for game tables.
//
// Each session owns one scheduler.Scheduler, its own engine and timers.
// Sessions use 4-character hex IDs generated from crypto/rand, and lookups are
// case-insensitive. Deleting or expiring a session cancels its pending AI and
// auto-reset timers.
//
// Usage:
//
//	manager := session.NewManager(
//		session.WithLogger(logger),
//		session.WithNotifier(hub),
//	)
//
//	sess, err := manager.Create("", rules)
//	if err != nil {
//		return err
//	}
//	sess.Table.PlaceRoadblock(1, 0)
//
// Nothing is persisted: a restart starts with no sessions.
package session
