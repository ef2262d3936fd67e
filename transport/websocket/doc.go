// Package websocket pushes live Angel Problem table state to browsers.
//
// A central Hub owns every connection. Clients subscribe to one session via
// the query string (/ws?session=abc1) and receive a JSON Message each time
// the table changes:
//
//	{"session_id": "abc1", "event": "state_update", "state": {...snapshot...}}
//
// The first message on a new connection is the table's current snapshot.
// Incoming frames are read only to keep the connection alive; actions go
// through the REST API.
//
// The Hub satisfies service.StateNotifier, so the session manager wires it
// straight into each table's scheduler observer:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//	defer hub.Stop()
//
//	sessions := session.NewManager(session.WithNotifier(hub))
//
// NotifyState never blocks. Updates that do not fit the hub's queue are
// dropped, and slow clients whose send buffer is full are disconnected.
package websocket
