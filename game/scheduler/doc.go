// Package scheduler runs a single game table on top of the engine.
//
// A Scheduler owns one engine and serialises every action behind a mutex.
// When the side to move is AI-controlled it arms a timer; when the Angel is
// trapped it arms an auto-reset timer. At most one timer is pending at a
// time, and each timer carries the generation and version it was armed for
// so a timer that fires after the state moved on does nothing.
//
// Example:
//
//	s, err := scheduler.NewFromRules(engine.DefaultRules(),
//		scheduler.WithObserver(func(snap *engine.Snapshot) {
//			hub.NotifyState(sessionID, snap)
//		}))
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	s.SetMode(engine.HumanVsAI)
//	s.PlaceRoadblock(2, 1)
package scheduler
