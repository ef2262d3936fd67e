package session

import (
	"github.com/wricardo/angel-problem/game/engine"
	"github.com/wricardo/angel-problem/game/service"
)

// eventTracker remembers the last snapshot of one table. The scheduler calls
// its observer with the table locked, so observe is never run concurrently
// for the same table.
type eventTracker struct {
	sessionID string
	events    service.EventNotifier
	prev      *engine.Snapshot
}

func (t *eventTracker) observe(snap *engine.Snapshot) {
	prev := t.prev
	t.prev = snap

	prevGen := uint64(1)
	prevActive := true
	if prev != nil {
		prevGen = prev.Generation
		prevActive = prev.Active
	}

	if snap.Generation != prevGen {
		t.events.BroadcastEvent(t.sessionID, service.EventGameReset, service.GameResetEvent{
			GameID:     snap.GameID,
			Generation: snap.Generation,
			AfterTrap:  prev != nil && prev.ResetPending,
		})
		prevActive = true
	}

	if prevActive && !snap.Active {
		t.events.BroadcastEvent(t.sessionID, service.EventGameOver, service.GameOverEvent{
			GameID:       snap.GameID,
			Winner:       snap.Winner,
			Message:      snap.Message,
			AngelMoves:   snap.AngelMoves,
			BlocksPlaced: snap.BlocksPlaced,
		})
	}
}
