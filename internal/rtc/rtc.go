// Package rtc abstracts the external real-time room service.
//
// The room service is a managed collaborator: it owns media transport,
// rooms, and participants. Voxfront only needs to observe which remote
// participants are present and read the metadata blob their credential
// carried, so the interfaces here are deliberately small. The concrete
// implementation is supplied by the deployment's room SDK; tests use the
// doubles in the mock subpackage.
package rtc

import (
	"context"
	"time"
)

// pollInterval is how often [WaitForParticipant] re-checks the room.
const pollInterval = 50 * time.Millisecond

// Participant is a remote participant in a room.
type Participant interface {
	// Identity is the participant's unique identity within the room.
	Identity() string

	// Metadata is the opaque metadata blob from the participant's access
	// credential. Empty when the credential carried none.
	Metadata() string
}

// Room is a joined real-time room.
type Room interface {
	// Name is the room's unique name.
	Name() string

	// RemoteParticipants returns the currently connected remote
	// participants, in join order.
	RemoteParticipants() []Participant

	// Close leaves the room and releases its resources.
	Close() error
}

// WaitForParticipant polls the room until at least one remote participant is
// present, the timeout elapses, or ctx is cancelled. It returns the first
// participant and true on success. No work happens while waiting beyond
// yielding between polls.
func WaitForParticipant(ctx context.Context, room Room, timeout time.Duration) (Participant, bool) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if ps := room.RemoteParticipants(); len(ps) > 0 {
			return ps[0], true
		}
		if time.Now().After(deadline) {
			return nil, false
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, false
		}
	}
}
