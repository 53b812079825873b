// Package mock provides test doubles for the rtc package interfaces.
package mock

import (
	"sync"

	"github.com/voxfront/voxfront/internal/rtc"
)

// Participant is a static implementation of rtc.Participant.
type Participant struct {
	// ID is returned by Identity.
	ID string

	// Meta is returned by Metadata.
	Meta string
}

// Identity returns ID.
func (p *Participant) Identity() string { return p.ID }

// Metadata returns Meta.
func (p *Participant) Metadata() string { return p.Meta }

// Ensure the doubles satisfy the rtc interfaces at compile time.
var _ rtc.Participant = (*Participant)(nil)
var _ rtc.Room = (*Room)(nil)

// Room is a mutable implementation of rtc.Room. Tests add participants
// before or during a worker run to simulate joins.
type Room struct {
	// RoomName is returned by Name.
	RoomName string

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	mu           sync.Mutex
	participants []rtc.Participant
	closeCount   int
}

// Name returns RoomName.
func (r *Room) Name() string { return r.RoomName }

// RemoteParticipants returns a copy of the current participant list.
func (r *Room) RemoteParticipants() []rtc.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]rtc.Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

// AddParticipant appends p to the room, simulating a join. Thread-safe.
func (r *Room) AddParticipant(p rtc.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.participants = append(r.participants, p)
}

// Close records the call and returns CloseErr.
func (r *Room) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeCount++
	return r.CloseErr
}

// CloseCount returns how many times Close was called.
func (r *Room) CloseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeCount
}
