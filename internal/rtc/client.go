package rtc

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// roomEvent is one message on the room service's participant event stream:
//
//	{"type":"participant_joined","identity":"user-ab12cd34","metadata":"{...}"}
//	{"type":"participant_left","identity":"user-ab12cd34"}
type roomEvent struct {
	Type     string `json:"type"`
	Identity string `json:"identity"`
	Metadata string `json:"metadata,omitempty"`
}

// Dial joins roomName on the room service as the credential's participant and
// returns a [Room] view of it. The returned room tracks remote participants
// from the service's event stream until Close is called or the stream ends.
func Dial(ctx context.Context, serverURL, roomName, token string) (Room, error) {
	wsURL := fmt.Sprintf("%s/rooms/%s/ws", serverURL, roomName)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer " + token},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("rtc: dial room %q: %w", roomName, err)
	}

	roomCtx, cancel := context.WithCancel(context.Background())
	r := &wsRoom{
		name:   roomName,
		conn:   conn,
		ctx:    roomCtx,
		cancel: cancel,
	}
	go r.receiveLoop()

	return r, nil
}

// wsRoom is the WebSocket-backed [Room] implementation.
type wsRoom struct {
	name string
	conn *websocket.Conn

	mu           sync.RWMutex
	participants []wsParticipant

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

var _ Room = (*wsRoom)(nil)

func (r *wsRoom) Name() string { return r.name }

func (r *wsRoom) RemoteParticipants() []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Participant, len(r.participants))
	for i := range r.participants {
		out[i] = r.participants[i]
	}
	return out
}

func (r *wsRoom) Close() error {
	r.closeOnce.Do(func() {
		r.cancel()
		r.closeErr = r.conn.Close(websocket.StatusNormalClosure, "leaving room")
	})
	return r.closeErr
}

// receiveLoop consumes the participant event stream. It owns the participant
// list; all mutations happen here.
func (r *wsRoom) receiveLoop() {
	for {
		var ev roomEvent
		if err := wsjson.Read(r.ctx, r.conn, &ev); err != nil {
			return
		}

		switch ev.Type {
		case "participant_joined":
			r.addParticipant(ev.Identity, ev.Metadata)
		case "participant_left":
			r.removeParticipant(ev.Identity)
		}
	}
}

func (r *wsRoom) addParticipant(identity, metadata string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.participants {
		if p.identity == identity {
			r.participants[i].metadata = metadata
			return
		}
	}
	r.participants = append(r.participants, wsParticipant{identity: identity, metadata: metadata})
}

func (r *wsRoom) removeParticipant(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.participants {
		if p.identity == identity {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			return
		}
	}
}

// wsParticipant is a remote participant as reported by the event stream.
// Value semantics: [wsRoom.RemoteParticipants] returns snapshot copies.
type wsParticipant struct {
	identity string
	metadata string
}

var _ Participant = wsParticipant{}

func (p wsParticipant) Identity() string { return p.identity }
func (p wsParticipant) Metadata() string { return p.metadata }
