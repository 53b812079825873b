// Package session implements the session and token service.
//
// Creating a session looks up the customer, mints a short unique session id,
// and returns a signed, time-scoped access credential for a named room on
// the external real-time service. The user's identity, customer id, language
// and session id travel inside the credential as an opaque metadata blob,
// which the agent worker reads back from the joined participant.
//
// When the room service is unconfigured the service issues a clearly marked
// mock credential instead of failing, so the rest of the flow stays
// exercisable without live infrastructure.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/voxfront/voxfront/internal/config"
	"github.com/voxfront/voxfront/internal/customer"
	"github.com/voxfront/voxfront/internal/persona"
	"github.com/voxfront/voxfront/internal/prompt"
)

// Session modes reported to the client.
const (
	ModeLive = "live"
	ModeMock = "mock"
)

// Record statuses.
const (
	StatusCreated = "created"
	StatusMock    = "mock"
	StatusEnded   = "ended"
)

// ErrNotFound is returned by Get when no session with the requested id exists.
var ErrNotFound = errors.New("session not found")

// CreateRequest is the input for [Service.Create].
type CreateRequest struct {
	// Name is the user's display name.
	Name string `json:"name"`

	// CustomerID selects the persona. Defaults to the reserved demo id.
	CustomerID string `json:"customer_id"`

	// Language is the conversation language code. Defaults to "en".
	Language string `json:"language"`
}

// Session is the result of [Service.Create]: everything the client needs to
// join the room, plus identity fields for display.
type Session struct {
	SessionID    string `json:"session_id"`
	RoomName     string `json:"room_name"`
	Token        string `json:"token"`
	RoomURL      string `json:"room_url"`
	CustomerName string `json:"customer_name"`
	AgentName    string `json:"agent_name"`
	AgentType    string `json:"agent_type"`
	Language     string `json:"language"`
	Mode         string `json:"mode"`
}

// Record is the server-side session bookkeeping entry.
type Record struct {
	ID         string `json:"id"`
	Room       string `json:"room"`
	UserName   string `json:"user_name"`
	CustomerID string `json:"customer_id"`
	Language   string `json:"language"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	EndedAt    string `json:"ended_at,omitempty"`
}

// Metadata is the blob embedded in the access credential and read back by
// the agent worker. Absent keys fall back to fixed defaults on the consumer
// side.
type Metadata struct {
	Name       string `json:"name"`
	CustomerID string `json:"customer_id"`
	Language   string `json:"language"`
	SessionID  string `json:"session_id"`
}

// announceBuffer is the capacity of the live-session announcement channel.
const announceBuffer = 16

// Service creates sessions and signs room access credentials. It is safe for
// concurrent use.
type Service struct {
	room      config.RoomConfig
	customers *customer.Store

	// now is the clock used for record timestamps and token validity.
	// Overridable in tests.
	now func() time.Time

	// announce carries every live session to the agent dispatcher.
	announce chan Session

	mu      sync.RWMutex
	records map[string]Record
}

// Option is a functional option for [NewService].
type Option func(*Service)

// WithClock overrides the service clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a session service backed by the given customer store.
func NewService(room config.RoomConfig, customers *customer.Store, opts ...Option) *Service {
	s := &Service{
		room:      room,
		customers: customers,
		now:       time.Now,
		announce:  make(chan Session, announceBuffer),
		records:   make(map[string]Record),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// configured reports whether the room service can issue live credentials.
func (s *Service) configured() bool {
	return s.room.URL != "" && s.room.APIKey != "" && s.room.APISecret != ""
}

// Create makes a new session for the requested customer. Returns
// [customer.ErrNotFound] when the customer id is unknown. When the room
// service is unconfigured a mock credential is returned instead of an error.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Session, error) {
	if req.CustomerID == "" {
		req.CustomerID = persona.DefaultID
	}
	if req.Language == "" {
		req.Language = prompt.DefaultLanguage
	}

	slog.Info("creating session",
		"user", req.Name,
		"customer", req.CustomerID,
		"language", req.Language,
	)

	cust, err := s.customers.Get(req.CustomerID)
	if err != nil {
		return Session{}, fmt.Errorf("session: customer %q: %w", req.CustomerID, err)
	}

	sessionID, err := customer.NewID()
	if err != nil {
		return Session{}, fmt.Errorf("session: %w", err)
	}
	roomName := req.CustomerID + "-" + sessionID

	meta, err := json.Marshal(Metadata{
		Name:       req.Name,
		CustomerID: req.CustomerID,
		Language:   req.Language,
		SessionID:  sessionID,
	})
	if err != nil {
		return Session{}, fmt.Errorf("session: marshal metadata: %w", err)
	}

	sess := Session{
		SessionID:    sessionID,
		RoomName:     roomName,
		CustomerName: cust.Name,
		AgentName:    cust.AgentName,
		AgentType:    cust.AgentType,
		Language:     req.Language,
	}
	status := StatusCreated

	if !s.configured() {
		slog.Warn("room service not configured; issuing mock session", "session_id", sessionID)
		sess.Token = "mock-token"
		sess.RoomURL = "wss://not-configured"
		sess.Mode = ModeMock
		status = StatusMock
	} else {
		token, err := s.signToken(roomName, sessionID, req.Name, string(meta))
		if err != nil {
			return Session{}, fmt.Errorf("session: sign credential: %w", err)
		}
		sess.Token = token
		sess.RoomURL = s.room.URL
		sess.Mode = ModeLive
	}

	s.mu.Lock()
	s.records[sessionID] = Record{
		ID:         sessionID,
		Room:       roomName,
		UserName:   req.Name,
		CustomerID: req.CustomerID,
		Language:   req.Language,
		Status:     status,
		CreatedAt:  s.now().UTC().Format(time.RFC3339),
	}
	s.mu.Unlock()

	slog.Info("session created",
		"session_id", sessionID,
		"room", roomName,
		"agent", cust.AgentName,
		"language", req.Language,
		"mode", sess.Mode,
	)

	if sess.Mode == ModeLive {
		select {
		case s.announce <- sess:
		default:
			slog.Warn("announcement channel full; agent dispatch skipped", "session_id", sessionID)
		}
	}
	return sess, nil
}

// Announcements returns the channel on which every live session is announced
// after creation. The agent dispatcher is the intended single consumer; when
// nothing drains the channel, announcements beyond its buffer are dropped.
func (s *Service) Announcements() <-chan Session {
	return s.announce
}

// Get returns the record for a session id.
// Returns [ErrNotFound] when no such session exists.
func (s *Service) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// End marks a session as ended and stamps its end time. Ending an unknown or
// already ended session is not an error; the reported record is the final
// state.
func (s *Service) End(id string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{ID: id, Status: StatusEnded}
	}
	rec.Status = StatusEnded
	rec.EndedAt = s.now().UTC().Format(time.RFC3339)
	s.records[id] = rec
	return rec
}

// List returns all session records in creation order (by created_at, then id).
func (s *Service) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	// CreatedAt is RFC 3339 so lexicographic order is chronological.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}
