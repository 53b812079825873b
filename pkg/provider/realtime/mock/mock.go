// Package mock provides test doubles for the realtime package interfaces.
//
// Use Provider to verify Connect calls and feed controlled sessions. Use
// Session to drive the event channels and inspect which methods the worker
// invoked.
//
// Example:
//
//	sess := mock.NewSession()
//	p := &mock.Provider{Session: sess}
//	handle, _ := p.Connect(ctx, cfg)
package mock

import (
	"context"
	"sync"

	"github.com/voxfront/voxfront/pkg/provider/realtime"
)

// ConnectCall records a single invocation of Provider.Connect.
type ConnectCall struct {
	// Ctx is the context passed to Connect.
	Ctx context.Context
	// Cfg is the SessionConfig passed to Connect.
	Cfg realtime.SessionConfig
}

// Provider is a mock implementation of realtime.Provider.
type Provider struct {
	mu sync.Mutex

	// Session is the SessionHandle returned by Connect. If nil, Connect
	// returns a new default Session with buffered channels.
	Session realtime.SessionHandle

	// ConnectErr, if non-nil, is returned as the error from Connect.
	ConnectErr error

	// VoiceList is returned by Voices.
	VoiceList []string

	// ConnectCalls records every call to Connect in order.
	ConnectCalls []ConnectCall
}

// Ensure Provider implements realtime.Provider at compile time.
var _ realtime.Provider = (*Provider)(nil)

// Connect records the call and returns Session, ConnectErr.
func (p *Provider) Connect(ctx context.Context, cfg realtime.SessionConfig) (realtime.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ConnectCalls = append(p.ConnectCalls, ConnectCall{Ctx: ctx, Cfg: cfg})
	if p.ConnectErr != nil {
		return nil, p.ConnectErr
	}
	if p.Session != nil {
		return p.Session, nil
	}
	return NewSession(), nil
}

// Voices returns VoiceList.
func (p *Provider) Voices() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.VoiceList
}

// Session is a mock implementation of realtime.SessionHandle. Tests
// pre-populate the channels (or push into them concurrently) and close them
// via EndSession to signal end-of-session.
type Session struct {
	mu sync.Mutex

	// AudioCh is the channel returned by Audio(). Tests own this channel.
	AudioCh chan []byte

	// UserCh is the channel returned by UserTranscriptions().
	UserCh chan realtime.UserTranscription

	// AgentCh is the channel returned by AgentUtterances().
	AgentCh chan realtime.AgentUtterance

	// SendAudioErr, if non-nil, is returned by every SendAudio call.
	SendAudioErr error

	// InstructErr, if non-nil, is returned by every Instruct call.
	InstructErr error

	// CloseErr, if non-nil, is returned by the first Close.
	CloseErr error

	// SessionErr is returned by Err.
	SessionErr error

	// SendAudioCalls records the chunks passed to SendAudio.
	SendAudioCalls [][]byte

	// InstructCalls records the instructions passed to Instruct.
	InstructCalls []string

	// CloseCount is the number of times Close was called.
	CloseCount int

	endOnce sync.Once
}

// Ensure Session implements realtime.SessionHandle at compile time.
var _ realtime.SessionHandle = (*Session)(nil)

// NewSession returns a Session with buffered channels ready for use.
func NewSession() *Session {
	return &Session{
		AudioCh: make(chan []byte, 64),
		UserCh:  make(chan realtime.UserTranscription, 16),
		AgentCh: make(chan realtime.AgentUtterance, 16),
	}
}

// EndSession closes all event channels, simulating the service ending the
// session. Safe to call more than once.
func (s *Session) EndSession() {
	s.endOnce.Do(func() {
		close(s.AudioCh)
		close(s.UserCh)
		close(s.AgentCh)
	})
}

// SendAudio records the chunk and returns SendAudioErr.
func (s *Session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := make([]byte, len(chunk))
	copy(c, chunk)
	s.SendAudioCalls = append(s.SendAudioCalls, c)
	return s.SendAudioErr
}

// Audio returns AudioCh.
func (s *Session) Audio() <-chan []byte { return s.AudioCh }

// UserTranscriptions returns UserCh.
func (s *Session) UserTranscriptions() <-chan realtime.UserTranscription { return s.UserCh }

// AgentUtterances returns AgentCh.
func (s *Session) AgentUtterances() <-chan realtime.AgentUtterance { return s.AgentCh }

// Instruct records the instruction and returns InstructErr.
func (s *Session) Instruct(instruction string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InstructCalls = append(s.InstructCalls, instruction)
	return s.InstructErr
}

// Err returns SessionErr.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SessionErr
}

// Close increments CloseCount, ends the session, and returns CloseErr.
func (s *Session) Close() error {
	s.mu.Lock()
	s.CloseCount++
	err := s.CloseErr
	s.mu.Unlock()
	s.EndSession()
	return err
}
