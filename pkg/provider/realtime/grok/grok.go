// Package grok implements the realtime.Provider interface for the xAI Grok
// voice agent API.
//
// It establishes a bidirectional WebSocket connection to the xAI realtime
// endpoint and exchanges JSON events. Audio travels as base64-encoded PCM16
// chunks; user speech recognition and agent response transcripts are surfaced
// on the session's typed event channels.
package grok

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/voxfront/voxfront/pkg/provider/realtime"
)

// Compile-time assertions that Provider and session satisfy the realtime interfaces.
var _ realtime.Provider = (*Provider)(nil)
var _ realtime.SessionHandle = (*session)(nil)

const (
	defaultModel   = "grok-voice-agent"
	defaultBaseURL = "wss://api.x.ai/v1/realtime"
)

// voices lists the xAI voice identifiers accepted in session configuration.
var voices = []string{"ara", "rex", "sal", "eve", "leo", "mika", "valentin", "ani"}

// ── Options ───────────────────────────────────────────────────────────────────

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model used for sessions.
func WithModel(model string) Option {
	return func(p *Provider) { p.model = model }
}

// WithBaseURL overrides the base WebSocket URL. Primarily used in tests to
// point at a local mock server.
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = url }
}

// ── Provider ──────────────────────────────────────────────────────────────────

// Provider implements realtime.Provider for the xAI Grok realtime API.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
}

// New creates a Provider with the given API key and options.
func New(apiKey string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Voices implements [realtime.Provider.Voices].
func (p *Provider) Voices() []string {
	out := make([]string, len(voices))
	copy(out, voices)
	return out
}

// Connect establishes a new realtime session with the given configuration.
// The returned handle is ready to accept audio once the session.update
// message has been acknowledged on the wire.
func (p *Provider) Connect(ctx context.Context, cfg realtime.SessionConfig) (realtime.SessionHandle, error) {
	wsURL := fmt.Sprintf("%s?model=%s", p.baseURL, p.model)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{
			"Authorization": []string{"Bearer " + p.apiKey},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("grok: dial: %w", err)
	}

	sessCtx, sessCancel := context.WithCancel(context.Background())
	sess := &session{
		conn:       conn,
		audioCh:    make(chan []byte, 64),
		userCh:     make(chan realtime.UserTranscription, 16),
		agentCh:    make(chan realtime.AgentUtterance, 16),
		ctx:        sessCtx,
		cancel:     sessCancel,
	}

	if err := sess.sendSessionUpdate(cfg); err != nil {
		sessCancel()
		conn.Close(websocket.StatusInternalError, "session update failed")
		return nil, fmt.Errorf("grok: session update: %w", err)
	}

	go sess.receiveLoop()

	return sess, nil
}

// ── Protocol message types (outgoing) ─────────────────────────────────────────

type sessionUpdateMessage struct {
	Type    string        `json:"type"`
	Session sessionParams `json:"session"`
}

type sessionParams struct {
	Voice             string `json:"voice,omitempty"`
	Instructions      string `json:"instructions,omitempty"`
	InputAudioFormat  string `json:"input_audio_format"`
	OutputAudioFormat string `json:"output_audio_format"`
}

type appendAudioMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"` // base64-encoded PCM16
}

type createResponseMessage struct {
	Type     string         `json:"type"`
	Response responseParams `json:"response"`
}

type responseParams struct {
	Instructions string `json:"instructions,omitempty"`
}

// serverErrorDetail is the nested error object of an error event:
// {"type":"error","error":{"type":"...","code":"...","message":"..."}}.
type serverErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ── Protocol message types (incoming) ─────────────────────────────────────────

type serverEvent struct {
	Type string `json:"type"`

	// response.audio.delta / response.audio_transcript.delta /
	// conversation.item.input_audio_transcription.* (field name differs)
	Delta string `json:"delta,omitempty"`

	// conversation.item.input_audio_transcription.completed
	Transcript string `json:"transcript,omitempty"`

	// error event
	Error *serverErrorDetail `json:"error,omitempty"`
}

// ── session ───────────────────────────────────────────────────────────────────

type session struct {
	conn    *websocket.Conn
	audioCh chan []byte
	userCh  chan realtime.UserTranscription
	agentCh chan realtime.AgentUtterance

	mu     sync.Mutex
	errVal error
	closed bool

	// currentText accumulates response.audio_transcript.delta events until
	// response.audio_transcript.done is received.
	currentText string

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// sendSessionUpdate sends a session.update event configuring voice,
// instructions, and audio formats.
func (s *session) sendSessionUpdate(cfg realtime.SessionConfig) error {
	params := sessionParams{
		InputAudioFormat:  "pcm16",
		OutputAudioFormat: "pcm16",
	}
	if cfg.Voice != "" {
		params.Voice = cfg.Voice
	}
	if cfg.Instructions != "" {
		params.Instructions = cfg.Instructions
	}
	return s.writeJSON(sessionUpdateMessage{Type: "session.update", Session: params})
}

// writeJSON marshals v and writes it as a text WebSocket message.
func (s *session) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("grok: marshal: %w", err)
	}
	return s.conn.Write(s.ctx, websocket.MessageText, data)
}

// SendAudio implements [realtime.SessionHandle.SendAudio].
func (s *session) SendAudio(chunk []byte) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("grok: session closed")
	}
	return s.writeJSON(appendAudioMessage{
		Type:  "input_audio_buffer.append",
		Audio: base64.StdEncoding.EncodeToString(chunk),
	})
}

// Audio implements [realtime.SessionHandle.Audio].
func (s *session) Audio() <-chan []byte { return s.audioCh }

// UserTranscriptions implements [realtime.SessionHandle.UserTranscriptions].
func (s *session) UserTranscriptions() <-chan realtime.UserTranscription { return s.userCh }

// AgentUtterances implements [realtime.SessionHandle.AgentUtterances].
func (s *session) AgentUtterances() <-chan realtime.AgentUtterance { return s.agentCh }

// Instruct implements [realtime.SessionHandle.Instruct] by sending a
// response.create event carrying the one-off instruction.
func (s *session) Instruct(instruction string) error {
	return s.writeJSON(createResponseMessage{
		Type:     "response.create",
		Response: responseParams{Instructions: instruction},
	})
}

// Err implements [realtime.SessionHandle.Err].
func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errVal
}

// Close implements [realtime.SessionHandle.Close]. Safe to call repeatedly.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
		s.conn.Close(websocket.StatusNormalClosure, "session ended")
	})
	return nil
}

// setErr records the first terminal error of the session.
func (s *session) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errVal == nil {
		s.errVal = err
	}
}

// closeChannels closes the outbound event channels. Called exactly once when
// the receive loop exits.
func (s *session) closeChannels() {
	close(s.audioCh)
	close(s.userCh)
	close(s.agentCh)
}

// receiveLoop reads events from the WebSocket and dispatches them. It owns
// the event channels: it closes all three when it exits.
func (s *session) receiveLoop() {
	defer s.closeChannels()

	for {
		_, data, err := s.conn.Read(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.setErr(err)
			return
		}

		var evt serverEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			continue
		}

		s.handleServerEvent(&evt, data)
	}
}

func (s *session) handleServerEvent(evt *serverEvent, raw []byte) {
	switch evt.Type {
	case "response.audio.delta":
		if evt.Delta == "" {
			return
		}
		audioData, err := base64.StdEncoding.DecodeString(evt.Delta)
		if err != nil || len(audioData) == 0 {
			return
		}
		select {
		case s.audioCh <- audioData:
		case <-s.ctx.Done():
		}

	case "response.audio_transcript.delta":
		if evt.Delta == "" {
			return
		}
		s.mu.Lock()
		s.currentText += evt.Delta
		s.mu.Unlock()

	case "response.audio_transcript.done":
		s.mu.Lock()
		text := s.currentText
		s.currentText = ""
		s.mu.Unlock()

		utterance := realtime.AgentUtterance{Text: text, Raw: string(raw)}
		if utterance.Content() == "" {
			return
		}
		select {
		case s.agentCh <- utterance:
		case <-s.ctx.Done():
		}

	case "conversation.item.input_audio_transcription.delta":
		if evt.Delta == "" {
			return
		}
		select {
		case s.userCh <- realtime.UserTranscription{Text: evt.Delta, Final: false}:
		case <-s.ctx.Done():
		}

	case "conversation.item.input_audio_transcription.completed":
		if evt.Transcript == "" {
			return
		}
		select {
		case s.userCh <- realtime.UserTranscription{Text: evt.Transcript, Final: true}:
		case <-s.ctx.Done():
		}

	case "error":
		msg := "unknown error"
		if evt.Error != nil && evt.Error.Message != "" {
			msg = evt.Error.Message
		}
		s.setErr(fmt.Errorf("grok: %s", msg))
	}
}
