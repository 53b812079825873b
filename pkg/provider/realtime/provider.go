// Package realtime defines the Provider interface for speech-to-speech voice
// model backends.
//
// A realtime provider wraps a managed voice AI service that accepts raw audio
// and returns synthesised speech in a single stateful session — speech
// recognition, language generation, and synthesis all happen inside the
// service. Voxfront only configures the session (voice, instructions) and
// observes its transcript events.
//
// A session exposes its conversation as two typed event channels: finalized
// user transcriptions and committed agent utterances. Consumers receive from
// both on their own goroutine; handlers registered on foreign dispatch loops
// are deliberately not part of this API.
//
// All implementations must be safe for concurrent use.
package realtime

import "context"

// UserTranscription is the service's recognition result for a stretch of
// user speech. Interim results carry Final == false and are superseded by a
// later event for the same stretch of speech.
type UserTranscription struct {
	// Text is the recognised speech content.
	Text string

	// Final reports whether this is the authoritative transcription.
	// Non-final events must not be persisted — a final event for the same
	// audio follows.
	Final bool
}

// AgentUtterance is one committed spoken response from the agent.
type AgentUtterance struct {
	// Text is the utterance transcript as reported by the service.
	Text string

	// Raw is the service's unparsed event payload. Used as a fallback when
	// the service omits the transcript field.
	Raw string
}

// Content returns the utterance text, falling back to the raw payload when
// the service did not supply an explicit transcript.
func (u AgentUtterance) Content() string {
	if u.Text != "" {
		return u.Text
	}
	return u.Raw
}

// SessionConfig is the initial configuration for a new realtime session.
type SessionConfig struct {
	// Voice selects the model voice for synthesised speech.
	Voice string

	// Instructions is the system-level prompt defining the agent's persona
	// and behavioural constraints.
	Instructions string
}

// SessionHandle represents an open realtime session.
//
// The returned channels are owned by the session: both are closed when the
// session ends. After they close, call Err to check whether the session
// ended cleanly. Callers must call Close when done; calling Close more than
// once is safe.
type SessionHandle interface {
	// SendAudio delivers a raw PCM16 audio chunk to the service.
	SendAudio(chunk []byte) error

	// Audio returns a read-only channel emitting synthesised PCM16 audio.
	// Consumers must drain it promptly to avoid stalling the receive loop.
	Audio() <-chan []byte

	// UserTranscriptions returns the channel of user speech recognition
	// events, both interim and final, in arrival order.
	UserTranscriptions() <-chan UserTranscription

	// AgentUtterances returns the channel of committed agent responses, in
	// arrival order.
	AgentUtterances() <-chan AgentUtterance

	// Instruct asks the model to produce a spoken response following the
	// given one-off instruction (e.g., a greeting). It does not alter the
	// session's system instructions.
	Instruct(instruction string) error

	// Err returns the error that terminated the session, or nil if it
	// ended cleanly. Valid after the event channels are closed.
	Err() error

	// Close terminates the session and closes all event channels.
	Close() error
}

// Provider is the abstraction over any speech-to-speech backend.
type Provider interface {
	// Connect establishes a new session. The handle is ready to accept
	// audio immediately. The caller owns the handle and must Close it.
	Connect(ctx context.Context, cfg SessionConfig) (SessionHandle, error)

	// Voices lists the voice identifiers this provider accepts.
	Voices() []string
}
