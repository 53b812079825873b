// Package recorder captures and persists conversation transcripts.
//
// A [Recorder] belongs to exactly one voice session. It consumes the
// session's two typed event channels (finalized user transcriptions,
// committed agent utterances) on the worker's own goroutine via [Recorder.Consume],
// accumulates an ordered transcript in memory, and flushes it to a
// per-session output directory with [Recorder.Save] when the session closes.
//
// The worker owns the recorder for the session's lifetime and its task
// structure guarantees Save runs — and its failure is observed — before the
// session's resources are released. There is no detached best-effort save.
//
// Output layout:
//
//	<root>/
//	  <customer>_<session>_<timestamp>/
//	    transcript.json
//	    metadata.json   (optional)
package recorder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/voxfront/voxfront/pkg/provider/realtime"
)

// Entry is one recorded utterance with speaker role and timestamp.
type Entry struct {
	// Role is "user" or "agent".
	Role string `json:"role"`

	// Text is the trimmed utterance text.
	Text string `json:"text"`

	// Timestamp is the RFC 3339 capture time.
	Timestamp string `json:"timestamp"`
}

// Metadata is the session summary written to metadata.json.
type Metadata struct {
	SessionID       string  `json:"session_id"`
	CustomerID      string  `json:"customer_id"`
	UserName        string  `json:"user_name"`
	AgentName       string  `json:"agent_name"`
	Language        string  `json:"language"`
	StartedAt       string  `json:"started_at"`
	EndedAt         string  `json:"ended_at"`
	DurationSeconds float64 `json:"duration_seconds"`
	EntryCount      int     `json:"entry_count"`
}

// State is the recorder lifecycle state.
type State int

const (
	// StateIdle is the zero value; a recorder constructed by [New] never
	// observes it.
	StateIdle State = iota

	// StateRecording means the output directory exists and entries are
	// being accepted.
	StateRecording

	// StateSaved means Save has completed successfully at least once.
	// Further Save calls overwrite the same files.
	StateSaved
)

// SessionInfo identifies the session a recorder belongs to.
type SessionInfo struct {
	SessionID  string
	CustomerID string
	UserName   string
	AgentName  string
	Language   string
}

// Recorder accumulates the transcript of a single voice session.
type Recorder struct {
	info         SessionInfo
	saveMetadata bool
	outputDir    string
	startedAt    time.Time

	// now is the clock used for entry timestamps and metadata. Overridable
	// in tests.
	now func() time.Time

	mu      sync.Mutex
	entries []Entry
	state   State
}

// Option is a functional option for [New].
type Option func(*Recorder)

// WithClock overrides the recorder's clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// New creates a Recorder for one session, creates its uniquely named output
// directory under root (parents as needed), and enters the recording state.
func New(root string, info SessionInfo, saveMetadata bool, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		info:         info,
		saveMetadata: saveMetadata,
		now:          time.Now,
	}
	for _, o := range opts {
		o(r)
	}

	r.startedAt = r.now()
	dirName := fmt.Sprintf("%s_%s_%s", info.CustomerID, info.SessionID, r.startedAt.Format("20060102_150405"))
	r.outputDir = filepath.Join(root, dirName)
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("recorder: create output dir %q: %w", r.outputDir, err)
	}

	r.state = StateRecording
	slog.Info("transcript recorder ready", "dir", r.outputDir, "session_id", info.SessionID)
	return r, nil
}

// OutputDir returns the per-session output directory.
func (r *Recorder) OutputDir() string { return r.outputDir }

// State returns the recorder's current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Len returns the number of accumulated entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Consume receives from the session's event channels until both are closed
// or ctx is cancelled. Interim user transcriptions and empty or
// whitespace-only text are dropped; everything else is appended in arrival
// order. Consume performs no I/O — persistence is deferred to [Recorder.Save].
func (r *Recorder) Consume(ctx context.Context, user <-chan realtime.UserTranscription, agent <-chan realtime.AgentUtterance) {
	for user != nil || agent != nil {
		select {
		case ev, ok := <-user:
			if !ok {
				user = nil
				continue
			}
			if !ev.Final {
				continue
			}
			r.RecordUser(ev.Text)

		case ev, ok := <-agent:
			if !ok {
				agent = nil
				continue
			}
			r.RecordAgent(ev.Content())

		case <-ctx.Done():
			return
		}
	}
}

// RecordUser appends a finalized user utterance. Empty text after trimming
// is ignored.
func (r *Recorder) RecordUser(text string) {
	r.append("user", text)
}

// RecordAgent appends a committed agent utterance. Empty text after trimming
// is ignored.
func (r *Recorder) RecordAgent(text string) {
	r.append("agent", text)
}

func (r *Recorder) append(role, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Role:      role,
		Text:      text,
		Timestamp: r.now().Format(time.RFC3339),
	})
	slog.Debug("transcript entry", "role", role, "len", len(text))
}

// Save writes the accumulated transcript to transcript.json and, when
// metadata saving is enabled, the session summary to metadata.json. It
// returns a mapping of artifact names to written paths.
//
// A successful Save transitions the recorder to [StateSaved]; a failed one
// leaves the state untouched. Calling it again overwrites the same files;
// only ended_at and duration_seconds advance. Any I/O error is returned to
// the caller — during session teardown there is no further recovery, so the
// worker logs it and moves on.
func (r *Recorder) Save() (map[string]string, error) {
	r.mu.Lock()
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	r.mu.Unlock()

	saved := make(map[string]string, 2)

	transcriptPath := filepath.Join(r.outputDir, "transcript.json")
	if err := writeJSONFile(transcriptPath, entries); err != nil {
		return saved, fmt.Errorf("recorder: save transcript: %w", err)
	}
	saved["transcript"] = transcriptPath
	slog.Info("transcript saved", "path", transcriptPath, "entries", len(entries))

	if r.saveMetadata {
		endedAt := r.now()
		meta := Metadata{
			SessionID:       r.info.SessionID,
			CustomerID:      r.info.CustomerID,
			UserName:        r.info.UserName,
			AgentName:       r.info.AgentName,
			Language:        r.info.Language,
			StartedAt:       r.startedAt.Format(time.RFC3339),
			EndedAt:         endedAt.Format(time.RFC3339),
			DurationSeconds: endedAt.Sub(r.startedAt).Seconds(),
			EntryCount:      len(entries),
		}
		metadataPath := filepath.Join(r.outputDir, "metadata.json")
		if err := writeJSONFile(metadataPath, meta); err != nil {
			return saved, fmt.Errorf("recorder: save metadata: %w", err)
		}
		saved["metadata"] = metadataPath
		slog.Info("metadata saved", "path", metadataPath)
	}

	r.mu.Lock()
	r.state = StateSaved
	r.mu.Unlock()
	return saved, nil
}

// writeJSONFile writes v as human-readable, two-space-indented JSON with
// non-ASCII preserved literally.
func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
