// Package worker runs one agent conversation per joined room.
//
// A [Worker] is constructed once with shared infrastructure (persona
// registry, realtime provider, recording settings) and then drives
// individual sessions via [Worker.Run]. Run owns the session end to end:
// it waits for the remote participant, resolves the persona from session
// metadata, opens the speech-to-speech session, pumps transcript events into
// the recorder, and flushes the transcript to disk as part of its own
// teardown. The save step runs on every exit path.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxfront/voxfront/internal/observe"
	"github.com/voxfront/voxfront/internal/persona"
	"github.com/voxfront/voxfront/internal/prompt"
	"github.com/voxfront/voxfront/internal/recorder"
	"github.com/voxfront/voxfront/internal/rtc"
	"github.com/voxfront/voxfront/pkg/provider/realtime"
)

// Participant wait windows. The initial wait runs before the model session
// starts; the greeting re-poll runs after, so a slow join still gets greeted.
const (
	defaultJoinTimeout  = 15 * time.Second
	defaultGreetTimeout = 5 * time.Second
)

// Config holds the shared dependencies for a [Worker].
type Config struct {
	// Registry resolves persona ids from session metadata. Required.
	Registry *persona.Registry

	// Provider opens speech-to-speech sessions. Required.
	Provider realtime.Provider

	// RecordingsDir is the root directory for transcript output. Required.
	RecordingsDir string

	// SaveMetadata enables metadata.json next to transcript.json.
	SaveMetadata bool

	// Metrics is optional; nil disables instrumentation.
	Metrics *observe.Metrics

	// JoinTimeout bounds the initial wait for a remote participant.
	// Zero selects the default.
	JoinTimeout time.Duration

	// GreetTimeout bounds the pre-greeting re-poll when nobody joined
	// during the initial wait. Zero selects the default.
	GreetTimeout time.Duration
}

// Worker drives agent conversations. Safe for concurrent use: each Run call
// is independent and the shared fields are immutable after construction.
type Worker struct {
	registry      *persona.Registry
	provider      realtime.Provider
	recordingsDir string
	saveMetadata  bool
	metrics       *observe.Metrics
	joinTimeout   time.Duration
	greetTimeout  time.Duration
}

// New creates a Worker from cfg. Returns an error when a required
// dependency is missing.
func New(cfg Config) (*Worker, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("worker: Registry must not be nil")
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("worker: Provider must not be nil")
	}
	if cfg.RecordingsDir == "" {
		return nil, fmt.Errorf("worker: RecordingsDir must not be empty")
	}
	if cfg.JoinTimeout == 0 {
		cfg.JoinTimeout = defaultJoinTimeout
	}
	if cfg.GreetTimeout == 0 {
		cfg.GreetTimeout = defaultGreetTimeout
	}
	return &Worker{
		registry:      cfg.Registry,
		provider:      cfg.Provider,
		recordingsDir: cfg.RecordingsDir,
		saveMetadata:  cfg.SaveMetadata,
		metrics:       cfg.Metrics,
		joinTimeout:   cfg.JoinTimeout,
		greetTimeout:  cfg.GreetTimeout,
	}, nil
}

// Run executes one conversation in the given room and returns when the
// model session ends or ctx is cancelled. The transcript save always runs
// before Run returns; a save failure is logged and counted but does not
// mask the session's own error.
func (w *Worker) Run(ctx context.Context, room rtc.Room) error {
	log := slog.With("room", room.Name())
	log.Info("agent joining room")

	started := time.Now()
	if w.metrics != nil {
		w.metrics.ActiveSessions.Add(ctx, 1)
		defer w.metrics.ActiveSessions.Add(context.WithoutCancel(ctx), -1)
	}

	// ── Wait for a user to join ──────────────────────────────────────────
	first, ok := rtc.WaitForParticipant(ctx, room, w.joinTimeout)
	if ok {
		log.Info("remote participant joined", "identity", first.Identity())
	} else {
		log.Warn("no remote participant joined in time; continuing anyway", "timeout", w.joinTimeout)
	}

	// ── Resolve session identity from metadata ───────────────────────────
	var candidates []rtc.Participant
	if first != nil {
		candidates = append(candidates, first)
	}
	candidates = append(candidates, room.RemoteParticipants()...)
	id := identityFromParticipants(candidates)

	log = log.With("session_id", id.SessionID, "customer", id.CustomerID, "language", id.Language)
	log.Info("session identity resolved", "user", id.UserName)

	// ── Load persona ─────────────────────────────────────────────────────
	p, ok := w.registry.Get(id.CustomerID)
	if !ok {
		log.Warn("unknown persona id; falling back to default", "fallback", persona.DefaultID)
		p, ok = w.registry.Get(persona.DefaultID)
		if !ok {
			return fmt.Errorf("worker: no persona for %q and no %q fallback", id.CustomerID, persona.DefaultID)
		}
	}
	instructions := prompt.SystemPrompt(p, id.Language)
	log.Info("persona loaded", "agent", p.AgentName, "voice", p.Voice)

	// ── Recorder ─────────────────────────────────────────────────────────
	rec, err := recorder.New(w.recordingsDir, recorder.SessionInfo{
		SessionID:  id.SessionID,
		CustomerID: id.CustomerID,
		UserName:   id.UserName,
		AgentName:  p.AgentName,
		Language:   id.Language,
	}, w.saveMetadata)
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}

	// ── Model session ────────────────────────────────────────────────────
	sess, err := w.provider.Connect(ctx, realtime.SessionConfig{
		Voice:        p.Voice,
		Instructions: instructions,
	})
	if err != nil {
		// The session never started; persist the (empty) transcript so the
		// output directory reflects what actually happened.
		w.save(ctx, rec, log)
		return fmt.Errorf("worker: connect realtime session: %w", err)
	}
	log.Info("agent is live", "language", prompt.LanguageName(id.Language))

	g, gctx := errgroup.WithContext(ctx)

	// Transcript pump: blocking receive on the session's two typed event
	// channels. Ends when the session closes both.
	g.Go(func() error {
		rec.Consume(gctx, sess.UserTranscriptions(), sess.AgentUtterances())
		return nil
	})

	// The room service plays synthesised audio to the participant; this
	// process only needs to keep the channel drained.
	g.Go(func() error {
		for range sess.Audio() {
		}
		return nil
	})

	pumpsDone := make(chan struct{})
	go func() {
		defer close(pumpsDone)
		_ = g.Wait()
	}()

	// ── Greeting ─────────────────────────────────────────────────────────
	w.greet(ctx, room, sess, p, id, log)

	// ── Wait for the session to end ──────────────────────────────────────
	// Either the service closes the event channels (pumps drain and exit)
	// or the surrounding context is cancelled.
	select {
	case <-pumpsDone:
	case <-ctx.Done():
	}
	if err := sess.Close(); err != nil {
		log.Warn("session close error", "err", err)
	}
	<-pumpsDone

	// ── Teardown: flush transcript, observe the result ───────────────────
	log.Info("session ended; saving transcript")
	w.save(ctx, rec, log)

	if w.metrics != nil {
		w.metrics.SessionDuration.Record(context.WithoutCancel(ctx), time.Since(started).Seconds())
	}

	if err := sess.Err(); err != nil {
		return fmt.Errorf("worker: realtime session: %w", err)
	}
	return nil
}

// greet dispatches the greeting instruction once a participant is present.
// If nobody joined during the initial wait, one shorter re-poll runs; when
// the room is still empty the greeting is skipped with a warning rather
// than failing the session.
func (w *Worker) greet(ctx context.Context, room rtc.Room, sess realtime.SessionHandle, p persona.Persona, id sessionIdentity, log *slog.Logger) {
	if len(room.RemoteParticipants()) == 0 {
		log.Info("waiting briefly for participant before greeting")
		if _, ok := rtc.WaitForParticipant(ctx, room, w.greetTimeout); !ok {
			log.Warn("still no remote participants; skipping greeting")
			return
		}
	}

	instruction := prompt.GreetingInstruction(p, id.UserName, id.Language)
	log.Info("dispatching greeting")
	if err := sess.Instruct(instruction); err != nil {
		log.Warn("greeting dispatch failed", "err", err)
	}
}

// save flushes the recorder and logs the outcome. Save failures are logged
// and counted; they never fail the session.
func (w *Worker) save(ctx context.Context, rec *recorder.Recorder, log *slog.Logger) {
	saved, err := rec.Save()
	if err != nil {
		log.Error("transcript save failed", "err", err, "dir", rec.OutputDir())
		if w.metrics != nil {
			w.metrics.SaveFailures.Add(context.WithoutCancel(ctx), 1)
		}
		return
	}
	if w.metrics != nil {
		w.metrics.TranscriptEntries.Add(context.WithoutCancel(ctx), int64(rec.Len()))
	}
	for name, path := range saved {
		log.Info("artifact saved", "artifact", name, "path", path)
	}
}
