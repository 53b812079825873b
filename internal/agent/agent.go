// Package agent dispatches voice-agent workers into rooms.
//
// The [Runner] consumes the session service's announcement channel: for every
// live session it signs an agent credential, joins the session's room, and
// hands the room to a [worker.Worker]. Each conversation runs on its own
// goroutine; Run returns only after all of them have finished.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxfront/voxfront/internal/config"
	"github.com/voxfront/voxfront/internal/resilience"
	"github.com/voxfront/voxfront/internal/rtc"
	"github.com/voxfront/voxfront/internal/session"
	"github.com/voxfront/voxfront/internal/worker"
)

// Room joins are retried briefly: the room often becomes joinable moments
// after the credential is issued. Persistent failures trip a breaker so a
// down room service is not hammered once per announcement.
const (
	dialAttempts = 3
	dialBackoff  = 500 * time.Millisecond
)

// DialFunc joins a room on the room service. The default is [rtc.Dial];
// tests substitute a function returning a mock room.
type DialFunc func(ctx context.Context, serverURL, roomName, token string) (rtc.Room, error)

// Runner joins rooms and runs one worker per announced session.
type Runner struct {
	room    config.RoomConfig
	worker  *worker.Worker
	dial    DialFunc
	breaker *resilience.Breaker
}

// Option is a functional option for [New].
type Option func(*Runner)

// WithDialFunc overrides how the runner joins rooms. Used in tests.
func WithDialFunc(dial DialFunc) Option {
	return func(r *Runner) { r.dial = dial }
}

// New creates a Runner that joins rooms on the configured room service.
func New(room config.RoomConfig, w *worker.Worker, opts ...Option) (*Runner, error) {
	if w == nil {
		return nil, errors.New("agent: worker must not be nil")
	}
	r := &Runner{
		room:    room,
		worker:  w,
		dial:    rtc.Dial,
		breaker: resilience.NewBreaker(resilience.BreakerConfig{Name: "room-dial"}),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Run consumes announcements until the channel closes or ctx is cancelled,
// then waits for all in-flight conversations to finish.
func (r *Runner) Run(ctx context.Context, announcements <-chan session.Session) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sess, ok := <-announcements:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := r.handle(ctx, sess); err != nil {
					slog.Error("agent session failed", "session_id", sess.SessionID, "err", err)
				}
			}()
		}
	}
}

// handle runs one conversation: sign, join, work, leave.
func (r *Runner) handle(ctx context.Context, sess session.Session) error {
	token, err := session.AgentToken(r.room, sess.RoomName)
	if err != nil {
		return fmt.Errorf("agent: %w", err)
	}

	var room rtc.Room
	err = r.breaker.Do(func() error {
		return resilience.Retry(ctx, dialAttempts, dialBackoff, func(ctx context.Context) error {
			var derr error
			room, derr = r.dial(ctx, r.room.URL, sess.RoomName, token)
			return derr
		})
	})
	if err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	defer func() {
		if err := room.Close(); err != nil {
			slog.Warn("room close error", "room", sess.RoomName, "err", err)
		}
	}()

	return r.worker.Run(ctx, room)
}
