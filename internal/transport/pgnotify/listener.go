// Package pgnotify turns PostgreSQL NOTIFY payloads into cache invalidations.
package pgnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/usecase/invalidation"
)

const (
	source         = "notify"
	minBackoff     = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
	healthyAfter   = time.Minute
	defaultChannel = "jobmatch_invalidate"
)

// Invalidator applies one change event.
type Invalidator interface {
	Apply(ctx context.Context, source string, ev invalidation.Event) (int, error)
}

// Listener holds a dedicated connection LISTENing on one channel.
type Listener struct {
	pool        *pgxpool.Pool
	channel     string
	invalidator Invalidator
	logger      *zap.Logger
}

// New creates a Listener. An empty channel uses jobmatch_invalidate.
func New(pool *pgxpool.Pool, channel string, inv Invalidator, logger *zap.Logger) *Listener {
	if channel == "" {
		channel = defaultChannel
	}
	return &Listener{pool: pool, channel: channel, invalidator: inv, logger: logger}
}

// Run listens until ctx is done, reconnecting with capped exponential backoff.
func (l *Listener) Run(ctx context.Context) {
	attempt := 0
	for {
		started := time.Now()
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > healthyAfter {
			attempt = 0
		}
		wait := backoff(attempt)
		attempt++
		l.logger.Warn("Notify listener disconnected",
			zap.String("channel", l.channel),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	// LISTEN state is per-connection; never hand it back to the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.Background()) //nolint:errcheck // best-effort close

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info("Listening for invalidations", zap.String("channel", l.channel))

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.handle(ctx, n.Payload)
	}
}

// handle decodes and applies one payload. Bad payloads are logged and dropped.
func (l *Listener) handle(ctx context.Context, payload string) {
	var ev invalidation.Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		l.logger.Warn("Invalid notify payload", zap.String("payload", payload), zap.Error(err))
		return
	}
	if _, err := l.invalidator.Apply(ctx, source, ev); err != nil {
		level := zap.ErrorLevel
		if errors.Is(err, context.Canceled) {
			level = zap.DebugLevel
		}
		l.logger.Log(level, "Notify invalidation failed",
			zap.String("kind", string(ev.Kind)),
			zap.String("id", ev.ID),
			zap.Error(err),
		)
	}
}

func backoff(attempt int) time.Duration {
	d := minBackoff
	for range attempt {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
