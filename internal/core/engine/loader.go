package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gridfeed/gridfeed/internal/core"
	"github.com/gridfeed/gridfeed/internal/metrics"
)

// DefaultFetchTimeout bounds one provider session fetch and load.
const DefaultFetchTimeout = 2 * time.Minute

// Provider is the upstream session and schedule source.
type Provider interface {
	EventSchedule(ctx context.Context, year int) ([]core.Event, error)
	Session(ctx context.Context, year int, id core.Identifier, sessionType string) (SessionHandle, error)
}

// SessionHandle is an unloaded provider session; Load populates it.
type SessionHandle interface {
	core.Session
	Load(ctx context.Context) error
}

// Throttled is implemented by provider errors that carry the server's
// back-off request.
type Throttled interface {
	RateLimited() bool
	RetryAfterDelay() time.Duration
}

// SessionLoader fetches one session per request, paced by the limiter.
// It never retries: a failed request is terminal for that attempt.
type SessionLoader struct {
	Provider    Provider
	Limiter     *AdaptiveLimiter
	Timeout     time.Duration
	Logger      core.Logger
	ErrorLogger core.Logger
	Clock       func() time.Time
}

// Load fetches and loads the requested session.
func (l *SessionLoader) Load(ctx context.Context, req core.SessionRequest) (core.Session, error) {
	if l == nil || l.Provider == nil {
		return nil, errors.New("session loader is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.SessionType == "" {
		req.SessionType = core.SessionTypeRace
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	fields := requestFields(req)
	l.logger().Info("Requesting session", fields...)

	if err := l.Limiter.Wait(ctx); err != nil {
		return nil, &core.FetchFailedError{Request: req, Cause: err}
	}

	started := l.now()
	session, err := l.fetch(ctx, req)
	metrics.RecordFetch(err == nil, l.now().Sub(started))

	if err != nil {
		l.Limiter.Failure()
		var throttled Throttled
		if errors.As(err, &throttled) && throttled.RateLimited() {
			l.Limiter.Hold(throttled.RetryAfterDelay())
		}
		metrics.SetLimiterDelay(l.Limiter.Current())
		l.errorLogger().Error("Provider failed to load session",
			append(fields, zap.Duration("next_delay", l.Limiter.Current()), zap.Error(err))...)
		return nil, &core.FetchFailedError{Request: req, Cause: err}
	}

	l.Limiter.Success()
	metrics.SetLimiterDelay(l.Limiter.Current())
	l.logger().Info("Loaded session successfully", fields...)
	return session, nil
}

type fetchResult struct {
	session core.Session
	err     error
}

// fetch runs the provider call under the timeout. A provider that ignores
// its context is abandoned when the deadline passes; its goroutine exits once
// the call returns.
func (l *SessionLoader) fetch(ctx context.Context, req core.SessionRequest) (core.Session, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan fetchResult, 1)
	go func() {
		handle, err := l.Provider.Session(callCtx, req.Season, req.Identifier, req.SessionType)
		if err != nil {
			done <- fetchResult{err: err}
			return
		}
		if handle == nil {
			done <- fetchResult{err: errors.New("provider returned no session")}
			return
		}
		if err := handle.Load(callCtx); err != nil {
			done <- fetchResult{err: fmt.Errorf("load session: %w", err)}
			return
		}
		done <- fetchResult{session: handle}
	}()

	select {
	case res := <-done:
		return res.session, res.err
	case <-callCtx.Done():
		return nil, fmt.Errorf("provider call abandoned after %s: %w", timeout, callCtx.Err())
	}
}

func (l *SessionLoader) logger() core.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return core.NopLogger()
}

func (l *SessionLoader) errorLogger() core.Logger {
	if l.ErrorLogger != nil {
		return l.ErrorLogger
	}
	return l.logger()
}

func (l *SessionLoader) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}

func requestFields(req core.SessionRequest) []zap.Field {
	return []zap.Field{
		zap.Int("season", req.Season),
		zap.Stringer("identifier", req.Identifier),
		zap.String("session_type", req.SessionType),
	}
}
