// Package poller runs the bounded retry loop behind asynchronous demo
// steps: re-fetch a resource until its response satisfies a success or
// failure condition, up to a maximum number of attempts.
package poller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stagehand/engine/pkg/condition"
	"stagehand/engine/pkg/jsonpath"

	"github.com/oklog/ulid/v2"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 30
)

var (
	// ErrFailureCondition reports a failure_when match.
	ErrFailureCondition = errors.New("poller: failure condition met")
	// ErrAttemptsExhausted reports that max attempts passed without a
	// terminal condition.
	ErrAttemptsExhausted = errors.New("poller: attempts exhausted")
)

// Config drives one poll. SuccessWhen is required; FailureWhen is
// optional and an absent one never matches.
type Config struct {
	Endpoint    string
	SuccessWhen string
	FailureWhen string
	Interval    time.Duration
	MaxAttempts int
	Save        map[string]string
}

func (c Config) interval() time.Duration {
	if c.Interval > 0 {
		return c.Interval
	}
	return DefaultInterval
}

func (c Config) maxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return DefaultMaxAttempts
}

// FetchFunc performs one poll request and returns the decoded response.
type FetchFunc func(ctx context.Context) (any, error)

type Status int8

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusExhausted
	StatusCanceled
)

func (s Status) String() string {
	return [...]string{"Success", "Failed", "Exhausted", "Canceled"}[s]
}

// Result is the terminal state of a poll.
type Result struct {
	RunID        ulid.ULID
	Status       Status
	Attempts     int
	Saved        map[string]any
	LastResponse any
}

// Poll fetches until SuccessWhen evaluates true, FailureWhen (when
// present) evaluates true, attempts run out, or ctx is canceled. Fetch
// errors count as unsatisfied attempts; a broken backend mid-poll
// behaves like a pending one. On success the Save paths are extracted
// from the final response.
func Poll(ctx context.Context, cfg Config, fetch FetchFunc, log *slog.Logger) (Result, error) {
	if log == nil {
		log = slog.Default()
	}

	result := Result{RunID: ulid.Make()}
	log = log.With("poll_run", result.RunID.String(), "endpoint", cfg.Endpoint)

	maxAttempts := cfg.maxAttempts()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			result.Status = StatusCanceled
			result.Attempts = attempt - 1
			return result, err
		}

		result.Attempts = attempt

		resp, err := fetch(ctx)
		if err != nil {
			log.WarnContext(ctx, "poll fetch failed", "attempt", attempt, "error", err)
		} else {
			result.LastResponse = resp

			if condition.Evaluate(cfg.SuccessWhen, resp) {
				result.Status = StatusSuccess
				result.Saved = extractSaved(resp, cfg.Save)
				log.InfoContext(ctx, "poll succeeded", "attempt", attempt)
				return result, nil
			}

			if cfg.FailureWhen != "" && condition.Evaluate(cfg.FailureWhen, resp) {
				result.Status = StatusFailed
				log.InfoContext(ctx, "poll hit failure condition", "attempt", attempt)
				return result, ErrFailureCondition
			}

			log.DebugContext(ctx, "poll not satisfied", "attempt", attempt)
		}

		if attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(cfg.interval()):
		case <-ctx.Done():
			result.Status = StatusCanceled
			return result, ctx.Err()
		}
	}

	result.Status = StatusExhausted
	log.WarnContext(ctx, "poll exhausted", "attempts", result.Attempts)
	return result, ErrAttemptsExhausted
}

// extractSaved pulls the configured paths out of the final response.
// Paths that resolve to nothing are skipped, not errors.
func extractSaved(resp any, save map[string]string) map[string]any {
	if len(save) == 0 {
		return nil
	}

	saved := make(map[string]any, len(save))
	for name, path := range save {
		if val, ok := jsonpath.Resolve(resp, path); ok {
			saved[name] = val
		}
	}
	return saved
}
