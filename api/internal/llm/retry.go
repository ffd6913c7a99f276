package llm

import (
	"context"
	"time"
)

// Policy bounds a single logical call.
type Policy struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int
	// Delay is the base wait between attempts; attempt n waits n*Delay.
	Delay time.Duration
	// Timeout caps each attempt. Zero disables it.
	Timeout time.Duration
}

// Retry runs op until it succeeds, returns a non-retryable error, or has
// been retried maxRetries times.
func Retry(ctx context.Context, maxRetries int, delay time.Duration, op func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay * time.Duration(attempt+1)):
		}
	}
	return lastErr
}

// Call sends req through s under p. Errors that are not already
// *ProviderError are wrapped in one.
func Call(ctx context.Context, s Sender, req Request, p Policy) (string, error) {
	var out string
	err := Retry(ctx, p.MaxRetries, p.Delay, func(ctx context.Context) error {
		actx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}
		text, err := s.Send(actx, req)
		if err != nil {
			return asProviderError(s.Provider(), req.Model, err)
		}
		out = text
		return nil
	})
	return out, err
}

func asProviderError(p Provider, model string, err error) error {
	if _, ok := err.(*ProviderError); ok {
		return err
	}
	return NewProviderError(p, model, 0, err)
}
