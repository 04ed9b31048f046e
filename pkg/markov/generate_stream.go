package markov

import (
	"context"
	"log/slog"
)

// Stream runs the same walk as Generate but returns a read-only channel of
// tokens. This allows for processing generated tokens one by one, e.g. when
// playing them back as they are produced. The channel is closed once generation
// is complete or the context is cancelled.
//
// The Sampler must not be used for anything else until the channel is closed.
func (s *Sampler) Stream(ctx context.Context, start string, opts ...GenerateOption) <-chan string {
	options := defaultGenerateOptions()
	for _, opt := range opts {
		opt(options)
	}

	tokenChan := make(chan string)

	go func() {
		defer close(tokenChan)
		cancelled := func() bool {
			s.logger.DebugContext(ctx, "Stream generation cancelled by context",
				slog.Any("error", ctx.Err()),
			)
			return false
		}
		s.walk(start, options, func(token string) bool {
			// A ready receiver must not win over a cancelled context.
			if ctx.Err() != nil {
				return cancelled()
			}
			select {
			case <-ctx.Done():
				return cancelled()
			case tokenChan <- token:
				return true
			}
		})
	}()

	return tokenChan
}
