// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/luxfi/log"
)

// LinearBackOff waits Delay after the first failure, 2*Delay after the
// second, and so on.
type LinearBackOff struct {
	Delay   time.Duration
	attempt int64
}

func (b *LinearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.Delay * time.Duration(b.attempt)
}

func (b *LinearBackOff) Reset() {
	b.attempt = 0
}

// WithMaxRetries runs operation up to attempts times, sleeping delay*n
// after the n-th failure. It returns nil on the first success, otherwise
// the last error. Errors wrapped with backoff.Permanent stop immediately.
func WithMaxRetries(
	ctx context.Context,
	operation backoff.Operation,
	attempts uint64,
	delay time.Duration,
	logger log.Logger,
) error {
	if attempts == 0 {
		attempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(&LinearBackOff{Delay: delay}, attempts-1),
		ctx,
	)
	attempt := uint64(0)
	notify := func(err error, next time.Duration) {
		attempt++
		logger.Warn("operation failed, retrying",
			log.Uint64("attempt", attempt),
			log.Uint64("maxAttempts", attempts),
			log.Duration("backoff", next),
			log.Err(err),
		)
	}
	return backoff.RetryNotify(operation, policy, notify)
}

// Poll runs operation every interval until it returns nil, returns an
// error wrapped with backoff.Permanent, or ctx is done.
func Poll(ctx context.Context, interval time.Duration, operation backoff.Operation) error {
	return backoff.Retry(
		operation,
		backoff.WithContext(backoff.NewConstantBackOff(interval), ctx),
	)
}
