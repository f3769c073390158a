package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter decides whether an identity may start another run.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// RateLimitError is returned when a subject has used up its budget.
// It matches ErrTooManyRequests with errors.Is.
type RateLimitError struct {
	Subject    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Subject, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool { return target == ErrTooManyRequests }

// idleAfter is how long a subject's bucket must sit untouched before it
// can be dropped. By then it has refilled completely.
const idleAfter = time.Minute

// SubjectLimiter gives every subject a token bucket of perMinute tokens
// that refills evenly over a minute. State lives in process memory.
type SubjectLimiter struct {
	every     rate.Limit
	perMinute int
	now       func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewSubjectLimiter admits perMinute requests per subject and minute. A
// non-positive perMinute admits everything.
func NewSubjectLimiter(perMinute int) *SubjectLimiter {
	l := &SubjectLimiter{
		perMinute: perMinute,
		now:       time.Now,
		buckets:   make(map[string]*bucket),
	}
	if perMinute > 0 {
		l.every = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return l
}

// Allow takes one token from the identity's bucket.
func (l *SubjectLimiter) Allow(_ context.Context, identity *Identity) error {
	if l.perMinute <= 0 {
		return nil
	}

	now := l.now()
	b := l.bucketFor(identity.Subject, now)

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &RateLimitError{Subject: identity.Subject, RetryAfter: delay}
	}
	return nil
}

func (l *SubjectLimiter) bucketFor(subject string, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[subject]; ok {
		b.lastSeen = now
		return b
	}
	l.sweep(now)
	b := &bucket{limiter: rate.NewLimiter(l.every, l.perMinute), lastSeen: now}
	l.buckets[subject] = b
	return b
}

// sweep drops idle buckets once many subjects have been seen. Must be
// called with mu held.
func (l *SubjectLimiter) sweep(now time.Time) {
	if len(l.buckets) < 1024 {
		return
	}
	for subject, b := range l.buckets {
		if now.Sub(b.lastSeen) >= idleAfter {
			delete(l.buckets, subject)
		}
	}
}

// retryAfter returns the Retry-After value in whole seconds, at least 1.
func retryAfter(err error) int {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return max(int((rle.RetryAfter+time.Second-1)/time.Second), 1)
	}
	return 60
}
