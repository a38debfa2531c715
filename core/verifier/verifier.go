package verifier

import (
	"context"
	"fmt"
	"log"
	"time"

	"dem-fill-client/core/clock"
	"dem-fill-client/core/models"
)

// ExistenceChecker is the slice of the object store the verifier needs
type ExistenceChecker interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

const (
	defaultAttempts = 3
	defaultDelay    = 2 * time.Second
)

// Verifier confirms that a completed job's output artifact actually landed
// in storage. Listings can lag a write, so absence is re-checked a bounded
// number of times before it is treated as real.
type Verifier struct {
	store    ExistenceChecker
	clock    clock.Clock
	attempts int
	delay    time.Duration
}

// New creates a verifier with the default re-check policy
func New(store ExistenceChecker, clk clock.Clock) *Verifier {
	return &Verifier{
		store:    store,
		clock:    clk,
		attempts: defaultAttempts,
		delay:    defaultDelay,
	}
}

// NewWithPolicy creates a verifier with an explicit attempt count and delay
func NewWithPolicy(store ExistenceChecker, clk clock.Clock, attempts int, delay time.Duration) *Verifier {
	v := New(store, clk)
	if attempts > 0 {
		v.attempts = attempts
	}
	if delay > 0 {
		v.delay = delay
	}
	return v
}

// Verify returns nil once the object at bucket/key is listable. If it is
// still absent after all attempts, the job's COMPLETED claim and storage
// disagree, which is a VerificationError rather than success.
func (v *Verifier) Verify(ctx context.Context, bucket, key string) error {
	for attempt := 1; attempt <= v.attempts; attempt++ {
		if attempt > 1 {
			if err := v.clock.Sleep(ctx, v.delay); err != nil {
				return &models.RunError{
					Kind:    models.ErrVerification,
					Message: fmt.Sprintf("verification of s3://%s/%s cancelled", bucket, key),
					Err:     err,
				}
			}
		}

		ok, err := v.store.Exists(ctx, bucket, key)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		log.Printf("output s3://%s/%s not visible yet (check %d/%d)", bucket, key, attempt, v.attempts)
	}

	return &models.RunError{
		Kind:    models.ErrVerification,
		Message: fmt.Sprintf("job reported COMPLETED but s3://%s/%s absent after %d checks", bucket, key, v.attempts),
	}
}
