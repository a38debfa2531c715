package verifier

import (
	"context"
	"testing"
	"time"

	"dem-fill-client/core/clock"
	"dem-fill-client/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqChecker replays scripted existence results; the last repeats
type seqChecker struct {
	results []bool
	err     error
	calls   int
}

func (c *seqChecker) Exists(ctx context.Context, bucket, key string) (bool, error) {
	idx := c.calls
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	if idx >= len(c.results) {
		idx = len(c.results) - 1
	}
	return c.results[idx], nil
}

func TestVerifyWaitsOutListingLag(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	checker := &seqChecker{results: []bool{false, false, true}}

	err := New(checker, clk).Verify(context.Background(), "dem-fill-serverless-file-store", "completed/tile.tif")
	require.NoError(t, err)
	assert.Equal(t, 3, checker.calls)
}

func TestVerifyReportsGenuineAbsence(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	checker := &seqChecker{results: []bool{false}}

	err := New(checker, clk).Verify(context.Background(), "dem-fill-serverless-file-store", "completed/tile.tif")
	require.Error(t, err)

	assert.Equal(t, models.ErrVerification, models.KindOf(err))
	assert.Equal(t, 3, checker.calls)
}

func TestVerifyPropagatesStorageFailures(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	queryErr := &models.RunError{Kind: models.ErrStorageQuery, Message: "existence check failed"}
	checker := &seqChecker{err: queryErr}

	err := New(checker, clk).Verify(context.Background(), "dem-fill-serverless-file-store", "completed/tile.tif")
	require.Error(t, err)

	assert.Equal(t, models.ErrStorageQuery, models.KindOf(err))
	assert.Equal(t, 1, checker.calls, "storage failures are not retried here")
}

func TestVerifyAttemptPolicyOverride(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	checker := &seqChecker{results: []bool{false}}

	v := NewWithPolicy(checker, clk, 5, time.Second)
	err := v.Verify(context.Background(), "bucket", "completed/tile.tif")
	require.Error(t, err)
	assert.Equal(t, 5, checker.calls)
}
