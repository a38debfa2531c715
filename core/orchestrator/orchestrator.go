package orchestrator

import (
	"context"
	"fmt"
	"log"

	"dem-fill-client/core/clock"
	"dem-fill-client/core/models"
	"dem-fill-client/core/poller"
	"dem-fill-client/core/verifier"

	"github.com/google/uuid"
)

// ObjectStore is the storage surface the orchestrator needs
type ObjectStore interface {
	Upload(ctx context.Context, localPath, bucket, key string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// JobService submits jobs to and queries status from the remote endpoint
type JobService interface {
	Submit(ctx context.Context, filename string) (string, error)
	Status(ctx context.Context, jobID string) (*models.StatusReport, error)
}

// RunParams describes one orchestration run
type RunParams struct {
	// LocalPath is the file to upload; unused when SkipUpload is set
	LocalPath string
	// Filename is the name under the shared bucket's prefixes
	Filename string
	// SkipUpload targets an already-staged input object
	SkipUpload bool
	Policy     poller.Policy
}

// Orchestrator sequences one run end to end: upload, submit, poll, verify.
// Instances are safe for concurrent runs; the collaborators are read-only
// and each run tracks exactly one job with no shared mutable state.
type Orchestrator struct {
	store        ObjectStore
	jobs         JobService
	clock        clock.Clock
	bucket       string
	inputPrefix  string
	outputPrefix string
}

// New creates an orchestrator bound to one bucket and its key prefixes
func New(store ObjectStore, jobs JobService, clk clock.Clock, bucket, inputPrefix, outputPrefix string) *Orchestrator {
	return &Orchestrator{
		store:        store,
		jobs:         jobs,
		clock:        clk,
		bucket:       bucket,
		inputPrefix:  inputPrefix,
		outputPrefix: outputPrefix,
	}
}

// Run executes one end-to-end run and always returns an Outcome; component
// failures are attached to it with their kind unmodified. A failed run is
// reported, never resubmitted, since resubmission means duplicate compute.
func (o *Orchestrator) Run(ctx context.Context, params RunParams) *models.Outcome {
	outcome := &models.Outcome{
		RunID:     uuid.New().String(),
		StartedAt: o.clock.Now(),
		InputRef: models.ArtifactRef{
			Bucket:    o.bucket,
			Key:       o.inputPrefix + params.Filename,
			LocalPath: params.LocalPath,
		},
		OutputRef: models.ArtifactRef{
			Bucket: o.bucket,
			Key:    o.outputPrefix + params.Filename,
		},
	}

	if params.SkipUpload {
		log.Printf("skipping upload; expecting %s to be staged already", outcome.InputRef.URI())
	} else {
		if err := o.store.Upload(ctx, params.LocalPath, outcome.InputRef.Bucket, outcome.InputRef.Key); err != nil {
			return o.fail(outcome, nil, err)
		}
		log.Printf("uploaded %s to %s", params.LocalPath, outcome.InputRef.URI())
	}

	jobID, err := o.jobs.Submit(ctx, params.Filename)
	if err != nil {
		return o.fail(outcome, nil, err)
	}
	job := &models.Job{
		ID:          jobID,
		Filename:    params.Filename,
		Status:      models.StatusQueued,
		SubmittedAt: o.clock.Now(),
	}
	log.Printf("submitted job %s for %s", jobID, params.Filename)

	if err := poller.New(o.jobs, o.clock, params.Policy).Wait(ctx, job); err != nil {
		return o.fail(outcome, job, err)
	}

	switch job.Status {
	case models.StatusCompleted:
		if err := verifier.New(o.store, o.clock).Verify(ctx, outcome.OutputRef.Bucket, outcome.OutputRef.Key); err != nil {
			return o.fail(outcome, job, err)
		}
	case models.StatusFailed:
		msg := job.FailureMessage
		if msg == "" {
			msg = fmt.Sprintf("remote job %s failed", job.ID)
		}
		return o.fail(outcome, job, &models.RunError{Kind: models.ErrJobFailed, Message: msg})
	case models.StatusCancelled:
		return o.fail(outcome, job, &models.RunError{
			Kind:    models.ErrJobFailed,
			Message: fmt.Sprintf("remote job %s was cancelled", job.ID),
		})
	case models.StatusTimedOut:
		return o.fail(outcome, job, &models.RunError{
			Kind: models.ErrTimeout,
			Message: fmt.Sprintf("job %s did not reach a terminal status within the wait budget (elapsed %.0fs); the remote job may still be running",
				job.ID, job.ElapsedSeconds),
		})
	}

	outcome.Success = true
	outcome.Job = job
	outcome.FinishedAt = o.clock.Now()
	log.Printf("run %s succeeded: job %s completed, output at %s", outcome.RunID, job.ID, outcome.OutputRef.URI())
	return outcome
}

// fail finalizes the outcome with the first failure, untranslated
func (o *Orchestrator) fail(outcome *models.Outcome, job *models.Job, err error) *models.Outcome {
	outcome.Job = job
	outcome.FinishedAt = o.clock.Now()
	if re := models.AsRunError(err); re != nil {
		outcome.Err = re
	} else {
		outcome.Err = &models.RunError{Kind: models.ErrPoll, Message: "unclassified failure", Err: err}
	}
	log.Printf("run %s failed: %v", outcome.RunID, outcome.Err)
	return outcome
}
