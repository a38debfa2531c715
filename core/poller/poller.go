package poller

import (
	"context"
	"fmt"
	"log"
	"time"

	"dem-fill-client/core/clock"
	"dem-fill-client/core/models"
)

// StatusSource queries a job's remote status
type StatusSource interface {
	Status(ctx context.Context, jobID string) (*models.StatusReport, error)
}

// Policy controls the poll loop's timing and retry behavior. The values are
// defaults, not a contract with the remote API; callers tune them per run.
type Policy struct {
	// Interval is the fixed delay between status queries
	Interval time.Duration
	// MaxWait is the wall-clock budget measured from submission
	MaxWait time.Duration
	// FailureThreshold is the number of consecutive transient query
	// failures tolerated before the loop gives up
	FailureThreshold int
}

// DefaultPolicy mirrors the endpoint's usual operating parameters
func DefaultPolicy() Policy {
	return Policy{
		Interval:         10 * time.Second,
		MaxWait:          30 * time.Minute,
		FailureThreshold: 3,
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.Interval <= 0 {
		p.Interval = def.Interval
	}
	if p.MaxWait <= 0 {
		p.MaxWait = def.MaxWait
	}
	if p.FailureThreshold <= 0 {
		p.FailureThreshold = def.FailureThreshold
	}
	return p
}

// statusRank orders the observable states so a slow poller never records a
// regression. A jump straight from QUEUED to a terminal state is legal; the
// remote system does not guarantee every intermediate state is exposed.
var statusRank = map[models.JobStatus]int{
	models.StatusQueued:     0,
	models.StatusInProgress: 1,
	models.StatusCompleted:  2,
	models.StatusFailed:     2,
	models.StatusTimedOut:   2,
	models.StatusCancelled:  2,
}

// Poller drives a submitted job to a terminal status
type Poller struct {
	source StatusSource
	clock  clock.Clock
	policy Policy
}

// New creates a poller; zero-valued policy fields fall back to defaults
func New(source StatusSource, clk clock.Clock, policy Policy) *Poller {
	return &Poller{
		source: source,
		clock:  clk,
		policy: policy.withDefaults(),
	}
}

// Wait polls the job's status until it reaches a terminal state, the wait
// budget runs out, or status queries fail past the retry threshold. The wait
// budget firing marks the job TIMED_OUT locally; the remote job is not
// cancelled and may still be running. Cancellation is honored only at loop
// boundaries, never mid-request.
func (p *Poller) Wait(ctx context.Context, job *models.Job) error {
	consecutiveFailures := 0

	for {
		if err := ctx.Err(); err != nil {
			return &models.RunError{
				Kind:    models.ErrPoll,
				Message: fmt.Sprintf("poll loop for job %s cancelled", job.ID),
				Err:     err,
			}
		}

		elapsed := p.clock.Now().Sub(job.SubmittedAt)
		if elapsed > p.policy.MaxWait {
			job.Status = models.StatusTimedOut
			job.ElapsedSeconds = elapsed.Seconds()
			log.Printf("job %s did not finish within %s; giving up locally", job.ID, p.policy.MaxWait)
			return nil
		}

		report, err := p.source.Status(ctx, job.ID)
		if err != nil {
			re := models.AsRunError(err)
			if re == nil || !re.Transient {
				return err
			}
			consecutiveFailures++
			log.Printf("transient status query failure for job %s (%d/%d): %v",
				job.ID, consecutiveFailures, p.policy.FailureThreshold, err)
			if consecutiveFailures > p.policy.FailureThreshold {
				return &models.RunError{
					Kind: models.ErrPoll,
					Message: fmt.Sprintf("status queries for job %s failed %d consecutive times (last status %s, elapsed %.0fs)",
						job.ID, consecutiveFailures, job.Status, elapsed.Seconds()),
					Err: re.Err,
				}
			}
		} else {
			consecutiveFailures = 0
			now := p.clock.Now()
			job.LastPolledAt = now
			job.ElapsedSeconds = now.Sub(job.SubmittedAt).Seconds()
			p.record(job, report)
			if job.Status.IsTerminal() {
				return nil
			}
		}

		if err := p.clock.Sleep(ctx, p.policy.Interval); err != nil {
			return &models.RunError{
				Kind:    models.ErrPoll,
				Message: fmt.Sprintf("poll loop for job %s cancelled", job.ID),
				Err:     err,
			}
		}
	}
}

// record applies one status observation to the job. Unknown statuses and
// regressions are logged and dropped; re-observing the current status is a
// no-op.
func (p *Poller) record(job *models.Job, report *models.StatusReport) {
	if report.Status == models.StatusUnknown {
		log.Printf("job %s reported unrecognized status %q; ignoring", job.ID, report.Raw)
		return
	}
	if statusRank[report.Status] < statusRank[job.Status] {
		log.Printf("job %s reported %s after %s; ignoring regression", job.ID, report.Status, job.Status)
		return
	}

	if report.Status != job.Status {
		log.Printf("job %s status: %s (elapsed %.0fs)", job.ID, report.Status, job.ElapsedSeconds)
	}
	job.Status = report.Status
	if report.Output != nil {
		job.Result = report.Output
	}
	if report.Message != "" {
		job.FailureMessage = report.Message
	}
}
