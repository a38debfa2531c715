package runpod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dem-fill-client/core/models"
)

const defaultBaseURL = "https://api.runpod.ai"

// Config holds the connection settings for one serverless endpoint
type Config struct {
	EndpointID string
	APIKey     string
	// BaseURL overrides the public RunPod API, for tests
	BaseURL string
	// Timeout bounds each request round trip; it is independent of the
	// overall job wait budget
	Timeout time.Duration
}

// Client calls the RunPod serverless endpoint API
type Client struct {
	baseURL    string
	endpointID string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new RunPod API client
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		endpointID: cfg.EndpointID,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SubmitRequest is the POST /run payload
type SubmitRequest struct {
	Input SubmitInput `json:"input"`
}

// SubmitInput names the staged input artifact by filename
type SubmitInput struct {
	Filename string `json:"filename"`
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type statusResponse struct {
	ID     string            `json:"id"`
	Status string            `json:"status"`
	Output *models.JobResult `json:"output,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// Submit triggers a job for a filename already staged under the input prefix
// and returns the job identifier the API assigned. Submission is never
// retried here: resubmitting risks duplicate work, so that decision belongs
// to the caller.
func (c *Client) Submit(ctx context.Context, filename string) (string, error) {
	payload, err := json.Marshal(SubmitRequest{Input: SubmitInput{Filename: filename}})
	if err != nil {
		return "", &models.RunError{
			Kind:    models.ErrSubmission,
			Message: "failed to encode submit payload",
			Err:     err,
		}
	}

	url := fmt.Sprintf("%s/v2/%s/run", c.baseURL, c.endpointID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &models.RunError{
			Kind:    models.ErrSubmission,
			Message: "failed to build submit request",
			Err:     err,
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &models.RunError{
			Kind:      models.ErrSubmission,
			Message:   "job submission request failed",
			Transient: true,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &models.RunError{
			Kind:       models.ErrSubmission,
			Message:    fmt.Sprintf("job submission for %s rejected", filename),
			HTTPStatus: resp.StatusCode,
			Body:       string(body),
		}
	}

	var sr submitResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", &models.RunError{
			Kind:    models.ErrSubmission,
			Message: "malformed submit response",
			Body:    string(body),
			Err:     err,
		}
	}
	if sr.ID == "" {
		return "", &models.RunError{
			Kind:    models.ErrSubmission,
			Message: "no job id in submit response",
			Body:    string(body),
		}
	}

	return sr.ID, nil
}

// Status queries the remote status of a job. Transport failures and 5xx
// responses come back marked transient so the poller can apply its retry
// policy; 404 (job unknown) and malformed responses are definitive.
func (c *Client) Status(ctx context.Context, jobID string) (*models.StatusReport, error) {
	url := fmt.Sprintf("%s/v2/%s/status/%s", c.baseURL, c.endpointID, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.RunError{
			Kind:    models.ErrPoll,
			Message: fmt.Sprintf("failed to build status request for job %s", jobID),
			Err:     err,
		}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.RunError{
			Kind:      models.ErrPoll,
			Message:   fmt.Sprintf("status query for job %s failed", jobID),
			Transient: true,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode >= 500:
		return nil, &models.RunError{
			Kind:       models.ErrPoll,
			Message:    fmt.Sprintf("status query for job %s failed upstream", jobID),
			HTTPStatus: resp.StatusCode,
			Body:       string(body),
			Transient:  true,
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &models.RunError{
			Kind:       models.ErrPoll,
			Message:    fmt.Sprintf("status query for job %s rejected", jobID),
			HTTPStatus: resp.StatusCode,
			Body:       string(body),
		}
	}

	var sr statusResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, &models.RunError{
			Kind:    models.ErrPoll,
			Message: fmt.Sprintf("malformed status response for job %s", jobID),
			Body:    string(body),
			Err:     err,
		}
	}

	return &models.StatusReport{
		Status:  models.ParseJobStatus(sr.Status),
		Raw:     sr.Status,
		Output:  sr.Output,
		Message: sr.Error,
	}, nil
}
