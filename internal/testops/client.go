package testops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiranshivaraju/testopsbot/internal/config"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// maxAttempts bounds every request: the first try plus one retry on 5xx.
const maxAttempts = 2

// Client is the interface for the remote test-orchestration API.
type Client interface {
	GetProjectName(ctx context.Context, projectID int64) (string, error)
	GetJobs(ctx context.Context, projectID int64) ([]models.Job, error)
	GetJobDetails(ctx context.Context, jobID int64) (*models.JobDetails, error)
	SubmitRun(ctx context.Context, jobID int64, launchName string, params []models.ParamValue) (int64, error)
	GetRunInfo(ctx context.Context, runID int64) (*models.RunInfo, error)
	GetRunStatistics(ctx context.Context, runID int64) ([]models.StatusCount, error)
	Ready(ctx context.Context) error
}

// HTTPClient implements Client over the service's REST API.
// It owns its bearer token and refreshes it lazily.
type HTTPClient struct {
	baseURL    string
	client     *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	retryDelay time.Duration
}

// NewHTTPClient creates a client for the API rooted at cfg.APIBase.
// A non-positive cfg.RateLimit disables outbound throttling.
func NewHTTPClient(cfg config.TestOpsConfig) *HTTPClient {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &HTTPClient{
		baseURL:    cfg.APIBase,
		client:     httpClient,
		tokens:     newTokenSource(cfg.APIBase, cfg.UserToken, httpClient),
		limiter:    rate.NewLimiter(limit, 1),
		retryDelay: cfg.RetryDelay,
	}
}

func (c *HTTPClient) GetProjectName(ctx context.Context, projectID int64) (string, error) {
	var project struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/project/%d", projectID), nil, &project); err != nil {
		return "", err
	}
	if project.Name == "" {
		return fmt.Sprintf("Project %d", projectID), nil
	}
	return project.Name, nil
}

// jobListKeys are the envelope fields a paged job listing may use.
var jobListKeys = []string{"content", "jobs", "elements", "data"}

func (c *HTTPClient) GetJobs(ctx context.Context, projectID int64) ([]models.Job, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/job?projectId=%d", projectID), nil, &raw); err != nil {
		return nil, err
	}

	jobs, ok := decodeJobList(raw)
	if !ok {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err == nil {
			for _, key := range jobListKeys {
				if jobs, ok = decodeJobList(envelope[key]); ok {
					break
				}
			}
		}
	}

	for i := range jobs {
		if jobs[i].Name == "" {
			jobs[i].Name = fmt.Sprintf("Job %d", jobs[i].ID)
		}
	}
	if jobs == nil {
		return []models.Job{}, nil
	}
	return jobs, nil
}

func decodeJobList(raw json.RawMessage) ([]models.Job, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var jobs []models.Job
	if err := json.Unmarshal(raw, &jobs); err != nil {
		return nil, false
	}
	return jobs, true
}

func (c *HTTPClient) GetJobDetails(ctx context.Context, jobID int64) (*models.JobDetails, error) {
	var details models.JobDetails
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/job/%d", jobID), nil, &details); err != nil {
		return nil, err
	}
	if details.ID == 0 {
		details.ID = jobID
	}
	if details.Name == "" {
		details.Name = fmt.Sprintf("Job %d", jobID)
	}
	return &details, nil
}

// runSelection selects the whole test tree.
type runSelection struct {
	GroupsInclude []int64 `json:"groupsInclude"`
	GroupsExclude []int64 `json:"groupsExclude"`
	LeafsInclude  []int64 `json:"leafsInclude"`
	LeafsExclude  []int64 `json:"leafsExclude"`
	Path          []int64 `json:"path"`
	Inverted      bool    `json:"inverted"`
}

type runRequest struct {
	LaunchName string              `json:"launchName"`
	Parameters []models.ParamValue `json:"parameters"`
	Selection  runSelection        `json:"selection"`
	Tags       []string            `json:"tags"`
}

func (c *HTTPClient) SubmitRun(ctx context.Context, jobID int64, launchName string, params []models.ParamValue) (int64, error) {
	if params == nil {
		params = []models.ParamValue{}
	}
	body := runRequest{
		LaunchName: launchName,
		Parameters: params,
		Selection: runSelection{
			GroupsInclude: []int64{},
			GroupsExclude: []int64{},
			LeafsInclude:  []int64{},
			LeafsExclude:  []int64{},
			Path:          []int64{},
		},
		Tags: []string{},
	}

	var run struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/job/%d/run", jobID), body, &run); err != nil {
		return 0, err
	}
	if run.ID == 0 {
		slog.Error("testops run response has no id", "job_id", jobID)
		return 0, fmt.Errorf("%w: run response for job %d has no id", ErrRemoteUnavailable, jobID)
	}
	return run.ID, nil
}

func (c *HTTPClient) GetRunInfo(ctx context.Context, runID int64) (*models.RunInfo, error) {
	var info models.RunInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/launch/%d", runID), nil, &info); err != nil {
		return nil, err
	}
	if info.ID == 0 {
		info.ID = runID
	}
	return &info, nil
}

func (c *HTTPClient) GetRunStatistics(ctx context.Context, runID int64) ([]models.StatusCount, error) {
	var stats []models.StatusCount
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/launch/%d/statistic", runID), nil, &stats); err != nil {
		return nil, err
	}
	if stats == nil {
		return []models.StatusCount{}, nil
	}
	return stats, nil
}

// Ready reports whether a bearer token can be obtained.
func (c *HTTPClient) Ready(ctx context.Context) error {
	if _, err := c.tokens.Token(); err != nil {
		return fmt.Errorf("acquiring token: %w", err)
	}
	return ctx.Err()
}

// do performs one logical API call, retrying once on a 5xx response.
// Any remaining failure is reported as ErrRemoteUnavailable.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	for attempt := 1; ; attempt++ {
		status, data, err := c.roundTrip(ctx, method, path, payload)
		if err != nil {
			slog.Error("testops request failed", "method", method, "path", path, "error", err)
			return err
		}

		if status >= http.StatusInternalServerError && attempt < maxAttempts {
			slog.Warn("testops server error, retrying",
				"method", method, "path", path, "status", status, "attempt", attempt)
			if err := sleepCtx(ctx, c.retryDelay); err != nil {
				return classifyError(err)
			}
			continue
		}

		if status >= http.StatusBadRequest {
			slog.Error("testops request rejected", "method", method, "path", path, "status", status)
			return fmt.Errorf("%w: %s %s: status %d", ErrRemoteUnavailable, method, path, status)
		}

		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: decoding %s %s: %v", ErrRemoteUnavailable, method, path, err)
		}
		return nil
	}
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, classifyError(err)
	}

	tok, err := c.tokens.Token()
	if err != nil {
		return 0, nil, fmt.Errorf("acquiring token: %w", err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	tok.SetAuthHeader(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, classifyError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, classifyError(err)
	}
	return resp.StatusCode, data, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
