package mock

import (
	"context"

	"github.com/kiranshivaraju/testopsbot/internal/testops"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

// MockClient satisfies testops.Client for testing. Nil funcs return zero values.
type MockClient struct {
	GetProjectNameFunc   func(ctx context.Context, projectID int64) (string, error)
	GetJobsFunc          func(ctx context.Context, projectID int64) ([]models.Job, error)
	GetJobDetailsFunc    func(ctx context.Context, jobID int64) (*models.JobDetails, error)
	SubmitRunFunc        func(ctx context.Context, jobID int64, launchName string, params []models.ParamValue) (int64, error)
	GetRunInfoFunc       func(ctx context.Context, runID int64) (*models.RunInfo, error)
	GetRunStatisticsFunc func(ctx context.Context, runID int64) ([]models.StatusCount, error)
	ReadyFunc            func(ctx context.Context) error
}

func (m *MockClient) GetProjectName(ctx context.Context, projectID int64) (string, error) {
	if m.GetProjectNameFunc != nil {
		return m.GetProjectNameFunc(ctx, projectID)
	}
	return "", nil
}

func (m *MockClient) GetJobs(ctx context.Context, projectID int64) ([]models.Job, error) {
	if m.GetJobsFunc != nil {
		return m.GetJobsFunc(ctx, projectID)
	}
	return []models.Job{}, nil
}

func (m *MockClient) GetJobDetails(ctx context.Context, jobID int64) (*models.JobDetails, error) {
	if m.GetJobDetailsFunc != nil {
		return m.GetJobDetailsFunc(ctx, jobID)
	}
	return &models.JobDetails{ID: jobID}, nil
}

func (m *MockClient) SubmitRun(ctx context.Context, jobID int64, launchName string, params []models.ParamValue) (int64, error) {
	if m.SubmitRunFunc != nil {
		return m.SubmitRunFunc(ctx, jobID, launchName, params)
	}
	return 0, nil
}

func (m *MockClient) GetRunInfo(ctx context.Context, runID int64) (*models.RunInfo, error) {
	if m.GetRunInfoFunc != nil {
		return m.GetRunInfoFunc(ctx, runID)
	}
	return &models.RunInfo{ID: runID}, nil
}

func (m *MockClient) GetRunStatistics(ctx context.Context, runID int64) ([]models.StatusCount, error) {
	if m.GetRunStatisticsFunc != nil {
		return m.GetRunStatisticsFunc(ctx, runID)
	}
	return []models.StatusCount{}, nil
}

func (m *MockClient) Ready(ctx context.Context) error {
	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx)
	}
	return nil
}

// NewMockClient returns a MockClient backed by one project with one
// parameterised job. Submitted runs get id 42 and close immediately.
func NewMockClient() *MockClient {
	return &MockClient{
		GetProjectNameFunc: func(_ context.Context, projectID int64) (string, error) {
			return "Demo Project", nil
		},
		GetJobsFunc: func(_ context.Context, _ int64) ([]models.Job, error) {
			return []models.Job{{ID: 7, Name: "Regression"}}, nil
		},
		GetJobDetailsFunc: func(_ context.Context, jobID int64) (*models.JobDetails, error) {
			return &models.JobDetails{
				ID:   jobID,
				Name: "Regression",
				Parameters: []models.Parameter{
					{ID: 101, Name: "env", DefaultValue: "prod"},
				},
			}, nil
		},
		SubmitRunFunc: func(_ context.Context, _ int64, _ string, _ []models.ParamValue) (int64, error) {
			return 42, nil
		},
		GetRunInfoFunc: func(_ context.Context, runID int64) (*models.RunInfo, error) {
			return &models.RunInfo{ID: runID, Closed: true}, nil
		},
		GetRunStatisticsFunc: func(_ context.Context, _ int64) ([]models.StatusCount, error) {
			return []models.StatusCount{{Status: "passed", Count: 1}}, nil
		},
	}
}

// NewFailingClient returns a MockClient whose every call fails with err.
func NewFailingClient(err error) *MockClient {
	return &MockClient{
		GetProjectNameFunc: func(context.Context, int64) (string, error) { return "", err },
		GetJobsFunc:        func(context.Context, int64) ([]models.Job, error) { return nil, err },
		GetJobDetailsFunc:  func(context.Context, int64) (*models.JobDetails, error) { return nil, err },
		SubmitRunFunc: func(context.Context, int64, string, []models.ParamValue) (int64, error) {
			return 0, err
		},
		GetRunInfoFunc:       func(context.Context, int64) (*models.RunInfo, error) { return nil, err },
		GetRunStatisticsFunc: func(context.Context, int64) ([]models.StatusCount, error) { return nil, err },
		ReadyFunc:            func(context.Context) error { return err },
	}
}

// NewTimeoutClient returns a MockClient whose calls block until ctx is done.
func NewTimeoutClient() *MockClient {
	return &MockClient{
		GetJobDetailsFunc: func(ctx context.Context, _ int64) (*models.JobDetails, error) {
			<-ctx.Done()
			return nil, testops.ErrRemoteTimeout
		},
		SubmitRunFunc: func(ctx context.Context, _ int64, _ string, _ []models.ParamValue) (int64, error) {
			<-ctx.Done()
			return 0, testops.ErrRemoteTimeout
		},
		GetRunInfoFunc: func(ctx context.Context, _ int64) (*models.RunInfo, error) {
			<-ctx.Done()
			return nil, testops.ErrRemoteTimeout
		},
	}
}

// Compile-time check that MockClient implements testops.Client.
var _ testops.Client = (*MockClient)(nil)
