package launch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/testopsbot/internal/conversation"
	"github.com/kiranshivaraju/testopsbot/internal/launch"
	"github.com/kiranshivaraju/testopsbot/internal/monitor"
	"github.com/kiranshivaraju/testopsbot/internal/testops"
	"github.com/kiranshivaraju/testopsbot/internal/testops/mock"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWatcher struct {
	mu      sync.Mutex
	watched []monitor.Descriptor
	err     error
}

func (f *fakeWatcher) Watch(d monitor.Descriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.watched = append(f.watched, d)
	return f.err
}

type submitCall struct {
	jobID  int64
	name   string
	params []models.ParamValue
}

func recordingClient() (*mock.MockClient, *[]submitCall) {
	calls := &[]submitCall{}
	c := mock.NewMockClient()
	c.SubmitRunFunc = func(_ context.Context, jobID int64, name string, params []models.ParamValue) (int64, error) {
		*calls = append(*calls, submitCall{jobID: jobID, name: name, params: params})
		return 42, nil
	}
	return c, calls
}

func TestLaunchFlow_EndToEnd(t *testing.T) {
	client, calls := recordingClient()
	watcher := &fakeWatcher{}
	collector := launch.NewCollector(client)
	orch := launch.NewOrchestrator(client, watcher, nil)
	ctx := context.Background()

	st, err := collector.SelectJob(ctx, 7, 3)
	require.NoError(t, err)

	st, err = collector.Apply(st.(*conversation.Collecting), "env", launch.ChoiceDefault, "")
	require.NoError(t, err)
	naming, ok := st.(*conversation.AwaitingLaunchName)
	require.True(t, ok)

	confirm, err := orch.CaptureLaunchName(naming, "Smoke-1")
	require.NoError(t, err)
	assert.Equal(t, []models.DisplayParam{{Name: "env", Value: "prod"}}, confirm.Pending.DisplayParams)

	d, err := orch.Confirm(ctx, confirm.Pending, 555, 9)
	require.NoError(t, err)

	require.Len(t, *calls, 1)
	assert.Equal(t, int64(7), (*calls)[0].jobID)
	assert.Equal(t, "Smoke-1", (*calls)[0].name)
	assert.Equal(t, []models.ParamValue{{ID: 101, Value: "prod"}}, (*calls)[0].params)

	assert.Equal(t, int64(42), d.LaunchID)
	assert.Equal(t, int64(555), d.ChatID)
	assert.Equal(t, 9, d.CorrelationMessageID)
	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.False(t, d.StartedAt.IsZero())

	require.Len(t, watcher.watched, 1)
	assert.Equal(t, d, watcher.watched[0])
}

func TestCaptureLaunchName_Invalid(t *testing.T) {
	orch := launch.NewOrchestrator(mock.NewMockClient(), &fakeWatcher{}, nil)
	st := &conversation.AwaitingLaunchName{JobID: 7, Collected: map[string]string{}}

	got, err := orch.CaptureLaunchName(st, "bad;name")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, launch.ErrInvalidLaunchName)
}

func TestConfirm_SubmitFailure(t *testing.T) {
	watcher := &fakeWatcher{}
	orch := launch.NewOrchestrator(mock.NewFailingClient(errors.New("HTTP 500")), watcher, nil)

	_, err := orch.Confirm(context.Background(), models.PendingLaunch{JobID: 7, LaunchName: "x"}, 1, 1)
	assert.ErrorIs(t, err, testops.ErrRemoteUnavailable)
	assert.Empty(t, watcher.watched)
}

func TestConfirm_SubmitTimeoutKeepsSentinel(t *testing.T) {
	client := &mock.MockClient{
		SubmitRunFunc: func(context.Context, int64, string, []models.ParamValue) (int64, error) {
			return 0, testops.ErrRemoteTimeout
		},
	}
	orch := launch.NewOrchestrator(client, &fakeWatcher{}, nil)

	_, err := orch.Confirm(context.Background(), models.PendingLaunch{JobID: 7}, 1, 1)
	assert.ErrorIs(t, err, testops.ErrRemoteTimeout)
	assert.ErrorIs(t, err, testops.ErrRemoteUnavailable)
}

func TestConfirm_WatchFailureStillReturnsRun(t *testing.T) {
	client, calls := recordingClient()
	watcher := &fakeWatcher{err: monitor.ErrStopped}
	orch := launch.NewOrchestrator(client, watcher, nil)

	d, err := orch.Confirm(context.Background(), models.PendingLaunch{JobID: 7, LaunchName: "x"}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), d.LaunchID)
	assert.Len(t, *calls, 1)
}

func TestBuildPendingLaunch_OmitsSkippedInSchemaOrder(t *testing.T) {
	schema := []models.Parameter{
		{ID: 1, Name: "env"},
		{ID: 2, Name: "browser"},
		{ID: 3, Name: "region"},
	}
	collected := map[string]string{"region": "eu", "env": "qa"}

	p := launch.BuildPendingLaunch(7, 3, "Regression", "Nightly", schema, collected)

	assert.Equal(t, []models.ParamValue{{ID: 1, Value: "qa"}, {ID: 3, Value: "eu"}}, p.ParamValues)
	assert.Equal(t, []models.DisplayParam{{Name: "env", Value: "qa"}, {Name: "region", Value: "eu"}}, p.DisplayParams)
	assert.Equal(t, "Nightly", p.LaunchName)
}

func TestBuildPendingLaunch_NoParams(t *testing.T) {
	p := launch.BuildPendingLaunch(7, 3, "Regression", "Nightly", nil, nil)
	assert.NotNil(t, p.ParamValues)
	assert.Empty(t, p.ParamValues)
	assert.NotNil(t, p.DisplayParams)
}

func TestCancel(t *testing.T) {
	orch := launch.NewOrchestrator(mock.NewMockClient(), &fakeWatcher{}, nil)
	assert.Equal(t, conversation.Idle{}, orch.Cancel())
}
