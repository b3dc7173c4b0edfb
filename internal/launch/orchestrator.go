package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/testopsbot/internal/conversation"
	"github.com/kiranshivaraju/testopsbot/internal/metrics"
	"github.com/kiranshivaraju/testopsbot/internal/monitor"
	"github.com/kiranshivaraju/testopsbot/internal/testops"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

// Submitter starts a run on the remote test service.
type Submitter interface {
	SubmitRun(ctx context.Context, jobID int64, launchName string, params []models.ParamValue) (int64, error)
}

// Watcher takes ownership of a submitted run's descriptor.
type Watcher interface {
	Watch(d monitor.Descriptor) error
}

// Orchestrator turns resolved parameters into a named, confirmed and
// submitted run, and hands the run to the Watcher.
type Orchestrator struct {
	runs    Submitter
	watcher Watcher
	metrics *metrics.Collector
	now     func() time.Time
}

func NewOrchestrator(runs Submitter, watcher Watcher, m *metrics.Collector) *Orchestrator {
	return &Orchestrator{runs: runs, watcher: watcher, metrics: m, now: time.Now}
}

// CaptureLaunchName validates text and, if it is acceptable, builds the
// pending launch. On ErrInvalidLaunchName the caller keeps its current state.
func (o *Orchestrator) CaptureLaunchName(st *conversation.AwaitingLaunchName, text string) (*conversation.AwaitingConfirmation, error) {
	if err := ValidateLaunchName(text); err != nil {
		return nil, err
	}
	pending := BuildPendingLaunch(st.JobID, st.ProjectID, st.JobName, text, st.Schema, st.Collected)
	return &conversation.AwaitingConfirmation{Pending: pending}, nil
}

// BuildPendingLaunch derives submission and display values in schema order.
// Parameters absent from collected (skipped) are omitted from both.
func BuildPendingLaunch(jobID, projectID int64, jobName, launchName string, schema []models.Parameter, collected map[string]string) models.PendingLaunch {
	pending := models.PendingLaunch{
		JobID:         jobID,
		ProjectID:     projectID,
		JobName:       jobName,
		LaunchName:    launchName,
		ParamValues:   []models.ParamValue{},
		DisplayParams: []models.DisplayParam{},
	}
	for _, p := range schema {
		v, ok := collected[p.Name]
		if !ok {
			continue
		}
		pending.ParamValues = append(pending.ParamValues, models.ParamValue{ID: p.ID, Value: v})
		pending.DisplayParams = append(pending.DisplayParams, models.DisplayParam{Name: p.Name, Value: v})
	}
	return pending
}

// Confirm submits pending exactly once. On success the returned descriptor
// has already been handed to the Watcher. On failure nothing is scheduled
// and the error matches testops.ErrRemoteUnavailable.
func (o *Orchestrator) Confirm(ctx context.Context, pending models.PendingLaunch, chatID int64, correlationMessageID int) (monitor.Descriptor, error) {
	runID, err := o.runs.SubmitRun(ctx, pending.JobID, pending.LaunchName, pending.ParamValues)
	if err != nil {
		o.metrics.LaunchFailed()
		if !errors.Is(err, testops.ErrRemoteUnavailable) {
			err = fmt.Errorf("%w: %v", testops.ErrRemoteUnavailable, err)
		}
		return monitor.Descriptor{}, fmt.Errorf("submit job %d: %w", pending.JobID, err)
	}
	o.metrics.LaunchSubmitted()

	d := monitor.Descriptor{
		ID:                   uuid.New(),
		LaunchID:             runID,
		ChatID:               chatID,
		CorrelationMessageID: correlationMessageID,
		StartedAt:            o.now(),
	}
	if err := o.watcher.Watch(d); err != nil {
		slog.Error("run submitted but not monitored", "launch_id", runID, "chat_id", chatID, "error", err)
	}

	slog.Info("run submitted", "launch_id", runID, "job_id", pending.JobID, "chat_id", chatID)
	return d, nil
}

// Cancel discards whatever the session was building. It has no remote effects.
func (o *Orchestrator) Cancel() conversation.State {
	return conversation.Idle{}
}
