// Package launch drives a run from job selection through parameter
// collection, naming and confirmation to submission.
package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/testopsbot/internal/conversation"
	"github.com/kiranshivaraju/testopsbot/internal/testops"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

// Choice is how the user resolves one parameter.
type Choice int

const (
	ChoiceDefault Choice = iota + 1
	ChoiceValue
	ChoiceSkip
	ChoiceInput
)

var choiceNames = map[Choice]string{
	ChoiceDefault: "default",
	ChoiceValue:   "value",
	ChoiceSkip:    "skip",
	ChoiceInput:   "input",
}

func (c Choice) String() string {
	if s, ok := choiceNames[c]; ok {
		return s
	}
	return fmt.Sprintf("choice(%d)", int(c))
}

// ParseChoice is the inverse of Choice.String.
func ParseChoice(s string) (Choice, error) {
	for c, name := range choiceNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown choice %q", ErrInvalidSelection, s)
}

// NextParameter returns the first schema entry that is neither collected nor
// skipped, with its schema index. The answer depends only on the schema order
// and the resolved names, never on the order values were submitted in.
func NextParameter(schema []models.Parameter, collected map[string]string, skipped map[string]bool) (models.Parameter, int, bool) {
	resolved := conversation.Collecting{Collected: collected, Skipped: skipped}
	for i, p := range schema {
		if resolved.Resolved(p.Name) {
			continue
		}
		return p, i, true
	}
	return models.Parameter{}, -1, false
}

// JobSource fetches a job's parameter schema.
type JobSource interface {
	GetJobDetails(ctx context.Context, jobID int64) (*models.JobDetails, error)
}

// Collector walks a job's parameter schema one entry at a time.
type Collector struct {
	jobs JobSource
}

func NewCollector(jobs JobSource) *Collector {
	return &Collector{jobs: jobs}
}

// SelectJob fetches the schema for jobID and opens parameter collection.
// A job without parameters goes straight to naming.
func (c *Collector) SelectJob(ctx context.Context, jobID, projectID int64) (conversation.State, error) {
	details, err := c.jobs.GetJobDetails(ctx, jobID)
	if err != nil {
		if !errors.Is(err, testops.ErrRemoteUnavailable) {
			err = fmt.Errorf("%w: %v", testops.ErrRemoteUnavailable, err)
		}
		return nil, fmt.Errorf("select job %d: %w", jobID, err)
	}

	schema := dedupeSchema(details.Parameters)
	if len(schema) == 0 {
		return &conversation.AwaitingLaunchName{
			JobID:     jobID,
			ProjectID: projectID,
			JobName:   details.Name,
			Schema:    []models.Parameter{},
			Collected: map[string]string{},
		}, nil
	}
	return conversation.NewCollecting(jobID, projectID, details.Name, schema), nil
}

// dedupeSchema keeps the first entry for every parameter name.
func dedupeSchema(params []models.Parameter) []models.Parameter {
	seen := make(map[string]bool, len(params))
	out := make([]models.Parameter, 0, len(params))
	for _, p := range params {
		if seen[p.Name] {
			slog.Warn("ignoring duplicate parameter in job schema", "parameter", p.Name)
			continue
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return out
}

// Apply resolves the parameter name with choice. Only the parameter that
// NextParameter presents may be resolved; anything else is ErrInvalidSelection
// and leaves st untouched. ChoiceInput only arms free-text capture.
// Once the last parameter is resolved the result is AwaitingLaunchName.
func (c *Collector) Apply(st *conversation.Collecting, name string, choice Choice, value string) (conversation.State, error) {
	next, _, ok := NextParameter(st.Schema, st.Collected, st.Skipped)
	if !ok || next.Name != name {
		return st, fmt.Errorf("%w: parameter %q is not the one being collected", ErrInvalidSelection, name)
	}

	switch choice {
	case ChoiceInput:
		st.AwaitingValueFor = name
		return st, nil
	case ChoiceDefault:
		st.Collected[name] = next.DefaultValue
	case ChoiceValue:
		st.Collected[name] = value
	case ChoiceSkip:
		if st.Skipped == nil {
			st.Skipped = map[string]bool{}
		}
		st.Skipped[name] = true
	default:
		return st, fmt.Errorf("%w: %s", ErrInvalidSelection, choice)
	}
	st.AwaitingValueFor = ""

	if _, _, more := NextParameter(st.Schema, st.Collected, st.Skipped); more {
		return st, nil
	}
	return &conversation.AwaitingLaunchName{
		JobID:     st.JobID,
		ProjectID: st.ProjectID,
		JobName:   st.JobName,
		Schema:    st.Schema,
		Collected: st.Collected,
	}, nil
}

// ParamAt resolves a schema index carried by a button back to a parameter
// name, rejecting buttons from another job or an outdated prompt.
func ParamAt(st *conversation.Collecting, jobID int64, index int) (string, error) {
	if st.JobID != jobID || index < 0 || index >= len(st.Schema) {
		return "", fmt.Errorf("%w: parameter %d of job %d", ErrInvalidSelection, index, jobID)
	}
	return st.Schema[index].Name, nil
}
