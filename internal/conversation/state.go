// Package conversation holds the per-session dialogue state of the bot.
//
// A session is in exactly one phase at a time. Each phase is its own type
// carrying only the fields that phase needs.
package conversation

import (
	"encoding/json"
	"fmt"

	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseAddingProject        Phase = "adding_project"
	PhaseCollecting           Phase = "collecting"
	PhaseAwaitingLaunchName   Phase = "awaiting_launch_name"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
)

// State is implemented only by the phase types in this package.
type State interface {
	Phase() Phase
	isState()
}

// Idle is the resting phase. A session with no stored state is Idle.
type Idle struct{}

// AddingProject waits for a project id or URL as free text.
type AddingProject struct{}

// Collecting walks a job's parameter schema one entry at a time.
// Collected and Skipped together hold every resolved parameter name.
// A non-empty AwaitingValueFor means the next free text is the value for that parameter.
type Collecting struct {
	JobID            int64              `json:"job_id"`
	ProjectID        int64              `json:"project_id"`
	JobName          string             `json:"job_name"`
	Schema           []models.Parameter `json:"schema"`
	Collected        map[string]string  `json:"collected"`
	Skipped          map[string]bool    `json:"skipped,omitempty"`
	AwaitingValueFor string             `json:"awaiting_value_for,omitempty"`
}

// AwaitingLaunchName has every parameter resolved and waits for the launch name.
type AwaitingLaunchName struct {
	JobID     int64              `json:"job_id"`
	ProjectID int64              `json:"project_id"`
	JobName   string             `json:"job_name"`
	Schema    []models.Parameter `json:"schema"`
	Collected map[string]string  `json:"collected"`
}

// AwaitingConfirmation holds the one pending launch of the session.
type AwaitingConfirmation struct {
	Pending models.PendingLaunch `json:"pending"`
}

func (Idle) Phase() Phase                  { return PhaseIdle }
func (AddingProject) Phase() Phase         { return PhaseAddingProject }
func (*Collecting) Phase() Phase           { return PhaseCollecting }
func (*AwaitingLaunchName) Phase() Phase   { return PhaseAwaitingLaunchName }
func (*AwaitingConfirmation) Phase() Phase { return PhaseAwaitingConfirmation }

func (Idle) isState()                  {}
func (AddingProject) isState()         {}
func (*Collecting) isState()           {}
func (*AwaitingLaunchName) isState()   {}
func (*AwaitingConfirmation) isState() {}

// NewCollecting starts parameter collection for a job.
func NewCollecting(jobID, projectID int64, jobName string, schema []models.Parameter) *Collecting {
	return &Collecting{
		JobID:     jobID,
		ProjectID: projectID,
		JobName:   jobName,
		Schema:    schema,
		Collected: map[string]string{},
		Skipped:   map[string]bool{},
	}
}

// Resolved reports whether name has been given a value or skipped.
func (c *Collecting) Resolved(name string) bool {
	if _, ok := c.Collected[name]; ok {
		return true
	}
	return c.Skipped[name]
}

type envelope struct {
	Phase Phase           `json:"phase"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode serialises s with a phase discriminator.
func Encode(s State) ([]byte, error) {
	if s == nil {
		s = Idle{}
	}
	env := envelope{Phase: s.Phase()}
	switch s.(type) {
	case Idle, AddingProject:
	default:
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("encode %s state: %w", s.Phase(), err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}

// Decode is the inverse of Encode.
func Decode(b []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode state envelope: %w", err)
	}

	var s State
	switch env.Phase {
	case PhaseIdle:
		return Idle{}, nil
	case PhaseAddingProject:
		return AddingProject{}, nil
	case PhaseCollecting:
		s = &Collecting{}
	case PhaseAwaitingLaunchName:
		s = &AwaitingLaunchName{}
	case PhaseAwaitingConfirmation:
		s = &AwaitingConfirmation{}
	default:
		return nil, fmt.Errorf("decode state: unknown phase %q", env.Phase)
	}

	if err := json.Unmarshal(env.Data, s); err != nil {
		return nil, fmt.Errorf("decode %s state: %w", env.Phase, err)
	}
	if c, ok := s.(*Collecting); ok {
		if c.Collected == nil {
			c.Collected = map[string]string{}
		}
		if c.Skipped == nil {
			c.Skipped = map[string]bool{}
		}
	}
	return s, nil
}
