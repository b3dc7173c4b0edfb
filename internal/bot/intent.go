package bot

import "github.com/kiranshivaraju/testopsbot/internal/launch"

// Intent is what the user asked for, regardless of whether it arrived as a
// button press, a command or a menu label.
type Intent interface {
	// Name labels the intent in logs and metrics.
	Name() string
	isIntent()
}

type (
	Start        struct{}
	Help         struct{}
	ShowMenu     struct{}
	RunTest      struct{}
	AddProject   struct{}
	ListProjects struct{}
	BackToMain   struct{}
	Cancel       struct{}

	SelectProject struct{ ProjectID int64 }
	SelectJob     struct{ JobID, ProjectID int64 }
	// ChooseParam refers to a parameter by its schema index.
	ChooseParam struct {
		JobID  int64
		Index  int
		Choice launch.Choice
	}
	DeleteProject struct{ ProjectID int64 }
	ConfirmLaunch struct{}
	CancelLaunch  struct{}

	ProjectRefText struct{ Text string }
	ParamValueText struct{ Text string }
	LaunchNameText struct{ Text string }

	AllowUser    struct{ Username string }
	DisallowUser struct{ Username string }
	ListAllowed  struct{}

	Unknown struct{ Reason string }
)

func (Start) Name() string          { return "start" }
func (Help) Name() string           { return "help" }
func (ShowMenu) Name() string       { return "show_menu" }
func (RunTest) Name() string        { return "run_test" }
func (AddProject) Name() string     { return "add_project" }
func (ListProjects) Name() string   { return "list_projects" }
func (BackToMain) Name() string     { return "back_to_main" }
func (Cancel) Name() string         { return "cancel" }
func (SelectProject) Name() string  { return "select_project" }
func (SelectJob) Name() string      { return "select_job" }
func (ChooseParam) Name() string    { return "choose_param" }
func (DeleteProject) Name() string  { return "delete_project" }
func (ConfirmLaunch) Name() string  { return "confirm_launch" }
func (CancelLaunch) Name() string   { return "cancel_launch" }
func (ProjectRefText) Name() string { return "project_ref_text" }
func (ParamValueText) Name() string { return "param_value_text" }
func (LaunchNameText) Name() string { return "launch_name_text" }
func (AllowUser) Name() string      { return "allow_user" }
func (DisallowUser) Name() string   { return "disallow_user" }
func (ListAllowed) Name() string    { return "list_allowed" }
func (Unknown) Name() string        { return "unknown" }

func (Start) isIntent()          {}
func (Help) isIntent()           {}
func (ShowMenu) isIntent()       {}
func (RunTest) isIntent()        {}
func (AddProject) isIntent()     {}
func (ListProjects) isIntent()   {}
func (BackToMain) isIntent()     {}
func (Cancel) isIntent()         {}
func (SelectProject) isIntent()  {}
func (SelectJob) isIntent()      {}
func (ChooseParam) isIntent()    {}
func (DeleteProject) isIntent()  {}
func (ConfirmLaunch) isIntent()  {}
func (CancelLaunch) isIntent()   {}
func (ProjectRefText) isIntent() {}
func (ParamValueText) isIntent() {}
func (LaunchNameText) isIntent() {}
func (AllowUser) isIntent()      {}
func (DisallowUser) isIntent()   {}
func (ListAllowed) isIntent()    {}
func (Unknown) isIntent()        {}

// isAdmin reports whether the intent is reserved for the bot owner.
func isAdmin(in Intent) bool {
	switch in.(type) {
	case AllowUser, DisallowUser, ListAllowed:
		return true
	}
	return false
}
