package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/kiranshivaraju/testopsbot/internal/conversation"
	"github.com/kiranshivaraju/testopsbot/internal/launch"
)

// Callback data values. Telegram limits callback data to 64 bytes, so
// parameters are referenced by schema index rather than by name or value.
const (
	cbRunTest       = "run_test"
	cbAddProject    = "add_project"
	cbListProjects  = "list_projects"
	cbHelp          = "help"
	cbBackToMain    = "back_to_main"
	cbCancel        = "cancel"
	cbLaunchConfirm = "launch:confirm"
	cbLaunchCancel  = "launch:cancel"
)

// ParseCallback decodes button data. Malformed or unknown data is
// launch.ErrInvalidSelection.
func ParseCallback(data string) (Intent, error) {
	switch data {
	case cbRunTest:
		return RunTest{}, nil
	case cbAddProject:
		return AddProject{}, nil
	case cbListProjects:
		return ListProjects{}, nil
	case cbHelp:
		return Help{}, nil
	case cbBackToMain:
		return BackToMain{}, nil
	case cbCancel:
		return Cancel{}, nil
	case cbLaunchConfirm:
		return ConfirmLaunch{}, nil
	case cbLaunchCancel:
		return CancelLaunch{}, nil
	}

	kind, rest, _ := strings.Cut(data, ":")
	parts := strings.Split(rest, ":")

	switch kind {
	case "project":
		if len(parts) != 1 {
			break
		}
		pid, err := parseID(parts[0])
		if err != nil {
			return nil, err
		}
		return SelectProject{ProjectID: pid}, nil

	case "delete":
		if len(parts) != 1 {
			break
		}
		pid, err := parseID(parts[0])
		if err != nil {
			return nil, err
		}
		return DeleteProject{ProjectID: pid}, nil

	case "job":
		if len(parts) != 2 {
			break
		}
		jid, err := parseID(parts[0])
		if err != nil {
			return nil, err
		}
		pid, err := parseID(parts[1])
		if err != nil {
			return nil, err
		}
		return SelectJob{JobID: jid, ProjectID: pid}, nil

	case "param":
		if len(parts) != 3 {
			break
		}
		jid, err := parseID(parts[0])
		if err != nil {
			return nil, err
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("%w: parameter index %q", launch.ErrInvalidSelection, parts[1])
		}
		choice, err := launch.ParseChoice(parts[2])
		if err != nil || choice == launch.ChoiceValue {
			return nil, fmt.Errorf("%w: parameter choice %q", launch.ErrInvalidSelection, parts[2])
		}
		return ChooseParam{JobID: jid, Index: idx, Choice: choice}, nil
	}

	return nil, fmt.Errorf("%w: callback %q", launch.ErrInvalidSelection, data)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", launch.ErrInvalidSelection, s)
	}
	return id, nil
}

// CallbackData is the inverse of ParseCallback. It returns "" for intents
// that cannot be carried by a button.
func CallbackData(in Intent) string {
	switch v := in.(type) {
	case RunTest:
		return cbRunTest
	case AddProject:
		return cbAddProject
	case ListProjects:
		return cbListProjects
	case Help:
		return cbHelp
	case BackToMain:
		return cbBackToMain
	case Cancel:
		return cbCancel
	case ConfirmLaunch:
		return cbLaunchConfirm
	case CancelLaunch:
		return cbLaunchCancel
	case SelectProject:
		return fmt.Sprintf("project:%d", v.ProjectID)
	case DeleteProject:
		return fmt.Sprintf("delete:%d", v.ProjectID)
	case SelectJob:
		return fmt.Sprintf("job:%d:%d", v.JobID, v.ProjectID)
	case ChooseParam:
		return fmt.Sprintf("param:%d:%d:%s", v.JobID, v.Index, v.Choice)
	}
	return ""
}

// menuLabels maps normalised reply-keyboard labels and their plain-word
// forms onto intents.
var menuLabels = map[string]Intent{
	strings.ToLower(LabelRunTest):     RunTest{},
	"run test":                        RunTest{},
	strings.ToLower(LabelAddProject):  AddProject{},
	"add project":                     AddProject{},
	strings.ToLower(LabelProjectList): ListProjects{},
	"project list":                    ListProjects{},
	strings.ToLower(LabelHelp):        Help{},
	"help":                            Help{},
	strings.ToLower(LabelMenu):        ShowMenu{},
	"cancel":                          Cancel{},
}

// ParseText maps a text message onto an intent. Commands and menu labels
// win over the conversation phase; other text is interpreted by phase.
func ParseText(text, command string, args []string, st conversation.State) Intent {
	if command != "" {
		return parseCommand(command, args)
	}

	text = strings.TrimSpace(text)
	if in, ok := menuLabels[strings.ToLower(text)]; ok {
		return in
	}

	switch st.(type) {
	case conversation.AddingProject:
		return ProjectRefText{Text: text}
	case *conversation.Collecting:
		return ParamValueText{Text: text}
	case *conversation.AwaitingLaunchName:
		return LaunchNameText{Text: text}
	}
	return Unknown{Reason: "unrecognised text"}
}

func parseCommand(command string, args []string) Intent {
	first := ""
	if len(args) > 0 {
		first = args[0]
	}

	switch strings.ToLower(command) {
	case "start":
		return Start{}
	case "help":
		return Help{}
	case "menu":
		return ShowMenu{}
	case "cancel":
		return Cancel{}
	case "list_projects":
		return ListProjects{}
	case "allow_user":
		return AllowUser{Username: first}
	case "disallow_user":
		return DisallowUser{Username: first}
	case "list_allowed":
		return ListAllowed{}
	}
	return Unknown{Reason: "unknown command /" + command}
}

var projectRefRe = regexp.MustCompile(`/?(\d+)`)

// ParseProjectRef extracts a project id from a bare number or a project URL
// such as https://testops.example.com/project/123.
func ParseProjectRef(text string) (int64, bool) {
	m := projectRefRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// NormaliseUsername strips a leading @ and accepts letters and digits only.
func NormaliseUsername(raw string) (string, bool) {
	name := strings.TrimPrefix(strings.TrimSpace(raw), "@")
	if name == "" {
		return "", false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return "", false
		}
	}
	return name, true
}
