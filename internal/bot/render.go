package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/kiranshivaraju/testopsbot/internal/conversation"
	"github.com/kiranshivaraju/testopsbot/internal/launch"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

// Reply-keyboard labels.
const (
	LabelRunTest     = "▶️ Run test"
	LabelAddProject  = "➕ Add project"
	LabelProjectList = "📂 Project list"
	LabelHelp        = "ℹ️ Help"
	LabelMenu        = "Menu"
)

const (
	textWelcome = "Hi! I launch test runs in TestOps.\n" +
		"Press «" + LabelRunTest + "» to begin."
	textHelp = "ℹ️ Quick reference:\n" +
		LabelRunTest + " - pick a project and a job to launch.\n" +
		LabelAddProject + " - register a project.\n" +
		LabelProjectList + " - view your projects.\n" +
		LabelHelp + " - show this text.\n\n" +
		"Use the main menu buttons below."
	textMainMenu        = "Main menu:"
	textUnauthorized    = "❌ You are not allowed to use this bot."
	textRateLimited     = "⏳ Too many requests, please slow down."
	textNotUnderstood   = "⚠️ I didn't understand that. Use the main menu buttons below."
	textCancelled       = "Operation cancelled."
	textLaunchCancelled = "❌ Operation cancelled."
	textInternalError   = "Internal error."
	textStaleSelection  = "This button is outdated. Please start over."
	textUnknownCommand  = "Unknown command."

	textNoProjects      = "📂 Your project list is empty."
	textNoProjectsToRun = "📂 Your project list is empty.\nPress «" + LabelAddProject + "» to add a project."
	textYourProjects    = "📂 Your projects:"
	textProjectsDBError = "❗ Database query failed."
	textRunTestDBError  = "Database error while loading projects."
	textProjectNotFound = "Project not found."
	textDeleteFailed    = "❗ Could not delete the project. Try again later."

	textAskProjectRef      = "📂 Send the project number in TestOps:"
	textBadProjectRef      = "❗ Could not recognise the ID.\nSend the ID of an existing TestOps project."
	textSaveProjectFailed  = "❗ Could not save the project."
	textLoadingJobDetails  = "⌛ Loading job details…"
	textJobsAPIError       = "TestOps API error while loading jobs."
	textJobDetailsAPIError = "TestOps API error while loading job details."
	textNoParameters       = "This job has no parameters.\n\n❗ Send the launch name (up to 100 characters):"
	textAllParametersSet   = "All parameters are set.\n\n❗ Send the launch name (up to 100 characters):"
	textChooseParamOption  = "❗ Pick an option below. To type a value, press «✏️ Enter my own value» first."
	textInvalidLaunchName  = "❗ Invalid name: letters, digits, spaces, hyphens and underscores only, up to 100 characters."
	textNoPendingLaunch    = "❗ Nothing to launch. Please start over."
	textStartingJob        = "⌛ Starting job…"
	textLaunchFailed       = "❗ Could not start the job. Try again later."
	textPressMenu          = "Press the button below to see the list of actions:"
	textContinueWithMenu   = "Press «" + LabelMenu + "» to continue:"
	textMonitorTimeout     = "⚠️ Timed out waiting for the run to finish. Check TestOps manually."

	textAllowUsage       = "Usage: /allow_user <telegram_username>"
	textDisallowUsage    = "Usage: /disallow_user <telegram_username>"
	textBadUsername      = "Invalid username format, use letters and digits only."
	textAllowFailed      = "❗ Failed to add the user."
	textDisallowFailed   = "❗ Failed to remove the user."
	textAllowListEmpty   = "The allow-list is empty."
	textAllowListFailed  = "❗ Failed to read the allow-list."
	textNoParamsSelected = "no parameters"
)

// MainMenu is the persistent reply keyboard.
func MainMenu() *ReplyKeyboard {
	return &ReplyKeyboard{Rows: [][]string{
		{LabelRunTest},
		{LabelAddProject},
		{LabelProjectList},
		{LabelHelp},
	}}
}

// MenuButton is the one-shot keyboard offered after a launch.
func MenuButton() *ReplyKeyboard {
	return &ReplyKeyboard{Rows: [][]string{{LabelMenu}}, OneTime: true}
}

var (
	btnBack        = Button{Text: "⬅️ Back", Data: cbBackToMain}
	btnCancel      = Button{Text: "❌ Cancel", Data: cbCancel}
	btnAddProject  = Button{Text: LabelAddProject, Data: cbAddProject}
	btnToProjects  = Button{Text: "⬅️ To projects", Data: cbRunTest}
	btnBackToRun   = Button{Text: "⬅️ Back", Data: cbRunTest}
	btnConfirmRun  = Button{Text: "▶️ Launch", Data: cbLaunchConfirm}
	btnCancelRun   = Button{Text: "❌ Cancel", Data: cbLaunchCancel}
	cancelKeyboard = InlineKeyboard{{btnCancel}}
)

// errorMessage is a failure notice with an optional retry of the failed step.
func errorMessage(text string, retry Intent) Message {
	var kb InlineKeyboard
	if data := CallbackData(retry); data != "" {
		kb = append(kb, []Button{{Text: "🔄 Retry", Data: data}})
	}
	kb = append(kb, []Button{btnCancel})
	return Message{Text: text, Inline: kb}
}

func projectPicker(projects []*models.Project) Message {
	if len(projects) == 0 {
		return Message{
			Text:   textNoProjectsToRun,
			Inline: InlineKeyboard{{btnAddProject}, {btnBack}, {btnCancel}},
		}
	}
	kb := make(InlineKeyboard, 0, len(projects)+2)
	for _, p := range projects {
		kb = append(kb, []Button{{
			Text: fmt.Sprintf("%s (ID %d)", p.ProjectName, p.ProjectID),
			Data: CallbackData(SelectProject{ProjectID: p.ProjectID}),
		}})
	}
	kb = append(kb, []Button{btnBack}, []Button{btnCancel})
	return Message{Text: textYourProjects, Inline: kb}
}

func projectList(projects []*models.Project) Message {
	if len(projects) == 0 {
		return Message{Text: textNoProjects, Reply: MainMenu()}
	}
	var b strings.Builder
	b.WriteString("📂 Your projects (press «❌ Delete» to remove one):\n")
	kb := make(InlineKeyboard, 0, len(projects)+1)
	for _, p := range projects {
		fmt.Fprintf(&b, "• %s (ID %d)\n", p.ProjectName, p.ProjectID)
		kb = append(kb, []Button{{
			Text: fmt.Sprintf("❌ Delete \"%s\" (ID %d)", p.ProjectName, p.ProjectID),
			Data: CallbackData(DeleteProject{ProjectID: p.ProjectID}),
		}})
	}
	kb = append(kb, []Button{btnBack})
	return Message{Text: b.String(), Inline: kb}
}

func loadingJobs(projectName string) string {
	return fmt.Sprintf("⌛ Loading jobs for project «%s»…", projectName)
}

func jobPicker(projectID int64, projectName string, jobs []models.Job) Message {
	kb := make(InlineKeyboard, 0, len(jobs)+2)
	for _, j := range jobs {
		kb = append(kb, []Button{{
			Text: fmt.Sprintf("%s (ID %d)", j.Name, j.ID),
			Data: CallbackData(SelectJob{JobID: j.ID, ProjectID: projectID}),
		}})
	}
	kb = append(kb, []Button{btnToProjects}, []Button{btnCancel})
	return Message{Text: fmt.Sprintf("📋 Jobs of project «%s»:", projectName), Inline: kb}
}

func noJobs(projectName string) string {
	return fmt.Sprintf("❗ Project «%s» has no jobs.", projectName)
}

// collectedLines lists resolved values in schema order.
func collectedLines(schema []models.Parameter, collected map[string]string, empty string) string {
	var lines []string
	for _, p := range schema {
		if v, ok := collected[p.Name]; ok {
			lines = append(lines, fmt.Sprintf("• %s = %s", p.Name, v))
		}
	}
	if len(lines) == 0 {
		return empty
	}
	return strings.Join(lines, "\n")
}

// parameterPrompt asks for the next unresolved parameter of st.
func parameterPrompt(st *conversation.Collecting) Message {
	next, idx, ok := launch.NextParameter(st.Schema, st.Collected, st.Skipped)
	if !ok {
		return Message{Text: textAllParametersSet}
	}
	if st.AwaitingValueFor != "" {
		return Message{Text: fmt.Sprintf("❗ Enter the value for «%s»:", st.AwaitingValueFor), Inline: cancelKeyboard}
	}

	chosen := collectedLines(st.Schema, st.Collected, "• (nothing yet)")
	defaultLabel := fmt.Sprintf("✅ Default (%s)", next.DefaultValue)
	text := fmt.Sprintf("📋 Set so far:\n%s\n\n"+
		"Choose a value for «%s»:\n"+
		"• «%s»\n"+
		"• «✏️ Enter my own value»\n"+
		"• «⏭ Skip»",
		chosen, next.Name, defaultLabel)

	param := func(c launch.Choice) string {
		return CallbackData(ChooseParam{JobID: st.JobID, Index: idx, Choice: c})
	}
	return Message{
		Text: text,
		Inline: InlineKeyboard{
			{{Text: defaultLabel, Data: param(launch.ChoiceDefault)}},
			{{Text: "✏️ Enter my own value", Data: param(launch.ChoiceInput)}},
			{{Text: "⏭ Skip", Data: param(launch.ChoiceSkip)}},
			{btnBackToRun},
			{btnCancel},
		},
	}
}

func displayLines(params []models.DisplayParam) string {
	if len(params) == 0 {
		return textNoParamsSelected
	}
	lines := make([]string, len(params))
	for i, p := range params {
		lines[i] = fmt.Sprintf("• %s = %s", p.Name, p.Value)
	}
	return strings.Join(lines, "\n")
}

func confirmation(p models.PendingLaunch) Message {
	text := fmt.Sprintf("🔍 <b>Check before launching:</b>\n\n"+
		"📌 <b>Launch name:</b> %s\n"+
		"📋 <b>Parameters:</b>\n<code>%s</code>\n\n"+
		"Press «▶️ Launch» to start or «❌ Cancel» to abort.",
		html.EscapeString(p.LaunchName), html.EscapeString(displayLines(p.DisplayParams)))
	return Message{
		Text:   text,
		HTML:   true,
		Inline: InlineKeyboard{{btnConfirmRun}, {btnCancelRun}},
	}
}

// RunLink is the TestOps UI page of a launch.
func RunLink(uiBase string, launchID int64) string {
	return fmt.Sprintf("%s/launch/%d", uiBase, launchID)
}

func started(uiBase string, p models.PendingLaunch, launchID int64) Message {
	text := fmt.Sprintf("✅ Started!\n"+
		"📌 Launch name: <b>%s</b>\n"+
		"📋 Parameters:\n<code>%s</code>\n\n"+
		"Run ID: <b>%d</b>\n"+
		"🔗 <a href=\"%s\">Open in TestOps</a>\n\n"+
		"I'll report the results when the run finishes...",
		html.EscapeString(p.LaunchName), html.EscapeString(displayLines(p.DisplayParams)),
		launchID, RunLink(uiBase, launchID))
	return Message{Text: text, HTML: true, DisablePreview: true}
}

func completed(uiBase string, r models.RunReport) string {
	return fmt.Sprintf("✅ Run <b>ID %d</b> finished.\n"+
		"📊 Results:\n"+
		"🎯 Total tests: <b>%d</b>\n"+
		"🟢 Passed: <b>%d</b>\n"+
		"🔴 Failed: <b>%d</b>\n"+
		"⚪ Skipped: <b>%d</b>\n\n"+
		"🔗 <a href=\"%s\">Open in TestOps</a>",
		r.LaunchID, r.Total, r.Passed, r.Failed, r.Skipped, RunLink(uiBase, r.LaunchID))
}

func allowList(users []string) string {
	lines := make([]string, len(users))
	for i, u := range users {
		lines[i] = "• @" + u
	}
	return "👥 Allowed users:\n" + strings.Join(lines, "\n")
}
