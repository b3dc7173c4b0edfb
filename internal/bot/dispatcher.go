// Package bot turns chat events into dialogue steps: it parses intents,
// enforces access rules and drives the launch flow through the conversation
// phases.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/kiranshivaraju/testopsbot/internal/cache"
	"github.com/kiranshivaraju/testopsbot/internal/conversation"
	"github.com/kiranshivaraju/testopsbot/internal/launch"
	"github.com/kiranshivaraju/testopsbot/internal/metrics"
	"github.com/kiranshivaraju/testopsbot/internal/store"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

// ErrUnauthorized is returned when the sender is not on the allow-list.
var ErrUnauthorized = errors.New("user is not allowed to use the bot")

// Remote is the part of the test service the dialogue queries directly.
type Remote interface {
	GetProjectName(ctx context.Context, projectID int64) (string, error)
	GetJobs(ctx context.Context, projectID int64) ([]models.Job, error)
}

// Counter backs the per-user rate limit.
type Counter interface {
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// Dependencies holds the collaborators of a Dispatcher. Counter and Metrics
// may be nil.
type Dependencies struct {
	Transport    Transport
	Store        store.Store
	Sessions     conversation.Store
	Remote       Remote
	Collector    *launch.Collector
	Orchestrator *launch.Orchestrator
	Counter      Counter
	Metrics      *metrics.Collector
}

type Options struct {
	OwnerUsername string
	UIBase        string
	// RateLimit is the number of events a user may send per RateWindow.
	// Zero disables the limit.
	RateLimit  int
	RateWindow time.Duration
}

// Dispatcher handles chat events. Events of one session are handled one at
// a time; different sessions proceed in parallel.
type Dispatcher struct {
	transport    Transport
	store        store.Store
	sessions     conversation.Store
	remote       Remote
	collector    *launch.Collector
	orchestrator *launch.Orchestrator
	counter      Counter
	metrics      *metrics.Collector
	opts         Options
	now          func() time.Time

	locks sessionLocks
}

func NewDispatcher(deps Dependencies, opts Options) *Dispatcher {
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	opts.OwnerUsername = strings.TrimPrefix(opts.OwnerUsername, "@")
	return &Dispatcher{
		transport:    deps.Transport,
		store:        deps.Store,
		sessions:     deps.Sessions,
		remote:       deps.Remote,
		collector:    deps.Collector,
		orchestrator: deps.Orchestrator,
		counter:      deps.Counter,
		metrics:      deps.Metrics,
		opts:         opts,
		now:          time.Now,
	}
}

// Handle processes one event. It never panics and never returns an error:
// failures are logged, the session is reset to idle and the user gets a
// retry notice.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) {
	release := d.locks.acquire(ev.Key())
	defer release()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in chat handler",
				"error", r,
				"stack", string(debug.Stack()),
				"chat_id", ev.ChatID,
				"user_id", ev.UserID,
			)
			d.metrics.HandlerPanic()
			d.fail(ctx, ev, fmt.Errorf("panic: %v", r))
		}
	}()

	st, err := d.sessions.Load(ctx, ev.Key())
	if err != nil {
		slog.Warn("failed to load session, treating as idle", "chat_id", ev.ChatID, "user_id", ev.UserID, "error", err)
		st = conversation.Idle{}
	}

	in := d.parse(ev, st)

	if isAdmin(in) {
		if !d.isOwner(ev) {
			slog.Info("ignoring admin command from non-owner", "user_id", ev.UserID, "username", ev.Username)
			return
		}
	} else if err := d.authorize(ctx, ev); err != nil {
		if !errors.Is(err, ErrUnauthorized) {
			d.fail(ctx, ev, err)
			return
		}
		slog.Info("unauthorized chat event", "user_id", ev.UserID, "username", ev.Username, "intent", in.Name())
		d.notice(ctx, ev, textUnauthorized)
		return
	}

	if d.rateLimited(ctx, ev) {
		slog.Warn("user rate limited", "user_id", ev.UserID)
		d.notice(ctx, ev, textRateLimited)
		return
	}

	if ev.IsCallback() {
		if err := d.transport.Answer(ctx, ev.CallbackID, "", false); err != nil {
			slog.Warn("failed to answer callback", "chat_id", ev.ChatID, "error", err)
		}
	}

	d.metrics.DialogueEvent(in.Name())
	slog.Debug("handling chat event", "chat_id", ev.ChatID, "user_id", ev.UserID, "intent", in.Name(), "phase", st.Phase())

	if err := d.dispatch(ctx, ev, in, st); err != nil {
		d.fail(ctx, ev, err)
	}
}

func (d *Dispatcher) parse(ev Event, st conversation.State) Intent {
	if !ev.IsCallback() {
		return ParseText(ev.Text, ev.Command, ev.Args, st)
	}
	in, err := ParseCallback(ev.CallbackData)
	if err != nil {
		return Unknown{Reason: err.Error()}
	}
	return in
}

func (d *Dispatcher) dispatch(ctx context.Context, ev Event, in Intent, st conversation.State) error {
	switch v := in.(type) {
	case Start:
		d.send(ctx, ev.ChatID, Message{Text: textWelcome, Reply: MainMenu()})
	case Help:
		d.send(ctx, ev.ChatID, Message{Text: textHelp, Reply: MainMenu()})
	case ShowMenu:
		d.send(ctx, ev.ChatID, Message{Text: textMainMenu, Reply: MainMenu()})
	case RunTest:
		return d.runTest(ctx, ev)
	case AddProject:
		return d.addProject(ctx, ev)
	case ListProjects:
		d.listProjects(ctx, ev)
	case BackToMain:
		d.backToMain(ctx, ev)
	case Cancel:
		return d.cancel(ctx, ev)
	case SelectProject:
		d.selectProject(ctx, ev, v.ProjectID)
	case SelectJob:
		return d.selectJob(ctx, ev, v)
	case ChooseParam:
		return d.chooseParam(ctx, ev, st, v)
	case DeleteProject:
		d.deleteProject(ctx, ev, v.ProjectID)
	case ConfirmLaunch:
		return d.confirmLaunch(ctx, ev, st)
	case CancelLaunch:
		return d.cancelLaunch(ctx, ev)
	case ProjectRefText:
		return d.projectRef(ctx, ev, v.Text)
	case ParamValueText:
		return d.paramValue(ctx, ev, st, v.Text)
	case LaunchNameText:
		return d.launchName(ctx, ev, st, v.Text)
	case AllowUser:
		d.allowUser(ctx, ev, v.Username)
	case DisallowUser:
		d.disallowUser(ctx, ev, v.Username)
	case ListAllowed:
		d.listAllowed(ctx, ev)
	default:
		d.unknown(ctx, ev)
	}
	return nil
}

// --- access ---

func (d *Dispatcher) isOwner(ev Event) bool {
	return d.opts.OwnerUsername != "" && strings.EqualFold(ev.Username, d.opts.OwnerUsername)
}

// authorize admits the owner and allow-listed usernames.
func (d *Dispatcher) authorize(ctx context.Context, ev Event) error {
	if ev.Username == "" {
		return ErrUnauthorized
	}
	if d.isOwner(ev) {
		return nil
	}
	ok, err := d.store.IsUserAllowed(ctx, ev.Username)
	if err != nil {
		return fmt.Errorf("check allow-list: %w", err)
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// rateLimited counts the event against the user's window. Counter failures
// let the event through.
func (d *Dispatcher) rateLimited(ctx context.Context, ev Event) bool {
	if d.counter == nil || d.opts.RateLimit <= 0 {
		return false
	}
	key := cache.RateLimitKey(ev.UserID, d.now(), d.opts.RateWindow)
	n, err := d.counter.IncrWithExpiry(ctx, key, d.opts.RateWindow)
	if err != nil {
		slog.Warn("rate limit check failed, allowing event", "user_id", ev.UserID, "error", err)
		return false
	}
	return n > int64(d.opts.RateLimit)
}

// --- menu and projects ---

func (d *Dispatcher) runTest(ctx context.Context, ev Event) error {
	if err := d.sessions.Save(ctx, ev.Key(), conversation.Idle{}); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	projects, err := d.store.GetUserProjects(ctx, ev.UserID)
	if err != nil {
		slog.Error("failed to load projects", "user_id", ev.UserID, "error", err)
		d.reply(ctx, ev, errorMessage(textRunTestDBError, RunTest{}))
		return nil
	}
	d.reply(ctx, ev, projectPicker(projects))
	return nil
}

func (d *Dispatcher) addProject(ctx context.Context, ev Event) error {
	if err := d.sessions.Save(ctx, ev.Key(), conversation.AddingProject{}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	d.reply(ctx, ev, Message{Text: textAskProjectRef, Inline: cancelKeyboard})
	return nil
}

func (d *Dispatcher) listProjects(ctx context.Context, ev Event) {
	d.reply(ctx, ev, d.projectListMessage(ctx, ev.UserID))
}

func (d *Dispatcher) projectListMessage(ctx context.Context, userID int64) Message {
	projects, err := d.store.GetUserProjects(ctx, userID)
	if err != nil {
		slog.Error("failed to load projects", "user_id", userID, "error", err)
		return Message{Text: textProjectsDBError, Reply: MainMenu()}
	}
	return projectList(projects)
}

func (d *Dispatcher) backToMain(ctx context.Context, ev Event) {
	if !ev.IsCallback() {
		d.send(ctx, ev.ChatID, Message{Text: textMainMenu, Reply: MainMenu()})
		return
	}
	d.delete(ctx, ev)
}

func (d *Dispatcher) cancel(ctx context.Context, ev Event) error {
	if err := d.sessions.Save(ctx, ev.Key(), d.orchestrator.Cancel()); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	if ev.IsCallback() {
		d.delete(ctx, ev)
		return nil
	}
	d.send(ctx, ev.ChatID, Message{Text: textCancelled, Reply: MainMenu()})
	return nil
}

func (d *Dispatcher) deleteProject(ctx context.Context, ev Event, projectID int64) {
	deleted, err := d.store.DeleteProject(ctx, ev.UserID, projectID)
	if err != nil {
		slog.Error("failed to delete project", "user_id", ev.UserID, "project_id", projectID, "error", err)
		d.reply(ctx, ev, Message{Text: textDeleteFailed})
		return
	}
	if !deleted {
		d.reply(ctx, ev, Message{Text: fmt.Sprintf("❗ Project ID %d is not in your list.", projectID)})
		return
	}
	slog.Info("project deleted", "user_id", ev.UserID, "project_id", projectID)
	d.reply(ctx, ev, Message{Text: fmt.Sprintf("✅ Project ID %d deleted.\nRefreshing the list...", projectID)})
	d.send(ctx, ev.ChatID, d.projectListMessage(ctx, ev.UserID))
}

// projectRef registers the project referenced by free text. Unparseable
// text keeps the session waiting; everything else ends the step.
func (d *Dispatcher) projectRef(ctx context.Context, ev Event, text string) error {
	pid, ok := ParseProjectRef(text)
	if !ok {
		d.send(ctx, ev.ChatID, Message{Text: textBadProjectRef, Inline: cancelKeyboard})
		return nil
	}
	if err := d.sessions.Save(ctx, ev.Key(), conversation.Idle{}); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}

	alreadyAdded := Message{Text: fmt.Sprintf("❗ Project ID %d has already been added.", pid), Reply: MainMenu()}

	_, err := d.store.FindProject(ctx, ev.UserID, pid)
	if err == nil {
		d.send(ctx, ev.ChatID, alreadyAdded)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("find project %d: %w", pid, err)
	}

	d.typing(ctx, ev.ChatID)
	name, err := d.remote.GetProjectName(ctx, pid)
	if err != nil {
		slog.Error("failed to fetch project", "project_id", pid, "error", err)
		d.send(ctx, ev.ChatID, errorMessage(fmt.Sprintf("❗ Failed to fetch project (ID %d).", pid), AddProject{}))
		return nil
	}

	err = d.store.AddProject(ctx, ev.UserID, pid, name)
	switch {
	case errors.Is(err, store.ErrDuplicateProject):
		d.send(ctx, ev.ChatID, alreadyAdded)
	case err != nil:
		slog.Error("failed to save project", "user_id", ev.UserID, "project_id", pid, "error", err)
		d.send(ctx, ev.ChatID, Message{Text: textSaveProjectFailed, Reply: MainMenu()})
	default:
		slog.Info("project added", "user_id", ev.UserID, "project_id", pid)
		d.send(ctx, ev.ChatID, Message{Text: fmt.Sprintf("✅ Project «%s» added.", name), Reply: MainMenu()})
	}
	return nil
}

// --- launch flow ---

func (d *Dispatcher) selectProject(ctx context.Context, ev Event, projectID int64) {
	p, err := d.store.FindProject(ctx, ev.UserID, projectID)
	if errors.Is(err, store.ErrNotFound) {
		d.reply(ctx, ev, errorMessage(textProjectNotFound, RunTest{}))
		return
	}
	if err != nil {
		slog.Error("failed to find project", "user_id", ev.UserID, "project_id", projectID, "error", err)
		d.reply(ctx, ev, errorMessage(textRunTestDBError, SelectProject{ProjectID: projectID}))
		return
	}

	d.reply(ctx, ev, Message{Text: loadingJobs(p.ProjectName)})
	d.typing(ctx, ev.ChatID)

	jobs, err := d.remote.GetJobs(ctx, projectID)
	if err != nil {
		slog.Error("failed to list jobs", "project_id", projectID, "error", err)
		d.reply(ctx, ev, errorMessage(textJobsAPIError, SelectProject{ProjectID: projectID}))
		return
	}
	if len(jobs) == 0 {
		d.reply(ctx, ev, Message{Text: noJobs(p.ProjectName)})
		return
	}
	d.reply(ctx, ev, jobPicker(projectID, p.ProjectName, jobs))
}

func (d *Dispatcher) selectJob(ctx context.Context, ev Event, sel SelectJob) error {
	d.reply(ctx, ev, Message{Text: textLoadingJobDetails})
	d.typing(ctx, ev.ChatID)

	next, err := d.collector.SelectJob(ctx, sel.JobID, sel.ProjectID)
	if err != nil {
		slog.Error("failed to load job details", "job_id", sel.JobID, "error", err)
		d.reply(ctx, ev, errorMessage(textJobDetailsAPIError, sel))
		return nil
	}
	if err := d.sessions.Save(ctx, ev.Key(), next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if col, ok := next.(*conversation.Collecting); ok {
		d.reply(ctx, ev, parameterPrompt(col))
		return nil
	}
	d.reply(ctx, ev, Message{Text: textNoParameters})
	return nil
}

func (d *Dispatcher) chooseParam(ctx context.Context, ev Event, st conversation.State, choice ChooseParam) error {
	col, ok := st.(*conversation.Collecting)
	if !ok {
		d.stale(ctx, ev, fmt.Errorf("%w: no parameters being collected", launch.ErrInvalidSelection))
		return nil
	}
	name, err := launch.ParamAt(col, choice.JobID, choice.Index)
	if err != nil {
		d.stale(ctx, ev, err)
		return nil
	}
	next, err := d.collector.Apply(col, name, choice.Choice, "")
	if err != nil {
		d.stale(ctx, ev, err)
		return nil
	}
	return d.advance(ctx, ev, next)
}

// paramValue applies typed text to the parameter armed for input. Text
// sent before a parameter is armed is not taken as a value; the prompt is
// shown again.
func (d *Dispatcher) paramValue(ctx context.Context, ev Event, st conversation.State, text string) error {
	col, ok := st.(*conversation.Collecting)
	if !ok {
		d.unknown(ctx, ev)
		return nil
	}
	if col.AwaitingValueFor == "" {
		d.send(ctx, ev.ChatID, Message{Text: textChooseParamOption})
		d.send(ctx, ev.ChatID, parameterPrompt(col))
		return nil
	}
	next, err := d.collector.Apply(col, col.AwaitingValueFor, launch.ChoiceValue, text)
	if err != nil {
		d.stale(ctx, ev, err)
		return nil
	}
	return d.advance(ctx, ev, next)
}

// advance stores the state after a parameter step and prompts for what
// comes next.
func (d *Dispatcher) advance(ctx context.Context, ev Event, next conversation.State) error {
	if err := d.sessions.Save(ctx, ev.Key(), next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if col, ok := next.(*conversation.Collecting); ok {
		d.reply(ctx, ev, parameterPrompt(col))
		return nil
	}
	d.reply(ctx, ev, Message{Text: textAllParametersSet})
	return nil
}

func (d *Dispatcher) launchName(ctx context.Context, ev Event, st conversation.State, text string) error {
	naming, ok := st.(*conversation.AwaitingLaunchName)
	if !ok {
		d.unknown(ctx, ev)
		return nil
	}
	confirm, err := d.orchestrator.CaptureLaunchName(naming, text)
	if errors.Is(err, launch.ErrInvalidLaunchName) {
		d.send(ctx, ev.ChatID, Message{Text: textInvalidLaunchName})
		return nil
	}
	if err != nil {
		return err
	}
	if err := d.sessions.Save(ctx, ev.Key(), confirm); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	d.send(ctx, ev.ChatID, confirmation(confirm.Pending))
	return nil
}

// confirmLaunch submits the pending launch. The session leaves the
// confirmation phase before the submit so a repeated tap finds nothing to
// launch.
func (d *Dispatcher) confirmLaunch(ctx context.Context, ev Event, st conversation.State) error {
	confirm, ok := st.(*conversation.AwaitingConfirmation)
	if !ok {
		d.reply(ctx, ev, Message{Text: textNoPendingLaunch})
		return nil
	}
	if err := d.sessions.Save(ctx, ev.Key(), conversation.Idle{}); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}

	loadingID := d.reply(ctx, ev, Message{Text: textStartingJob})
	d.typing(ctx, ev.ChatID)

	desc, err := d.orchestrator.Confirm(ctx, confirm.Pending, ev.ChatID, loadingID)
	if err != nil {
		slog.Error("failed to start launch", "job_id", confirm.Pending.JobID, "chat_id", ev.ChatID, "error", err)
		d.reply(ctx, ev, errorMessage(textLaunchFailed, RunTest{}))
		return nil
	}

	d.edit(ctx, ev.ChatID, loadingID, started(d.opts.UIBase, confirm.Pending, desc.LaunchID))
	d.send(ctx, ev.ChatID, Message{Text: textPressMenu, Reply: MenuButton()})
	return nil
}

func (d *Dispatcher) cancelLaunch(ctx context.Context, ev Event) error {
	if err := d.sessions.Save(ctx, ev.Key(), d.orchestrator.Cancel()); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	d.reply(ctx, ev, Message{Text: textLaunchCancelled})
	return nil
}

// --- admin ---

func (d *Dispatcher) allowUser(ctx context.Context, ev Event, raw string) {
	if raw == "" {
		d.send(ctx, ev.ChatID, Message{Text: textAllowUsage})
		return
	}
	name, ok := NormaliseUsername(raw)
	if !ok {
		d.send(ctx, ev.ChatID, Message{Text: textBadUsername})
		return
	}
	if err := d.store.AddAllowedUser(ctx, name); err != nil {
		slog.Error("failed to allow user", "username", name, "error", err)
		d.send(ctx, ev.ChatID, Message{Text: textAllowFailed})
		return
	}
	slog.Info("user allowed", "username", name)
	d.send(ctx, ev.ChatID, Message{Text: fmt.Sprintf("✅ User @%s added to the allow-list.", name)})
}

func (d *Dispatcher) disallowUser(ctx context.Context, ev Event, raw string) {
	if raw == "" {
		d.send(ctx, ev.ChatID, Message{Text: textDisallowUsage})
		return
	}
	name, ok := NormaliseUsername(raw)
	if !ok {
		d.send(ctx, ev.ChatID, Message{Text: textBadUsername})
		return
	}
	removed, err := d.store.RemoveAllowedUser(ctx, name)
	if err != nil {
		slog.Error("failed to disallow user", "username", name, "error", err)
		d.send(ctx, ev.ChatID, Message{Text: textDisallowFailed})
		return
	}
	if !removed {
		d.send(ctx, ev.ChatID, Message{Text: fmt.Sprintf("User @%s was not on the allow-list.", name)})
		return
	}
	slog.Info("user disallowed", "username", name)
	d.send(ctx, ev.ChatID, Message{Text: fmt.Sprintf("❌ User @%s removed from the allow-list.", name)})
}

func (d *Dispatcher) listAllowed(ctx context.Context, ev Event) {
	users, err := d.store.ListAllowedUsers(ctx)
	if err != nil {
		slog.Error("failed to list allowed users", "error", err)
		d.send(ctx, ev.ChatID, Message{Text: textAllowListFailed})
		return
	}
	if len(users) == 0 {
		d.send(ctx, ev.ChatID, Message{Text: textAllowListEmpty})
		return
	}
	d.send(ctx, ev.ChatID, Message{Text: allowList(users)})
}

// --- fallbacks ---

func (d *Dispatcher) unknown(ctx context.Context, ev Event) {
	if ev.IsCallback() {
		d.reply(ctx, ev, errorMessage(textUnknownCommand, RunTest{}))
		return
	}
	d.send(ctx, ev.ChatID, Message{Text: textNotUnderstood, Reply: MainMenu()})
}

// stale reports a selection that no longer matches the session. The
// session is left as it was.
func (d *Dispatcher) stale(ctx context.Context, ev Event, err error) {
	slog.Info("rejected stale selection", "chat_id", ev.ChatID, "user_id", ev.UserID, "error", err)
	d.reply(ctx, ev, errorMessage(textStaleSelection, RunTest{}))
}

// fail resets the session and offers a fresh start.
func (d *Dispatcher) fail(ctx context.Context, ev Event, err error) {
	slog.Error("failed to handle chat event", "chat_id", ev.ChatID, "user_id", ev.UserID, "error", err)
	if cerr := d.sessions.Clear(ctx, ev.Key()); cerr != nil {
		slog.Error("failed to reset session", "chat_id", ev.ChatID, "user_id", ev.UserID, "error", cerr)
	}
	d.reply(ctx, ev, errorMessage(textInternalError, RunTest{}))
}

// notice is a short answer that does not touch the conversation.
func (d *Dispatcher) notice(ctx context.Context, ev Event, text string) {
	if ev.IsCallback() {
		if err := d.transport.Answer(ctx, ev.CallbackID, text, true); err != nil {
			slog.Warn("failed to answer callback", "chat_id", ev.ChatID, "error", err)
		}
		return
	}
	d.send(ctx, ev.ChatID, Message{Text: text})
}

// --- transport helpers ---

// reply edits the pressed message for button presses and sends a new
// message otherwise. Reply keyboards cannot be edited in, so messages that
// carry one are always sent. It returns the id of the message shown.
func (d *Dispatcher) reply(ctx context.Context, ev Event, msg Message) int {
	if ev.IsCallback() && msg.Reply == nil {
		d.edit(ctx, ev.ChatID, ev.MessageID, msg)
		return ev.MessageID
	}
	return d.send(ctx, ev.ChatID, msg)
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, msg Message) int {
	msg.ChatID = chatID
	id, err := d.transport.Send(ctx, msg)
	if err != nil {
		slog.Error("failed to send message", "chat_id", chatID, "error", err)
	}
	return id
}

func (d *Dispatcher) edit(ctx context.Context, chatID int64, messageID int, msg Message) {
	msg.ChatID = chatID
	if err := d.transport.Edit(ctx, chatID, messageID, msg); err != nil {
		slog.Warn("failed to edit message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

func (d *Dispatcher) delete(ctx context.Context, ev Event) {
	if err := d.transport.Delete(ctx, ev.ChatID, ev.MessageID); err != nil {
		slog.Warn("failed to delete message", "chat_id", ev.ChatID, "message_id", ev.MessageID, "error", err)
	}
}

func (d *Dispatcher) typing(ctx context.Context, chatID int64) {
	if err := d.transport.Typing(ctx, chatID); err != nil {
		slog.Debug("failed to send typing indicator", "chat_id", chatID, "error", err)
	}
}
