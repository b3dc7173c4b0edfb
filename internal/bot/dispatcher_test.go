package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kiranshivaraju/testopsbot/internal/conversation"
	"github.com/kiranshivaraju/testopsbot/internal/launch"
	"github.com/kiranshivaraju/testopsbot/internal/testops"
	"github.com/kiranshivaraju/testopsbot/internal/testops/mock"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testChatID   int64 = 100
	testUserID   int64 = 10
	testUIBase         = "https://testops.example.com"
	buttonMsgID        = 50
	userMsgID          = 1
	testUsername       = "alice"
)

type harness struct {
	d        *Dispatcher
	tr       *fakeTransport
	store    *fakeStore
	sessions *conversation.MemoryStore
	client   *mock.MockClient
	watcher  *fakeWatcher
	submits  [][]models.ParamValue
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		tr:       newFakeTransport(),
		store:    newFakeStore(),
		sessions: conversation.NewMemoryStore(),
		client:   mock.NewMockClient(),
		watcher:  &fakeWatcher{},
	}
	h.client.SubmitRunFunc = func(_ context.Context, _ int64, _ string, params []models.ParamValue) (int64, error) {
		h.submits = append(h.submits, params)
		return 42, nil
	}
	h.store.allowed[testUsername] = true
	h.store.projects[testUserID] = map[int64]string{3: "Demo"}

	h.d = NewDispatcher(Dependencies{
		Transport:    h.tr,
		Store:        h.store,
		Sessions:     h.sessions,
		Remote:       h.client,
		Collector:    launch.NewCollector(h.client),
		Orchestrator: launch.NewOrchestrator(h.client, h.watcher, nil),
	}, Options{OwnerUsername: "@owner", UIBase: testUIBase})
	return h
}

func (h *harness) text(text string) {
	h.d.Handle(context.Background(), Event{
		ChatID: testChatID, UserID: testUserID, Username: testUsername,
		MessageID: userMsgID, Text: text,
	})
}

func (h *harness) command(cmd string, args ...string) {
	h.commandAs(testUsername, cmd, args...)
}

func (h *harness) commandAs(username, cmd string, args ...string) {
	h.d.Handle(context.Background(), Event{
		ChatID: testChatID, UserID: testUserID, Username: username,
		MessageID: userMsgID, Text: "/" + cmd, Command: cmd, Args: args,
	})
}

func (h *harness) press(data string) {
	h.d.Handle(context.Background(), Event{
		ChatID: testChatID, UserID: testUserID, Username: testUsername,
		MessageID: buttonMsgID, CallbackID: "cb-1", CallbackData: data,
	})
}

func (h *harness) state(t *testing.T) conversation.State {
	t.Helper()
	st, err := h.sessions.Load(context.Background(), conversation.Key{ChatID: testChatID, UserID: testUserID})
	require.NoError(t, err)
	return st
}

func buttonData(kb InlineKeyboard) []string {
	var out []string
	for _, row := range kb {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}

func TestHandle_FullLaunchFlow(t *testing.T) {
	h := newHarness(t)

	h.press("run_test")
	assert.Contains(t, buttonData(h.tr.lastEdit().Msg.Inline), "project:3")
	assert.Equal(t, buttonMsgID, h.tr.lastEdit().MessageID)

	h.press("project:3")
	assert.Contains(t, buttonData(h.tr.lastEdit().Msg.Inline), "job:7:3")

	h.press("job:7:3")
	require.IsType(t, &conversation.Collecting{}, h.state(t))
	assert.Contains(t, buttonData(h.tr.lastEdit().Msg.Inline), "param:7:0:default")
	assert.Contains(t, h.tr.lastEdit().Msg.Text, "env")

	h.press("param:7:0:default")
	require.IsType(t, &conversation.AwaitingLaunchName{}, h.state(t))
	assert.Equal(t, textAllParametersSet, h.tr.lastEdit().Msg.Text)

	h.text("Smoke-1")
	require.IsType(t, &conversation.AwaitingConfirmation{}, h.state(t))
	confirm := h.tr.lastSend()
	assert.True(t, confirm.HTML)
	assert.Contains(t, confirm.Text, "Smoke-1")
	assert.Contains(t, confirm.Text, "env = prod")
	assert.Equal(t, []string{"launch:confirm", "launch:cancel"}, buttonData(confirm.Inline))

	h.press("launch:confirm")
	require.Len(t, h.submits, 1)
	assert.Equal(t, []models.ParamValue{{ID: 101, Value: "prod"}}, h.submits[0])

	require.Len(t, h.watcher.watched, 1)
	d := h.watcher.watched[0]
	assert.Equal(t, int64(42), d.LaunchID)
	assert.Equal(t, testChatID, d.ChatID)
	assert.Equal(t, buttonMsgID, d.CorrelationMessageID)

	assert.Equal(t, conversation.Idle{}, h.state(t))
	startedMsg := h.tr.lastEdit().Msg
	assert.Contains(t, startedMsg.Text, testUIBase+"/launch/42")
	assert.True(t, startedMsg.DisablePreview)
	assert.Equal(t, MenuButton(), h.tr.lastSend().Reply)

	// A second tap finds nothing to launch.
	h.press("launch:confirm")
	assert.Len(t, h.submits, 1)
	assert.Equal(t, textNoPendingLaunch, h.tr.lastEdit().Msg.Text)
}

func TestHandle_TypedParameterValues(t *testing.T) {
	h := newHarness(t)
	h.client.GetJobDetailsFunc = func(_ context.Context, jobID int64) (*models.JobDetails, error) {
		return &models.JobDetails{ID: jobID, Name: "Regression", Parameters: []models.Parameter{
			{ID: 1, Name: "env", DefaultValue: "prod"},
			{ID: 2, Name: "browser", DefaultValue: "chrome"},
			{ID: 3, Name: "region"},
		}}, nil
	}

	h.press("job:7:3")

	h.press("param:7:0:input")
	col := h.state(t).(*conversation.Collecting)
	assert.Equal(t, "env", col.AwaitingValueFor)
	assert.Contains(t, h.tr.lastEdit().Msg.Text, "Enter the value for «env»")

	h.text("staging")
	col = h.state(t).(*conversation.Collecting)
	assert.Equal(t, "staging", col.Collected["env"])
	assert.Contains(t, buttonData(h.tr.lastSend().Inline), "param:7:1:skip")

	h.press("param:7:1:skip")

	h.press("param:7:2:input")
	h.text("eu-west")
	naming := h.state(t).(*conversation.AwaitingLaunchName)
	assert.Equal(t, map[string]string{"env": "staging", "region": "eu-west"}, naming.Collected)

	h.text("Nightly")
	h.press("launch:confirm")
	require.Len(t, h.submits, 1)
	assert.Equal(t, []models.ParamValue{{ID: 1, Value: "staging"}, {ID: 3, Value: "eu-west"}}, h.submits[0])
}

func TestHandle_TextBeforeInputIsNotAValue(t *testing.T) {
	h := newHarness(t)
	h.client.GetJobDetailsFunc = func(_ context.Context, jobID int64) (*models.JobDetails, error) {
		return &models.JobDetails{ID: jobID, Name: "Regression", Parameters: []models.Parameter{
			{ID: 1, Name: "env", DefaultValue: "prod"},
		}}, nil
	}

	h.press("job:7:3")
	before := h.tr.total()

	h.text("hi")

	col := h.state(t).(*conversation.Collecting)
	assert.Empty(t, col.Collected)
	assert.Empty(t, col.AwaitingValueFor)
	assert.Equal(t, before+2, h.tr.total())
	assert.Contains(t, buttonData(h.tr.lastSend().Inline), "param:7:0:input")

	h.press("param:7:0:input")
	h.text("staging")
	naming := h.state(t).(*conversation.AwaitingLaunchName)
	assert.Equal(t, map[string]string{"env": "staging"}, naming.Collected)
}

func TestHandle_JobWithoutParameters(t *testing.T) {
	h := newHarness(t)
	h.client.GetJobDetailsFunc = func(_ context.Context, jobID int64) (*models.JobDetails, error) {
		return &models.JobDetails{ID: jobID, Name: "Smoke"}, nil
	}

	h.press("job:7:3")
	assert.IsType(t, &conversation.AwaitingLaunchName{}, h.state(t))
	assert.Equal(t, textNoParameters, h.tr.lastEdit().Msg.Text)
}

func TestHandle_InvalidLaunchNameKeepsState(t *testing.T) {
	h := newHarness(t)
	h.press("job:7:3")
	h.press("param:7:0:default")

	h.text("bad;name")
	assert.Equal(t, textInvalidLaunchName, h.tr.lastSend().Text)
	assert.IsType(t, &conversation.AwaitingLaunchName{}, h.state(t))

	h.text("good name")
	assert.IsType(t, &conversation.AwaitingConfirmation{}, h.state(t))
}

func TestHandle_StaleParameterButton(t *testing.T) {
	h := newHarness(t)

	h.press("param:7:0:default")
	assert.Equal(t, textStaleSelection, h.tr.lastEdit().Msg.Text)
	assert.Equal(t, conversation.Idle{}, h.state(t))

	h.press("job:7:3")
	h.press("param:8:0:default")
	assert.Equal(t, textStaleSelection, h.tr.lastEdit().Msg.Text)
	col := h.state(t).(*conversation.Collecting)
	assert.Empty(t, col.Collected)
}

func TestHandle_RemoteFailureOffersRetry(t *testing.T) {
	h := newHarness(t)
	h.client.GetJobsFunc = func(context.Context, int64) ([]models.Job, error) {
		return nil, testops.ErrRemoteUnavailable
	}

	h.press("project:3")
	last := h.tr.lastEdit().Msg
	assert.Equal(t, textJobsAPIError, last.Text)
	assert.Equal(t, []string{"project:3", "cancel"}, buttonData(last.Inline))
}

func TestHandle_JobDetailsFailureOffersRetry(t *testing.T) {
	h := newHarness(t)
	h.client.GetJobDetailsFunc = func(context.Context, int64) (*models.JobDetails, error) {
		return nil, testops.ErrRemoteTimeout
	}

	h.press("job:7:3")
	last := h.tr.lastEdit().Msg
	assert.Equal(t, textJobDetailsAPIError, last.Text)
	assert.Equal(t, []string{"job:7:3", "cancel"}, buttonData(last.Inline))
	assert.Equal(t, conversation.Idle{}, h.state(t))
}

func TestHandle_ConfirmFailureResetsSession(t *testing.T) {
	h := newHarness(t)
	h.client.SubmitRunFunc = func(context.Context, int64, string, []models.ParamValue) (int64, error) {
		return 0, errors.New("HTTP 500")
	}
	h.press("job:7:3")
	h.press("param:7:0:default")
	h.text("Smoke-1")

	h.press("launch:confirm")
	assert.Equal(t, textLaunchFailed, h.tr.lastEdit().Msg.Text)
	assert.Empty(t, h.watcher.watched)
	assert.Equal(t, conversation.Idle{}, h.state(t))
}

func TestHandle_CancelLaunch(t *testing.T) {
	h := newHarness(t)
	h.press("job:7:3")
	h.press("param:7:0:default")
	h.text("Smoke-1")

	h.press("launch:cancel")
	assert.Equal(t, textLaunchCancelled, h.tr.lastEdit().Msg.Text)
	assert.Equal(t, conversation.Idle{}, h.state(t))
	assert.Empty(t, h.submits)
}

func TestHandle_CancelText(t *testing.T) {
	h := newHarness(t)
	h.press("job:7:3")

	h.text("Cancel")
	assert.Equal(t, conversation.Idle{}, h.state(t))
	assert.Equal(t, textCancelled, h.tr.lastSend().Text)
	assert.Equal(t, MainMenu(), h.tr.lastSend().Reply)
}

func TestHandle_CancelButtonDeletesPrompt(t *testing.T) {
	h := newHarness(t)
	h.text(LabelAddProject)

	h.press("cancel")
	assert.Equal(t, conversation.Idle{}, h.state(t))
	assert.Equal(t, []int{buttonMsgID}, h.tr.deletes)
}

func TestHandle_AddProject(t *testing.T) {
	h := newHarness(t)

	h.text(LabelAddProject)
	assert.Equal(t, conversation.AddingProject{}, h.state(t))
	assert.Equal(t, textAskProjectRef, h.tr.lastSend().Text)

	h.text("no digits here")
	assert.Equal(t, textBadProjectRef, h.tr.lastSend().Text)
	assert.Equal(t, conversation.AddingProject{}, h.state(t))

	h.text("https://testops.example.com/project/55/dashboards")
	assert.Equal(t, conversation.Idle{}, h.state(t))
	assert.Equal(t, "Demo Project", h.store.projects[testUserID][55])
	assert.Equal(t, "✅ Project «Demo Project» added.", h.tr.lastSend().Text)
}

func TestHandle_AddProjectDuplicate(t *testing.T) {
	h := newHarness(t)
	called := false
	h.client.GetProjectNameFunc = func(context.Context, int64) (string, error) {
		called = true
		return "x", nil
	}

	h.text("add project")
	h.text("3")
	assert.False(t, called, "existing project must not be looked up remotely")
	assert.Contains(t, h.tr.lastSend().Text, "already been added")
	assert.Equal(t, conversation.Idle{}, h.state(t))
}

func TestHandle_AddProjectRemoteFailure(t *testing.T) {
	h := newHarness(t)
	h.client.GetProjectNameFunc = func(context.Context, int64) (string, error) {
		return "", testops.ErrRemoteUnavailable
	}

	h.text("add project")
	h.text("99")
	last := h.tr.lastSend()
	assert.Contains(t, last.Text, "ID 99")
	assert.Equal(t, []string{"add_project", "cancel"}, buttonData(last.Inline))
	assert.NotContains(t, h.store.projects[testUserID], int64(99))
}

func TestHandle_ListAndDeleteProjects(t *testing.T) {
	h := newHarness(t)

	h.command("list_projects")
	list := h.tr.lastSend()
	assert.Contains(t, list.Text, "Demo (ID 3)")
	assert.Equal(t, []string{"delete:3", "back_to_main"}, buttonData(list.Inline))

	h.press("delete:3")
	assert.Contains(t, h.tr.lastEdit().Msg.Text, "Project ID 3 deleted")
	assert.Equal(t, textNoProjects, h.tr.lastSend().Text)
	assert.Empty(t, h.store.projects[testUserID])

	h.press("delete:3")
	assert.Contains(t, h.tr.lastEdit().Msg.Text, "not in your list")
}

func TestHandle_RunTestWithoutProjects(t *testing.T) {
	h := newHarness(t)
	delete(h.store.projects, testUserID)

	h.text(LabelRunTest)
	last := h.tr.lastSend()
	assert.Equal(t, textNoProjectsToRun, last.Text)
	assert.Equal(t, []string{"add_project", "back_to_main", "cancel"}, buttonData(last.Inline))
}

func TestHandle_RunTestDatabaseError(t *testing.T) {
	h := newHarness(t)
	h.store.projectErr = errors.New("connection refused")

	h.press("run_test")
	last := h.tr.lastEdit().Msg
	assert.Equal(t, textRunTestDBError, last.Text)
	assert.Equal(t, []string{"run_test", "cancel"}, buttonData(last.Inline))
}

func TestHandle_SelectUnknownProject(t *testing.T) {
	h := newHarness(t)

	h.press("project:404")
	assert.Equal(t, textProjectNotFound, h.tr.lastEdit().Msg.Text)
}

func TestHandle_MenuAndHelp(t *testing.T) {
	h := newHarness(t)

	h.command("start")
	assert.Equal(t, textWelcome, h.tr.lastSend().Text)
	assert.Equal(t, MainMenu(), h.tr.lastSend().Reply)

	h.text(LabelHelp)
	assert.Equal(t, textHelp, h.tr.lastSend().Text)

	h.text("Menu")
	assert.Equal(t, textMainMenu, h.tr.lastSend().Text)

	h.press("help")
	assert.Equal(t, textHelp, h.tr.lastSend().Text, "reply keyboards are sent, not edited in")
}

func TestHandle_BackToMainDeletesMessage(t *testing.T) {
	h := newHarness(t)
	h.press("back_to_main")
	assert.Equal(t, []int{buttonMsgID}, h.tr.deletes)
}

func TestHandle_UnknownInput(t *testing.T) {
	h := newHarness(t)

	h.text("what is this")
	assert.Equal(t, textNotUnderstood, h.tr.lastSend().Text)
	assert.Equal(t, MainMenu(), h.tr.lastSend().Reply)

	h.press("job:abc")
	last := h.tr.lastEdit().Msg
	assert.Equal(t, textUnknownCommand, last.Text)
	assert.Equal(t, []string{"run_test", "cancel"}, buttonData(last.Inline))
}

func TestHandle_Unauthorized(t *testing.T) {
	h := newHarness(t)
	ev := Event{ChatID: 5, UserID: 6, Username: "mallory", MessageID: 1, Text: "run test"}

	h.d.Handle(context.Background(), ev)
	assert.Equal(t, textUnauthorized, h.tr.lastSend().Text)

	ev.CallbackID, ev.CallbackData = "cb", "run_test"
	h.d.Handle(context.Background(), ev)
	require.Len(t, h.tr.answers, 1)
	assert.Equal(t, answerCall{CallbackID: "cb", Text: textUnauthorized, Alert: true}, h.tr.answers[0])
	assert.Empty(t, h.tr.edits)

	h.d.Handle(context.Background(), Event{ChatID: 5, UserID: 7, Text: "hi"})
	assert.Equal(t, textUnauthorized, h.tr.lastSend().Text, "users without a username are never allowed")
}

func TestHandle_AllowListErrorIsGeneric(t *testing.T) {
	h := newHarness(t)
	h.store.allowedErr = errors.New("db down")

	h.text("run test")
	assert.Equal(t, textInternalError, h.tr.lastSend().Text)
}

func TestHandle_CallbacksAreAnswered(t *testing.T) {
	h := newHarness(t)
	h.press("run_test")
	require.Len(t, h.tr.answers, 1)
	assert.Equal(t, answerCall{CallbackID: "cb-1"}, h.tr.answers[0])
}

func TestHandle_AdminCommands(t *testing.T) {
	h := newHarness(t)

	t.Run("non-owner is ignored silently", func(t *testing.T) {
		before := h.tr.total()
		h.command("allow_user", "bob")
		h.command("list_allowed")
		assert.Equal(t, before, h.tr.total())
		assert.False(t, h.store.allowed["bob"])
	})

	t.Run("owner without allow-list entry", func(t *testing.T) {
		h.commandAs("owner", "allow_user", "@bob")
		assert.True(t, h.store.allowed["bob"])
		assert.Equal(t, "✅ User @bob added to the allow-list.", h.tr.lastSend().Text)
	})

	t.Run("usage and format", func(t *testing.T) {
		h.commandAs("owner", "allow_user")
		assert.Equal(t, textAllowUsage, h.tr.lastSend().Text)
		h.commandAs("owner", "allow_user", "bad-name")
		assert.Equal(t, textBadUsername, h.tr.lastSend().Text)
		h.commandAs("owner", "disallow_user")
		assert.Equal(t, textDisallowUsage, h.tr.lastSend().Text)
	})

	t.Run("list", func(t *testing.T) {
		h.commandAs("Owner", "list_allowed")
		assert.Contains(t, h.tr.lastSend().Text, "• @bob")
		assert.Contains(t, h.tr.lastSend().Text, "• @alice")
	})

	t.Run("disallow", func(t *testing.T) {
		h.commandAs("owner", "disallow_user", "bob")
		assert.False(t, h.store.allowed["bob"])
		assert.Contains(t, h.tr.lastSend().Text, "removed")
		h.commandAs("owner", "disallow_user", "bob")
		assert.Contains(t, h.tr.lastSend().Text, "was not on the allow-list")
	})

	t.Run("owner may use the bot", func(t *testing.T) {
		h.commandAs("owner", "start")
		assert.Equal(t, textWelcome, h.tr.lastSend().Text)
	})
}

func TestHandle_RateLimit(t *testing.T) {
	h := newHarness(t)
	counter := &fakeCounter{}
	h.d.counter = counter
	h.d.opts.RateLimit = 2

	h.command("start")
	h.command("start")
	h.command("start")
	assert.Equal(t, textRateLimited, h.tr.lastSend().Text)
	require.Len(t, counter.keys, 3)
	assert.True(t, strings.HasPrefix(counter.keys[0], "ratelimit:10:"))
}

func TestHandle_RateLimitFailsOpen(t *testing.T) {
	h := newHarness(t)
	h.d.counter = &fakeCounter{err: errors.New("redis down")}
	h.d.opts.RateLimit = 1

	h.command("start")
	h.command("start")
	assert.Equal(t, textWelcome, h.tr.lastSend().Text)
}

func TestHandle_PanicResetsSession(t *testing.T) {
	h := newHarness(t)
	h.client.GetProjectNameFunc = func(context.Context, int64) (string, error) {
		panic("boom")
	}

	h.text("add project")
	require.Equal(t, conversation.AddingProject{}, h.state(t))

	assert.NotPanics(t, func() { h.text("55") })
	assert.Equal(t, conversation.Idle{}, h.state(t))
	last := h.tr.lastSend()
	assert.Equal(t, textInternalError, last.Text)
	assert.Equal(t, []string{"run_test", "cancel"}, buttonData(last.Inline))
}

func TestHandle_SerializesSession(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.press("job:7:3")
		}()
	}
	wg.Wait()

	assert.IsType(t, &conversation.Collecting{}, h.state(t))
}

func TestHandle_SessionLocksReleasedWhenIdle(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			h.d.Handle(context.Background(), Event{
				ChatID: testChatID, UserID: user, Username: testUsername,
				MessageID: userMsgID, Text: "/start", Command: "start",
			})
		}(int64(1000 + i))
	}
	wg.Wait()
	h.command("start")

	assert.Zero(t, h.d.locks.len())
}

func TestSessionLocks_SameKeyExcludes(t *testing.T) {
	var l sessionLocks
	key := conversation.Key{ChatID: 1, UserID: 2}

	release := l.acquire(key)
	acquired := make(chan struct{})
	go func() {
		r := l.acquire(key)
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire succeeded while the lock was held")
	case <-time.After(20 * time.Millisecond):
	}
	other := l.acquire(conversation.Key{ChatID: 1, UserID: 3})
	other()

	release()
	<-acquired
	assert.Zero(t, l.len())
}
