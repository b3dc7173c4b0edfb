package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/kiranshivaraju/testopsbot/internal/monitor"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_ReportCompleted(t *testing.T) {
	tr := newFakeTransport()
	r := NewReporter(tr, testUIBase)
	d := monitor.Descriptor{LaunchID: 42, ChatID: testChatID, CorrelationMessageID: 77}

	err := r.ReportCompleted(context.Background(), d, models.RunReport{LaunchID: 42, Passed: 8, Failed: 2, Total: 10})
	require.NoError(t, err)

	require.Len(t, tr.sends, 2)
	report := tr.sends[0]
	assert.Equal(t, testChatID, report.ChatID)
	assert.Equal(t, 77, report.ReplyTo)
	assert.True(t, report.HTML)
	assert.True(t, report.DisablePreview)
	assert.Contains(t, report.Text, "Total tests: <b>10</b>")
	assert.Contains(t, report.Text, "Passed: <b>8</b>")
	assert.Contains(t, report.Text, "Failed: <b>2</b>")
	assert.Contains(t, report.Text, "Skipped: <b>0</b>")
	assert.Contains(t, report.Text, testUIBase+"/launch/42")

	menu := tr.sends[1]
	assert.Equal(t, textContinueWithMenu, menu.Text)
	assert.Equal(t, MenuButton(), menu.Reply)
}

func TestReporter_ReportCompletedStillOffersMenuOnFailure(t *testing.T) {
	tr := newFakeTransport()
	tr.sendErr = errors.New("chat not found")
	r := NewReporter(tr, testUIBase)

	err := r.ReportCompleted(context.Background(), monitor.Descriptor{LaunchID: 42, ChatID: 1}, models.RunReport{LaunchID: 42})
	assert.Error(t, err)
	assert.Len(t, tr.sends, 2)
}

func TestReporter_ReportTimeout(t *testing.T) {
	tr := newFakeTransport()
	r := NewReporter(tr, testUIBase)

	require.NoError(t, r.ReportTimeout(context.Background(), monitor.Descriptor{LaunchID: 42, ChatID: testChatID}))
	require.Len(t, tr.sends, 1)
	assert.Equal(t, textMonitorTimeout, tr.sends[0].Text)
	assert.Equal(t, MenuButton(), tr.sends[0].Reply)
}

func TestRunLink(t *testing.T) {
	assert.Equal(t, "https://testops.example.com/launch/42", RunLink(testUIBase, 42))
}

func TestConfirmation_EscapesHTML(t *testing.T) {
	msg := confirmation(models.PendingLaunch{
		LaunchName:    "Nightly",
		DisplayParams: []models.DisplayParam{{Name: "query", Value: "<a&b>"}},
	})
	assert.Contains(t, msg.Text, "&lt;a&amp;b&gt;")
	assert.NotContains(t, msg.Text, "<a&b>")
}

func TestConfirmation_NoParameters(t *testing.T) {
	msg := confirmation(models.PendingLaunch{LaunchName: "Nightly", DisplayParams: []models.DisplayParam{}})
	assert.Contains(t, msg.Text, textNoParamsSelected)
}
