package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/kiranshivaraju/testopsbot/internal/monitor"
	"github.com/kiranshivaraju/testopsbot/pkg/models"
)

// Reporter delivers monitor outcomes to the chat that started the run.
type Reporter struct {
	transport Transport
	uiBase    string
}

func NewReporter(t Transport, uiBase string) *Reporter {
	return &Reporter{transport: t, uiBase: uiBase}
}

// ReportCompleted replies to the "starting" message with the run statistics
// and then offers the Menu button. The menu prompt is sent even if the
// report itself could not be delivered.
func (r *Reporter) ReportCompleted(ctx context.Context, d monitor.Descriptor, report models.RunReport) error {
	_, reportErr := r.transport.Send(ctx, Message{
		ChatID:         d.ChatID,
		Text:           completed(r.uiBase, report),
		HTML:           true,
		DisablePreview: true,
		ReplyTo:        d.CorrelationMessageID,
		Reply:          &ReplyKeyboard{Remove: true},
	})
	if reportErr != nil {
		reportErr = fmt.Errorf("send completion report for launch %d: %w", d.LaunchID, reportErr)
	}

	_, menuErr := r.transport.Send(ctx, Message{
		ChatID: d.ChatID,
		Text:   textContinueWithMenu,
		Reply:  MenuButton(),
	})
	if menuErr != nil {
		menuErr = fmt.Errorf("send menu prompt for launch %d: %w", d.LaunchID, menuErr)
	}
	return errors.Join(reportErr, menuErr)
}

// ReportTimeout tells the chat that the run was given up on.
func (r *Reporter) ReportTimeout(ctx context.Context, d monitor.Descriptor) error {
	if _, err := r.transport.Send(ctx, Message{
		ChatID: d.ChatID,
		Text:   textMonitorTimeout,
		Reply:  MenuButton(),
	}); err != nil {
		return fmt.Errorf("send timeout notice for launch %d: %w", d.LaunchID, err)
	}
	return nil
}

var _ monitor.Reporter = (*Reporter)(nil)
