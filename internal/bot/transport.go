package bot

import (
	"context"

	"github.com/kiranshivaraju/testopsbot/internal/conversation"
)

// Event is one inbound chat interaction: a text message or a button press.
type Event struct {
	ChatID   int64
	UserID   int64
	Username string

	// MessageID is the user's message for text events and the bot message
	// carrying the pressed button for callback events.
	MessageID int

	CallbackID   string
	CallbackData string

	Text    string
	Command string
	Args    []string
}

// IsCallback reports whether the event is a button press.
func (e Event) IsCallback() bool {
	return e.CallbackID != ""
}

// Key identifies the conversation the event belongs to.
func (e Event) Key() conversation.Key {
	return conversation.Key{ChatID: e.ChatID, UserID: e.UserID}
}

// Button is an inline button whose Data comes back as Event.CallbackData.
type Button struct {
	Text string
	Data string
}

// InlineKeyboard is a grid of inline buttons attached to one message.
type InlineKeyboard [][]Button

// ReplyKeyboard replaces the user's keyboard with fixed text buttons.
// Remove hides any reply keyboard instead.
type ReplyKeyboard struct {
	Rows    [][]string
	OneTime bool
	Remove  bool
}

// Message is an outbound message. At most one of Inline and Reply is set.
type Message struct {
	ChatID         int64
	Text           string
	HTML           bool
	DisablePreview bool
	ReplyTo        int
	Inline         InlineKeyboard
	Reply          *ReplyKeyboard
}

// Transport delivers messages to the chat service.
type Transport interface {
	// Send posts a new message and returns its id.
	Send(ctx context.Context, msg Message) (int, error)
	// Edit replaces the text and inline keyboard of an existing message.
	// Reply keyboards cannot be attached to an edited message.
	Edit(ctx context.Context, chatID int64, messageID int, msg Message) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	// Answer acknowledges a button press, optionally with a notice.
	Answer(ctx context.Context, callbackID, text string, alert bool) error
	// Typing shows a typing indicator in the chat.
	Typing(ctx context.Context, chatID int64) error
}
