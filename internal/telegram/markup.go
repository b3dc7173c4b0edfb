package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kiranshivaraju/testopsbot/internal/bot"
)

func messageConfig(msg bot.Message) tgbotapi.MessageConfig {
	cfg := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if msg.HTML {
		cfg.ParseMode = tgbotapi.ModeHTML
	}
	cfg.DisableWebPagePreview = msg.DisablePreview
	cfg.ReplyToMessageID = msg.ReplyTo

	switch {
	case msg.Reply != nil:
		cfg.ReplyMarkup = replyMarkup(msg.Reply)
	case len(msg.Inline) > 0:
		cfg.ReplyMarkup = inlineMarkup(msg.Inline)
	}
	return cfg
}

// editConfig drops any inline keyboard when msg carries none.
func editConfig(chatID int64, messageID int, msg bot.Message) tgbotapi.EditMessageTextConfig {
	cfg := tgbotapi.NewEditMessageText(chatID, messageID, msg.Text)
	if msg.HTML {
		cfg.ParseMode = tgbotapi.ModeHTML
	}
	cfg.DisableWebPagePreview = msg.DisablePreview
	if len(msg.Inline) > 0 {
		cfg.ReplyMarkup = inlineMarkup(msg.Inline)
	}
	return cfg
}

func inlineMarkup(kb bot.InlineKeyboard) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func replyMarkup(kb *bot.ReplyKeyboard) interface{} {
	if kb.Remove {
		return tgbotapi.NewRemoveKeyboard(false)
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, buttons)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.OneTimeKeyboard = kb.OneTime
	return markup
}
