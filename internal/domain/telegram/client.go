package telegram

import "gopkg.in/telebot.v3"

// Client defines an interface for delivering messages via a Telegram bot.
// It decouples the check-in and task services from the bot library, which
// also makes the delivery path trivially fakeable in tests.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
