package command_handler

import (
	"github.com/waverify/waverify/bot"
	"github.com/waverify/waverify/pkg/log"
	tb "gopkg.in/tucnak/telebot.v2"
)

func init() {
	bot.RegisterCommands("login", Login)
	bot.RegisterCommands("logout", Logout)
	bot.RegisterCommands("status", Status)
}

func Login(b *bot.Bot, m *tb.Message, params []string) {
	// Initialize blocks until the session settles, so run the attempt off
	// the poller goroutine. Precondition failures are reported inside.
	go func() {
		if err := b.Sessions.Login(m.Chat.ID, b.Notifier(m.Chat)); err != nil {
			log.Info("login of chat %v: %v", m.Chat.ID, err)
		}
	}()
}

func Logout(b *bot.Bot, m *tb.Message, params []string) {
	if err := b.Sessions.Logout(m.Chat.ID, b.Notifier(m.Chat)); err != nil {
		log.Info("logout of chat %v: %v", m.Chat.ID, err)
	}
}

func Status(b *bot.Bot, m *tb.Message, params []string) {
	b.Sessions.Status(m.Chat.ID, b.Notifier(m.Chat))
}
