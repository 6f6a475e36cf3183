package command_handler

import (
	"github.com/waverify/waverify/bot"
	tb "gopkg.in/tucnak/telebot.v2"
)

func init() {
	bot.RegisterCommands("start", Start)
	bot.RegisterCommands("help", Start)
}

func Start(b *bot.Bot, m *tb.Message, params []string) {
	_, _ = b.Bot.Send(m.Chat,
		"Welcome to the number checker bot!\n\n"+
			"With this bot you can:\n"+
			"- Log in to the messaging platform by scanning a QR code\n"+
			"- Check whether any phone number is registered there\n"+
			"- Check many numbers at once, or upload a .txt file of numbers\n\n"+
			"Pick an option from the menu below.",
		bot.StartMenu())
}
