package command_handler

import (
	"github.com/waverify/waverify/bot"
	tb "gopkg.in/tucnak/telebot.v2"
)

func init() {
	bot.RegisterCommands("check", Check)
}

func Check(b *bot.Bot, m *tb.Message, params []string) {
	if !b.Sessions.Registry().IsReady(m.Chat.ID) {
		_, _ = b.Bot.Send(m.Chat,
			"Please log in first.\nUse /login and scan the QR code.",
			bot.LoginMenu())
		return
	}
	_, _ = b.Bot.Send(m.Chat,
		"Check numbers\n\n"+
			"Send one or more numbers, for example:\n"+
			"+8801712345678\n\n"+
			"Several numbers, one per line:\n"+
			"+8801712345678\n+8801812345679\n+8801912345680\n\n"+
			"Or upload a .txt file with numbers.")
}
