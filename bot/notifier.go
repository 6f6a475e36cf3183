package bot

import (
	"path/filepath"

	"github.com/waverify/waverify/pkg/log"
	"github.com/waverify/waverify/service"
	tb "gopkg.in/tucnak/telebot.v2"
)

// chatNotifier delivers session-lifecycle notices to one chat. Text sends
// are best-effort: a lost notice never aborts the lifecycle it reports on.
type chatNotifier struct {
	b    *Bot
	chat *tb.Chat
}

func (b *Bot) Notifier(chat *tb.Chat) service.Notifier {
	return &chatNotifier{b: b, chat: chat}
}

func (n *chatNotifier) send(what interface{}, options ...interface{}) error {
	_, err := n.b.Bot.Send(n.chat, what, options...)
	if err != nil {
		log.Info("send to chat %v: %v", n.chat.ID, err)
	}
	return err
}

func (n *chatNotifier) Notify(text string) {
	_ = n.send(text)
}

func (n *chatNotifier) NotifyLoginMenu(text string) {
	_ = n.send(text, LoginMenu())
}

func (n *chatNotifier) NotifyReadyMenu(text string) {
	_ = n.send(text, ReadyMenu())
}

func (n *chatNotifier) NotifyPhoto(path string, caption string) error {
	return n.send(&tb.Photo{File: tb.FromDisk(path), Caption: caption})
}

func (n *chatNotifier) NotifyDocument(path string, caption string) error {
	return n.send(&tb.Document{
		File:     tb.FromDisk(path),
		FileName: filepath.Base(path),
		Caption:  caption,
	})
}
