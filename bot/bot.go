package bot

import (
	"strings"
	"time"

	"github.com/waverify/waverify/service"
	tb "gopkg.in/tucnak/telebot.v2"
)

const (
	BtnLogin  = "Log in"
	BtnStatus = "Status"
	BtnCheck  = "Check numbers"
	BtnLogout = "Log out"
	BtnHelp   = "Help"
)

type Bot struct {
	Bot       *tb.Bot
	Sessions  *service.Sessions
	ChunkSize int
	// ArtifactDir holds transient report files until they are delivered.
	ArtifactDir string
}

type CommandHandler func(b *Bot, m *tb.Message, params []string)

var GlobalCommandMapper = make(map[string]CommandHandler)

func RegisterCommands(command string, f CommandHandler) {
	GlobalCommandMapper[command] = f
}

// buttonCommands routes reply-keyboard button presses to their command
// handlers so buttons and slash commands share one implementation.
var buttonCommands = map[string]string{
	BtnLogin:  "login",
	BtnStatus: "status",
	BtnCheck:  "check",
	BtnLogout: "logout",
	BtnHelp:   "start",
}

func New(token string, sessions *service.Sessions, chunkSize int, artifactDir string, poller *tb.LongPoller) (*Bot, error) {
	if poller == nil {
		poller = &tb.LongPoller{Timeout: 15 * time.Second}
	}
	b, err := tb.NewBot(tb.Settings{
		Token:  token,
		Poller: poller,
	})
	if err != nil {
		return nil, err
	}
	bot := &Bot{
		Bot:         b,
		Sessions:    sessions,
		ChunkSize:   chunkSize,
		ArtifactDir: artifactDir,
	}
	b.Handle(tb.OnText, func(m *tb.Message) {
		if strings.HasPrefix(m.Text, "/") && len(m.Text) > 1 {
			fields := strings.Fields(strings.TrimPrefix(m.Text, "/"))
			if handler, ok := GlobalCommandMapper[fields[0]]; ok {
				handler(bot, m, fields[1:])
			}
			return
		}
		if command, ok := buttonCommands[m.Text]; ok {
			if handler, ok := GlobalCommandMapper[command]; ok {
				handler(bot, m, nil)
			}
			return
		}
		bot.HandleFreeform(m)
	})
	b.Handle(tb.OnDocument, func(m *tb.Message) {
		bot.HandleDocument(m)
	})
	b.Start()
	return bot, nil
}

func LoginMenu() *tb.ReplyMarkup {
	return &tb.ReplyMarkup{
		ReplyKeyboard: [][]tb.ReplyButton{
			{{Text: BtnLogin}},
			{{Text: BtnHelp}},
		},
		ResizeReplyKeyboard: true,
	}
}

func ReadyMenu() *tb.ReplyMarkup {
	return &tb.ReplyMarkup{
		ReplyKeyboard: [][]tb.ReplyButton{
			{{Text: BtnCheck}, {Text: BtnStatus}},
			{{Text: BtnLogout}, {Text: BtnHelp}},
		},
		ResizeReplyKeyboard: true,
	}
}

func StartMenu() *tb.ReplyMarkup {
	return &tb.ReplyMarkup{
		ReplyKeyboard: [][]tb.ReplyButton{
			{{Text: BtnLogin}, {Text: BtnStatus}},
			{{Text: BtnCheck}, {Text: BtnLogout}},
			{{Text: BtnHelp}},
		},
		ResizeReplyKeyboard: true,
	}
}
