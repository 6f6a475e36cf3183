package bot

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/waverify/waverify/common"
	"github.com/waverify/waverify/model"
	"github.com/waverify/waverify/pkg/log"
	"github.com/waverify/waverify/pkg/phonenum"
	tb "gopkg.in/tucnak/telebot.v2"
)

// HandleFreeform interprets plain text as one or more phone numbers once the
// sender's session is ready.
func (b *Bot) HandleFreeform(m *tb.Message) {
	if !b.Sessions.Registry().IsReady(m.Chat.ID) {
		return
	}
	numbers := phonenum.Extract(m.Text)
	switch {
	case len(numbers) == 0:
		b.reply(m, "No valid phone numbers found. Send numbers like +8801712345678, one per line.")
	case len(numbers) == 1:
		b.checkOne(m, numbers[0])
	default:
		status, err := b.Bot.Send(m.Chat, fmt.Sprintf("Starting bulk verification...\nLoaded %v numbers", len(numbers)))
		if err != nil {
			log.Info("send status to chat %v: %v", m.Chat.ID, err)
		}
		b.runBulk(m, numbers, status)
	}
}

// HandleDocument interprets an uploaded plain-text file as a newline
// delimited number list.
func (b *Bot) HandleDocument(m *tb.Message) {
	if !b.Sessions.Registry().IsReady(m.Chat.ID) {
		b.reply(m, "Please log in first. Use /login and scan the QR code.")
		return
	}
	doc := m.Document
	if doc == nil {
		return
	}
	if !strings.HasSuffix(doc.FileName, ".txt") && doc.MIME != "text/plain" {
		b.reply(m, "Only .txt files are supported. Please send a plain text file.")
		return
	}
	status, err := b.Bot.Send(m.Chat, "Processing the file...")
	if err != nil {
		log.Info("send status to chat %v: %v", m.Chat.ID, err)
	}
	content, err := b.fetchDocument(&doc.File)
	if err != nil {
		log.Warn("fetch document from chat %v: %v", m.Chat.ID, err)
		b.edit(status, m, "Could not process the file. Please try again.")
		return
	}
	numbers := phonenum.Extract(content)
	if len(numbers) == 0 {
		b.edit(status, m, "No valid phone numbers found in the file.")
		return
	}
	b.edit(status, m, fmt.Sprintf("Loaded %v numbers\nStarting verification...", len(numbers)))
	b.runBulk(m, numbers, status)
}

func (b *Bot) fetchDocument(file *tb.File) (string, error) {
	rc, err := b.Bot.GetFile(file)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	content, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (b *Bot) checkOne(m *tb.Message, number string) {
	b.reply(m, fmt.Sprintf("Checking %v, please wait...", number))
	outcome, err := b.Sessions.CheckOne(m.Chat.ID, number)
	if err != nil {
		b.reply(m, "Session expired. Use /login to log in again.")
		return
	}
	switch outcome.Status {
	case model.CheckRegistered:
		b.reply(m, fmt.Sprintf("Registered\n\nNumber: %v\nName: %v\nID: %v\n\nSend more numbers to keep checking.",
			outcome.Number, outcome.Name, outcome.Identifier))
	case model.CheckNotRegistered:
		b.reply(m, fmt.Sprintf("Not registered\n\nNumber: %v\n\nMake sure the number is correct.", outcome.Number))
	default:
		b.reply(m, fmt.Sprintf("Could not check %v.\nThe number may be malformed or the platform did not answer. Please try again.", outcome.Number))
	}
}

// runBulk drives one verification job, streaming progress by editing status
// and delivering chunked result lists plus the archival report document.
func (b *Bot) runBulk(m *tb.Message, numbers []string, status *tb.Message) {
	sink := func(processed, total int, current string) {
		b.edit(status, m, fmt.Sprintf("Verification progress...\n\nProcessed: %v/%v\nChecking: %v", processed, total, current))
	}
	report, err := b.Sessions.RunBulk(m.Chat.ID, numbers, sink)
	if report == nil {
		if err != nil {
			b.edit(status, m, "Session expired. Use /login to log in again.")
		}
		return
	}
	summary := fmt.Sprintf("Verification complete\n\nTotal Processed: %v\nRegistered: %v\nNot Registered: %v\nErrors: %v\n\nSuccess Rate: %.1f%%",
		report.Total, len(report.Registered), len(report.Unregistered), len(report.Errored), report.SuccessRate())
	if report.Partial {
		summary += "\n\nThe session was lost mid-job; results below are partial."
	}
	b.edit(status, m, summary)

	b.sendList(m, "Registered numbers:", report.Registered)
	b.sendList(m, "Not registered numbers:", report.Unregistered)
	b.sendList(m, "Numbers with errors:", report.Errored)

	b.sendReport(m, report)
}

func (b *Bot) sendList(m *tb.Message, header string, numbers []string) {
	if len(numbers) == 0 {
		return
	}
	text := header + "\n\n" + strings.Join(numbers, "\n")
	for _, chunk := range common.SplitMessage(text, b.ChunkSize) {
		b.reply(m, chunk)
	}
}

// sendReport writes the plain-text rendering to a transient file, delivers
// it as a document and removes the file again.
func (b *Bot) sendReport(m *tb.Message, report *model.VerificationReport) {
	path := filepath.Join(b.ArtifactDir, fmt.Sprintf("report-%v-%v.txt", m.Chat.ID, time.Now().UnixMilli()))
	if err := os.WriteFile(path, []byte(report.RenderText()), 0600); err != nil {
		log.Warn("write report %v: %v", path, err)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Warn("remove report %v: %v", path, err)
		}
	}()
	if err := b.Notifier(m.Chat).NotifyDocument(path, "Full verification report"); err != nil {
		log.Warn("deliver report to chat %v: %v", m.Chat.ID, err)
	}
}

// reply and edit are best-effort; progress and result delivery never abort a job.
func (b *Bot) reply(m *tb.Message, text string) {
	if _, err := b.Bot.Send(m.Chat, text); err != nil {
		log.Info("send to chat %v: %v", m.Chat.ID, err)
	}
}

func (b *Bot) edit(status *tb.Message, m *tb.Message, text string) {
	if status == nil {
		b.reply(m, text)
		return
	}
	if _, err := b.Bot.Edit(status, text); err != nil {
		log.Debug("edit message %v of chat %v: %v", status.ID, m.Chat.ID, err)
	}
}
