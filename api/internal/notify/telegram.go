// Package notify posts run summaries to a Telegram chat.
package notify

import (
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"philalign/api/internal/apperr"
	"philalign/api/internal/compare"
	"philalign/api/internal/util"
)

// maxText keeps messages under Telegram's 4096 character limit.
const maxText = 3900

type Notifier struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
}

// New connects to the bot API. An empty endpoint uses tgbotapi.APIEndpoint
// and a nil client uses http.DefaultClient.
func New(token string, chatID int64, endpoint string, client *http.Client) (*Notifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &apperr.ConfigurationError{Provider: "telegram", Reason: "TELEGRAM_BOT_TOKEN not set"}
	}
	if chatID == 0 {
		return nil, &apperr.ConfigurationError{Provider: "telegram", Reason: "TELEGRAM_CHAT_ID not set"}
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false
	return &Notifier{Bot: bot, ChatID: chatID}, nil
}

func (n *Notifier) send(text string) error {
	_, err := n.Bot.Send(tgbotapi.NewMessage(n.ChatID, util.Truncate(text, maxText)))
	return err
}

// Send posts the run summary for rep, saved at path.
func (n *Notifier) Send(rep compare.Report, path string) error {
	return n.send(Summary(rep, path))
}

// Summary renders the succeeded/errored counts per group.
func Summary(rep compare.Report, path string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Comparison run %s finished\n", rep.RunID)
	if path != "" {
		fmt.Fprintf(&b, "Saved: %s\n", path)
	}
	ok, failed := 0, 0
	for _, g := range rep.Groups {
		fmt.Fprintf(&b, "\n%s / %s / %s: %d ok, %d errored", g.Provider, g.Model, g.ReasoningType, g.Succeeded, g.Errored)
		ok += g.Succeeded
		failed += g.Errored
	}
	for _, s := range rep.Skipped {
		fmt.Fprintf(&b, "\nskipped %s: %s", s.Model, s.Reason)
	}
	fmt.Fprintf(&b, "\n\nTotal: %d ok, %d errored", ok, failed)
	return b.String()
}
