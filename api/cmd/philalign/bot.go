package main

import (
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"philalign/api/internal/apperr"
	"philalign/api/internal/compare"
	"philalign/api/internal/telegram"
)

func newBotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Answer Telegram bot commands until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.TelegramBotToken == "" {
				return &apperr.ConfigurationError{Provider: "telegram", Reason: "TELEGRAM_BOT_TOKEN not set"}
			}
			bot, err := tgbotapi.NewBotAPI(a.cfg.TelegramBotToken)
			if err != nil {
				return err
			}
			a.log.Info("bot authorized", zap.String("username", bot.Self.UserName))
			r := &telegram.Router{
				Bot: bot,
				Orchestrator: &compare.Orchestrator{
					Clients:     a.clients(),
					Policy:      a.policy(),
					MaxTokens:   a.cfg.MaxTokens,
					Temperature: a.cfg.Temperature,
					System:      a.systemPrompts(),
					Log:         a.log,
				},
				Catalog: a.catalog(),
				Log:     a.log,
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return r.Run(ctx)
		},
	}
}
