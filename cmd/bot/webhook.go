package main

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/config"
)

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook registration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set",
			Short: "Point the Telegram webhook at ROOT_URL",
			RunE: func(*cobra.Command, []string) error {
				return setWebhook()
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Delete the webhook and drop pending updates",
			RunE: func(*cobra.Command, []string) error {
				return resetWebhook()
			},
		},
	)
	return cmd
}

func setWebhook() error {
	cfg, bot, err := webhookBot()
	if err != nil {
		return err
	}
	wh, err := tgbotapi.NewWebhook(cfg.WebhookURL())
	if err != nil {
		return fmt.Errorf("webhook config: %w", err)
	}
	if _, err := bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	fmt.Println("webhook set to", cfg.WebhookURL())
	return nil
}

func resetWebhook() error {
	_, bot, err := webhookBot()
	if err != nil {
		return err
	}
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	fmt.Println("webhook deleted")
	return nil
}

func webhookBot() (*config.Config, *tgbotapi.BotAPI, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, nil, fmt.Errorf("create bot: %w", err)
	}
	return cfg, bot, nil
}
