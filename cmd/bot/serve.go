package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/adapter/httpapi"
	telegramAdapter "github.com/bashoori/digitalmarketingacademy-bot/internal/adapter/telegram"
	"github.com/bashoori/digitalmarketingacademy-bot/internal/config"
	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
	"github.com/bashoori/digitalmarketingacademy-bot/internal/infra/jsonfile"
	"github.com/bashoori/digitalmarketingacademy-bot/internal/infra/memory"
	"github.com/bashoori/digitalmarketingacademy-bot/internal/infra/redisstore"
	"github.com/bashoori/digitalmarketingacademy-bot/internal/infra/sheets"
	sqliteRepo "github.com/bashoori/digitalmarketingacademy-bot/internal/infra/sqlite"
	"github.com/bashoori/digitalmarketingacademy-bot/internal/metrics"
	"github.com/bashoori/digitalmarketingacademy-bot/internal/usecase"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot with its HTTP surface",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	bot.Debug = false
	logger.Info("authorized", "username", bot.Self.UserName)

	leadRepo, err := buildLeadRepo(cfg)
	if err != nil {
		return fmt.Errorf("lead store init: %w", err)
	}

	var sessions usecase.SessionStore
	switch cfg.SessionsBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		sessions = redisstore.NewSessionStore(client, cfg.SessionIdleTimeout)
	default:
		sessions = memory.NewSessionStore(cfg.SessionIdleTimeout)
	}

	m := metrics.New()

	var funnelRepo usecase.FunnelRepository
	if cfg.LeadsBackend == "sqlite" {
		fr, err := sqliteRepo.NewFunnelRepo(cfg.LeadsSQLiteDSN)
		if err != nil {
			return fmt.Errorf("funnel store init: %w", err)
		}
		funnelRepo = fr
	} else {
		funnelRepo = memory.NewFunnelRepo()
	}
	funnel := usecase.NewFunnelUsecase(funnelRepo)

	dialog := usecase.NewDialog(sessions, leadRepo, logger)
	dialog.SetMetrics(m)
	dialog.SetFunnel(funnel)
	if cfg.SheetWebAppURL != "" {
		dialog.SetLeadDelivery(sheets.NewClient(cfg.SheetWebAppURL))
	} else {
		logger.Warn("SHEET_WEBAPP_URL not set, leads stay local")
	}

	menu := usecase.NewMenu(leadRepo, cfg.SupportUsername, cfg.BookingURL, logger)
	menu.SetFunnel(funnel)

	var userRepo domain.UserRepository
	if cfg.LeadsBackend == "sqlite" {
		ur, err := sqliteRepo.NewUserRepo(cfg.LeadsSQLiteDSN)
		if err != nil {
			return fmt.Errorf("user store init: %w", err)
		}
		userRepo = ur
	} else {
		userRepo = memory.NewUserRepo()
	}

	sender := telegramAdapter.NewSender(bot)
	var statRepo usecase.BroadcastStatRepository
	if cfg.LeadsBackend == "sqlite" {
		sr, err := sqliteRepo.NewBroadcastStatRepo(cfg.LeadsSQLiteDSN)
		if err != nil {
			return fmt.Errorf("broadcast stat store init: %w", err)
		}
		statRepo = sr
	} else {
		statRepo = memory.NewBroadcastStatRepo()
	}
	broadcastUC := usecase.NewBroadcastUsecase(userRepo, sender, statRepo)

	handler := telegramAdapter.NewHandler(bot, dialog, menu, userRepo, broadcastUC, cfg.AdminChatIDs, logger)
	handler.SetFunnel(funnel)
	handler.SetMetrics(m)

	router := httpapi.NewRouter(cfg.WebhookPath(), handler, logger)
	srv := httpapi.NewServer(fmt.Sprintf(":%d", cfg.Port), router)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", "addr", srv.Addr, "mode", cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if cfg.Mode == "webhook" {
		wh, err := tgbotapi.NewWebhook(cfg.WebhookURL())
		if err != nil {
			return fmt.Errorf("webhook config: %w", err)
		}
		if _, err := bot.Request(wh); err != nil {
			logger.Warn("webhook setup failed", "error", err)
		} else {
			logger.Info("webhook set", "url", cfg.WebhookURL())
		}
	} else {
		// getUpdates is blocked while a webhook is registered
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			logger.Warn("webhook delete failed", "error", err)
		}
		g.Go(func() error {
			handler.Run(ctx)
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func buildLeadRepo(cfg *config.Config) (domain.LeadRepository, error) {
	switch cfg.LeadsBackend {
	case "sqlite":
		return sqliteRepo.NewLeadRepo(cfg.LeadsSQLiteDSN)
	case "memory":
		return memory.NewLeadRepo(), nil
	default:
		return jsonfile.NewLeadRepo(cfg.LeadsFile), nil
	}
}
