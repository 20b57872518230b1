// Command drawbot watches a Telegram channel for draw announcements and
// records them.
//
// It long-polls the bot API and feeds every channel post (and direct message)
// through the draw announcement parser; messages without a recognizable
// announcement are skipped. Exit codes: 0 = clean shutdown, 1 = error.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lottobill/lottobill-backend/internal/adapter/postgres"
	drawrepo "github.com/lottobill/lottobill-backend/internal/adapter/postgres/draw"
	redisadapter "github.com/lottobill/lottobill-backend/internal/adapter/redis"
	"github.com/lottobill/lottobill-backend/internal/adapter/redis/drawcache"
	"github.com/lottobill/lottobill-backend/internal/app"
	"github.com/lottobill/lottobill-backend/internal/config"
	"github.com/lottobill/lottobill-backend/internal/domain"
	drawsvc "github.com/lottobill/lottobill-backend/internal/service/draw"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("drawbot failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := app.NewLogger(cfg.Log).With("service", "drawbot")

	if cfg.Telegram.BotToken == "" {
		return errors.New("telegram bot_token is required")
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	var cache *drawcache.Cache
	if cfg.Redis.Addr != "" {
		client, err := redisadapter.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = drawcache.New(client, cfg.Redis.DrawTTL)
	}

	var draws *drawsvc.Service
	if cache != nil {
		draws = drawsvc.NewService(logger, drawrepo.New(pool), cache)
	} else {
		draws = drawsvc.NewService(logger, drawrepo.New(pool), nil)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return err
	}
	logger.Info("bot authorized", slog.String("username", bot.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.PollTimeout
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			logger.Info("stopped")
			return nil
		case upd := <-updates:
			text := updateText(upd)
			if text == "" {
				continue
			}
			results, err := draws.RecordMessage(ctx, text)
			if err != nil {
				var ve *domain.ValidationError
				if errors.As(err, &ve) {
					// Ordinary chatter, not an announcement.
					continue
				}
				logger.ErrorContext(ctx, "record announcement failed",
					slog.String("error", err.Error()))
				continue
			}
			for _, d := range results {
				logger.InfoContext(ctx, "draw recorded",
					slog.String("region", d.Region),
					slog.String("period", d.Period),
					slog.String("special", d.Special()),
				)
			}
		}
	}
}

func updateText(upd tgbotapi.Update) string {
	if upd.ChannelPost != nil {
		return upd.ChannelPost.Text
	}
	if upd.Message != nil {
		return upd.Message.Text
	}
	return ""
}
