package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/gophauth/internal/buildinfo"
	"github.com/dmitrijs2005/gophauth/internal/client/client"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/gophauth/internal/client/web"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stderr, cfg.LogLevel)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "web server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	api, err := client.NewHTTPClient(cfg.APIBaseURL, cfg.RequestTimeout)
	if err != nil {
		return err
	}

	var kv sessions.KV
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		kv = sessions.NewRedisKV(rdb, "gophauth:")
		logger.Info(ctx, "sessions stored in redis", "addr", cfg.RedisAddr)
	} else {
		kv = sessions.NewMemoryKV()
		logger.Warn(ctx, "no redis address configured, sessions are kept in memory")
	}

	srv, err := web.New(web.Options{
		Client:         api,
		KV:             kv,
		Logger:         logger,
		RememberTTL:    cfg.RememberTTL,
		CookieSecure:   cfg.CookieSecure,
		CaptchaSiteKey: cfg.CaptchaSiteKey,
		ChallengeKey:   common.GenerateRandByteArray(32),
	})
	if err != nil {
		return err
	}
	return srv.Listen(ctx, cfg.WebAddr)
}
