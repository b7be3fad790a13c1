package main

import (
	"context"
	"imgopt/internal/adapters/file"
	"imgopt/internal/adapters/handler"
	"imgopt/internal/adapters/optimizer"
	"imgopt/internal/adapters/preview"
	"imgopt/internal/adapters/sender"
	"imgopt/internal/adapters/web"
	"imgopt/internal/core/domain"
	"imgopt/internal/core/domain/commands"
	"imgopt/internal/core/service"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.Info().Msg("starting imgopt...")

	setDefaults()
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	log.Info().Msg("reading config file...")
	err := viper.ReadInConfig()
	if err != nil {
		log.Warn().Err(err).Msg("could not read config file, using defaults")
	}

	var logLevel zerolog.Level

	switch viper.GetString("app.log_level") {
	case "info":
		logLevel = zerolog.InfoLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defaultQuality := domain.ClampQuality(viper.GetInt("optimizer.default_quality"))
	previews := preview.NewMemoryStore()
	opt := optimizer.NewHTTPOptimizer(viper.GetString("optimizer.endpoint"), viper.GetDuration("optimizer.timeout"))

	sessionTTL := viper.GetDuration("web.session_ttl")
	views := service.NewViewRegistry(opt, previews, defaultQuality, sessionTTL)

	maxUpload := viper.GetInt64("web.max_upload_mb") << 20
	webHandler := web.NewHandler(views, previews, sessionTTL, maxUpload)
	server := web.NewServer(viper.GetString("web.listen"),
		web.NewRouter(webHandler, viper.GetString("web.mode")))

	go func() {
		if err := server.Run(); err != nil {
			log.Error().Err(err).Msg("web server stopped")
			cancel()
		}
	}()

	if token := viper.GetString("telegram.bot_token"); token != "" {
		go startBot(ctx, token, file.NewDownloader(maxUpload), opt, previews, defaultQuality)
	} else {
		log.Info().Msg("no telegram token configured, bot disabled")
	}

	<-ctx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed shutting down web server")
	}
	views.Close()

	log.Info().Msg("bye")
}

func startBot(ctx context.Context, token string, downloader *file.Downloader, opt *optimizer.HTTPOptimizer,
	previews *preview.MemoryStore, defaultQuality int) {
	opts := []bot.Option{
		bot.WithDefaultHandler(noOpHandler),
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error().Err(err).Msg("failed initializing telegram bot")
		return
	}

	s := sender.NewTelegram(b)

	commandRegistry := &domain.CommandRegistry{}
	commandRegistry.Register(commands.NewOptimizeHandler(downloader, opt, previews, s, s, defaultQuality, "/optimize"))
	commandRegistry.Register(commands.NewStartHandler(commandRegistry, s, "/start"))

	commandHandler := handler.NewCommand(commandRegistry, viper.GetDuration("handler.timeout"))

	b.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	b.RegisterHandler(bot.HandlerTypePhotoCaption, "/", bot.MatchTypePrefix, commandHandler.Handle)

	log.Info().Msg("bot listening")
	b.Start(ctx)
}

func setDefaults() {
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("optimizer.endpoint", "http://localhost:3000/optimize")
	viper.SetDefault("optimizer.timeout", "0s")
	viper.SetDefault("optimizer.default_quality", domain.DefaultQuality)
	viper.SetDefault("web.listen", ":8080")
	viper.SetDefault("web.mode", "release")
	viper.SetDefault("web.session_ttl", "30m")
	viper.SetDefault("web.max_upload_mb", 32)
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("handler.timeout", "2m")
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
