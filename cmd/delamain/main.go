package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/delamain/internal/bot"
	"github.com/sglre6355/delamain/internal/logger"
	_ "github.com/sglre6355/delamain/internal/modules/music_player"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/delamain
var version = "dev"

var (
	app     = kingpin.New("delamain", "Discord music bot")
	verbose = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	app.Version(version)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to initialize logger")
	}
	defer closer.Close()

	zlog.Info().Str("version", version).Msg("starting delamain")

	cfg, err := bot.LoadConfig()
	if err != nil {
		zlog.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	b := bot.NewBot(cfg)
	if err := b.LoadModules(); err != nil {
		zlog.Error().Err(err).Msg("failed to load modules")
		os.Exit(1)
	}

	if err := b.Start(); err != nil {
		zlog.Error().Err(err).Msg("failed to start bot")
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zlog.Info().Msg("received termination signal, shutting down")
	if err := b.Stop(); err != nil {
		zlog.Error().Err(err).Msg("failed to shutdown")
	}

	zlog.Info().Msg("completed bot shutdown")
}
