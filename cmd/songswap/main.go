package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"

	"github.com/ewilliams-labs/songswap/internal/adapters/spotify"
	"github.com/ewilliams-labs/songswap/internal/adapters/sqlite"
	"github.com/ewilliams-labs/songswap/internal/catalog"
	"github.com/ewilliams-labs/songswap/internal/config"
	"github.com/ewilliams-labs/songswap/internal/core/domain"
	"github.com/ewilliams-labs/songswap/internal/core/services"
	"github.com/ewilliams-labs/songswap/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.toml", "path to the TOML config file")
	identity := flag.String("identity", "", "player identity (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Spotify.AccessToken == "" {
		return fmt.Errorf("spotify access token is required (set spotify.access_token)")
	}

	playerID := cfg.Game.Identity
	if *identity != "" {
		playerID = *identity
	}
	if playerID == "" {
		return fmt.Errorf("player identity is required (set game.identity or -identity)")
	}

	game, err := catalog.Load(cfg.Game.CatalogPath)
	if err != nil {
		return err
	}

	repo, err := sqlite.NewAdapter(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer repo.Close()

	catalogClient := spotify.NewClient(spotify.Config{
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Spotify.AccessToken}),
		BaseURL:     cfg.Spotify.BaseURL,
	})

	saver := worker.NewSaver(repo, 16, 5*time.Second, logger)
	saver.Start(1)
	defer saver.Stop()

	analyzer := worker.NewAnalyzer(16, logger)
	analyzer.Start(2)
	defer analyzer.Stop()

	session := services.NewSession(services.Config{
		Game:         game,
		Repo:         repo,
		Catalog:      catalogClient,
		Saver:        saver,
		Analyzer:     analyzer,
		Logger:       logger,
		TickInterval: cfg.Game.TickInterval.Std(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Login(ctx, playerID); err != nil {
		return err
	}

	encounters, err := session.GenerateEncounters(ctx, cfg.Game.MaxEncounters, domain.Bounds{
		MinX: 0, MinY: 0, MaxX: 1000, MaxY: 1000,
	})
	if err != nil {
		logger.Warn("encounter generation failed", "error", err)
	} else {
		for _, enc := range encounters {
			logger.Info("encounter",
				"track", enc.Track.Title,
				"artist", enc.Track.Artist,
				"rarity", enc.Rarity,
				"cost", enc.Cost)
		}
	}

	if summary, err := session.Summary(); err == nil {
		logger.Info("session ready",
			"identity", summary.Identity,
			"coins", summary.Coins,
			"gems", summary.Gems,
			"level", summary.Level,
			"collection", summary.CollectionSize)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	logoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := session.Logout(logoutCtx); err != nil {
		logger.Error("logout failed", "error", err)
	}

	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
