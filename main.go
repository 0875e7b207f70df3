package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tinygames/internal/config"
	"tinygames/internal/game"
	"tinygames/internal/handlers"
	"tinygames/internal/logging"
	"tinygames/internal/storage"
	"tinygames/pkg/utils"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	addr := flag.String("addr", "", "listen address (overrides TINYGAMES_ADDR)")
	envFile := flag.String("config", "", "path to a .env file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		logging.Logger().Error("config", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	log := logging.Setup(os.Stderr, cfg.LogLevel, cfg.Debug || *debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []game.Option{
		game.WithDailyBudget(cfg.DailyBudgetSeconds),
		game.WithTickInterval(cfg.TickInterval),
		game.WithRetention(cfg.SessionRetention),
	}
	var (
		kv      game.StatsStore
		history *storage.Store
	)
	switch cfg.Store {
	case config.StoreRedis:
		r, err := storage.NewRedis(ctx, cfg.RedisURL, "tinygames:")
		if err != nil {
			log.Error("redis", "err", err)
			os.Exit(1)
		}
		defer r.Close()
		kv = r
	case config.StorePostgres:
		db, err := storage.New(cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres", "err", err)
			os.Exit(1)
		}
		history = storage.NewStore(db)
		kv = history
		opts = append(opts, game.WithRecorder(history))
	}

	// Initialize game hub
	hub := game.NewHub(kv, opts...)
	defer hub.Close()
	hub.OnSessionEnd(func(player string, id game.GameID, r game.Result) {
		log.Info("session ended", "player", player, "game", id, "time", utils.FormatClock(r.TimeUsedSeconds))
	})

	// Initialize HTTP handlers
	h := handlers.NewHandler(hub)
	h.Store = history
	h.Version = handlers.Version{Commit: commit, BuildDate: buildDate}

	mux := http.NewServeMux()
	h.Routes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlers.LogRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info("tinygames listening", "addr", cfg.Addr, "store", cfg.Store, "commit", commit)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("listen", "err", err)
	}
}
