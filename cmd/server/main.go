package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hextactics/internal/config"
	"hextactics/internal/game"
	"hextactics/internal/journal"
	"hextactics/internal/level"
	"hextactics/internal/server"
)

func main() {
	cfgPath := flag.String("config", "", "config file path")
	flag.Parse()

	cfg, err := config.LoadServer(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	lvl, err := level.Load(cfg.LevelPath)
	if err != nil {
		log.Fatal("loading level failed", zap.Error(err))
	}
	log.Info("level loaded",
		zap.String("name", lvl.Name),
		zap.Int("spawnpoints", len(lvl.Spawnpoints)))

	var rec game.Recorder
	if cfg.JournalDir != "" {
		jw, err := journal.NewWriter(cfg.JournalDir)
		if err != nil {
			log.Fatal("opening journal failed", zap.Error(err))
		}
		defer jw.Close()
		log.Info("journaling match", zap.String("match_id", jw.MatchID()), zap.String("path", jw.Path()))
		rec = jw
	}

	srv := server.New(*cfg, log)
	srv.Attach(game.NewSession(game.Options{
		Logger:   log,
		Level:    lvl,
		Sender:   srv,
		Recorder: rec,
		Names:    cfg.NamePool,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.Handler())
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		log.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	runErr := srv.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpSrv.Shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatal("server stopped", zap.Error(runErr))
	}
	log.Info("server stopped")
}

func newLogger(levelStr string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
