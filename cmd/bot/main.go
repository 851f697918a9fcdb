package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"propbot/internal/broker/mt5bridge"
	"propbot/internal/config"
	"propbot/internal/engine"
	"propbot/internal/logger"
	"propbot/internal/store"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	log.Info("bot starting")

	client := mt5bridge.New(cfg.Bridge.BaseURL, cfg.Bridge.WSURL, cfg.Bridge.ApiKey, cfg.Bridge.Secret, cfg.Bridge.BotTag, log)
	st := store.New(cfg.Runtime.StateFile)

	eng, err := engine.New(cfg, client, client, client, st, log)
	if err != nil {
		log.WithError(err).Fatal("engine setup failed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := eng.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("engine stopped with error")
		}
	}()

	<-sigCh
	cancel()
	<-done

	status := eng.Status()
	log.WithFields(map[string]interface{}{
		"phase":           status.Phase,
		"equity":          status.Equity,
		"profit_pct":      status.ProfitPercent,
		"trading_days":    status.TradingDays,
		"profitable_days": status.ProfitableDays,
		"total_trades":    status.TotalTrades,
	}).Info("bot stopped")
}
