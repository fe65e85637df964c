// Package main boots the vending machine control simulator.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fairyhunter13/vending-machine-simulator/internal/catalog"
	"github.com/fairyhunter13/vending-machine-simulator/internal/config"
	"github.com/fairyhunter13/vending-machine-simulator/internal/dispatch"
	"github.com/fairyhunter13/vending-machine-simulator/internal/effects"
	httpapi "github.com/fairyhunter13/vending-machine-simulator/internal/http"
	"github.com/fairyhunter13/vending-machine-simulator/internal/journal"
	"github.com/fairyhunter13/vending-machine-simulator/internal/machine"
	"github.com/fairyhunter13/vending-machine-simulator/internal/model"
	"github.com/fairyhunter13/vending-machine-simulator/internal/obs"
)

func main() {
	cfg := config.Load()
	obs.InitLogger()
	obs.Logger.Info("service_starting")

	cat := catalog.Seed()
	m := machine.New(cat.MachineInput())

	var jr journal.Journal = journal.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		k := journal.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() { _ = k.Close() }()
		jr = k
		obs.Logger.Info("journal_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	q := dispatch.NewQueue(128)
	runner := &effects.Runner{
		Gateway: &effects.SimulatedGateway{Latency: cfg.AuthLatency, DeclineRate: cfg.DeclineRate},
		Disp:    &effects.SimulatedDispenser{Latency: cfg.DispenseLatency},
		Refunds: &effects.SimulatedRefundUnit{Latency: cfg.RefundLatency},
		Timeout: cfg.EffectTimeout,
	}
	d := dispatch.New(cfg, q, m, runner, jr)
	runner.Deliver = func(ev model.Event) { _, _ = d.Enqueue(ev) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	app := httpapi.NewApp(cfg, cat, d)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	app.StartShutdown()
	obs.Logger.Info("shutdown_drain_begin", "backlog_size", d.BacklogSize())

	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelDrain()
	if drained := d.DrainUntil(ctxDrain); !drained {
		obs.Logger.Warn("shutdown_drain_timeout")
	} else {
		obs.Logger.Info("shutdown_drain_complete")
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	d.Stop()
	obs.Logger.Info("service_stopped")
}
