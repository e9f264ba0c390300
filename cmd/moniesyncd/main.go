// Command moniesyncd is the local offline-sync daemon for Monie
// clients. It proxies mutations to the Monie API, queues them while
// offline, keeps optimistic placeholders for the UI, and drains the
// queue when connectivity returns.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moniehq/moniesync/internal/api"
	"github.com/moniehq/moniesync/internal/cache"
	"github.com/moniehq/moniesync/internal/config"
	"github.com/moniehq/moniesync/internal/logging"
	"github.com/moniehq/moniesync/internal/notify"
	"github.com/moniehq/moniesync/internal/optimistic"
	"github.com/moniehq/moniesync/internal/session"
	"github.com/moniehq/moniesync/internal/store"
	syncengine "github.com/moniehq/moniesync/internal/sync"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("failed to load configuration", err)
		os.Exit(1)
	}

	logging.Init(os.Stderr, logging.ParseLevel(cfg.LogLevel))

	if err := run(cfg); err != nil {
		logging.Error("daemon exited with error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer st.Close()

	queue, err := store.OpenQueue(st)
	if err != nil {
		return err
	}
	display, err := store.OpenDisplayCache(st)
	if err != nil {
		return err
	}
	sess, err := session.Open(cfg.DataDir)
	if err != nil {
		return err
	}

	queryCache := cache.New()
	applier := optimistic.NewApplier(queryCache, display)
	client := api.NewClient(cfg.APIBaseURL, sess, cfg.RequestTimeout)

	hub := NewWSHub()
	notifier := notify.Multi{notify.LogNotifier{}, hub}

	monitor := syncengine.NewMonitor(client, cfg.ProbeInterval)
	engine := syncengine.NewEngine(queue, client, applier, queryCache, monitor, notifier)
	monitor.SetEngine(engine)
	monitor.SetOnChange(hub.NetworkChanged)
	engine.SetObserver(hub)

	interceptor := api.NewInterceptor(client, queue, applier, monitor, sess, notifier)

	srv := newServer(engine, monitor, queue, display, sess, interceptor, hub)
	engine.SetContextSource(srv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor.Start(ctx)
	defer monitor.Stop()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("moniesyncd listening", map[string]interface{}{
			"addr":     cfg.ListenAddr,
			"api_base": cfg.APIBaseURL,
			"pending":  queue.Size(),
		})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
