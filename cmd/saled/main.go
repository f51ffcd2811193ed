package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"launchpad/config"
	"launchpad/core/events"
	"launchpad/core/state"
	"launchpad/native/sale"
	"launchpad/observability"
	"launchpad/observability/logging"
	"launchpad/rpc"
	"launchpad/storage"
)

const envVar = "LAUNCHPAD_ENV"

// timeEndCondition reports the sale as ended once the configured unix
// timestamp has passed. A zero timestamp means the sale never ends on its own.
type timeEndCondition struct {
	endTime int64
	now     func() time.Time
}

func (c timeEndCondition) SaleEnded() bool {
	if c.endTime == 0 {
		return false
	}
	return c.now().Unix() >= c.endTime
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))
	logger := logging.Setup("saled", env, "")

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	logger = logging.Setup("saled", env, cfg.LogLevel)

	dbPath := filepath.Join(cfg.DataDir, "state")
	db, err := storage.Open(cfg.StorageBackend, dbPath)
	if err != nil {
		logger.Error("open storage", "backend", cfg.StorageBackend, "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	admin := cfg.Admin()
	if err := manager.GrantRole(state.RoleSaleAdmin, admin[:]); err != nil {
		logger.Error("grant admin role", "error", err)
		os.Exit(1)
	}

	emitter := events.NewLogEmitter(logger)
	registry := sale.NewRegistry(manager)
	registry.SetEmitter(emitter)
	ledger := sale.NewLedger(manager)
	ledger.SetEmitter(emitter)
	engine := sale.NewEngine()
	engine.SetState(manager)
	engine.SetVault(cfg.Vault())
	engine.SetOwner(cfg.Owner())
	engine.SetEndCondition(timeEndCondition{endTime: cfg.SaleEndTime, now: time.Now})
	engine.SetMetrics(observability.Sale())
	engine.SetEmitter(emitter)
	if err := engine.SetRewardParams(cfg.RewardParams()); err != nil {
		logger.Error("configure reward params", "error", err)
		os.Exit(1)
	}
	if err := registry.SetRewardParams(cfg.RewardParams()); err != nil {
		logger.Error("configure reward params", "error", err)
		os.Exit(1)
	}

	server := rpc.NewServer(logger, registry, ledger, engine)
	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rpc listening", "address", cfg.RPCAddress)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
