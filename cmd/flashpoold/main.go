package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flashpool/config"
	"flashpool/core/events"
	"flashpool/crypto"
	"flashpool/native/bank"
	"flashpool/native/flashpool"
	"flashpool/observability/logging"
	"flashpool/rpc"
	"flashpool/rpc/modules"
)

const shutdownGrace = 10 * time.Second

// custodyAddress derives the fixed account that holds pooled funds at the
// bank ledger.
func custodyAddress() crypto.Address {
	seed := []byte("flashpool/custody")
	raw := make([]byte, 20)
	copy(raw, seed)
	return crypto.MustNewAddress(crypto.PoolPrefix, raw)
}

// slogEmitter forwards pool events, attributes included, to the structured
// logger.
type slogEmitter struct {
	logger *slog.Logger
}

func (e slogEmitter) Emit(event events.Event) {
	args := []any{"type", event.EventType()}
	if conv, ok := event.(events.Converter); ok {
		if payload := conv.Event(); payload != nil {
			for key, value := range payload.Attributes {
				args = append(args, key, value)
			}
		}
	}
	e.logger.Info("pool event", args...)
}

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "flashpool.toml", "path to pool configuration")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.Setup("flashpoold", os.Getenv("FLASHPOOL_ENV")).Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup("flashpoold", cfg.Environment(os.Getenv("FLASHPOOL_ENV")))

	store := bank.NewMemoryStore()
	ledger := bank.NewLedger(store)

	poolAddr := custodyAddress()
	if funding := cfg.InitialPoolFunding(); funding.Sign() > 0 {
		if err := ledger.Mint(poolAddr, funding); err != nil {
			logger.Error("fund custody account", "error", err)
			os.Exit(1)
		}
		logger.Info("custody account funded", "amount", funding.String())
	}

	engine := flashpool.NewEngine(poolAddr, flashpool.PoolConfig{
		Owner:               cfg.Owner(),
		FlashMintingEnabled: cfg.FlashMintingEnabled,
		MaxFlashLoanAmount:  cfg.MaxFlashLoan(),
	})
	engine.SetTransferrer(ledger)
	engine.SetEmitter(slogEmitter{logger: logger})
	if pauses := cfg.Pauses(); len(pauses) > 0 {
		engine.SetPauses(pauses)
		logger.Info("modules paused at startup", "modules", cfg.PausedModules)
	}

	tokens := make(map[string]crypto.Address, len(cfg.CallerTokens))
	for token, addr := range cfg.CallerTokens {
		decoded, err := crypto.DecodeAddress(addr)
		if err != nil {
			logger.Error("decode caller address", "address", addr, "error", err)
			os.Exit(1)
		}
		tokens[token] = decoded
	}

	pool := modules.NewFlashpoolModule(engine)
	server := rpc.NewServer(pool, tokens, cfg.RateLimitPerMinute, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("flashpool RPC listening", "address", cfg.ListenAddress)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("flashpoold stopped")
}
