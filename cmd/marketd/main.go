package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"curio/config"
	"curio/core"
	"curio/core/types"
	"curio/native/assets"
	"curio/native/market"
	"curio/observability"
	"curio/observability/logging"
	"curio/rpc"
	"curio/state"
)

const sweepInterval = 30 * time.Second

func main() {
	configFile := flag.String("config", "./marketd.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("CURIO_ENV"))
	logger := logging.Setup("marketd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	manager := state.NewManager()
	if err := applyAlloc(manager, cfg.Alloc); err != nil {
		logger.Error("Failed to apply genesis allocation", slog.Any("error", err))
		os.Exit(1)
	}
	for _, symbol := range cfg.PayTokens {
		if _, err := manager.RegisterPayToken(symbol); err != nil {
			logger.Error("Failed to register pay token", slog.String("symbol", symbol), slog.Any("error", err))
			os.Exit(1)
		}
	}

	emitter := observability.NewInstrumentedEmitter(logger)

	adapter := assets.NewAdapter()
	adapter.SetState(manager)
	adapter.SetEmitter(emitter)

	engine := market.NewEngine()
	engine.SetState(manager)
	engine.SetAssets(adapter)
	engine.SetEmitter(emitter)
	engine.SetPauses(manager)
	engine.SetDefaultFeeBps(cfg.DefaultFeeBps)
	engine.SetDefaultRoyaltyBps(cfg.DefaultRoyaltyBps)
	if recipient := config.Address(cfg.DevFeeRecipient); recipient != ([20]byte{}) {
		engine.SetDevRecipient(recipient)
	}
	if treasury := config.Address(cfg.FeeTreasury); treasury != ([20]byte{}) {
		engine.SetFeeTreasury(treasury)
	}

	node := core.NewNode(manager, engine, adapter)

	operator := config.Address(cfg.Operator)
	if operator != ([20]byte{}) {
		engine.SetOperator(operator)
		go runSweeper(node, operator, logger)
	} else {
		logger.Warn("No operator configured; expiry sweeping disabled")
	}

	server := rpc.NewServer(node)
	server.SetLogger(logger)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)
	router.Method(http.MethodPost, "/rpc", server)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	logger.Info("Starting marketd", slog.String("rpc", cfg.RPCAddress))
	if err := http.ListenAndServe(cfg.RPCAddress, router); err != nil {
		logger.Error("HTTP server terminated", slog.Any("error", err))
		os.Exit(1)
	}
}

func applyAlloc(manager *state.Manager, alloc map[string]string) error {
	for account, amount := range alloc {
		balance, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
		if !ok || balance.Sign() < 0 {
			return fmt.Errorf("invalid alloc amount %q for %s", amount, account)
		}
		addr := config.Address(account)
		if err := manager.PutAccount(addr[:], &types.Account{Balance: balance}); err != nil {
			return err
		}
	}
	return nil
}

// runSweeper periodically finalizes expired sales so auctions settle and
// stale reservations drain without manual intervention. It goes through the
// node so sweeping serializes with in-flight RPC requests.
func runSweeper(node *core.Node, operator [20]byte, logger *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		// ListExpired clamps the range to the ledger size.
		expired := node.MarketListExpired(0, ^uint64(0))
		if len(expired) == 0 {
			continue
		}
		if err := node.MarketSweep(expired, operator); err != nil {
			logger.Error("Sweep failed", slog.Any("error", err))
			continue
		}
		logger.Info("Swept expired sales", slog.Int("count", len(expired)))
	}
}
