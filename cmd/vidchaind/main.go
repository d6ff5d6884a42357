package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vidchain/config"
	"vidchain/core"
	"vidchain/native/access"
	"vidchain/observability/logging"
	"vidchain/rpc"
	"vidchain/storage"
)

const (
	rpcTokenEnv = "VIDCHAIN_RPC_TOKEN"
	envEnv      = "VIDCHAIN_ENV"
)

func main() {
	configFile := flag.String("config", "./vidchain.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	env := strings.TrimSpace(os.Getenv(envEnv))
	if env == "" {
		env = cfg.Environment
	}
	logger := logging.Setup("vidchaind", env, logging.Options{File: cfg.LogFile})

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	node := core.NewNode(db)
	if err := seedGenesis(node, cfg); err != nil {
		logger.Error("Failed to seed genesis state", slog.Any("error", err))
		os.Exit(1)
	}

	authToken := strings.TrimSpace(os.Getenv(rpcTokenEnv))
	if authToken == "" {
		authToken = cfg.RPCAuthToken
	}
	if authToken == "" {
		logger.Warn("RPC auth token not configured; mutating methods disabled")
	}
	server := rpc.NewServer(node, authToken)

	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("JSON-RPC server listening", slog.String("addr", cfg.RPCAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("RPC server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Metrics server listening", slog.String("addr", cfg.MetricsAddress))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("RPC shutdown failed", slog.Any("error", err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics shutdown failed", slog.Any("error", err))
	}
}

// seedGenesis installs the configured role grants and ledger parameters.
// Seeding is idempotent, so reboots with the same config are safe.
func seedGenesis(node *core.Node, cfg *config.Config) error {
	var admin *[20]byte
	for _, grant := range cfg.Roles {
		addr, err := config.ParseAddress(grant.Address)
		if err != nil {
			return err
		}
		role := access.Role(grant.Role)
		if err := node.SeedRole(role, addr); err != nil {
			return fmt.Errorf("seed role %s: %w", grant.Role, err)
		}
		if role == access.RoleAdmin && admin == nil {
			addrCopy := addr
			admin = &addrCopy
		}
	}
	if admin == nil {
		return nil
	}
	if cfg.RewardRateBps > 0 {
		if err := node.SetRewardRate(*admin, cfg.RewardRateBps); err != nil {
			return fmt.Errorf("seed reward rate: %w", err)
		}
	}
	if strings.TrimSpace(cfg.FeeRecipient) != "" {
		recipient, err := config.ParseAddress(cfg.FeeRecipient)
		if err != nil {
			return err
		}
		if err := node.SetFeeRecipient(*admin, recipient); err != nil {
			return fmt.Errorf("seed fee recipient: %w", err)
		}
	}
	if cfg.MarketFeeBps > 0 {
		if err := node.SetMarketFee(*admin, cfg.MarketFeeBps); err != nil {
			return fmt.Errorf("seed market fee: %w", err)
		}
	}
	return nil
}
