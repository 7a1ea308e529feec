package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tuannm99/memsql/internal"
	"github.com/tuannm99/memsql/server/sqlwire"
)

func main() {
	cfgPath := flag.String("config", "", "config file (yaml)")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	shared := flag.Bool("shared", false, "share one store between all connections")
	flag.Parse()

	cfg, err := internal.LoadConfig(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *shared {
		cfg.Server.SharedStore = true
	}

	logger := internal.NewLogger(cfg, os.Stderr)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = sqlwire.Run(ctx, sqlwire.ServerConfig{
		Addr:          cfg.Server.Addr,
		SharedStore:   cfg.Server.SharedStore,
		StmtCacheSize: cfg.Executor.StmtCacheSize,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}
