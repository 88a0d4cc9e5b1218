package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/innolab/crmd/config"
	"github.com/innolab/crmd/internal/app"
	"github.com/innolab/crmd/internal/restapi"
	"github.com/innolab/crmd/internal/webserver"
)

var (
	configFile = flag.String("c", "/etc/crmd.yml", "config file")
	initDB     = flag.Bool("initdb", false, "drop and recreate all tables, then exit")
	showVer    = flag.Bool("v", false, "show version")
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("crmd %s (built %s)\n", version, buildTime)
		return
	}

	cfg := config.LoadConfig(*configFile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initDB {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	ws := webserver.Init(cfg, application.DB())
	restapi.Init()

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return ws.Listen()
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			zap.L().Info("shutdown signal received", zap.String("signal", sig.String()))
		case <-ctx.Done():
			return ctx.Err()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return ws.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		zap.L().Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}
