package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/network/netpoll"
	"github.com/spf13/cobra"

	"github.com/astrolab/voquery/internal/config"
	"github.com/astrolab/voquery/internal/sim"
	"github.com/astrolab/voquery/pkg/logger"
)

var (
	cfgFile string
	version = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:   "tapsim",
	Short: "Local TAP service simulator",
	Long: `tapsim serves a small TAP surface (sync queries, async UWS jobs,
product downloads) backed by a canned catalog. Point voq at it with
--server for local development, or use it from integration tests.`,
	Version: version,
	Run:     runServer,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runServer(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	slog.Info("tapsim starting",
		"version", version,
		"addr", cfg.Addr(),
		"job_latency", cfg.Sim.JobLatency.String(),
	)

	// route Hertz framework logs through slog
	hlog.SetLogger(logger.NewHlogAdapter(slog.Default()))

	dataset := sim.NewDataset(cfg.Sim.RowLimit)
	store := sim.NewJobStore(cfg.Sim.JobLatency, dataset.Execute)
	handler := sim.NewHandler(store, dataset)

	h := server.New(
		server.WithHostPorts(cfg.Addr()),
		server.WithTransport(netpoll.NewTransporter),
		server.WithReadTimeout(cfg.Server.ReadTimeout),
		server.WithWriteTimeout(cfg.Server.WriteTimeout),
	)
	sim.SetupRoutes(h, handler)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Shutdown(ctx); err != nil {
			slog.Error("shutdown failed", "error", err)
		}
	}()

	h.Spin()
}
