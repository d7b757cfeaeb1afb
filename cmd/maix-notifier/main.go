package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/maix-platform/maix/pkg/config"
	"github.com/maix-platform/maix/pkg/logx"
)

func main() {
	// 1. Initialize Logger
	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))

	logx.Info("🚀 Starting MAIX notification worker...")

	// 2. Load Configuration
	cfg := config.Load()
	logx.Infof("📋 Environment: %s", cfg.App.Env)

	// 3. Initialize Dependency Container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 4. Start Background Services with Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container.StartBackgroundServices(ctx)

	<-ctx.Done()
	logx.Info("🛑 Received shutdown signal")

	stats := container.Queue.Stats()
	if stats.Pending > 0 || stats.Processing > 0 {
		logx.Warnf("Shutting down with %d pending and %d in-flight jobs",
			stats.Pending, stats.Processing)
	}

	logx.Info("✅ Worker exited successfully")
}
