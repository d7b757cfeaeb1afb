// cmd/maix-notifier/container.go
//
// Root composition root. Owns infrastructure (DB, Redis, email provider) and
// wires the notification modules together. This is the only place that knows
// about ALL modules.
package main

import (
	"context"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/maix-platform/maix/pkg/config"
	"github.com/maix-platform/maix/pkg/jobx"
	"github.com/maix-platform/maix/pkg/logx"
	"github.com/maix-platform/maix/pkg/notifx"
	"github.com/maix-platform/maix/pkg/notifx/notifxconsole"
	"github.com/maix-platform/maix/pkg/notifx/notifxpg"
	"github.com/maix-platform/maix/pkg/notifx/notifxses"
)

// Container holds shared infrastructure and composed module containers.
type Container struct {
	Config *config.Config

	// Infrastructure (shared across all modules)
	DB    *sqlx.DB
	Redis *redis.Client

	// Notification pipeline
	Email *notifx.Client
	Queue *jobx.Queue
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure — DB, Redis
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	logx.Info("✅ Infrastructure initialized")
}

// ---------------------------------------------------------------------------
// Module composition
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	c.Email = notifx.NewClient(c.newEmailProvider(), c.Config.Notify.FromAddress)
	logx.Infof("  ✅ Email client configured (provider: %s)", c.Config.Notify.EmailProvider)

	deliverer := c.newDeliverer()

	queue, err := jobx.NewQueue(deliverer, c.queueOptions()...)
	if err != nil {
		logx.Fatalf("Failed to create job queue: %v", err)
	}
	c.Queue = queue
	logx.Info("  ✅ Notification job queue configured")
}

func (c *Container) newEmailProvider() notifx.EmailSender {
	switch c.Config.Notify.EmailProvider {
	case "ses":
		awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(),
			awsConfig.WithRegion(c.Config.Notify.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		logx.Infof("  ✅ SES provider configured (region: %s)", c.Config.Notify.AWSRegion)
		return notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), c.Config.Notify.FromAddress)

	case "console":
		return notifxconsole.NewConsoleProvider()

	default:
		logx.Fatalf("Unknown NOTIFY_EMAIL_PROVIDER: %s (use 'console' or 'ses')", c.Config.Notify.EmailProvider)
		return nil
	}
}

func (c *Container) newDeliverer() *notifxpg.Deliverer {
	opts := []notifxpg.DelivererOption{
		notifxpg.WithUnreadCounter(notifxpg.NewRedisUnreadCounter(c.Redis)),
		notifxpg.WithSendTimeout(c.Config.Notify.SendTimeout),
	}
	if c.Config.Notify.EmailEnabled {
		opts = append(opts, notifxpg.WithEmailClient(c.Email))
	}
	return notifxpg.NewDeliverer(notifxpg.NewPGStore(c.DB), opts...)
}

func (c *Container) queueOptions() []jobx.QueueOption {
	opts := []jobx.QueueOption{
		jobx.WithTickInterval(c.Config.Jobs.TickInterval),
		jobx.WithMaxConcurrent(c.Config.Jobs.MaxConcurrent),
		jobx.WithRetryDelay(c.Config.Jobs.RetryDelay),
		jobx.WithDefaultMaxAttempts(c.Config.Jobs.DefaultMaxAttempts),
	}
	if c.Config.App.IsTest() {
		opts = append(opts, jobx.WithManualProcessing())
	}
	return opts
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) StartBackgroundServices(ctx context.Context) {
	if c.Config.App.IsTest() {
		logx.Info("⏸️ Test mode: background processing stays inert")
		return
	}

	logx.Info("🔄 Starting background services...")

	c.Queue.StartProcessing()
	logx.Infof("  ✅ Job processing started (tick: %s)", c.Config.Jobs.TickInterval)

	go c.runCleanupLoop(ctx)
	logx.Infof("  ✅ Job cleanup scheduled (every %s, age: %s)",
		c.Config.Jobs.CleanupInterval, c.Config.Jobs.CleanupAge)
}

func (c *Container) runCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(c.Config.Jobs.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := c.Queue.ClearCompleted(c.Config.Jobs.CleanupAge)
			if removed > 0 {
				logx.Infof("🧹 Cleaned up %d finished jobs", removed)
			}
		}
	}
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.Queue != nil {
		c.Queue.StopProcessing()
		logx.Info("  ✅ Job processing stopped")
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
