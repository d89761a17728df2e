package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/config"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/convert"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/handler"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/logging"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/metadata"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/pipeline"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/progress"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/storage"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/tools"
	"github.com/iamMichaelSmith/Youtube-MP3-Converter/internal/worker"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "conf", "c", "", "path to config.yaml")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, logCleanup, err := logging.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logCleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage backend for finished artifacts.
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	files, _ := store.(*storage.FilesystemAdapter)
	if files != nil {
		if err := files.Clean(); err != nil {
			log.Warn(ctx, "failed to clean downloads directory", "error", err)
		} else {
			log.Info(ctx, "cleaned downloads directory", "dir", files.Root())
		}
	}

	// Progress store: redis when configured, in-process map otherwise.
	var progressStore progress.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr,
			Username:     cfg.Redis.Username,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.Db,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			DialTimeout:  cfg.Redis.DialTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		defer client.Close()
		progressStore = progress.NewRedisStore(client, cfg.AppName)
		log.Info(ctx, "using redis progress store", "addr", cfg.Redis.Addr)
	} else {
		mem := progress.NewMemoryStore()
		defer mem.Close()
		progressStore = mem
	}

	// External tools: warm the cache at startup, non-fatal on failure.
	ensurer := tools.NewEnsurer(&tools.Config{
		Dir:         cfg.Tools.Dir,
		AutoInstall: cfg.Tools.AutoInstall,
	}, log)
	go ensurer.EnsureAll(ctx)

	resolver := metadata.NewResolver(cfg.Convert.MetadataTimeout, log)

	workDir := cfg.Convert.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	pipe := pipeline.New(&pipeline.Config{
		WorkDir:              workDir,
		DegradeToPlaceholder: cfg.Convert.DegradeToPlaceholder,
		SubstituteDuration:   cfg.Convert.SubstituteDuration,
		ResolveTimeout:       cfg.Convert.ResolveTimeout,
		FetchTimeout:         cfg.Convert.FetchTimeout,
		Retention:            cfg.Convert.Retention,
	}, progressStore, resolver, ensurer, store, log)

	pool := worker.NewPool(&worker.Config{
		MaxWorkers: cfg.Convert.MaxWorkers,
		QueueSize:  cfg.Convert.QueueSize,
		JobTimeout: cfg.Convert.JobTimeout,
	})
	pool.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		pool.Stop(stopCtx)
	}()

	svc := convert.NewService(progressStore, pool, pipe, resolver, store, log)

	gin.SetMode(cfg.RunMode)
	r := gin.Default()

	h := handler.New(svc, files, log)
	h.Register(r)

	// Browser UI and finished local artifacts.
	if _, err := os.Stat("./public"); err == nil {
		r.StaticFile("/", "./public/index.html")
		r.Static("/public", "./public")
	}
	if files != nil {
		r.Static("/downloads", files.Root())
	}

	go func() {
		if err := config.Watch(ctx, cfg, log, func(fresh *config.Config) {
			log.Reconfigure(fresh.Logger)
			log.Info(ctx, "logger settings reapplied, restart to apply server settings")
		}); err != nil {
			log.Warn(ctx, "config watch unavailable", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server running", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
